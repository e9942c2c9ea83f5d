package backgammon

import (
	"fmt"
	"slices"
	"strings"
)

// Step moves a single checker from a location by a number of pips.
type Step struct {
	From Location
	Pips uint8
}

func (st Step) String() string {
	return fmt.Sprintf("%s,%d", st.From, st.Pips)
}

func compareSteps(a, b Step) int {
	if a.From != b.From {
		return int(a.From) - int(b.From)
	}
	return int(a.Pips) - int(b.Pips)
}

// Move is either a dice roll played by the chance player or a sequence of up to four
// checker steps. A checker move without steps is a forced pass.
type Move struct {
	Roll  Roll
	steps [4]Step
	n     uint8
}

func RollMove(high, low uint8) Move {
	if low > high {
		high, low = low, high
	}
	return Move{Roll: Roll{High: high, Low: low}}
}

// CheckerMove builds the canonical move for a sequence of steps.
func CheckerMove(steps ...Step) Move {
	if len(steps) > 4 {
		panic("a checker move has at most four steps")
	}
	sorted := slices.Clone(steps)
	slices.SortFunc(sorted, compareSteps)
	m := Move{n: uint8(len(sorted))}
	copy(m.steps[:], sorted)
	return m
}

func (m Move) IsRoll() bool {
	return m.Roll != Roll{}
}

func (m Move) Steps() []Step {
	return m.steps[:m.n]
}

func (m Move) pips() int {
	total := 0
	for _, st := range m.Steps() {
		total += int(st.Pips)
	}
	return total
}

func (m Move) String() string {
	if m.IsRoll() {
		return fmt.Sprintf("roll %d-%d", m.Roll.High, m.Roll.Low)
	}
	if m.n == 0 {
		return "pass"
	}
	parts := make([]string, 0, m.n)
	for _, st := range m.Steps() {
		parts = append(parts, st.String())
	}
	return strings.Join(parts, " ")
}

func compareMoves(a, b Move) int {
	for i := 0; i < int(min(a.n, b.n)); i++ {
		if c := compareSteps(a.steps[i], b.steps[i]); c != 0 {
			return c
		}
	}
	return int(a.n) - int(b.n)
}

// rolls lists the 21 distinct rolls, highest die first.
func rolls() []Move {
	moves := make([]Move, 0, 21)
	for high := uint8(1); high <= 6; high++ {
		for low := uint8(1); low <= high; low++ {
			moves = append(moves, RollMove(high, low))
		}
	}
	return moves
}

// checkerMoves lists every canonical sequence that uses as many pips as possible.
// When no checker can move the only legal move is a pass.
func checkerMoves(s State) []Move {
	high, low := s.Dice.High, s.Dice.Low
	sequences := [][]Step{nil}
	if high == low {
		sequences = append(sequences, legalSequences(s, []uint8{high, high, high, high})...)
	} else {
		sequences = append(sequences, legalSequences(s, []uint8{high, low})...)
		sequences = append(sequences, legalSequences(s, []uint8{low, high})...)
	}

	best := 0
	moves := make([]Move, 0, len(sequences))
	for _, seq := range sequences {
		m := CheckerMove(seq...)
		switch p := m.pips(); {
		case p > best:
			best = p
			moves = append(moves[:0], m)
		case p == best:
			moves = append(moves, m)
		}
	}

	slices.SortFunc(moves, compareMoves)
	return slices.Compact(moves)
}

// legalSequences plays the dice from the last one backwards and returns every
// non-empty prefix of legal steps.
func legalSequences(s State, dice []uint8) [][]Step {
	if len(dice) == 0 {
		return nil
	}
	roll, rest := dice[len(dice)-1], dice[:len(dice)-1]

	var sequences [][]Step
	for l := Bar; l <= Points; l++ {
		if !s.has(l, s.White) {
			continue
		}
		st := Step{From: l, Pips: roll}
		if !legalStep(s, st) {
			continue
		}
		next := s
		next.step(st)
		for _, seq := range legalSequences(next, rest) {
			sequences = append(sequences, append(seq, st))
		}
		sequences = append(sequences, []Step{st})
	}
	return sequences
}

func legalStep(s State, st Step) bool {
	white := s.White
	if !s.has(st.From, white) {
		return false
	}
	// Checkers on the bar have to enter first
	if s.has(Bar, white) && st.From != Bar {
		return false
	}

	index := stepTarget(st, white)
	if white && index > Points || !white && index < 1 {
		return allHomeboard(s, white)
	}
	return s.count(Location(index), !white) <= 1
}
