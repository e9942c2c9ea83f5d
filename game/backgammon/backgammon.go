// Package backgammon implements two-player backgammon where the dice are a chance
// pseudo-player: every turn starts with a roll move played by Dice, followed by the
// checker move of the side that rolled. Doubling cube and match play are not modeled.
package backgammon

import (
	"fmt"

	"github.com/zeebo/xxh3"

	"gametrees/game"
)

const (
	Checkers = 15
	Points   = 24
)

type Player int8

const (
	Dice Player = iota
	Black
	White
)

func (p Player) String() string {
	switch p {
	case Dice:
		return "dice"
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return fmt.Sprintf("player(%d)", int8(p))
	}
}

func sideOf(white bool) Player {
	if white {
		return White
	}
	return Black
}

// Location indexes the board: Bar is 0, points are 1 to 24 and Home is 25.
// White moves towards higher points and bears off past 24, black the opposite.
type Location uint8

const (
	Bar  Location = 0
	Home Location = Points + 1
)

func Point(n uint8) Location {
	if n < 1 || n > Points {
		panic(fmt.Sprintf("point %d out of range", n))
	}
	return Location(n)
}

func (l Location) String() string {
	switch l {
	case Bar:
		return "bar"
	case Home:
		return "home"
	default:
		return fmt.Sprintf("%d", uint8(l))
	}
}

// Count is the number of checkers each side has on a location. Only the bar and home
// can hold checkers of both sides.
type Count struct {
	White uint8
	Black uint8
}

type Roll struct {
	High uint8
	Low  uint8
}

type State struct {
	White   bool // side whose turn it is
	Rolling bool // the dice have yet to be rolled this turn
	Counts  [Points + 2]Count
	Dice    Roll
}

type Backgammon struct{}

var _ game.Game[State, Move, Player] = Backgammon{}

func (Backgammon) New() State {
	s := State{White: true, Rolling: true}
	s.Counts[1].White = 2
	s.Counts[12].White = 5
	s.Counts[17].White = 3
	s.Counts[19].White = 5
	s.Counts[6].Black = 5
	s.Counts[8].Black = 3
	s.Counts[13].Black = 5
	s.Counts[24].Black = 2
	return s
}

func (Backgammon) Apply(s State, m Move) State {
	if m.IsRoll() {
		s.Rolling = false
		s.Dice = m.Roll
		return s
	}
	for _, step := range m.Steps() {
		s.step(step)
	}
	s.Rolling = true
	s.White = !s.White
	return s
}

// step moves one checker of the side to move. Counts are unsigned and wrap, so a
// canonically ordered sequence that leaves a location before entering it still
// nets out once the whole sequence is applied.
func (s *State) step(st Step) {
	white := s.White
	s.add(st.From, white, -1)

	to, home := target(st, white)
	hit := !home && s.has(to, !white)
	s.add(to, white, 1)
	if hit {
		s.add(to, !white, -1)
		s.add(Bar, !white, 1)
	}
}

// target returns where a step lands and whether it bears the checker off.
func target(st Step, white bool) (Location, bool) {
	index := stepTarget(st, white)
	if white && index > Points || !white && index < 1 {
		return Home, true
	}
	return Location(index), false
}

func stepTarget(st Step, white bool) int {
	from := int(st.From)
	if white {
		return from + int(st.Pips)
	}
	if st.From == Bar {
		from = Points + 1
	}
	return from - int(st.Pips)
}

func (s *State) count(l Location, white bool) uint8 {
	if white {
		return s.Counts[l].White
	}
	return s.Counts[l].Black
}

func (s *State) add(l Location, white bool, delta int) {
	if white {
		s.Counts[l].White = uint8(int(s.Counts[l].White) + delta)
	} else {
		s.Counts[l].Black = uint8(int(s.Counts[l].Black) + delta)
	}
}

func (s *State) has(l Location, white bool) bool {
	return s.count(l, white) > 0
}

func (Backgammon) Players() []Player {
	return []Player{Dice, Black, White}
}

func (Backgammon) CurrentPlayer(s State) Player {
	if s.Rolling {
		return Dice
	}
	return sideOf(s.White)
}

func (Backgammon) LegalMoves(s State) []Move {
	if s.Rolling {
		return rolls()
	}
	return checkerMoves(s)
}

// Scores credits the side that just finished its turn. The stake is tripled when the
// loser has borne off nothing and still has checkers outside its home board, doubled
// when it has borne off nothing. The dice always score 0.
func (Backgammon) Scores(s State) (game.Scoreboard[Player], bool) {
	if !finished(s) {
		return nil, false
	}
	winner := !s.White
	loser := !winner
	stake := 1.0
	switch {
	case !allHomeboard(s, loser) && !s.has(Home, loser):
		stake = 3
	case allHomeboard(s, loser) && !s.has(Home, loser):
		stake = 2
	}
	return game.Scoreboard[Player]{
		sideOf(winner): stake,
		sideOf(loser):  -stake,
		Dice:           0,
	}, true
}

func (Backgammon) Finished(s State) bool {
	return finished(s)
}

func finished(s State) bool {
	return s.Counts[Home].White == Checkers || s.Counts[Home].Black == Checkers
}

func (Backgammon) Hash(s State) uint64 {
	var buf [2*len(s.Counts) + 4]byte
	for i, c := range s.Counts {
		buf[2*i] = c.White
		buf[2*i+1] = c.Black
	}
	n := 2 * len(s.Counts)
	if s.White {
		buf[n] = 1
	}
	if s.Rolling {
		buf[n+1] = 1
	}
	buf[n+2] = s.Dice.High
	buf[n+3] = s.Dice.Low
	return xxh3.Hash(buf[:])
}

// homeboard lists the six points closest to bearing off plus Home itself.
func homeboard(white bool) []Location {
	locations := make([]Location, 0, 7)
	for n := uint8(1); n <= 6; n++ {
		if white {
			locations = append(locations, Location(Points+1-n))
		} else {
			locations = append(locations, Location(n))
		}
	}
	return append(locations, Home)
}

func allHomeboard(s State, white bool) bool {
	total := 0
	for _, l := range homeboard(white) {
		total += int(s.count(l, white))
	}
	return total == Checkers
}
