// Package nim implements a race to a target total: players alternately add 1 to
// MaxTake to a shared counter and the player who brings it exactly to Target wins.
package nim

import (
	"fmt"

	"gametrees/game"
)

type Player int

const (
	First Player = iota
	Second
)

func (p Player) Other() Player {
	return 1 - p
}

func (p Player) String() string {
	if p == First {
		return "first"
	}
	return "second"
}

type Move int

type State struct {
	Total int
	Turn  Player
}

func (s State) String() string {
	return fmt.Sprintf("%d (%s to move)", s.Total, s.Turn)
}

// Nim holds the parameters of the game. The zero value is not playable, use Standard
// or New.
type Nim struct {
	Target  int
	MaxTake int
}

var _ game.Game[State, Move, Player] = Nim{}

// Standard is the classic race to 100 taking 1 to 10 per turn.
var Standard = Nim{Target: 100, MaxTake: 10}

func New(target, maxTake int) Nim {
	if target <= 0 || maxTake <= 0 {
		panic("nim target and max take must be positive")
	}
	return Nim{Target: target, MaxTake: maxTake}
}

func (n Nim) New() State {
	return State{Total: 0, Turn: First}
}

func (n Nim) Apply(s State, m Move) State {
	return State{Total: s.Total + int(m), Turn: s.Turn.Other()}
}

func (n Nim) LegalMoves(s State) []Move {
	upper := min(n.MaxTake, n.Target-s.Total)
	if upper < 1 {
		return nil
	}
	moves := make([]Move, 0, upper)
	for m := 1; m <= upper; m++ {
		moves = append(moves, Move(m))
	}
	return moves
}

func (n Nim) Players() []Player {
	return []Player{First, Second}
}

func (n Nim) CurrentPlayer(s State) Player {
	return s.Turn
}

// Scores rewards the player who just moved with 1 and the other with -1 when the
// total hits the target exactly. Overshooting is only possible by applying illegal
// moves and costs both players 5.
func (n Nim) Scores(s State) (game.Scoreboard[Player], bool) {
	if !n.Finished(s) {
		return nil, false
	}
	toMove, mover := s.Turn, s.Turn.Other()
	if s.Total == n.Target {
		return game.Scoreboard[Player]{toMove: -1, mover: 1}, true
	}
	return game.Scoreboard[Player]{toMove: -5, mover: -5}, true
}

func (n Nim) Finished(s State) bool {
	return s.Total >= n.Target
}

func (n Nim) Hash(s State) uint64 {
	return uint64(s.Total)<<1 | uint64(s.Turn)
}
