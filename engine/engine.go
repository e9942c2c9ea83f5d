package engine

import (
	"context"
	"errors"

	"gametrees/experiments/metrics"
	"gametrees/game"
)

const MaxMoves = 10000

var (
	ErrGameOver    = errors.New("game is over")
	ErrIllegalMove = errors.New("illegal move")
)

// Result is the outcome of a game. Scores is nil when the game was stopped before it
// finished.
type Result[P comparable] struct {
	Scores    game.Scoreboard[P]
	Winner    P
	HasWinner bool
	Finished  bool
	Moves     int
}

type Engine[P comparable] interface {
	// Run plays the game till it finishes or a max number of moves is reached
	Run(ctx context.Context) (Result[P], metrics.GameMetric, []metrics.MoveMetric, error)
}
