package agent

import (
	"context"
	"errors"

	"gametrees/experiments/metrics"
)

// ErrNoMove is returned when the searched state offers no move to choose.
var ErrNoMove = errors.New("no move to choose")

type Agent[S, M comparable] interface {
	// FindMove returns the chosen move and performance metrics (if collected) from the simulation process
	FindMove(ctx context.Context, state S) (M, metrics.SearchMetric, error)
	// Observe tells the agent the game moved from old to next so it can release search state
	Observe(old, next S)
}
