package agent

import (
	"context"
	"fmt"

	"gametrees/experiments/metrics"
	"gametrees/searcher"
)

type evaluationAgent[S, M, P comparable] struct {
	mcts *searcher.MCTS[S, M, P]
}

// NewEvaluationAgent returns a new agent for actual game play during evaluation.
func NewEvaluationAgent[S, M, P comparable](mcts *searcher.MCTS[S, M, P]) Agent[S, M] {
	return evaluationAgent[S, M, P]{mcts: mcts}
}

func (a evaluationAgent[S, M, P]) FindMove(ctx context.Context, state S) (M, metrics.SearchMetric, error) {
	move, metric, ok := a.mcts.FindNextMove(ctx, state)
	if !ok {
		return move, metric, fmt.Errorf("failed to find move for state %v: %w", state, ErrNoMove)
	}
	return move, metric, nil
}

func (a evaluationAgent[S, M, P]) Observe(old, next S) {
	a.mcts.Advance(old, next)
}
