package agent

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gametrees/experiments/metrics"
	"gametrees/searcher"
)

type trainingAgent[S, M, P comparable] struct {
	mcts        *searcher.MCTS[S, M, P]
	temperature float64
}

// NewTrainingAgent returns a new agent for self-play during training. It samples moves
// in proportion to their visit shares raised to 1/temperature; a non-positive
// temperature always plays the most visited move.
func NewTrainingAgent[S, M, P comparable](mcts *searcher.MCTS[S, M, P], temperature float64) Agent[S, M] {
	return trainingAgent[S, M, P]{mcts: mcts, temperature: temperature}
}

func (a trainingAgent[S, M, P]) FindMove(ctx context.Context, state S) (M, metrics.SearchMetric, error) {
	policy, metric := a.mcts.Simulate(ctx, state)
	if len(policy) == 0 {
		var none M
		return none, metric, fmt.Errorf("failed to sample move for state %v: %w", state, ErrNoMove)
	}
	if a.temperature <= 0 {
		return findMax(policy), metric, nil
	}
	policy = adjustTemperature(policy, a.temperature)
	return sample(policy, rand.Float64()), metric, nil
}

func (a trainingAgent[S, M, P]) Observe(old, next S) {
	a.mcts.Advance(old, next)
}

func adjustTemperature[M comparable](policy map[M]float64, temperature float64) map[M]float64 {
	// Compute temperature-adjusted move probabilities
	exponent := 1.0 / temperature
	sum := 0.0
	adjusted := make(map[M]float64, len(policy))
	for move, visit := range policy {
		prob := math.Pow(visit, exponent)
		sum += prob
		adjusted[move] = prob
	}
	if sum == 0 {
		return policy
	}
	// Normalize
	for move := range adjusted {
		adjusted[move] /= sum
	}
	return adjusted
}

func sample[M comparable](policy map[M]float64, sampled float64) M {
	cumulative := 0.0
	var lastMove M
	for move, prob := range policy {
		lastMove = move
		cumulative += prob
		if sampled < cumulative {
			return move
		}
	}
	return lastMove // Fallback in case of rounding errors
}

func findMax[M comparable](policy map[M]float64) M {
	var maxMove M
	maxVisit := -1.0
	for move, visit := range policy {
		if visit > maxVisit {
			maxVisit = visit
			maxMove = move
		}
	}
	return maxMove
}
