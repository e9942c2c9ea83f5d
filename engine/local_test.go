package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"gametrees/experiments/metrics"
	"gametrees/game/backgammon"
	"gametrees/game/nim"
	"gametrees/searcher"
	"gametrees/searcher/agent"
)

/*
local engine:
- construction: panics with fewer than two agents or an agent for an unknown player
- play: rejects moves after the game is over and illegal moves, agents observe every move
- run: plays Nim to completion with a winner, samples chance moves, stops at the move limit
- a seeded rng replays the same chance moves
*/

type recordingAgent struct {
	observed [][2]nim.State
}

func (a *recordingAgent) FindMove(ctx context.Context, s nim.State) (nim.Move, metrics.SearchMetric, error) {
	return 1, metrics.SearchMetric{}, nil
}

func (a *recordingAgent) Observe(old, next nim.State) {
	a.observed = append(a.observed, [2]nim.State{old, next})
}

// firstMover plays the first legal backgammon move and records what it observes.
type firstMover struct {
	observed []backgammon.State
}

func (a *firstMover) FindMove(ctx context.Context, s backgammon.State) (backgammon.Move, metrics.SearchMetric, error) {
	return backgammon.Backgammon{}.LegalMoves(s)[0], metrics.SearchMetric{}, nil
}

func (a *firstMover) Observe(old, next backgammon.State) {
	a.observed = append(a.observed, next)
}

func nimAgent(episodes int) agent.Agent[nim.State, nim.Move] {
	return agent.NewEvaluationAgent(searcher.NewMCTS[nim.State, nim.Move, nim.Player](nim.Standard, 2,
		searcher.WithEpisodes[nim.State, nim.Move, nim.Player](episodes)))
}

func TestNewLocalEngine(t *testing.T) {
	t.Run("panics with a single agent", func(t *testing.T) {
		require.Panics(t, func() {
			NewLocalEngine[nim.State, nim.Move, nim.Player](nim.Standard, map[nim.Player]agent.Agent[nim.State, nim.Move]{
				nim.First: nimAgent(10),
			})
		})
	})

	t.Run("panics with an agent for an unknown player", func(t *testing.T) {
		require.Panics(t, func() {
			NewLocalEngine[nim.State, nim.Move, nim.Player](nim.Standard, map[nim.Player]agent.Agent[nim.State, nim.Move]{
				nim.First: nimAgent(10),
				7:         nimAgent(10),
			})
		})
	})
}

func TestPlay(t *testing.T) {
	first, second := &recordingAgent{}, &recordingAgent{}
	e := NewLocalEngine[nim.State, nim.Move, nim.Player](nim.Standard,
		map[nim.Player]agent.Agent[nim.State, nim.Move]{nim.First: first, nim.Second: second},
		WithState[nim.State, nim.Move, nim.Player](nim.State{Total: 95, Turn: nim.First}),
	)

	t.Run("illegal move is rejected", func(t *testing.T) {
		err := e.Play(11)
		require.True(t, errors.Is(err, ErrIllegalMove))
		require.Equal(t, 95, e.State().Total, "State should not change")
	})

	t.Run("legal move is observed by every agent", func(t *testing.T) {
		require.NoError(t, e.Play(2))
		want := [2]nim.State{{Total: 95, Turn: nim.First}, {Total: 97, Turn: nim.Second}}
		require.Equal(t, [][2]nim.State{want}, first.observed)
		require.Equal(t, [][2]nim.State{want}, second.observed)
	})

	t.Run("overshooting move is illegal", func(t *testing.T) {
		require.ErrorIs(t, e.Play(4), ErrIllegalMove)
	})

	t.Run("no move after the game is over", func(t *testing.T) {
		require.NoError(t, e.Play(3))
		require.ErrorIs(t, e.Play(1), ErrGameOver)
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("plays nim to completion", func(t *testing.T) {
		e := NewLocalEngine[nim.State, nim.Move, nim.Player](nim.Standard, map[nim.Player]agent.Agent[nim.State, nim.Move]{
			nim.First:  nimAgent(50),
			nim.Second: nimAgent(50),
		})

		result, gameMetric, moveMetrics, err := e.Run(ctx)

		require.NoError(t, err)
		require.True(t, result.Finished)
		require.True(t, result.HasWinner, "Nim always has a winner")
		require.Equal(t, 100, e.State().Total)
		require.Equal(t, 1.0, result.Scores[result.Winner])
		require.Equal(t, result.Moves, gameMetric.TotalMoves)
		require.Len(t, moveMetrics, result.Moves, "Every move should be searched")
		require.Equal(t, result.Winner.String(), gameMetric.Winner)
	})

	t.Run("samples chance moves and stops at the move limit", func(t *testing.T) {
		bg := backgammon.Backgammon{}
		newAgent := func() agent.Agent[backgammon.State, backgammon.Move] {
			return agent.NewEvaluationAgent(searcher.NewMCTS[backgammon.State, backgammon.Move, backgammon.Player](bg, 2,
				searcher.WithEpisodes[backgammon.State, backgammon.Move, backgammon.Player](5),
				searcher.WithCutoff[backgammon.State, backgammon.Move, backgammon.Player](4)))
		}
		e := NewLocalEngine[backgammon.State, backgammon.Move, backgammon.Player](bg,
			map[backgammon.Player]agent.Agent[backgammon.State, backgammon.Move]{
				backgammon.Black: newAgent(),
				backgammon.White: newAgent(),
			},
			WithMaxMoves[backgammon.State, backgammon.Move, backgammon.Player](6),
		)

		result, _, moveMetrics, err := e.Run(ctx)

		require.NoError(t, err)
		require.False(t, result.Finished)
		require.Nil(t, result.Scores)
		require.Equal(t, 6, result.Moves)
		require.Len(t, moveMetrics, 3, "Only the checker moves are searched")
	})

	t.Run("canceled context interrupts the game", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		e := NewLocalEngine[nim.State, nim.Move, nim.Player](nim.Standard, map[nim.Player]agent.Agent[nim.State, nim.Move]{
			nim.First:  nimAgent(10),
			nim.Second: nimAgent(10),
		})

		_, _, _, err := e.Run(canceled)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestSeededChance(t *testing.T) {
	play := func(seed uint64) []backgammon.State {
		white, black := &firstMover{}, &firstMover{}
		e := NewLocalEngine[backgammon.State, backgammon.Move, backgammon.Player](backgammon.Backgammon{},
			map[backgammon.Player]agent.Agent[backgammon.State, backgammon.Move]{
				backgammon.White: white,
				backgammon.Black: black,
			},
			WithMaxMoves[backgammon.State, backgammon.Move, backgammon.Player](40),
			WithRand[backgammon.State, backgammon.Move, backgammon.Player](rand.New(rand.NewSource(seed))),
		)
		_, _, _, err := e.Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, white.observed, black.observed)
		return white.observed
	}

	first := play(7)
	require.NotEmpty(t, first)
	require.Equal(t, first, play(7), "The same seed should roll the same dice")
}
