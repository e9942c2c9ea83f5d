package game_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gametrees/game"
	"gametrees/game/nim"
)

func TestPossibleMoves(t *testing.T) {
	g := nim.Standard

	t.Run("finished game has no possible moves", func(t *testing.T) {
		s := nim.State{Total: 100, Turn: nim.Second}
		require.Empty(t, game.PossibleMoves[nim.State, nim.Move, nim.Player](g, s),
			"A finished game should expose no moves")
	})

	t.Run("running game exposes its legal moves", func(t *testing.T) {
		s := g.New()
		require.Equal(t, g.LegalMoves(s), game.PossibleMoves[nim.State, nim.Move, nim.Player](g, s))
	})
}

func TestScoreboard(t *testing.T) {
	t.Run("zero scoreboard covers every player", func(t *testing.T) {
		scores := game.ZeroScoreboard[nim.State, nim.Move, nim.Player](nim.Standard)
		require.Len(t, scores, 2)
		for _, score := range scores {
			require.Zero(t, score)
		}
	})

	t.Run("clone does not share memory", func(t *testing.T) {
		scores := game.Scoreboard[string]{"a": 1}
		clone := scores.Clone()
		clone["a"] = 2
		require.Equal(t, 1.0, scores["a"], "Original should be unchanged")
	})

	t.Run("winner has the strictly highest score", func(t *testing.T) {
		winner, ok := game.Scoreboard[string]{"a": -1, "b": 1, "dice": 0}.Winner()
		require.True(t, ok)
		require.Equal(t, "b", winner)
	})

	t.Run("tie has no winner", func(t *testing.T) {
		_, ok := game.Scoreboard[string]{"a": -5, "b": -5}.Winner()
		require.False(t, ok, "Equal top scores should not produce a winner")
	})

	t.Run("empty scoreboard has no winner", func(t *testing.T) {
		_, ok := game.Scoreboard[string]{}.Winner()
		require.False(t, ok)
	})
}
