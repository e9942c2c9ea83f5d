package searcher

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"gametrees/game"
	"gametrees/game/backgammon"
	"gametrees/game/nim"
)

/*
playout:
- expansion: every node's edges are exactly the possible moves and their states
- backpropagation: playouts equal the touches into a node, paths equal playouts,
  scores of a zero-sum game sum to zero
- leaves: terminal states score with the game, cutoffs and unscored terminals score 0
- exploration: unvisited children are always tried before revisiting one
- growth: a playout adds at most one node per move it descends
- concurrency: parallel playouts lose no update
*/

func TestPlayoutExpansion(t *testing.T) {
	g := nim.New(12, 3)
	table := NewTable(g)
	for range 200 {
		table.Playout(g.New(), 20)
	}

	for _, s := range states(table) {
		stats, _ := table.Stats(s)
		moves := game.PossibleMoves[nim.State, nim.Move, nim.Player](g, s)
		require.Len(t, stats.Moves, len(moves), "State %v should expand every possible move", s)
		for _, m := range moves {
			edge, ok := stats.Moves[m]
			require.True(t, ok, "State %v should have an edge for move %d", s, m)
			require.Equal(t, g.Apply(s, m), edge.State)
			if edge.Touches > 0 {
				require.True(t, table.Contains(edge.State), "Touched edge should lead to a node")
			}
		}
	}
}

func TestPlayoutBackpropagation(t *testing.T) {
	g := nim.New(12, 3)
	table := NewTable(g)
	const n = 300
	for range n {
		table.Playout(g.New(), 20)
	}

	t.Run("root counts every playout", func(t *testing.T) {
		stats, _ := table.Stats(g.New())
		require.Equal(t, n, stats.Playouts)
		require.Equal(t, n, stats.Paths)
	})

	t.Run("playouts of a node equal the touches into it", func(t *testing.T) {
		for _, s := range states(table) {
			if s == g.New() {
				continue
			}
			stats, _ := table.Stats(s)
			require.Equal(t, incoming(table, s), stats.Playouts, "State %v", s)
			require.Equal(t, stats.Playouts, stats.Paths, "Without collection paths should equal playouts")
		}
	})

	t.Run("node playouts equal the touches out of it plus the playouts ending there", func(t *testing.T) {
		for _, s := range states(table) {
			stats, _ := table.Stats(s)
			out := 0
			for _, edge := range stats.Moves {
				out += edge.Touches
			}
			if g.Finished(s) {
				require.Zero(t, out)
			} else {
				require.Equal(t, stats.Playouts, out, "Non-terminal node within budget should always descend")
			}
		}
	})

	t.Run("zero-sum scores cancel", func(t *testing.T) {
		for _, s := range states(table) {
			stats, _ := table.Stats(s)
			require.InDelta(t, 0, stats.Scoreboard[nim.First]+stats.Scoreboard[nim.Second], 1e-9)
		}
	})
}

func TestPlayoutLeaves(t *testing.T) {
	g := nim.Standard

	t.Run("terminal state returns its scores", func(t *testing.T) {
		s := nim.State{Total: 100, Turn: nim.Second}
		table := WithState(g, s)

		scores := table.Playout(s, 10)

		require.Equal(t, 1.0, scores[nim.First], "The player who reached the target should score")
		require.Equal(t, -1.0, scores[nim.Second])
		stats, _ := table.Stats(s)
		require.Equal(t, 1, stats.Playouts)
		require.Equal(t, 1.0, stats.Scoreboard[nim.First])
	})

	t.Run("returned scores do not alias the node", func(t *testing.T) {
		s := nim.State{Total: 100, Turn: nim.Second}
		table := WithState(g, s)

		scores := table.Playout(s, 10)
		scores[nim.First] = 50

		stats, _ := table.Stats(s)
		require.Equal(t, 1.0, stats.Scoreboard[nim.First])
	})

	t.Run("zero budget scores neutrally", func(t *testing.T) {
		table := NewTable(g)
		scores := table.Playout(g.New(), 0)

		require.Equal(t, game.Scoreboard[nim.Player]{nim.First: 0, nim.Second: 0}, scores)
		stats, _ := table.Stats(g.New())
		require.Equal(t, 1, stats.Playouts)
		for _, edge := range stats.Moves {
			require.Zero(t, edge.Touches, "Zero budget should not descend")
		}
	})

	t.Run("unscored terminal scores neutrally", func(t *testing.T) {
		table := WithState[int, int, string](unscored{}, 3)
		scores := table.Playout(3, 5)
		require.Equal(t, game.Scoreboard[string]{"even": 0, "odd": 0}, scores)
	})

	t.Run("chance player always scores zero", func(t *testing.T) {
		bg := backgammon.Backgammon{}
		table := NewTable(bg)
		for range 20 {
			table.Playout(bg.New(), 3)
		}
		for _, s := range states(table) {
			stats, _ := table.Stats(s)
			require.Zero(t, stats.Scoreboard[backgammon.Dice])
		}
	})
}

func TestPlayoutExploration(t *testing.T) {
	g := nim.Standard
	table := NewTable(g)

	for range 10 {
		table.Playout(g.New(), 1)
	}

	stats, _ := table.Stats(g.New())
	for move, edge := range stats.Moves {
		require.Equal(t, 1, edge.Touches, "Move %d should be tried exactly once", move)
		require.Equal(t, 1, table.Playouts(edge.State))
	}
	require.Equal(t, 11, table.Len(), "Ten playouts of budget one should add ten nodes")
}

func TestPlayoutGrowth(t *testing.T) {
	g := nim.Standard

	t.Run("budget one adds at most one node per playout", func(t *testing.T) {
		table := NewTable(g)
		for i := 1; i <= 25; i++ {
			table.Playout(g.New(), 1)
			require.LessOrEqual(t, table.Len(), 1+i)
		}
	})

	t.Run("budget b adds at most b nodes per playout", func(t *testing.T) {
		table := NewTable(g)
		const budget = 7
		for i := 1; i <= 25; i++ {
			table.Playout(g.New(), budget)
			require.LessOrEqual(t, table.Len(), 1+i*budget)
		}
	})
}

func TestPlayoutCycles(t *testing.T) {
	table := NewTable[int, int, string](ring{})
	for range 50 {
		table.Playout(0, 10)
	}

	require.Equal(t, 4, table.Len(), "The ring has four states")
	// A playout on a cyclic graph can return to the root and backpropagate into it
	// once per pass, so a playout adds at least one root visit rather than exactly one
	stats, _ := table.Stats(0)
	require.GreaterOrEqual(t, stats.Playouts, 50)
	require.Equal(t, stats.Playouts, stats.Paths)
	require.Equal(t, 0.0, stats.Scoreboard["even"], "Cutoffs score neutrally")
}

func TestConcurrentPlayouts(t *testing.T) {
	g := nim.New(30, 3)
	table := NewTable(g)
	const goroutines, playouts = 8, 250

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range playouts {
				table.Playout(g.New(), 40)
			}
		}()
	}
	wg.Wait()

	stats, _ := table.Stats(g.New())
	require.Equal(t, goroutines*playouts, stats.Playouts, "No playout should be lost")
	for _, s := range states(table) {
		if s == g.New() {
			continue
		}
		stats, _ := table.Stats(s)
		require.Equal(t, incoming(table, s), stats.Playouts, "State %v", s)
	}
}
