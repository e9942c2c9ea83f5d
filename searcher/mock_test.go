package searcher

import (
	"gametrees/game"
)

// ring is an endless game on four states where both moves advance around the ring.
// Every state is reachable from every other, so the graph has cycles.
type ring struct{}

func (ring) New() int               { return 0 }
func (ring) Apply(s int, m int) int { return (s + m) % 4 }
func (ring) LegalMoves(s int) []int { return []int{1, 2} }
func (ring) Players() []string      { return []string{"even", "odd"} }
func (ring) Finished(s int) bool    { return false }
func (ring) Hash(s int) uint64      { return uint64(s) }
func (ring) CurrentPlayer(s int) string {
	if s%2 == 0 {
		return "even"
	}
	return "odd"
}
func (ring) Scores(s int) (game.Scoreboard[string], bool) { return nil, false }

// unscored ends at 3 but never reports scores for it.
type unscored struct{ ring }

func (unscored) Finished(s int) bool { return s == 3 }

// states lists every state with a node.
func states[S, M, P comparable](t *Table[S, M, P]) []S {
	var all []S
	for i := range t.shards {
		sh := &t.shards[i]
		sh.RLock()
		for s := range sh.metas {
			all = append(all, s)
		}
		sh.RUnlock()
	}
	return all
}

// incoming sums the touches of every edge leading into s.
func incoming[S, M, P comparable](t *Table[S, M, P], s S) int {
	total := 0
	for _, parent := range states(t) {
		stats, _ := t.Stats(parent)
		for _, edge := range stats.Moves {
			if edge.State == s {
				total += edge.Touches
			}
		}
	}
	return total
}
