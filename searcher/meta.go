package searcher

import (
	"maps"
	"sync"

	"gametrees/game"
)

// Edge leads from a node to the state reached by one of its moves. Touches counts the
// playouts that traversed it and is what garbage collection releases.
type Edge[S comparable] struct {
	State   S
	Touches int
}

type meta[S, M, P comparable] struct {
	sync.Mutex
	scoreboard game.Scoreboard[P]
	playouts   int
	paths      int
	moves      map[M]*Edge[S]
}

// newMeta expands every possible move of s up front.
func newMeta[S, M, P comparable](g game.Game[S, M, P], s S) *meta[S, M, P] {
	moves := game.PossibleMoves(g, s)
	m := &meta[S, M, P]{
		scoreboard: game.ZeroScoreboard(g),
		moves:      make(map[M]*Edge[S], len(moves)),
	}
	for _, move := range moves {
		m.moves[move] = &Edge[S]{State: g.Apply(s, move)}
	}
	return m
}

// Stats is a snapshot of a node. It shares no memory with the table.
type Stats[S, M, P comparable] struct {
	Scoreboard game.Scoreboard[P]
	Playouts   int
	Paths      int
	Moves      map[M]Edge[S]
}

func (m *meta[S, M, P]) stats() Stats[S, M, P] {
	m.Lock()
	defer m.Unlock()
	moves := make(map[M]Edge[S], len(m.moves))
	for move, edge := range m.moves {
		moves[move] = *edge
	}
	return Stats[S, M, P]{
		Scoreboard: maps.Clone(m.scoreboard),
		Playouts:   m.playouts,
		Paths:      m.paths,
		Moves:      moves,
	}
}

// Mean returns the average score of p over the node's playouts.
func (s Stats[S, M, P]) Mean(p P) float64 {
	if s.Playouts == 0 {
		return 0
	}
	return s.Scoreboard[p] / float64(s.Playouts)
}

type candidate[S, M comparable] struct {
	move  M
	state S
}

// edges copies the outgoing edges so they can be inspected without the node lock.
func (m *meta[S, M, P]) edges() []candidate[S, M] {
	m.Lock()
	defer m.Unlock()
	edges := make([]candidate[S, M], 0, len(m.moves))
	for move, edge := range m.moves {
		edges = append(edges, candidate[S, M]{move: move, state: edge.State})
	}
	return edges
}

// expanded reports whether the node has moves. The move set is fixed at creation.
func (m *meta[S, M, P]) expanded() bool {
	return len(m.moves) > 0
}

func (m *meta[S, M, P]) touch(move M) {
	m.Lock()
	defer m.Unlock()
	if edge, ok := m.moves[move]; ok {
		edge.Touches++
	}
}

// touched returns the node's paths count and a copy of its traversed edges.
func (m *meta[S, M, P]) touched() (int, []Edge[S]) {
	m.Lock()
	defer m.Unlock()
	edges := make([]Edge[S], 0, len(m.moves))
	for _, edge := range m.moves {
		if edge.Touches > 0 {
			edges = append(edges, *edge)
		}
	}
	return m.paths, edges
}

func (m *meta[S, M, P]) release(touches int) {
	m.Lock()
	defer m.Unlock()
	m.paths -= touches
}

func (m *meta[S, M, P]) backpropagate(scores game.Scoreboard[P]) {
	m.Lock()
	defer m.Unlock()
	m.playouts++
	m.paths++
	for p, score := range scores {
		m.scoreboard[p] += score
	}
}
