package searcher

import (
	"math"
)

const C_SQUARED = 2.0

// ucb1 scores a child from the perspective of the player choosing it. c2LnN is the
// exploration numerator C² ln N of the parent.
func ucb1(rewards float64, visits int, c2LnN float64) float64 {
	if visits == 0 {
		return math.Inf(1)
	}
	n := float64(visits)
	return rewards/n + math.Sqrt(c2LnN/n)
}

// selectEdge picks the UCB1 maximizer among the edges of node at state s, breaking
// ties uniformly at random. Children that were never played out are tried first.
func (t *Table[S, M, P]) selectEdge(s S, node *meta[S, M, P]) (M, S) {
	edges := node.edges()

	node.Lock()
	parentPlayouts := node.playouts
	node.Unlock()

	player := t.game.CurrentPlayer(s)
	c2LnN := C_SQUARED * math.Log(float64(max(parentPlayouts, 1)))

	best := math.Inf(-1)
	var ties []int
	for i, e := range edges {
		value := math.Inf(1)
		if child, ok := t.get(e.state); ok {
			child.Lock()
			value = ucb1(child.scoreboard[player], child.playouts, c2LnN)
			child.Unlock()
		}

		switch {
		case value > best:
			best = value
			ties = append(ties[:0], i)
		case value == best:
			ties = append(ties, i)
		}
	}

	chosen := edges[ties[t.intn(len(ties))]]
	return chosen.move, chosen.state
}

// BestChoice returns the move of s whose child has the most playouts, the robust
// child. Ties are broken uniformly at random. It reports false when s has no node or
// no moves.
func (t *Table[S, M, P]) BestChoice(s S) (M, bool) {
	var none M
	node, ok := t.get(s)
	if !ok {
		return none, false
	}
	edges := node.edges()
	if len(edges) == 0 {
		return none, false
	}

	most := -1
	var ties []M
	for _, e := range edges {
		playouts := t.Playouts(e.state)
		switch {
		case playouts > most:
			most = playouts
			ties = append(ties[:0], e.move)
		case playouts == most:
			ties = append(ties, e.move)
		}
	}
	return ties[t.intn(len(ties))], true
}

// Policy returns the share of child playouts for each move of s. Moves are uniform
// when no child has been played out yet. It is nil when s has no node or no moves.
func (t *Table[S, M, P]) Policy(s S) map[M]float64 {
	node, ok := t.get(s)
	if !ok {
		return nil
	}
	edges := node.edges()
	if len(edges) == 0 {
		return nil
	}

	total := 0
	visits := make(map[M]int, len(edges))
	for _, e := range edges {
		playouts := t.Playouts(e.state)
		visits[e.move] = playouts
		total += playouts
	}

	policy := make(map[M]float64, len(edges))
	for move, n := range visits {
		if total == 0 {
			policy[move] = 1 / float64(len(edges))
		} else {
			policy[move] = float64(n) / float64(total)
		}
	}
	return policy
}
