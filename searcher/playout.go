package searcher

import (
	"github.com/rs/zerolog/log"

	"gametrees/game"
)

// Playout descends from s for at most budget moves, choosing each move with UCB1 and
// expanding every state it reaches, then backs the scores of the final state up the
// path. A state that is not finished when the budget runs out scores 0 for everyone.
// Playout is safe for concurrent use, also with playouts sharing states.
func (t *Table[S, M, P]) Playout(s S, budget int) game.Scoreboard[P] {
	t.gc.RLock()
	defer t.gc.RUnlock()
	return t.playout(s, budget)
}

func (t *Table[S, M, P]) playout(s S, budget int) game.Scoreboard[P] {
	t.insert(s)
	node, ok := t.get(s)
	if !ok {
		log.Panic().Msg("node missing right after insertion")
	}

	var scores game.Scoreboard[P]
	if budget > 0 && node.expanded() {
		move, child := t.selectEdge(s, node)
		node.touch(move)
		scores = t.playout(child, budget-1)
	} else {
		scores = t.evaluate(s)
	}

	node.backpropagate(scores)
	return scores
}

func (t *Table[S, M, P]) evaluate(s S) game.Scoreboard[P] {
	if !t.game.Finished(s) {
		return game.ZeroScoreboard(t.game)
	}
	scores, ok := t.game.Scores(s)
	if !ok {
		log.Debug().Msgf("finished state %v has no scores, scoring it neutral", s)
		return game.ZeroScoreboard(t.game)
	}
	t.observer.TerminalReached()
	return scores.Clone()
}
