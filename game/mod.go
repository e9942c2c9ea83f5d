package game

// Score is a player's outcome of a finished game. Winners score positive and the
// scores of the real players sum to zero by convention.
type Score = float64

// Scoreboard maps every player of a game to a score.
type Scoreboard[P comparable] map[P]Score

// Game supplies the rules of a turn-based, finite game. The search engine never
// hard-codes game semantics and only talks to a game through this interface.
//
// States, moves and players are comparable values: they key the transposition table
// and the outgoing edges of a node, and are copied freely between goroutines.
type Game[S, M, P comparable] interface {
	// New returns the initial position
	New() S
	// Apply returns the state reached by playing move in state
	Apply(state S, move M) S
	// LegalMoves is empty iff no move exists, regardless of whether the game is over
	LegalMoves(state S) []M
	// Players is the closed set of players. It may contain a chance pseudo-player
	// (e.g. dice) which always scores 0 so the search treats chance as neutral.
	Players() []P
	// CurrentPlayer is the player to move, or the chance pseudo-player
	CurrentPlayer(state S) P
	// Scores is defined iff state is terminal
	Scores(state S) (Scoreboard[P], bool)
	Finished(state S) bool
	// Hash must return equal values for equal states
	Hash(state S) uint64
}

// PossibleMoves returns no moves for a finished game and the legal moves otherwise.
// Games must keep both notions consistent: a state is terminal iff it has no possible
// moves.
func PossibleMoves[S, M, P comparable](g Game[S, M, P], state S) []M {
	if g.Finished(state) {
		return nil
	}
	return g.LegalMoves(state)
}

// ZeroScoreboard returns a scoreboard giving every player a neutral score.
func ZeroScoreboard[S, M, P comparable](g Game[S, M, P]) Scoreboard[P] {
	players := g.Players()
	scores := make(Scoreboard[P], len(players))
	for _, p := range players {
		scores[p] = 0
	}
	return scores
}

// Clone returns a copy of the scoreboard that shares no memory with the original.
func (s Scoreboard[P]) Clone() Scoreboard[P] {
	clone := make(Scoreboard[P], len(s))
	for p, score := range s {
		clone[p] = score
	}
	return clone
}

// Winner returns the player with the strictly highest score.
func (s Scoreboard[P]) Winner() (P, bool) {
	var winner P
	best := 0.0
	found, tied := false, false
	for p, score := range s {
		switch {
		case !found || score > best:
			winner, best, found, tied = p, score, true, false
		case score == best:
			tied = true
		}
	}
	if !found || tied {
		var none P
		return none, false
	}
	return winner, true
}
