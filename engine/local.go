package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"lukechampine.com/frand"

	"gametrees/experiments/metrics"
	"gametrees/game"
	"gametrees/searcher/agent"
	"gametrees/utils"
)

type Option[S, M, P comparable] func(e *LocalEngine[S, M, P])

// WithMaxMoves stops the game unfinished after n moves, chance moves included.
func WithMaxMoves[S, M, P comparable](n int) Option[S, M, P] {
	return func(e *LocalEngine[S, M, P]) {
		if n > 0 {
			e.maxMoves = n
		}
	}
}

// WithState starts the game from s instead of the initial position.
func WithState[S, M, P comparable](s S) Option[S, M, P] {
	return func(e *LocalEngine[S, M, P]) {
		e.state = s
	}
}

// WithRand draws chance moves from rng, making them reproducible for a seeded rng.
func WithRand[S, M, P comparable](rng *rand.Rand) Option[S, M, P] {
	return func(e *LocalEngine[S, M, P]) {
		e.rng = rng
	}
}

// LocalEngine plays a game in process. Players with an agent search for their moves,
// every other player is a chance player whose moves are drawn uniformly.
type LocalEngine[S, M, P comparable] struct {
	game     game.Game[S, M, P]
	state    S
	agents   map[P]agent.Agent[S, M]
	maxMoves int
	moves    int
	rng      *rand.Rand
}

func NewLocalEngine[S, M, P comparable](g game.Game[S, M, P], agents map[P]agent.Agent[S, M], options ...Option[S, M, P]) *LocalEngine[S, M, P] {
	if len(agents) < 2 {
		panic("need at least two agents")
	}
	players := g.Players()
	for p := range agents {
		if utils.FindIndex(players, p) == -1 {
			panic(fmt.Sprintf("agent for unknown player %v", p))
		}
	}

	e := &LocalEngine[S, M, P]{ // Default values
		game:     g,
		state:    g.New(),
		agents:   agents,
		maxMoves: MaxMoves,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

func (e *LocalEngine[S, M, P]) State() S {
	return e.state
}

// Play applies move for the current player after checking it is legal, then lets
// every agent observe the transition.
func (e *LocalEngine[S, M, P]) Play(move M) error {
	if e.game.Finished(e.state) {
		return ErrGameOver
	}
	if utils.FindIndex(e.game.LegalMoves(e.state), move) == -1 {
		return fmt.Errorf("%w: %v in state %v", ErrIllegalMove, move, e.state)
	}

	old := e.state
	e.state = e.game.Apply(old, move)
	e.moves++
	for _, a := range e.agents {
		a.Observe(old, e.state)
	}
	return nil
}

// Run executes the entire game loop until the game finishes or the move limit is hit.
func (e *LocalEngine[S, M, P]) Run(ctx context.Context) (Result[P], metrics.GameMetric, []metrics.MoveMetric, error) {
	gameMetric := metrics.GameMetric{StartTime: time.Now()}
	var moveMetrics []metrics.MoveMetric

	log.Info().Msgf("player %v is starting", e.game.CurrentPlayer(e.state))

	for !e.game.Finished(e.state) && e.moves < e.maxMoves {
		if err := ctx.Err(); err != nil {
			return Result[P]{Moves: e.moves}, gameMetric, moveMetrics, fmt.Errorf("game interrupted after %d moves: %w", e.moves, err)
		}

		player := e.game.CurrentPlayer(e.state)
		move, metric, err := e.nextMove(ctx, player)
		if err != nil {
			return Result[P]{Moves: e.moves}, gameMetric, moveMetrics, fmt.Errorf("failed to find move for player %v: %w", player, err)
		}
		if _, ok := e.agents[player]; ok {
			moveMetrics = append(moveMetrics, metrics.MoveMetric{
				Step:         e.moves + 1,
				Player:       fmt.Sprint(player),
				Move:         fmt.Sprint(move),
				SearchMetric: metric,
			})
			log.Debug().Msgf("player %v plays %v", player, move)
		}

		if err := e.Play(move); err != nil {
			return Result[P]{Moves: e.moves}, gameMetric, moveMetrics, err
		}
	}

	result := e.result()
	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)
	gameMetric.TotalMoves = e.moves
	gameMetric.Scores = fmt.Sprint(result.Scores)
	if result.HasWinner {
		gameMetric.Winner = fmt.Sprint(result.Winner)
	}

	if result.Finished {
		log.Info().Msgf("game finished after %d moves with scores %v", e.moves, result.Scores)
	} else {
		log.Warn().Msgf("stopped after %d moves without a result", e.moves)
	}
	return result, gameMetric, moveMetrics, nil
}

func (e *LocalEngine[S, M, P]) nextMove(ctx context.Context, player P) (M, metrics.SearchMetric, error) {
	if a, ok := e.agents[player]; ok {
		return a.FindMove(ctx, e.state)
	}

	var none M
	moves := e.game.LegalMoves(e.state)
	if len(moves) == 0 {
		return none, metrics.SearchMetric{}, fmt.Errorf("chance player %v has no moves: %w", player, agent.ErrNoMove)
	}
	if e.rng != nil {
		return moves[e.rng.Intn(len(moves))], metrics.SearchMetric{}, nil
	}
	return moves[frand.Intn(len(moves))], metrics.SearchMetric{}, nil
}

func (e *LocalEngine[S, M, P]) result() Result[P] {
	result := Result[P]{Moves: e.moves, Finished: e.game.Finished(e.state)}
	scores, ok := e.game.Scores(e.state)
	if !ok {
		return result
	}
	result.Scores = scores
	result.Winner, result.HasWinner = scores.Winner()
	return result
}
