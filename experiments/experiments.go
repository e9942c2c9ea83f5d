package experiments

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/exp/rand"

	"gametrees/config"
	"gametrees/engine"
	"gametrees/experiments/metrics"
	"gametrees/game"
	"gametrees/game/backgammon"
	"gametrees/game/nim"
	"gametrees/searcher"
	"gametrees/searcher/agent"
)

const TimeBudget = 10 * time.Millisecond

var parallelConfigs = []metrics.AgentConfig{
	{ID: 1, Goroutines: 1, Duration: TimeBudget},
	{ID: 2, Goroutines: 4, Duration: TimeBudget},
	{ID: 3, Goroutines: 8, Duration: TimeBudget},
	{ID: 4, Goroutines: 16, Duration: TimeBudget},
	{ID: 5, Goroutines: 32, Duration: TimeBudget},
}

var cutoffConfigs = []metrics.AgentConfig{
	{ID: 1, Goroutines: 8, Duration: TimeBudget, Cutoff: 10},
	{ID: 2, Goroutines: 8, Duration: TimeBudget, Cutoff: 50},
	{ID: 3, Goroutines: 8, Duration: TimeBudget, Cutoff: 100},
	{ID: 4, Goroutines: 8, Duration: TimeBudget, Cutoff: 200},
}

// Preset returns a named experiment. Parallelization pairs a sequential baseline with
// each parallel config, cutoff pairs a full depth baseline with each cutoff and
// throughput mirrors every parallel config against itself.
func Preset(name string) (config.Experiment, error) {
	baseline := metrics.AgentConfig{ID: 0, Goroutines: 1, Duration: TimeBudget}
	versus := func(c metrics.AgentConfig, _ int) [2]int { return [2]int{baseline.ID, c.ID} }

	var agents []metrics.AgentConfig
	var matchups [][2]int
	switch name {
	case "parallelization":
		agents = append([]metrics.AgentConfig{baseline}, parallelConfigs...)
		matchups = lo.Map(parallelConfigs, versus)
	case "cutoff":
		baseline.Goroutines = 8
		baseline.Cutoff = config.Cutoff
		agents = append([]metrics.AgentConfig{baseline}, cutoffConfigs...)
		matchups = lo.Map(cutoffConfigs, versus)
	case "throughput":
		agents = parallelConfigs
		matchups = lo.Map(parallelConfigs, func(c metrics.AgentConfig, _ int) [2]int { return [2]int{c.ID, c.ID} })
	default:
		return config.Experiment{}, fmt.Errorf("%w: unknown experiment %q", config.ErrInvalid, name)
	}
	return config.Experiment{Name: name, Agents: agents, Matchups: matchups}, nil
}

// Run plays every matchup of the configured experiment and stores agent configs, game
// records and move records under the experiment output directory, which it returns.
func Run(ctx context.Context, cfg config.Config) (string, error) {
	switch cfg.Game {
	case "nim":
		return runExperiment[nim.State, nim.Move, nim.Player](ctx, cfg, nim.Standard, [2]nim.Player{nim.First, nim.Second})
	case "backgammon":
		return runExperiment[backgammon.State, backgammon.Move, backgammon.Player](ctx, cfg, backgammon.Backgammon{}, [2]backgammon.Player{backgammon.White, backgammon.Black})
	default:
		return "", fmt.Errorf("%w: unknown game %q", config.ErrInvalid, cfg.Game)
	}
}

func runExperiment[S, M, P comparable](ctx context.Context, cfg config.Config, g game.Game[S, M, P], players [2]P) (string, error) {
	exp := cfg.Experiment
	agents := lo.KeyBy(exp.Agents, func(c metrics.AgentConfig) int { return c.ID })
	options := EngineOptions[S, M, P](cfg)

	// Run a number of games for each matchup
	count := 0
	gameRecords := []metrics.GameRecord{}
	moveRecords := []metrics.MoveRecord{}

	log.Info().Msgf("starting %s experiment...", exp.Name)

	for mi, matchup := range exp.Matchups {
		config1, config2 := agents[matchup[0]], agents[matchup[1]]

		log.Info().Msgf("starting matchup %d of %d between agent1=%+v and agent2=%+v...", mi+1, len(exp.Matchups), config1, config2)

		for i := 0; i < exp.Games; i++ {
			e := engine.NewLocalEngine(g, map[P]agent.Agent[S, M]{
				players[0]: NewAgent(g, config1, cfg),
				players[1]: NewAgent(g, config2, cfg),
			}, options...)

			result, gameMetric, moveMetrics, err := e.Run(ctx)
			if err != nil {
				return "", fmt.Errorf("failed to run matchup %d game %d: %w", mi+1, i+1, err)
			}

			count++
			gameRecords = append(gameRecords, metrics.GameRecord{
				ID:         count,
				Agent1:     config1.ID,
				Agent2:     config2.ID,
				GameMetric: gameMetric,
			})
			moveRecords = append(moveRecords, lo.Map(moveMetrics, func(mm metrics.MoveMetric, _ int) metrics.MoveRecord {
				return metrics.MoveRecord{Game: count, MoveMetric: mm}
			})...)

			log.Info().Msgf("completed matchup %d of %d game %d with scores: %v", mi+1, len(exp.Matchups), i+1, result.Scores)
		}
		log.Info().Msgf("completed matchup %d of %d", mi+1, len(exp.Matchups))
	}

	log.Info().Msgf("completed %s experiment", exp.Name)
	return store(exp, gameRecords, moveRecords)
}

func store(exp config.Experiment, gameRecords []metrics.GameRecord, moveRecords []metrics.MoveRecord) (string, error) {
	// Store experiment metadata
	writer, err := metrics.NewWriter(exp.Output, exp.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}

	err = writer.WriteAgentConfigs(exp.Agents)
	if err != nil {
		return "", fmt.Errorf("failed to store agent configs: %w", err)
	}
	log.Info().Msg("stored agent configs")

	// Store experiment results
	err = writer.WriteGameRecords(gameRecords)
	if err != nil {
		return "", fmt.Errorf("failed to write game records: %w", err)
	}
	log.Info().Msg("stored game records")

	err = writer.WriteMoveRecords(moveRecords)
	if err != nil {
		return "", fmt.Errorf("failed to write move records: %w", err)
	}
	log.Info().Msg("stored move records")

	return writer.Dir(), nil
}

// NewAgent builds the MCTS agent an agent config describes, with metrics collection.
// Settings the agent config leaves at zero fall back to the run config.
// EngineOptions applies the move limit of cfg and, for a non-zero seed, draws chance
// moves from a source seeded with it. Engines built from the same options share the
// source, so consecutive games roll different dice but a run replays exactly.
func EngineOptions[S, M, P comparable](cfg config.Config) []engine.Option[S, M, P] {
	options := []engine.Option[S, M, P]{engine.WithMaxMoves[S, M, P](cfg.MaxMoves)}
	if cfg.Seed != 0 {
		options = append(options, engine.WithRand[S, M, P](rand.New(rand.NewSource(cfg.Seed))))
	}
	return options
}

func NewAgent[S, M, P comparable](g game.Game[S, M, P], c metrics.AgentConfig, cfg config.Config) agent.Agent[S, M] {
	options := []searcher.Option[S, M, P]{
		searcher.WithMaxNodes[S, M, P](cfg.MaxNodes),
		searcher.WithMetrics[S, M, P](),
	}

	if c.Episodes > 0 {
		options = append(options, searcher.WithEpisodes[S, M, P](c.Episodes))
	}
	if c.Duration > 0 {
		options = append(options, searcher.WithDuration[S, M, P](c.Duration))
	}
	if c.Episodes <= 0 && c.Duration <= 0 {
		options = append(options,
			searcher.WithEpisodes[S, M, P](cfg.Episodes),
			searcher.WithDuration[S, M, P](cfg.Duration))
	}
	cutoff := lo.Ternary(c.Cutoff > 0, c.Cutoff, cfg.Cutoff)
	options = append(options, searcher.WithCutoff[S, M, P](cutoff))
	visitTarget := lo.Ternary(c.VisitTarget > 0, c.VisitTarget, cfg.VisitTarget)
	options = append(options, searcher.WithVisitTarget[S, M, P](visitTarget))

	goroutines := lo.Ternary(c.Goroutines > 0, c.Goroutines, cfg.Goroutines)
	mcts := searcher.NewMCTS(g, goroutines, options...)
	if c.Temperature > 0 {
		return agent.NewTrainingAgent(mcts, c.Temperature)
	}
	return agent.NewEvaluationAgent(mcts)
}
