package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"gametrees/config"
	"gametrees/engine"
	"gametrees/experiments"
	"gametrees/game"
	"gametrees/game/backgammon"
	"gametrees/game/nim"
	"gametrees/searcher/agent"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	gameName := flag.String("game", "", "game to play: nim or backgammon")
	experiment := flag.String("experiment", "", "run a preset experiment: parallelization, cutoff or throughput")
	goroutines := flag.Int("goroutines", 0, "playout goroutines per agent")
	episodes := flag.Int("episodes", 0, "playouts per move")
	duration := flag.Duration("duration", 0, "search time per move")
	cutoff := flag.Int("cutoff", 0, "playout budget")
	logLevel := flag.String("log-level", "", "log level")
	seed := flag.Uint64("seed", 0, "seed for tie breaking, move sampling and chance moves, 0 keeps them random")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "game":
			cfg.Game = *gameName
		case "goroutines":
			cfg.Goroutines = *goroutines
		case "episodes":
			cfg.Episodes = *episodes
		case "duration":
			cfg.Duration = *duration
		case "cutoff":
			cfg.Cutoff = *cutoff
		case "log-level":
			cfg.LogLevel = *logLevel
		case "seed":
			cfg.Seed = *seed
		}
	})

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if cfg.Seed != 0 {
		rand.Seed(cfg.Seed)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *experiment != "" {
		exp, err := experiments.Preset(*experiment)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid experiment")
		}
		exp.Output = cfg.Experiment.Output
		exp.Games = cfg.Experiment.Games
		cfg.Experiment = exp
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	if len(cfg.Experiment.Matchups) > 0 {
		dir, err := experiments.Run(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("experiment failed")
		}
		log.Info().Str("dir", dir).Msg("experiment stored")
		return
	}

	switch cfg.Game {
	case "nim":
		err = playGame[nim.State, nim.Move, nim.Player](ctx, cfg, nim.Standard, [2]nim.Player{nim.First, nim.Second})
	case "backgammon":
		err = playGame[backgammon.State, backgammon.Move, backgammon.Player](ctx, cfg, backgammon.Backgammon{}, [2]backgammon.Player{backgammon.White, backgammon.Black})
	}
	if err != nil {
		log.Fatal().Err(err).Msg("game failed")
	}
}

// playGame pits two agents built from the run config against each other and prints
// the outcome.
func playGame[S, M, P comparable](ctx context.Context, cfg config.Config, g game.Game[S, M, P], players [2]P) error {
	agents := map[P]agent.Agent[S, M]{
		players[0]: experiments.NewAgent(g, cfg.Agent(), cfg),
		players[1]: experiments.NewAgent(g, cfg.Agent(), cfg),
	}
	e := engine.NewLocalEngine(g, agents, experiments.EngineOptions[S, M, P](cfg)...)

	result, gameMetric, moveMetrics, err := e.Run(ctx)
	if err != nil {
		return err
	}

	episodes := 0
	for _, mm := range moveMetrics {
		episodes += mm.Episodes
	}

	out := termenv.NewOutput(os.Stdout)
	title := out.String(fmt.Sprintf("%s after %d moves", cfg.Game, result.Moves)).Bold()
	fmt.Fprintln(out, title)
	switch {
	case result.HasWinner:
		fmt.Fprintln(out, out.String(fmt.Sprintf("winner: %v", result.Winner)).Foreground(termenv.ANSIGreen))
	case result.Finished:
		fmt.Fprintln(out, out.String("draw").Foreground(termenv.ANSIYellow))
	default:
		fmt.Fprintln(out, out.String("unfinished").Foreground(termenv.ANSIRed))
	}
	fmt.Fprintf(out, "scores: %v\n", result.Scores)
	fmt.Fprintf(out, "duration: %v, searched moves: %d, playouts: %d\n", gameMetric.Duration, len(moveMetrics), episodes)
	return nil
}
