// Package config holds the run settings shared by the CLI and experiments.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"gametrees/experiments/metrics"
)

const (
	// GoRoutines defines the number of goroutines to use.
	GoRoutines = 8
	// Episodes defines the number of playouts per move.
	Episodes = 150
	// Cutoff defines the playout budget.
	Cutoff = 400
	// MaxNodes defines the table size at which a search stops.
	MaxNodes = 1 << 20
	// VisitTarget defines the root playouts per legal move after which a search stops.
	VisitTarget = 10
	// MaxTurns defines the number of moves after which a game is abandoned.
	MaxTurns = 300
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Game        string        `yaml:"game"`
	Goroutines  int           `yaml:"goroutines"`
	Episodes    int           `yaml:"episodes"`
	Duration    time.Duration `yaml:"duration"`
	Cutoff      int           `yaml:"cutoff"`
	MaxNodes    int           `yaml:"max_nodes"`
	VisitTarget int           `yaml:"visit_target"`
	MaxMoves    int           `yaml:"max_moves"`
	Seed        uint64        `yaml:"seed"`
	LogLevel    string        `yaml:"log_level"`
	Experiment  Experiment    `yaml:"experiment"`
}

// Experiment describes a set of matchups between agent configs. Matchups hold agent
// config IDs, the first one plays the first player.
type Experiment struct {
	Name     string                `yaml:"name"`
	Output   string                `yaml:"output"`
	Games    int                   `yaml:"games"`
	Agents   []metrics.AgentConfig `yaml:"agents"`
	Matchups [][2]int              `yaml:"matchups"`
}

func Default() Config {
	return Config{
		Game:        "nim",
		Goroutines:  GoRoutines,
		Episodes:    Episodes,
		Cutoff:      Cutoff,
		MaxNodes:    MaxNodes,
		VisitTarget: VisitTarget,
		MaxMoves:    MaxTurns,
		LogLevel:    "info",
		Experiment: Experiment{
			Output: "experiments",
			Games:  30,
		},
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Game != "nim" && c.Game != "backgammon":
		return fmt.Errorf("%w: unknown game %q", ErrInvalid, c.Game)
	case c.Goroutines <= 0:
		return fmt.Errorf("%w: goroutines must be positive", ErrInvalid)
	case c.Episodes <= 0 && c.Duration <= 0:
		return fmt.Errorf("%w: episodes or duration must be positive", ErrInvalid)
	case c.Cutoff <= 0:
		return fmt.Errorf("%w: cutoff must be positive", ErrInvalid)
	}

	ids := make(map[int]bool, len(c.Experiment.Agents))
	for _, agent := range c.Experiment.Agents {
		ids[agent.ID] = true
	}
	for _, matchup := range c.Experiment.Matchups {
		for _, id := range matchup {
			if !ids[id] {
				return fmt.Errorf("%w: matchup uses unknown agent %d", ErrInvalid, id)
			}
		}
	}
	return nil
}

// Agent returns the agent config the CLI flags describe.
func (c Config) Agent() metrics.AgentConfig {
	return metrics.AgentConfig{
		Goroutines:  c.Goroutines,
		Duration:    c.Duration,
		Episodes:    c.Episodes,
		Cutoff:      c.Cutoff,
		VisitTarget: c.VisitTarget,
	}
}
