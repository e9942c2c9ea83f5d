package searcher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"gametrees/experiments/metrics"
	"gametrees/game"
)

const (
	DefaultCutoff   = 400
	DefaultMaxNodes = 1 << 20
)

type Option[S, M, P comparable] func(mcts *MCTS[S, M, P])

// MCTS runs playouts on a shared transposition table from several goroutines and
// turns the statistics into a move. The table survives between moves; Advance
// releases the part of it the game has moved past.
type MCTS[S, M, P comparable] struct {
	game        game.Game[S, M, P]
	goroutines  int
	duration    time.Duration
	episodes    int
	cutoff      int
	maxNodes    int
	visitTarget int
	table       *Table[S, M, P]
	metrics     metrics.Collector
	observed    bool
}

func WithDuration[S, M, P comparable](duration time.Duration) Option[S, M, P] {
	return func(m *MCTS[S, M, P]) {
		if duration > 0 {
			m.duration = duration
		}
	}
}

func WithEpisodes[S, M, P comparable](episodes int) Option[S, M, P] {
	return func(m *MCTS[S, M, P]) {
		if episodes > 0 {
			m.episodes = episodes
		}
	}
}

// WithCutoff sets the playout budget: the number of moves a playout may descend
// before the reached state is scored neutrally.
func WithCutoff[S, M, P comparable](depth int) Option[S, M, P] {
	return func(m *MCTS[S, M, P]) {
		if depth > 0 {
			m.cutoff = depth
		}
	}
}

// WithMaxNodes stops searching once the table holds n nodes.
func WithMaxNodes[S, M, P comparable](n int) Option[S, M, P] {
	return func(m *MCTS[S, M, P]) {
		if n > 0 {
			m.maxNodes = n
		}
	}
}

// WithVisitTarget stops searching once the root has k playouts per move.
func WithVisitTarget[S, M, P comparable](k int) Option[S, M, P] {
	return func(m *MCTS[S, M, P]) {
		if k > 0 {
			m.visitTarget = k
		}
	}
}

func WithMetrics[S, M, P comparable]() Option[S, M, P] {
	return func(m *MCTS[S, M, P]) {
		m.metrics = metrics.NewCollector()
		m.observed = true
	}
}

// WithTable searches on an existing table instead of a fresh one.
func WithTable[S, M, P comparable](t *Table[S, M, P]) Option[S, M, P] {
	return func(m *MCTS[S, M, P]) {
		if t != nil {
			m.table = t
		}
	}
}

func NewMCTS[S, M, P comparable](g game.Game[S, M, P], goroutines int, options ...Option[S, M, P]) *MCTS[S, M, P] {
	m := &MCTS[S, M, P]{ // Default values
		game:       g,
		goroutines: max(goroutines, 1),
		cutoff:     DefaultCutoff,
		maxNodes:   DefaultMaxNodes,
		metrics:    metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if m.episodes <= 0 && m.duration <= 0 {
		panic("Must specify search episodes or duration")
	}
	if m.table == nil {
		m.table = NewTable(g, WithObserver(m.metrics))
	} else if m.observed {
		m.table.observer = m.metrics
	}
	return m
}

func (m *MCTS[S, M, P]) Table() *Table[S, M, P] {
	return m.table
}

// Simulate searches from s and returns the share of playouts each move received
// along with the search metrics.
func (m *MCTS[S, M, P]) Simulate(ctx context.Context, s S) (map[M]float64, metrics.SearchMetric) {
	m.metrics.Start(m.goroutines, m.cutoff)
	m.metrics.SetTreeReused(m.table.Playouts(s) > 0)

	reason := m.search(ctx, s)

	metric := m.metrics.Complete()
	policy := m.table.Policy(s)
	metric.StopReason = reason
	metric.TableSize = m.table.Len()
	metric.RootPlayouts = m.table.Playouts(s)
	metric.VisitEntropy = metrics.VisitEntropy(lo.Values(policy))

	log.Debug().
		Int("goroutines", m.goroutines).
		Int("episodes", metric.Episodes).
		Int("nodes", metric.TableSize).
		Str("stop", string(reason)).
		Dur("duration", metric.Duration).
		Msg("search completed")
	return policy, metric
}

// FindNextMove searches from s and commits to the robust child.
func (m *MCTS[S, M, P]) FindNextMove(ctx context.Context, s S) (M, metrics.SearchMetric, bool) {
	_, metric := m.Simulate(ctx, s)
	move, ok := m.table.BestChoice(s)
	return move, metric, ok
}

// Advance releases the part of the table only reachable through old after the game
// moved from old to next. It returns the number of released nodes.
func (m *MCTS[S, M, P]) Advance(old, next S) int {
	if old == next {
		return 0
	}
	removed := m.table.GarbageCollect(old, next)
	log.Debug().Int("removed", removed).Int("nodes", m.table.Len()).Msg("advanced search root")
	return removed
}

func (m *MCTS[S, M, P]) search(ctx context.Context, s S) metrics.StopReason {
	parent := ctx
	var cancel context.CancelFunc
	if m.duration > 0 {
		ctx, cancel = context.WithTimeout(parent, m.duration)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	defer cancel()

	var (
		once   sync.Once
		reason metrics.StopReason
	)
	stop := func(r metrics.StopReason) {
		once.Do(func() { reason = r })
		cancel()
	}

	edges := m.table.Expand(s)
	target := m.visitTarget * edges
	if m.table.Len() >= m.maxNodes {
		log.Warn().Msgf("table holds %d nodes, at least the limit of %d, skipping search", m.table.Len(), m.maxNodes)
		return metrics.StopMaxNodes
	}

	var started atomic.Int64
	g := errgroup.Group{}
	for range m.goroutines {
		g.Go(func() error {
			for ctx.Err() == nil {
				if m.episodes > 0 && started.Add(1) > int64(m.episodes) {
					stop(metrics.StopEpisodes)
					return nil
				}
				if m.table.Len() >= m.maxNodes {
					stop(metrics.StopMaxNodes)
					return nil
				}

				m.table.Playout(s, m.cutoff)
				m.metrics.AddEpisode()

				if m.visitTarget > 0 && m.table.Playouts(s) >= target {
					stop(metrics.StopVisitTarget)
					return nil
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	once.Do(func() {
		if parent.Err() != nil {
			reason = metrics.StopCanceled
		} else {
			reason = metrics.StopDuration
		}
	})
	return reason
}
