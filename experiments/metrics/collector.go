package metrics

import (
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/stat"
)

// StopReason names the condition that ended a search.
type StopReason string

const (
	StopEpisodes    StopReason = "episodes"
	StopDuration    StopReason = "duration"
	StopVisitTarget StopReason = "visit_target"
	StopMaxNodes    StopReason = "max_nodes"
	StopCanceled    StopReason = "canceled"
)

type SearchMetric struct {
	Goroutines     int
	Duration       time.Duration
	Episodes       int
	Cutoff         int
	FullPlayouts   int // Playouts that reached a terminal state
	NodesExpanded  int
	NodesCollected int
	TableSize      int
	RootPlayouts   int
	VisitEntropy   float64
	StopReason     StopReason
	IsTreeReused   bool
}

type MoveMetric struct {
	Step   int
	Player string
	Move   string
	SearchMetric
}

type GameMetric struct {
	Winner     string
	Scores     string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalMoves int
}

// Collector gathers search metrics. Its counters are safe for concurrent use by
// the search goroutines and the transposition table.
type Collector interface {
	Start(goroutines, cutoff int)
	SetTreeReused(value bool)
	AddEpisode()
	NodeExpanded()
	TerminalReached()
	NodesCollected(n int)
	Complete() SearchMetric
}

type collector struct {
	goroutines     int
	cutoff         int
	startTime      time.Time
	episodes       atomic.Int64
	fullPlayouts   atomic.Int64
	nodesExpanded  atomic.Int64
	nodesCollected atomic.Int64
	isTreeReused   atomic.Bool
}

func NewCollector() Collector {
	return &collector{}
}

// Start resets the per-search counters. Collected nodes are kept since garbage
// collection runs between searches.
func (m *collector) Start(goroutines, cutoff int) {
	m.startTime = time.Now()
	m.goroutines = goroutines
	m.cutoff = cutoff
	m.episodes.Store(0)
	m.fullPlayouts.Store(0)
	m.nodesExpanded.Store(0)
}

func (m *collector) SetTreeReused(value bool) {
	m.isTreeReused.Store(value)
}

func (m *collector) AddEpisode() {
	m.episodes.Add(1)
}

func (m *collector) NodeExpanded() {
	m.nodesExpanded.Add(1)
}

func (m *collector) TerminalReached() {
	m.fullPlayouts.Add(1)
}

func (m *collector) NodesCollected(n int) {
	m.nodesCollected.Add(int64(n))
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Goroutines:     m.goroutines,
		Duration:       time.Since(m.startTime),
		Episodes:       int(m.episodes.Load()),
		Cutoff:         m.cutoff,
		FullPlayouts:   int(m.fullPlayouts.Load()),
		NodesExpanded:  int(m.nodesExpanded.Load()),
		NodesCollected: int(m.nodesCollected.Swap(0)),
		IsTreeReused:   m.isTreeReused.Load(),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(goroutines, cutoff int) {}
func (m *dummyCollector) SetTreeReused(value bool)    {}
func (m *dummyCollector) AddEpisode()                 {}
func (m *dummyCollector) NodeExpanded()               {}
func (m *dummyCollector) TerminalReached()            {}
func (m *dummyCollector) NodesCollected(n int)        {}
func (m *dummyCollector) Complete() SearchMetric      { return SearchMetric{} }

// VisitEntropy is the Shannon entropy in nats of a visit distribution. A search that
// concentrates on a single move scores 0.
func VisitEntropy(shares []float64) float64 {
	if len(shares) == 0 {
		return 0
	}
	return stat.Entropy(shares)
}
