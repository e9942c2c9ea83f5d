package searcher

import (
	"sync"
	"sync/atomic"

	"golang.org/x/exp/rand"

	"gametrees/game"
)

const shardCount = 64

// Observer is notified of table events. Implementations must be safe for concurrent
// use.
type Observer interface {
	NodeExpanded()
	TerminalReached()
	NodesCollected(n int)
}

type noopObserver struct{}

func (noopObserver) NodeExpanded()        {}
func (noopObserver) TerminalReached()     {}
func (noopObserver) NodesCollected(n int) {}

type shard[S, M, P comparable] struct {
	sync.RWMutex
	metas map[S]*meta[S, M, P]
}

// Table is a transposition table: one node per distinct state, shared by every path
// that reaches it. It is safe for concurrent playouts.
type Table[S, M, P comparable] struct {
	game     game.Game[S, M, P]
	observer Observer

	// Playouts hold gc shared, garbage collection holds it exclusively
	gc     sync.RWMutex
	shards [shardCount]shard[S, M, P]
	size   atomic.Int64

	rngMu sync.Mutex
	rng   *rand.Rand
}

type TableOption func(*tableOptions)

type tableOptions struct {
	observer Observer
	rng      *rand.Rand
}

func WithObserver(observer Observer) TableOption {
	return func(o *tableOptions) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithRand fixes the source of tie-breaking randomness.
func WithRand(rng *rand.Rand) TableOption {
	return func(o *tableOptions) {
		o.rng = rng
	}
}

// NewTable returns a table holding only the expanded initial state of g.
func NewTable[S, M, P comparable](g game.Game[S, M, P], opts ...TableOption) *Table[S, M, P] {
	return WithState(g, g.New(), opts...)
}

// WithState returns a table holding exactly one expanded node for s.
func WithState[S, M, P comparable](g game.Game[S, M, P], s S, opts ...TableOption) *Table[S, M, P] {
	o := tableOptions{observer: noopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Table[S, M, P]{
		game:     g,
		observer: o.observer,
		rng:      o.rng,
	}
	for i := range t.shards {
		t.shards[i].metas = make(map[S]*meta[S, M, P])
	}
	t.insert(s)
	return t
}

func (t *Table[S, M, P]) shard(s S) *shard[S, M, P] {
	return &t.shards[t.game.Hash(s)%shardCount]
}

func (t *Table[S, M, P]) get(s S) (*meta[S, M, P], bool) {
	sh := t.shard(s)
	sh.RLock()
	defer sh.RUnlock()
	m, ok := sh.metas[s]
	return m, ok
}

// insert expands s unless another playout already did. Existing statistics are never
// overwritten.
func (t *Table[S, M, P]) insert(s S) {
	sh := t.shard(s)

	sh.RLock()
	_, ok := sh.metas[s]
	sh.RUnlock()
	if ok {
		return
	}

	sh.Lock()
	defer sh.Unlock()
	if _, ok := sh.metas[s]; ok {
		return
	}
	sh.metas[s] = newMeta(t.game, s)
	t.size.Add(1)
	t.observer.NodeExpanded()
}

func (t *Table[S, M, P]) remove(s S) (*meta[S, M, P], bool) {
	sh := t.shard(s)
	sh.Lock()
	defer sh.Unlock()
	m, ok := sh.metas[s]
	if ok {
		delete(sh.metas, s)
		t.size.Add(-1)
	}
	return m, ok
}

// Expand makes sure s has a node and returns its number of moves.
func (t *Table[S, M, P]) Expand(s S) int {
	t.gc.RLock()
	defer t.gc.RUnlock()
	t.insert(s)
	m, _ := t.get(s)
	return len(m.moves)
}

// Len returns the number of nodes.
func (t *Table[S, M, P]) Len() int {
	return int(t.size.Load())
}

func (t *Table[S, M, P]) Contains(s S) bool {
	_, ok := t.get(s)
	return ok
}

// Stats returns a snapshot of the node for s.
func (t *Table[S, M, P]) Stats(s S) (Stats[S, M, P], bool) {
	m, ok := t.get(s)
	if !ok {
		return Stats[S, M, P]{}, false
	}
	return m.stats(), true
}

// Playouts returns the playout count of s, 0 when s has no node.
func (t *Table[S, M, P]) Playouts(s S) int {
	m, ok := t.get(s)
	if !ok {
		return 0
	}
	m.Lock()
	defer m.Unlock()
	return m.playouts
}

func (t *Table[S, M, P]) intn(n int) int {
	if t.rng == nil {
		return rand.Intn(n)
	}
	t.rngMu.Lock()
	defer t.rngMu.Unlock()
	return t.rng.Intn(n)
}
