package searcher

// GarbageCollect releases the graph hanging off oldRoot once the real game has moved
// past it and returns the number of removed nodes.
//
// oldRoot is always removed. Every other node is removed once no traversal that is
// still alive leads into it, i.e. its paths count drops to zero after the touches of
// the removed parents are released. States in keep are never removed; the caller
// pins the new real state there. GarbageCollect waits for running playouts to finish
// and blocks new ones until it is done.
func (t *Table[S, M, P]) GarbageCollect(oldRoot S, keep ...S) int {
	t.gc.Lock()
	defer t.gc.Unlock()

	pinned := make(map[S]struct{}, len(keep))
	for _, s := range keep {
		pinned[s] = struct{}{}
	}

	removed := 0
	first := true
	worklist := []S{oldRoot}
	for len(worklist) > 0 {
		s := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		node, ok := t.get(s)
		if !ok {
			continue
		}
		isRoot := first && s == oldRoot
		first = false
		if _, ok := pinned[s]; ok {
			continue
		}
		paths, touched := node.touched()
		if !isRoot && paths > 0 {
			continue
		}

		t.remove(s)
		removed++
		// One node lock at a time: the edges were copied under the parent's lock
		for _, edge := range touched {
			if child, ok := t.get(edge.State); ok {
				child.release(edge.Touches)
			}
			worklist = append(worklist, edge.State)
		}
	}

	t.observer.NodesCollected(removed)
	return removed
}
