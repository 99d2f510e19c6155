package state

import "sort"

// idPool allocates uint32 ids starting at 1, reusing tombstoned ids
// lowest-first. The pool must behave identically on every replica: the
// sequence of ids it hands out is a function of the observe/release calls
// made while applying the log, never of local history.
//
// next is the lowest id never handed out; free holds released ids below
// next, sorted ascending.
type idPool struct {
	next uint32
	free []uint32
}

func newIDPool() *idPool {
	return &idPool{next: 1}
}

// reserve hands out the lowest available id. Called on the leader at
// propose time; the chosen id travels inside the command payload.
func (p *idPool) reserve() uint32 {
	if len(p.free) > 0 {
		id := p.free[0]
		p.free = p.free[1:]
		return id
	}
	id := p.next
	p.next++
	return id
}

// observe records that id is now in use. Called while applying a create
// command, on every replica. Ids the counter skipped over become free so
// that a replica that never reserved reaches the same pool behavior as the
// leader that did.
func (p *idPool) observe(id uint32) {
	if id >= p.next {
		for j := p.next; j < id; j++ {
			p.insertFree(j)
		}
		p.next = id + 1
	} else {
		p.removeFree(id)
	}
}

// release returns id to the pool. Called when a delete command tombstones
// an id and when a create command no-ops on apply. Releasing an id the pool
// never handed out, or twice, is harmless.
func (p *idPool) release(id uint32) {
	if id == 0 || id >= p.next {
		return
	}
	p.insertFree(id)
}

func (p *idPool) insertFree(id uint32) {
	i := sort.Search(len(p.free), func(i int) bool { return p.free[i] >= id })
	if i < len(p.free) && p.free[i] == id {
		return
	}
	p.free = append(p.free, 0)
	copy(p.free[i+1:], p.free[i:])
	p.free[i] = id
}

func (p *idPool) removeFree(id uint32) {
	i := sort.Search(len(p.free), func(i int) bool { return p.free[i] >= id })
	if i < len(p.free) && p.free[i] == id {
		p.free = append(p.free[:i], p.free[i+1:]...)
	}
}

// rebuild initializes the pool from the set of ids currently in use:
// next becomes max(id)+1 and every unused id below it becomes free.
func (p *idPool) rebuild(inUse []uint32) {
	p.next = 1
	p.free = p.free[:0]
	if len(inUse) == 0 {
		return
	}
	sorted := make([]uint32, len(inUse))
	copy(sorted, inUse)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	expect := uint32(1)
	for _, id := range sorted {
		for ; expect < id; expect++ {
			p.free = append(p.free, expect)
		}
		expect = id + 1
	}
	p.next = expect
}
