package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDPoolSequential(t *testing.T) {
	p := newIDPool()
	assert.Equal(t, uint32(1), p.reserve())
	assert.Equal(t, uint32(2), p.reserve())
	assert.Equal(t, uint32(3), p.reserve())
}

func TestIDPoolLowestFirstReuse(t *testing.T) {
	p := newIDPool()
	for i := 0; i < 5; i++ {
		p.reserve()
	}
	p.release(4)
	p.release(2)

	assert.Equal(t, uint32(2), p.reserve())
	assert.Equal(t, uint32(4), p.reserve())
	assert.Equal(t, uint32(6), p.reserve())
}

func TestIDPoolReleaseEdgeCases(t *testing.T) {
	p := newIDPool()
	p.reserve() // 1

	p.release(0)  // never valid
	p.release(9)  // never handed out
	p.release(1)
	p.release(1) // double release

	assert.Equal(t, uint32(1), p.reserve())
	assert.Equal(t, uint32(2), p.reserve())
}

func TestIDPoolObserveFollowerConverges(t *testing.T) {
	// Leader reserves then observes while applying; a follower only
	// observes. Both must hand out the same ids afterwards.
	leader := newIDPool()
	follower := newIDPool()

	id := leader.reserve()
	leader.observe(id)
	follower.observe(id)

	assert.Equal(t, uint32(2), leader.reserve())
	assert.Equal(t, uint32(2), follower.reserve())
}

func TestIDPoolNoOpReleaseConverges(t *testing.T) {
	// A duplicate-username create reserves on the leader, then releases on
	// apply everywhere. Leader and follower must allocate identically
	// afterwards even though only the leader ever reserved.
	leader := newIDPool()
	follower := newIDPool()

	// Existing account: id 1 in use on both.
	id := leader.reserve()
	leader.observe(id)
	follower.observe(id)

	// The raced duplicate reserves 2 on the leader only, then both apply
	// the no-op release.
	dup := leader.reserve()
	assert.Equal(t, uint32(2), dup)
	leader.release(dup)
	follower.release(dup)

	a, b := leader.reserve(), follower.reserve()
	assert.Equal(t, a, b)
	assert.Equal(t, uint32(2), a)
}

func TestIDPoolObserveSkippedIDs(t *testing.T) {
	p := newIDPool()
	p.observe(4)

	// 1..3 were never used; they become free and are reused lowest-first.
	assert.Equal(t, uint32(1), p.reserve())
	assert.Equal(t, uint32(2), p.reserve())
	assert.Equal(t, uint32(3), p.reserve())
	assert.Equal(t, uint32(5), p.reserve())
}

func TestIDPoolRebuild(t *testing.T) {
	tests := []struct {
		name  string
		inUse []uint32
		next  uint32
		free  []uint32
	}{
		{name: "empty", inUse: nil, next: 1, free: nil},
		{name: "contiguous", inUse: []uint32{1, 2, 3}, next: 4, free: nil},
		{name: "gaps", inUse: []uint32{2, 5}, next: 6, free: []uint32{1, 3, 4}},
		{name: "unsorted input", inUse: []uint32{5, 2}, next: 6, free: []uint32{1, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newIDPool()
			p.rebuild(tt.inUse)
			assert.Equal(t, tt.next, p.next)
			assert.Equal(t, tt.free, append([]uint32(nil), p.free...))
			if tt.free == nil {
				assert.Empty(t, p.free)
			}
		})
	}
}
