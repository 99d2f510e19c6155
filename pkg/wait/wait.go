package wait

import "sync"

// Result is what a commit-waiter receives once the entry at its registered
// index has been applied. Term is the term of the entry actually applied at
// that index; when it differs from the term the caller proposed in, the
// caller's command was overwritten by a later leader and never took effect.
// Err carries the command's business outcome.
type Result struct {
	Term uint64
	Err  error
}

// List registers waiters by log index and wakes them on apply. A mutating
// request registers before its entry replicates and blocks on the returned
// channel; the apply loop triggers the index after the entry's effects are
// durable.
type List struct {
	mu sync.Mutex
	m  map[int64]chan Result
}

func New() *List {
	return &List{m: make(map[int64]chan Result)}
}

// Register returns the channel that will deliver the apply outcome for
// index. At most one waiter per index: the leader proposes each index once.
func (l *List) Register(index int64) <-chan Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch := l.m[index]
	if ch == nil {
		ch = make(chan Result, 1)
		l.m[index] = ch
	}
	return ch
}

// Trigger delivers the outcome for index and drops the registration. A
// trigger with no registered waiter is a no-op; followers apply entries
// nobody local is waiting on.
func (l *List) Trigger(index int64, r Result) {
	l.mu.Lock()
	ch := l.m[index]
	delete(l.m, index)
	l.mu.Unlock()
	if ch != nil {
		ch <- r
		close(ch)
	}
}

// Pending returns the number of registered waiters.
func (l *List) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
