package raft

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/parleychat/parley/pkg/events"
	"github.com/parleychat/parley/pkg/log"
	"github.com/parleychat/parley/pkg/storage"
	"github.com/parleychat/parley/pkg/types"
	"github.com/parleychat/parley/pkg/wait"
)

// Role is a node's position in the current term.
type Role int32

const (
	Follower Role = iota
	Candidate
	Leader
)

func (r Role) String() string {
	switch r {
	case Follower:
		return "follower"
	case Candidate:
		return "candidate"
	case Leader:
		return "leader"
	default:
		return "unknown"
	}
}

// Sentinel errors surfaced to the service layer.
var (
	// ErrNotLeader reports a proposal on a node that is not the leader.
	ErrNotLeader = errors.New("not the leader")

	// ErrNoLeader reports that no leader is currently known.
	ErrNoLeader = errors.New("no leader available")

	// ErrTimeout reports a commit wait that expired. The entry may still
	// commit later.
	ErrTimeout = errors.New("commit wait timed out")
)

// Node is one member of the cluster. All mutable fields are guarded by mu;
// handler bodies hold it briefly and never issue RPCs under it.
type Node struct {
	cfg       Config
	store     storage.Store
	transport Transport
	applier   Applier
	waiters   *wait.List
	broker    *events.Broker
	logger    zerolog.Logger

	mu          sync.Mutex
	role        Role
	currentTerm uint64
	votedFor    string
	leaderID    string
	entries     []types.LogEntry
	commitIndex int64
	lastApplied int64

	// Candidate state.
	votes map[string]bool

	// Leader state.
	nextIndex  map[string]int64
	matchIndex map[string]int64

	electionDeadline time.Time
	lastHeartbeat    time.Time
	rnd              *rand.Rand

	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
}

// NewNode builds a node from its recovered durable image. The caller has
// already rebuilt the application state from the same snapshot; entries in
// (last_applied, commit_index] are re-applied by the control loop.
func NewNode(cfg Config, store storage.Store, transport Transport, applier Applier, broker *events.Broker, snap *storage.Snapshot) (*Node, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	n := &Node{
		cfg:         cfg,
		store:       store,
		transport:   transport,
		applier:     applier,
		waiters:     wait.New(),
		broker:      broker,
		logger:      log.WithComponent("raft").With().Str("node_id", cfg.NodeID).Logger(),
		role:        Follower,
		currentTerm: snap.CurrentTerm,
		votedFor:    snap.VotedFor,
		entries:     snap.Log,
		commitIndex: snap.CommitIndex,
		lastApplied: snap.LastApplied,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	n.resetElectionTimerLocked()

	n.logger.Info().
		Uint64("term", n.currentTerm).
		Int("log_length", len(n.entries)).
		Int64("commit_index", n.commitIndex).
		Int64("last_applied", n.lastApplied).
		Msg("node initialized")
	return n, nil
}

// Start launches the control loop.
func (n *Node) Start() {
	n.mu.Lock()
	if n.started {
		n.mu.Unlock()
		return
	}
	n.started = true
	n.mu.Unlock()
	go n.run()
}

// Stop terminates the control loop and waits for it to exit. In-flight peer
// RPCs finish on their own deadlines.
func (n *Node) Stop() {
	n.mu.Lock()
	if !n.started {
		n.mu.Unlock()
		return
	}
	n.started = false
	n.mu.Unlock()
	close(n.stopCh)
	<-n.doneCh
}

func (n *Node) run() {
	defer close(n.doneCh)
	ticker := time.NewTicker(n.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n.tick()
		case <-n.stopCh:
			return
		}
	}
}

// tick advances the node: election timeout when not leader, heartbeats when
// leader, then application of newly committed entries.
func (n *Node) tick() {
	n.mu.Lock()
	switch n.role {
	case Leader:
		if time.Since(n.lastHeartbeat) >= n.cfg.HeartbeatInterval {
			n.lastHeartbeat = time.Now()
			batches := n.buildAppendBatchesLocked()
			n.mu.Unlock()
			n.dispatchAppends(batches)
			n.applyCommitted()
			return
		}
	case Follower, Candidate:
		if time.Now().After(n.electionDeadline) {
			votes := n.startElectionLocked()
			n.mu.Unlock()
			n.dispatchVotes(votes)
			n.applyCommitted()
			return
		}
	}
	n.mu.Unlock()
	n.applyCommitted()
}

// applyCommitted applies entries in (last_applied, commit_index] in strict
// order and wakes their commit-waiters. The applier persists each entry's
// effects atomically with the last_applied advance, so the lock is held
// across the storage transaction; this is the serialization point that
// keeps reads consistent with applied state.
func (n *Node) applyCommitted() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.applyCommittedLocked()
}

func (n *Node) applyCommittedLocked() {
	for n.lastApplied < n.commitIndex {
		idx := n.lastApplied + 1
		entry := n.entries[idx]
		outcome := n.applier.Apply(idx, entry)
		n.lastApplied = idx
		n.waiters.Trigger(idx, wait.Result{Term: entry.Term, Err: outcome})
	}
}

// Propose appends a command to the log as leader. It returns the entry's
// index and term together with the channel that delivers the apply outcome;
// the caller blocks on it with its own timeout. ErrNotLeader means the
// caller must redirect.
func (n *Node) Propose(command []byte) (int64, uint64, <-chan wait.Result, error) {
	n.mu.Lock()
	if n.role != Leader {
		n.mu.Unlock()
		return 0, 0, nil, ErrNotLeader
	}

	index := int64(len(n.entries))
	entry := types.LogEntry{Term: n.currentTerm, Command: command}
	n.entries = append(n.entries, entry)
	if err := n.store.AppendLog(index, []types.LogEntry{entry}); err != nil {
		n.logger.Fatal().Err(err).Int64("index", index).Msg("failed to persist proposed entry")
	}
	term := n.currentTerm
	ch := n.waiters.Register(index)

	// A single-node cluster commits immediately.
	n.advanceCommitLocked()
	n.applyCommittedLocked()

	n.lastHeartbeat = time.Now()
	batches := n.buildAppendBatchesLocked()
	n.mu.Unlock()

	n.dispatchAppends(batches)
	return index, term, ch, nil
}

// Status is a point-in-time view of the node, for probes and metrics.
type Status struct {
	NodeID      string
	Role        Role
	Term        uint64
	LeaderID    string
	LeaderAddr  string
	CommitIndex int64
	LastApplied int64
	LogLength   int64
	ClusterSize int
}

// Status reports the node's current view.
func (n *Node) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return Status{
		NodeID:      n.cfg.NodeID,
		Role:        n.role,
		Term:        n.currentTerm,
		LeaderID:    n.leaderID,
		LeaderAddr:  n.cfg.Addrs[n.leaderID],
		CommitIndex: n.commitIndex,
		LastApplied: n.lastApplied,
		LogLength:   int64(len(n.entries)),
		ClusterSize: len(n.cfg.Addrs),
	}
}

// IsLeader reports whether this node currently believes it is the leader.
func (n *Node) IsLeader() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.role == Leader
}

// LeaderAddr returns the believed leader's endpoint, or "" when unknown.
func (n *Node) LeaderAddr() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cfg.Addrs[n.leaderID]
}

// persistTermAndVote flushes (current_term, voted_for); called under mu at
// every point the pair changes, before any response leaves the node.
func (n *Node) persistTermAndVote() {
	if err := n.store.SetTermAndVote(n.currentTerm, n.votedFor); err != nil {
		n.logger.Fatal().Err(err).Msg("failed to persist term and vote")
	}
}

func (n *Node) resetElectionTimerLocked() {
	spread := n.cfg.ElectionTimeoutMax - n.cfg.ElectionTimeoutMin
	timeout := n.cfg.ElectionTimeoutMin + time.Duration(n.rnd.Int63n(int64(spread)))
	n.electionDeadline = time.Now().Add(timeout)
}

// stepDownLocked adopts newTerm (when higher) and reverts to follower,
// abandoning any candidacy or leadership.
func (n *Node) stepDownLocked(newTerm uint64) {
	wasLeader := n.role == Leader
	if newTerm > n.currentTerm {
		n.currentTerm = newTerm
		n.votedFor = ""
		n.leaderID = ""
		n.persistTermAndVote()
	}
	n.role = Follower
	n.votes = nil
	n.nextIndex = nil
	n.matchIndex = nil
	n.resetElectionTimerLocked()

	if wasLeader {
		n.logger.Info().Uint64("term", n.currentTerm).Msg("stepping down")
		n.publish(events.EventLeaderLost, "leadership lost", map[string]string{
			"node_id": n.cfg.NodeID,
			"term":    fmt.Sprintf("%d", n.currentTerm),
		})
	}
}

func (n *Node) lastLogInfoLocked() (int64, uint64) {
	idx := int64(len(n.entries)) - 1
	if idx < 0 {
		return -1, 0
	}
	return idx, n.entries[idx].Term
}

func (n *Node) publish(typ events.EventType, msg string, meta map[string]string) {
	if n.broker == nil {
		return
	}
	n.broker.Publish(&events.Event{Type: typ, Message: msg, Metadata: meta})
}
