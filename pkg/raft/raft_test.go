package raft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/parleychat/parley/api/proto"
	"github.com/parleychat/parley/pkg/storage"
	"github.com/parleychat/parley/pkg/types"
	"github.com/parleychat/parley/pkg/wait"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memNetwork routes peer RPCs between in-process nodes and can partition
// them, standing in for the gRPC transport.
type memNetwork struct {
	mu    sync.Mutex
	nodes map[string]*Node
	down  map[string]bool
}

func newMemNetwork() *memNetwork {
	return &memNetwork{nodes: map[string]*Node{}, down: map[string]bool{}}
}

func (m *memNetwork) register(id string, n *Node) {
	m.mu.Lock()
	m.nodes[id] = n
	m.mu.Unlock()
}

func (m *memNetwork) setDown(id string, down bool) {
	m.mu.Lock()
	m.down[id] = down
	m.mu.Unlock()
}

func (m *memNetwork) route(from, to string) (*Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down[from] || m.down[to] {
		return nil, errors.New("peer unreachable")
	}
	n, ok := m.nodes[to]
	if !ok {
		return nil, fmt.Errorf("unknown peer %s", to)
	}
	return n, nil
}

type memTransport struct {
	net  *memNetwork
	from string
}

func (t *memTransport) RequestVote(_ context.Context, peerID string, req *proto.RequestVoteRequest) (*proto.RequestVoteResponse, error) {
	n, err := t.net.route(t.from, peerID)
	if err != nil {
		return nil, err
	}
	return n.HandleRequestVote(req), nil
}

func (t *memTransport) AppendEntries(_ context.Context, peerID string, req *proto.AppendEntriesRequest) (*proto.AppendEntriesResponse, error) {
	n, err := t.net.route(t.from, peerID)
	if err != nil {
		return nil, err
	}
	return n.HandleAppendEntries(req), nil
}

// recordingApplier captures applied commands in order.
type recordingApplier struct {
	mu       sync.Mutex
	commands [][]byte
}

func (a *recordingApplier) Apply(_ int64, entry types.LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.commands = append(a.commands, entry.Command)
	return nil
}

func (a *recordingApplier) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.commands)
}

func (a *recordingApplier) at(i int) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.commands[i]
}

func testConfig(id string, addrs map[string]string) Config {
	return Config{
		NodeID:             id,
		Addrs:              addrs,
		ElectionTimeoutMin: 60 * time.Millisecond,
		ElectionTimeoutMax: 120 * time.Millisecond,
		HeartbeatInterval:  20 * time.Millisecond,
		TickInterval:       10 * time.Millisecond,
		RPCTimeout:         50 * time.Millisecond,
	}
}

type testCluster struct {
	net      *memNetwork
	nodes    map[string]*Node
	appliers map[string]*recordingApplier
	stores   map[string]storage.Store
}

func newTestCluster(t *testing.T, ids ...string) *testCluster {
	t.Helper()
	addrs := map[string]string{}
	for i, id := range ids {
		addrs[id] = fmt.Sprintf("127.0.0.1:%d", 7000+i)
	}

	c := &testCluster{
		net:      newMemNetwork(),
		nodes:    map[string]*Node{},
		appliers: map[string]*recordingApplier{},
		stores:   map[string]storage.Store{},
	}
	for _, id := range ids {
		store, err := storage.NewBoltStore(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		snap, err := store.Load()
		require.NoError(t, err)

		applier := &recordingApplier{}
		n, err := NewNode(testConfig(id, addrs), store, &memTransport{net: c.net, from: id}, applier, nil, snap)
		require.NoError(t, err)

		c.net.register(id, n)
		c.nodes[id] = n
		c.appliers[id] = applier
		c.stores[id] = store
	}
	for _, n := range c.nodes {
		n.Start()
	}
	t.Cleanup(c.stopAll)
	return c
}

func (c *testCluster) stopAll() {
	for _, n := range c.nodes {
		n.Stop()
	}
}

func (c *testCluster) leader(t *testing.T) *Node {
	t.Helper()
	var leader *Node
	require.Eventually(t, func() bool {
		for _, n := range c.nodes {
			if n.IsLeader() {
				leader = n
				return true
			}
		}
		return false
	}, 3*time.Second, 10*time.Millisecond, "no leader elected")
	return leader
}

func awaitCommit(t *testing.T, ch <-chan wait.Result, term uint64) {
	t.Helper()
	select {
	case res := <-ch:
		require.NoError(t, res.Err)
		require.Equal(t, term, res.Term)
	case <-time.After(3 * time.Second):
		t.Fatal("commit wait timed out")
	}
}

func TestSingleNodeCommitsImmediately(t *testing.T) {
	c := newTestCluster(t, "n1")
	leader := c.leader(t)

	idx, term, ch, err := leader.Propose([]byte("solo"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), idx)
	awaitCommit(t, ch, term)

	require.Equal(t, 1, c.appliers["n1"].len())
	assert.Equal(t, []byte("solo"), c.appliers["n1"].at(0))
}

func TestElectionProducesOneLeaderPerTerm(t *testing.T) {
	c := newTestCluster(t, "n1", "n2", "n3")
	c.leader(t)

	// Let a few heartbeat rounds pass, then check: at most one node claims
	// leadership of any given term.
	time.Sleep(200 * time.Millisecond)
	leadersByTerm := map[uint64][]string{}
	for id, n := range c.nodes {
		st := n.Status()
		if st.Role == Leader {
			leadersByTerm[st.Term] = append(leadersByTerm[st.Term], id)
		}
	}
	for term, ids := range leadersByTerm {
		assert.Lenf(t, ids, 1, "term %d has leaders %v", term, ids)
	}
}

func TestReplicationReachesAllNodes(t *testing.T) {
	c := newTestCluster(t, "n1", "n2", "n3")
	leader := c.leader(t)

	for i := 0; i < 3; i++ {
		_, term, ch, err := leader.Propose([]byte(fmt.Sprintf("cmd-%d", i)))
		require.NoError(t, err)
		awaitCommit(t, ch, term)
	}

	require.Eventually(t, func() bool {
		for _, a := range c.appliers {
			if a.len() != 3 {
				return false
			}
		}
		return true
	}, 3*time.Second, 10*time.Millisecond, "entries not applied on all nodes")

	for _, a := range c.appliers {
		for i := 0; i < 3; i++ {
			assert.Equal(t, []byte(fmt.Sprintf("cmd-%d", i)), a.at(i))
		}
	}
}

func TestProposeOnFollowerReturnsErrNotLeader(t *testing.T) {
	c := newTestCluster(t, "n1", "n2", "n3")
	leader := c.leader(t)

	for id, n := range c.nodes {
		if id == leader.cfg.NodeID {
			continue
		}
		_, _, _, err := n.Propose([]byte("nope"))
		assert.ErrorIs(t, err, ErrNotLeader)
	}
}

func TestLeaderFailover(t *testing.T) {
	c := newTestCluster(t, "n1", "n2", "n3")
	old := c.leader(t)
	oldTerm := old.Status().Term

	_, term, ch, err := old.Propose([]byte("before"))
	require.NoError(t, err)
	awaitCommit(t, ch, term)

	c.net.setDown(old.cfg.NodeID, true)

	var successor *Node
	require.Eventually(t, func() bool {
		for id, n := range c.nodes {
			if id == old.cfg.NodeID {
				continue
			}
			if n.IsLeader() {
				successor = n
				return true
			}
		}
		return false
	}, 3*time.Second, 10*time.Millisecond, "no successor elected")

	st := successor.Status()
	assert.Greater(t, st.Term, oldTerm)

	// The committed entry survived the change of leadership.
	_, term2, ch2, err := successor.Propose([]byte("after"))
	require.NoError(t, err)
	awaitCommit(t, ch2, term2)
	assert.Equal(t, 2, c.appliers[successor.cfg.NodeID].len())
	assert.Equal(t, []byte("before"), c.appliers[successor.cfg.NodeID].at(0))
}

func TestQuorumLossBlocksCommit(t *testing.T) {
	c := newTestCluster(t, "n1", "n2", "n3")
	leader := c.leader(t)

	for id := range c.nodes {
		if id != leader.cfg.NodeID {
			c.net.setDown(id, true)
		}
	}
	// Give in-flight heartbeats time to settle before proposing.
	time.Sleep(50 * time.Millisecond)

	if !leader.IsLeader() {
		t.Skip("leadership lost before the proposal could be made")
	}
	_, _, ch, err := leader.Propose([]byte("stuck"))
	require.NoError(t, err)

	select {
	case res := <-ch:
		t.Fatalf("entry committed without a quorum: %+v", res)
	case <-time.After(500 * time.Millisecond):
	}
	assert.Equal(t, 0, c.appliers[leader.cfg.NodeID].len())
}

func TestRestartRecoversPersistedState(t *testing.T) {
	dir := t.TempDir()
	addrs := map[string]string{"n1": "127.0.0.1:7000"}

	store, err := storage.NewBoltStore(dir)
	require.NoError(t, err)
	snap, err := store.Load()
	require.NoError(t, err)

	net := newMemNetwork()
	applier := &recordingApplier{}
	n, err := NewNode(testConfig("n1", addrs), store, &memTransport{net: net, from: "n1"}, applier, nil, snap)
	require.NoError(t, err)
	net.register("n1", n)
	n.Start()
	require.Eventually(t, n.IsLeader, 3*time.Second, 10*time.Millisecond,
		"single node did not elect itself")

	var lastTerm uint64
	for i := 0; i < 3; i++ {
		_, term, ch, perr := n.Propose([]byte(fmt.Sprintf("cmd-%d", i)))
		require.NoError(t, perr)
		awaitCommit(t, ch, term)
		lastTerm = term
	}
	n.Stop()
	require.NoError(t, store.Close())

	store2, err := storage.NewBoltStore(dir)
	require.NoError(t, err)
	defer store2.Close()
	snap2, err := store2.Load()
	require.NoError(t, err)

	assert.Equal(t, lastTerm, snap2.CurrentTerm)
	assert.Equal(t, int64(2), snap2.CommitIndex)
	require.Len(t, snap2.Log, 3)
	assert.Equal(t, []byte("cmd-1"), snap2.Log[1].Command)

	applier2 := &recordingApplier{}
	n2, err := NewNode(testConfig("n1", addrs), store2, &memTransport{net: net, from: "n1"}, applier2, nil, snap2)
	require.NoError(t, err)
	st := n2.Status()
	assert.Equal(t, int64(3), st.LogLength)
	assert.Equal(t, int64(2), st.CommitIndex)
}

func newIsolatedNode(t *testing.T) (*Node, *recordingApplier) {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	snap, err := store.Load()
	require.NoError(t, err)

	applier := &recordingApplier{}
	net := newMemNetwork()
	n, err := NewNode(
		testConfig("n1", map[string]string{"n1": "a", "n2": "b", "n3": "c"}),
		store, &memTransport{net: net, from: "n1"}, applier, nil, snap,
	)
	require.NoError(t, err)
	return n, applier
}

func TestHandleRequestVote(t *testing.T) {
	t.Run("rejects lower term", func(t *testing.T) {
		n, _ := newIsolatedNode(t)
		n.currentTerm = 5

		resp := n.HandleRequestVote(&proto.RequestVoteRequest{
			Term: 4, CandidateID: "n2", LastLogIndex: -1,
		})
		assert.False(t, resp.VoteGranted)
		assert.Equal(t, uint64(5), resp.Term)
	})

	t.Run("grants once per term", func(t *testing.T) {
		n, _ := newIsolatedNode(t)

		resp := n.HandleRequestVote(&proto.RequestVoteRequest{
			Term: 1, CandidateID: "n2", LastLogIndex: -1,
		})
		require.True(t, resp.VoteGranted)

		// Same term, different candidate.
		resp = n.HandleRequestVote(&proto.RequestVoteRequest{
			Term: 1, CandidateID: "n3", LastLogIndex: -1,
		})
		assert.False(t, resp.VoteGranted)

		// Same candidate again is idempotent.
		resp = n.HandleRequestVote(&proto.RequestVoteRequest{
			Term: 1, CandidateID: "n2", LastLogIndex: -1,
		})
		assert.True(t, resp.VoteGranted)
	})

	t.Run("rejects stale log", func(t *testing.T) {
		n, _ := newIsolatedNode(t)
		n.entries = []types.LogEntry{{Term: 1, Command: []byte("a")}, {Term: 2, Command: []byte("b")}}

		// Shorter log at the same last term.
		resp := n.HandleRequestVote(&proto.RequestVoteRequest{
			Term: 3, CandidateID: "n2", LastLogIndex: 0, LastLogTerm: 2,
		})
		assert.False(t, resp.VoteGranted)

		// Higher last term wins regardless of length.
		resp = n.HandleRequestVote(&proto.RequestVoteRequest{
			Term: 4, CandidateID: "n2", LastLogIndex: 0, LastLogTerm: 3,
		})
		assert.True(t, resp.VoteGranted)
	})
}

func TestHandleAppendEntries(t *testing.T) {
	entry := func(term uint64, cmd string) *proto.LogEntry {
		return &proto.LogEntry{Term: term, Command: []byte(cmd)}
	}

	t.Run("rejects lower term", func(t *testing.T) {
		n, _ := newIsolatedNode(t)
		n.currentTerm = 5

		resp := n.HandleAppendEntries(&proto.AppendEntriesRequest{
			Term: 4, LeaderID: "n2", PrevLogIndex: -1, LeaderCommit: -1,
		})
		assert.False(t, resp.Success)
		assert.Equal(t, uint64(5), resp.Term)
	})

	t.Run("rejects missing previous entry", func(t *testing.T) {
		n, _ := newIsolatedNode(t)

		resp := n.HandleAppendEntries(&proto.AppendEntriesRequest{
			Term: 1, LeaderID: "n2", PrevLogIndex: 3, PrevLogTerm: 1,
			Entries: []*proto.LogEntry{entry(1, "x")}, LeaderCommit: -1,
		})
		assert.False(t, resp.Success)
	})

	t.Run("appends and records leader", func(t *testing.T) {
		n, _ := newIsolatedNode(t)

		resp := n.HandleAppendEntries(&proto.AppendEntriesRequest{
			Term: 1, LeaderID: "n2", PrevLogIndex: -1,
			Entries: []*proto.LogEntry{entry(1, "a"), entry(1, "b")}, LeaderCommit: -1,
		})
		require.True(t, resp.Success)
		assert.Equal(t, "b", n.LeaderAddr())
		require.Len(t, n.entries, 2)
	})

	t.Run("truncates only at term conflict", func(t *testing.T) {
		n, _ := newIsolatedNode(t)
		require.True(t, n.HandleAppendEntries(&proto.AppendEntriesRequest{
			Term: 1, LeaderID: "n2", PrevLogIndex: -1,
			Entries: []*proto.LogEntry{entry(1, "a"), entry(1, "b"), entry(1, "c")},
			LeaderCommit: -1,
		}).Success)

		// Duplicate prefix plus a conflicting tail from a newer leader.
		resp := n.HandleAppendEntries(&proto.AppendEntriesRequest{
			Term: 2, LeaderID: "n3", PrevLogIndex: -1,
			Entries: []*proto.LogEntry{entry(1, "a"), entry(2, "B")},
			LeaderCommit: -1,
		})
		require.True(t, resp.Success)
		require.Len(t, n.entries, 2)
		assert.Equal(t, []byte("a"), n.entries[0].Command)
		assert.Equal(t, []byte("B"), n.entries[1].Command)
		assert.Equal(t, uint64(2), n.entries[1].Term)
	})

	t.Run("duplicate batch leaves log untouched", func(t *testing.T) {
		n, _ := newIsolatedNode(t)
		req := &proto.AppendEntriesRequest{
			Term: 1, LeaderID: "n2", PrevLogIndex: -1,
			Entries: []*proto.LogEntry{entry(1, "a"), entry(1, "b")}, LeaderCommit: -1,
		}
		require.True(t, n.HandleAppendEntries(req).Success)
		require.True(t, n.HandleAppendEntries(req).Success)
		assert.Len(t, n.entries, 2)
	})

	t.Run("commit capped by request coverage", func(t *testing.T) {
		n, applier := newIsolatedNode(t)
		require.True(t, n.HandleAppendEntries(&proto.AppendEntriesRequest{
			Term: 1, LeaderID: "n2", PrevLogIndex: -1,
			Entries: []*proto.LogEntry{entry(1, "a"), entry(1, "b")}, LeaderCommit: -1,
		}).Success)

		// The leader claims a commit index past what this heartbeat covers.
		resp := n.HandleAppendEntries(&proto.AppendEntriesRequest{
			Term: 1, LeaderID: "n2", PrevLogIndex: 0, PrevLogTerm: 1,
			LeaderCommit: 5,
		})
		require.True(t, resp.Success)
		assert.Equal(t, int64(0), n.Status().CommitIndex)
		assert.Equal(t, 1, applier.len())
	})

	t.Run("heartbeat from current term demotes candidate", func(t *testing.T) {
		n, _ := newIsolatedNode(t)
		n.role = Candidate
		n.currentTerm = 3

		resp := n.HandleAppendEntries(&proto.AppendEntriesRequest{
			Term: 3, LeaderID: "n2", PrevLogIndex: -1, LeaderCommit: -1,
		})
		require.True(t, resp.Success)
		st := n.Status()
		assert.Equal(t, Follower, st.Role)
		assert.Equal(t, "n2", st.LeaderID)
	})
}

func TestConfigValidation(t *testing.T) {
	addrs := map[string]string{"n1": "a"}

	_, err := NewNode(Config{NodeID: "nope", Addrs: addrs}, nil, nil, nil, nil, &storage.Snapshot{CommitIndex: -1, LastApplied: -1})
	assert.Error(t, err)

	cfg := testConfig("n1", addrs)
	cfg.HeartbeatInterval = cfg.ElectionTimeoutMin
	_, err = NewNode(cfg, nil, nil, nil, nil, &storage.Snapshot{CommitIndex: -1, LastApplied: -1})
	assert.Error(t, err)
}
