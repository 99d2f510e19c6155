package raft

import (
	"context"
	"fmt"
	"time"

	"github.com/parleychat/parley/api/proto"
	"github.com/parleychat/parley/pkg/types"
)

// Transport issues Raft RPCs to peers. Implementations own the connection
// lifecycle; every call must honor the context deadline. Errors (including
// deadline expiry) are soft failures, never term changes.
type Transport interface {
	RequestVote(ctx context.Context, peerID string, req *proto.RequestVoteRequest) (*proto.RequestVoteResponse, error)
	AppendEntries(ctx context.Context, peerID string, req *proto.AppendEntriesRequest) (*proto.AppendEntriesResponse, error)
}

// Applier executes one committed entry against the state machine. The
// returned error is the command's deterministic business outcome, delivered
// to the local commit-waiter if one is registered.
type Applier interface {
	Apply(index int64, entry types.LogEntry) error
}

// Config carries a node's identity, the static topology and the timing
// parameters.
type Config struct {
	// NodeID is this node's id; it must be a key of Addrs.
	NodeID string

	// Addrs maps every cluster node id (self included) to its endpoint.
	Addrs map[string]string

	// ElectionTimeoutMin/Max bound the randomized election timeout. The
	// interval must be at least as wide as the minimum and well above the
	// replication round trip.
	ElectionTimeoutMin time.Duration
	ElectionTimeoutMax time.Duration

	// HeartbeatInterval is the leader's AppendEntries cadence.
	HeartbeatInterval time.Duration

	// TickInterval is the control loop period.
	TickInterval time.Duration

	// RPCTimeout is the per-RPC deadline for peer calls.
	RPCTimeout time.Duration
}

// Defaults for intra-datacenter deployments.
const (
	DefaultElectionTimeoutMin = 150 * time.Millisecond
	DefaultElectionTimeoutMax = 300 * time.Millisecond
	DefaultHeartbeatInterval  = 50 * time.Millisecond
	DefaultTickInterval       = 50 * time.Millisecond
	DefaultRPCTimeout         = 200 * time.Millisecond
)

func (c Config) withDefaults() Config {
	if c.ElectionTimeoutMin == 0 {
		c.ElectionTimeoutMin = DefaultElectionTimeoutMin
	}
	if c.ElectionTimeoutMax == 0 {
		c.ElectionTimeoutMax = DefaultElectionTimeoutMax
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.RPCTimeout == 0 {
		c.RPCTimeout = DefaultRPCTimeout
	}
	return c
}

func (c Config) validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("raft config: node id is empty")
	}
	if _, ok := c.Addrs[c.NodeID]; !ok {
		return fmt.Errorf("raft config: node %s not in cluster topology", c.NodeID)
	}
	if c.ElectionTimeoutMax <= c.ElectionTimeoutMin {
		return fmt.Errorf("raft config: election timeout range [%v, %v) is empty", c.ElectionTimeoutMin, c.ElectionTimeoutMax)
	}
	if c.ElectionTimeoutMax-c.ElectionTimeoutMin < c.ElectionTimeoutMin {
		return fmt.Errorf("raft config: randomization interval narrower than the base timeout")
	}
	if c.HeartbeatInterval >= c.ElectionTimeoutMin {
		return fmt.Errorf("raft config: heartbeat interval %v not below election timeout %v", c.HeartbeatInterval, c.ElectionTimeoutMin)
	}
	return nil
}

// peers returns every node id except self.
func (c Config) peers() []string {
	ids := make([]string, 0, len(c.Addrs)-1)
	for id := range c.Addrs {
		if id != c.NodeID {
			ids = append(ids, id)
		}
	}
	return ids
}

// quorum is the strict majority of the cluster.
func (c Config) quorum() int {
	return len(c.Addrs)/2 + 1
}
