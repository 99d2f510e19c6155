package metrics

import (
	"time"

	"github.com/parleychat/parley/pkg/raft"
	"github.com/parleychat/parley/pkg/state"
)

// Collector samples the consensus node and the in-memory state on a fixed
// interval and exports the readings as gauges.
type Collector struct {
	node   *raft.Node
	state  *state.State
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(node *raft.Node, st *state.State) *Collector {
	return &Collector{
		node:   node,
		state:  st,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectRaftMetrics()
	c.collectStateMetrics()
}

func (c *Collector) collectRaftMetrics() {
	st := c.node.Status()

	if st.Role == raft.Leader {
		RaftLeader.Set(1)
	} else {
		RaftLeader.Set(0)
	}
	RaftTerm.Set(float64(st.Term))
	RaftPeers.Set(float64(st.ClusterSize))
	RaftLogIndex.Set(float64(st.LogLength - 1))
	RaftCommitIndex.Set(float64(st.CommitIndex))
	RaftAppliedIndex.Set(float64(st.LastApplied))

	if st.LeaderID != "" {
		SetComponentHealth("raft", true, "leader: "+st.LeaderID)
	} else {
		SetComponentHealth("raft", false, "no leader elected")
	}
}

func (c *Collector) collectStateMetrics() {
	UsersTotal.Set(float64(c.state.UserCount()))
	MessagesTotal.Set(float64(c.state.MessageCount()))
	SessionsTotal.Set(float64(c.state.SessionCount()))
}
