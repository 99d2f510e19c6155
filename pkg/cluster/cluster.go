package cluster

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sort"
)

// Config is the static cluster topology: node id to "host:port". Every node
// and every client loads the same file; membership does not change for the
// lifetime of the cluster.
type Config struct {
	Nodes map[string]string
}

// Load reads a topology file. The format is a single JSON object mapping
// node id strings to endpoints:
//
//	{"n1": "10.0.0.1:50051", "n2": "10.0.0.2:50051", ...}
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cluster config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates topology JSON.
func Parse(data []byte) (*Config, error) {
	var nodes map[string]string
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse cluster config: %w", err)
	}
	cfg := &Config{Nodes: nodes}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the topology is usable: at least one node, and every
// endpoint splits into host and port.
func (c *Config) Validate() error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("cluster config has no nodes")
	}
	for id, addr := range c.Nodes {
		if id == "" {
			return fmt.Errorf("cluster config has an empty node id")
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("node %s has invalid endpoint %q: %w", id, addr, err)
		}
	}
	return nil
}

// Addr returns the endpoint for a node id.
func (c *Config) Addr(id string) (string, bool) {
	addr, ok := c.Nodes[id]
	return addr, ok
}

// Peers returns every node except self, keyed by id.
func (c *Config) Peers(selfID string) map[string]string {
	peers := make(map[string]string, len(c.Nodes)-1)
	for id, addr := range c.Nodes {
		if id != selfID {
			peers[id] = addr
		}
	}
	return peers
}

// NodeIDs returns all node ids in sorted order.
func (c *Config) NodeIDs() []string {
	ids := make([]string, 0, len(c.Nodes))
	for id := range c.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Size returns the number of nodes in the cluster.
func (c *Config) Size() int {
	return len(c.Nodes)
}

// Quorum returns the strict majority for this cluster size.
func (c *Config) Quorum() int {
	return len(c.Nodes)/2 + 1
}
