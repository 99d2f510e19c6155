package cluster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		size    int
	}{
		{
			name: "five node cluster",
			data: `{"n1":"127.0.0.1:50051","n2":"127.0.0.1:50052","n3":"127.0.0.1:50053","n4":"127.0.0.1:50054","n5":"127.0.0.1:50055"}`,
			size: 5,
		},
		{
			name: "single node",
			data: `{"n1":"localhost:9000"}`,
			size: 1,
		},
		{
			name:    "empty object",
			data:    `{}`,
			wantErr: true,
		},
		{
			name:    "not json",
			data:    `n1=localhost:9000`,
			wantErr: true,
		},
		{
			name:    "endpoint missing port",
			data:    `{"n1":"localhost"}`,
			wantErr: true,
		},
		{
			name:    "empty node id",
			data:    `{"":"localhost:9000"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, cfg.Size())
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"n1":"127.0.0.1:50051","n2":"127.0.0.1:50052","n3":"127.0.0.1:50053"}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Size())

	addr, ok := cfg.Addr("n2")
	assert.True(t, ok)
	assert.Equal(t, "127.0.0.1:50052", addr)

	_, ok = cfg.Addr("n9")
	assert.False(t, ok)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestPeersExcludesSelf(t *testing.T) {
	cfg, err := Parse([]byte(`{"n1":"h1:1","n2":"h2:1","n3":"h3:1"}`))
	require.NoError(t, err)

	peers := cfg.Peers("n2")
	assert.Len(t, peers, 2)
	assert.Contains(t, peers, "n1")
	assert.Contains(t, peers, "n3")
	assert.NotContains(t, peers, "n2")
}

func TestQuorum(t *testing.T) {
	tests := []struct {
		size   int
		quorum int
	}{
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{5, 3},
		{7, 4},
	}

	for _, tt := range tests {
		nodes := make(map[string]string, tt.size)
		for i := 0; i < tt.size; i++ {
			nodes[string(rune('a'+i))] = "h:1"
		}
		cfg := &Config{Nodes: nodes}
		assert.Equal(t, tt.quorum, cfg.Quorum(), "size %d", tt.size)
	}
}

func TestNodeIDsSorted(t *testing.T) {
	cfg, err := Parse([]byte(`{"n3":"h:1","n1":"h:1","n2":"h:1"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"n1", "n2", "n3"}, cfg.NodeIDs())
}
