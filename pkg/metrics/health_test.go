package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHealthAggregation(t *testing.T) {
	resetRegistry()
	SetVersion("1.0.0")

	SetComponentHealth("api", true, "")
	SetComponentHealth("raft", true, "")

	health := GetHealth()
	assert.Equal(t, "healthy", health.Status)
	assert.Len(t, health.Components, 2)
	assert.Equal(t, "1.0.0", health.Version)

	SetComponentHealth("raft", false, "no leader elected")
	health = GetHealth()
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "unhealthy: no leader elected", health.Components["raft"])
}

func TestGetReadinessRequiresCriticalComponents(t *testing.T) {
	resetRegistry()

	// Nothing registered yet.
	readiness := GetReadiness()
	assert.Equal(t, "not_ready", readiness.Status)
	assert.NotEmpty(t, readiness.Message)

	SetComponentHealth("raft", true, "")
	SetComponentHealth("storage", true, "")
	SetComponentHealth("api", true, "")
	readiness = GetReadiness()
	assert.Equal(t, "ready", readiness.Status)
	assert.Empty(t, readiness.Message)

	SetComponentHealth("raft", false, "no leader elected")
	readiness = GetReadiness()
	assert.Equal(t, "not_ready", readiness.Status)
	assert.Equal(t, "not ready: no leader elected", readiness.Components["raft"])
}

func TestSetComponentHealthOverwrites(t *testing.T) {
	resetRegistry()

	SetComponentHealth("storage", true, "open")
	SetComponentHealth("storage", false, "write failed")

	health := GetHealth()
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "unhealthy: write failed", health.Components["storage"])
}
