/*
Package log provides structured logging for Parley using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level.

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Thread-safe concurrent writes

Log Levels:
  - Debug: per-RPC and per-tick detail (vote grants, replication progress)
  - Info: lifecycle events (elections won, nodes starting and stopping)
  - Warn: soft failures (peer unreachable, commit-wait timeouts)
  - Error: failed operations that do not stop the node
  - Fatal: durable-store failures; the process exits

Context Loggers:
  - WithComponent: add a component name ("raft", "server", "storage", ...)
  - WithNodeID: add the local node id
  - WithPeer: add a peer node id on transport paths

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("raft")
	logger.Info().
		Uint64("term", term).
		Str("leader", leaderID).
		Msg("leader elected")

Console output is human-readable and intended for interactive runs; JSON
output is for production collection.

# See Also

  - pkg/raft: logs elections, replication and apply progress
  - pkg/server: logs RPC handling via the interceptor
*/
package log
