/*
Package types defines the core data structures used throughout Parley.

This package contains the domain model shared by every other package: users,
messages, sessions, conversation keys, replicated log entries, and the
command envelope written to the log. It has no dependencies beyond the
standard library so that any package may import it freely.

# Core Types

Entities:
  - User: account with credential, unread queue and recent conversants
  - Message: directed message with read flag and leader-assigned timestamp
  - Session: user id to token binding with expiry
  - ConversationKey: canonical (sorted) pair of user ids

Replication:
  - LogEntry: (term, encoded command) at a log position
  - Command: op name plus raw JSON payload, the only format ever persisted
    to the log
  - *Data structs: one per op, carrying every leader-assigned value so that
    application is deterministic on every replica

# Determinism

All non-deterministic choices (id allocation, token generation, timestamps)
happen once, on the leader, before a command is proposed; the chosen values
travel inside the command payload. Replicas applying the log never consult
clocks, counters or random sources, so the same log prefix always produces
the same state.

# See Also

  - pkg/state: in-memory indices over these types
  - pkg/fsm: applies committed Commands
  - pkg/storage: durable persistence of entities and log entries
*/
package types
