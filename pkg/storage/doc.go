/*
Package storage provides BoltDB-backed persistence for a Parley node.

The storage package implements the Store interface using bbolt as the
underlying database. It persists the Raft metadata, the replicated log, and
the application entities (users, messages, sessions) for one node. Entity
values are serialized as JSON; scalar metadata and keys use big-endian
binary so that key order equals position order.

# Architecture

	┌───────────────────── BOLTDB STORAGE ─────────────────────┐
	│                                                           │
	│  ┌───────────────────────────────────────────┐           │
	│  │            BoltStore                      │           │
	│  │  - File: <dataDir>/parley.db              │           │
	│  │  - Transactions: ACID with fsync          │           │
	│  └──────────────────┬────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼────────────────────────┐           │
	│  │              Bucket Structure             │           │
	│  │  ┌─────────────────────────────────────┐  │           │
	│  │  │ raft      current_term, voted_for,  │  │           │
	│  │  │           commit_index, last_applied│  │           │
	│  │  │ log       position (8B BE) → entry  │  │           │
	│  │  │ users     user id (4B BE) → JSON    │  │           │
	│  │  │ messages  message uid (4B BE) → JSON│  │           │
	│  │  │ sessions  user id (4B BE) → JSON    │  │           │
	│  │  └─────────────────────────────────────┘  │           │
	│  └───────────────────────────────────────────┘           │
	└───────────────────────────────────────────────────────────┘

# Durability Contract

Every mutating method returns only after bbolt has committed and fsynced
the transaction. This is what lets the Raft core answer RPCs immediately
after a SetTermAndVote or AppendLog call: the promise the answer encodes is
already on disk. Store.Apply wraps a committed command's entity writes and
the last_applied advance in one transaction, so a crash can never leave a
half-applied command visible after restart.

# Recovery

Load returns the full persisted image: scalars (with -1 defaults for
commit_index/last_applied on a fresh database), the log in position order
(verified contiguous from 0), and all entities. pkg/state rebuilds its
indices from the snapshot and the Raft core replays any entries between
last_applied and commit_index through the normal apply path.

# See Also

  - pkg/raft: drives SetTermAndVote, AppendLog, TruncateLog, SetCommitIndex
  - pkg/fsm: performs entity writes through Store.Apply
*/
package storage
