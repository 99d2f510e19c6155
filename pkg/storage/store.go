package storage

import (
	"github.com/parleychat/parley/pkg/types"
)

// Store is the durable persistence layer backing a node. Every mutating
// method has committed to stable storage by the time it returns; callers
// treat an error as unrecoverable.
type Store interface {
	// SetTermAndVote persists current_term and voted_for together. The two
	// always change under the same lock and must land atomically.
	SetTermAndVote(term uint64, votedFor string) error

	// SetCommitIndex persists the highest log position known committed.
	SetCommitIndex(index int64) error

	// AppendLog writes entries at positions from, from+1, ... It never
	// deletes anything; overwrites of existing positions are upserts.
	AppendLog(from int64, entries []types.LogEntry) error

	// TruncateLog deletes every entry at position >= from. Used when an
	// AppendEntries consistency check finds a conflicting suffix.
	TruncateLog(from int64) error

	// Apply runs one committed command's entity writes and the advance of
	// last_applied to index inside a single transaction.
	Apply(index int64, fn func(tx Txn) error) error

	// Load reads everything back for startup reconstruction.
	Load() (*Snapshot, error)

	Close() error
}

// Txn is the write surface handed to the applier inside Store.Apply. All
// writes made through it commit atomically with the last_applied advance.
type Txn interface {
	PutUser(user *types.User) error
	DeleteUser(id uint32) error
	PutMessage(msg *types.Message) error
	DeleteMessage(id uint32) error
	PutSession(sess *types.Session) error
	DeleteSession(userID uint32) error
}

// Snapshot is the full persisted image of a node, as read at startup.
type Snapshot struct {
	CurrentTerm uint64
	VotedFor    string
	CommitIndex int64
	LastApplied int64
	Log         []types.LogEntry
	Users       []*types.User
	Messages    []*types.Message
	Sessions    []*types.Session
}
