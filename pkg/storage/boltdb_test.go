package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleychat/parley/pkg/types"
)

func newTestStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewBoltStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestLoadDefaults(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	snap, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, uint64(0), snap.CurrentTerm)
	assert.Equal(t, "", snap.VotedFor)
	assert.Equal(t, int64(-1), snap.CommitIndex)
	assert.Equal(t, int64(-1), snap.LastApplied)
	assert.Empty(t, snap.Log)
	assert.Empty(t, snap.Users)
	assert.Empty(t, snap.Messages)
	assert.Empty(t, snap.Sessions)
}

func TestRaftStateSurvivesReopen(t *testing.T) {
	store, dir := newTestStore(t)

	require.NoError(t, store.SetTermAndVote(7, "n3"))
	require.NoError(t, store.SetCommitIndex(4))
	require.NoError(t, store.Close())

	store, err := NewBoltStore(dir)
	require.NoError(t, err)
	defer store.Close()

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), snap.CurrentTerm)
	assert.Equal(t, "n3", snap.VotedFor)
	assert.Equal(t, int64(4), snap.CommitIndex)
}

func TestAppendLog(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	entries := []types.LogEntry{
		{Term: 1, Command: []byte(`{"op":"a"}`)},
		{Term: 1, Command: []byte(`{"op":"b"}`)},
		{Term: 2, Command: []byte(`{"op":"c"}`)},
	}
	require.NoError(t, store.AppendLog(0, entries))

	snap, err := store.Load()
	require.NoError(t, err)
	require.Len(t, snap.Log, 3)
	assert.Equal(t, uint64(1), snap.Log[0].Term)
	assert.Equal(t, uint64(2), snap.Log[2].Term)
	assert.Equal(t, []byte(`{"op":"b"}`), snap.Log[1].Command)
}

func TestAppendLogOverwrite(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	require.NoError(t, store.AppendLog(0, []types.LogEntry{
		{Term: 1, Command: []byte("one")},
		{Term: 1, Command: []byte("two")},
	}))

	// A new leader may rewrite position 1 with a different term.
	require.NoError(t, store.AppendLog(1, []types.LogEntry{
		{Term: 3, Command: []byte("three")},
	}))

	snap, err := store.Load()
	require.NoError(t, err)
	require.Len(t, snap.Log, 2)
	assert.Equal(t, uint64(1), snap.Log[0].Term)
	assert.Equal(t, uint64(3), snap.Log[1].Term)
	assert.Equal(t, []byte("three"), snap.Log[1].Command)
}

func TestTruncateLog(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	entries := make([]types.LogEntry, 5)
	for i := range entries {
		entries[i] = types.LogEntry{Term: 1, Command: []byte{byte(i)}}
	}
	require.NoError(t, store.AppendLog(0, entries))
	require.NoError(t, store.TruncateLog(2))

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, snap.Log, 2)

	// Truncating past the end is a no-op.
	require.NoError(t, store.TruncateLog(10))
	snap, err = store.Load()
	require.NoError(t, err)
	assert.Len(t, snap.Log, 2)
}

func TestApplyCommitsEntitiesAndLastApplied(t *testing.T) {
	store, dir := newTestStore(t)

	err := store.Apply(0, func(tx Txn) error {
		if err := tx.PutUser(&types.User{ID: 1, Username: "alice", PasswordHash: []byte("h")}); err != nil {
			return err
		}
		if err := tx.PutMessage(&types.Message{ID: 1, SenderID: 1, ReceiverID: 2, Content: "hi", Timestamp: 100}); err != nil {
			return err
		}
		return tx.PutSession(&types.Session{UserID: 1, Token: []byte("tok"), ExpiresAt: 999})
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewBoltStore(dir)
	require.NoError(t, err)
	defer store.Close()

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.LastApplied)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "alice", snap.Users[0].Username)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "hi", snap.Messages[0].Content)
	require.Len(t, snap.Sessions, 1)
	assert.Equal(t, []byte("tok"), snap.Sessions[0].Token)
}

func TestApplyRollsBackOnError(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	require.NoError(t, store.Apply(0, func(tx Txn) error {
		return tx.PutUser(&types.User{ID: 1, Username: "alice"})
	}))

	err := store.Apply(1, func(tx Txn) error {
		if err := tx.PutUser(&types.User{ID: 2, Username: "bob"}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.LastApplied)
	assert.Len(t, snap.Users, 1)
}

func TestDeletesInsideApply(t *testing.T) {
	store, _ := newTestStore(t)
	defer store.Close()

	require.NoError(t, store.Apply(0, func(tx Txn) error {
		if err := tx.PutUser(&types.User{ID: 1, Username: "alice"}); err != nil {
			return err
		}
		if err := tx.PutMessage(&types.Message{ID: 5, SenderID: 1, ReceiverID: 1}); err != nil {
			return err
		}
		return tx.PutSession(&types.Session{UserID: 1, Token: []byte("t")})
	}))

	require.NoError(t, store.Apply(1, func(tx Txn) error {
		if err := tx.DeleteUser(1); err != nil {
			return err
		}
		if err := tx.DeleteMessage(5); err != nil {
			return err
		}
		return tx.DeleteSession(1)
	}))

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.LastApplied)
	assert.Empty(t, snap.Users)
	assert.Empty(t, snap.Messages)
	assert.Empty(t, snap.Sessions)
}
