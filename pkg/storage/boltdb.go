package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/parleychat/parley/pkg/types"
)

var (
	// Bucket names
	bucketRaft     = []byte("raft")
	bucketLog      = []byte("log")
	bucketUsers    = []byte("users")
	bucketMessages = []byte("messages")
	bucketSessions = []byte("sessions")
)

// Keys inside the raft bucket.
var (
	keyCurrentTerm = []byte("current_term")
	keyVotedFor    = []byte("voted_for")
	keyCommitIndex = []byte("commit_index")
	keyLastApplied = []byte("last_applied")
)

// BoltStore implements Store using bbolt. bbolt serializes writers and
// fsyncs on every committed transaction, which gives the durability
// contract for free.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens or creates the node database under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "parley.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketRaft,
			bucketLog,
			bucketUsers,
			bucketMessages,
			bucketSessions,
		}

		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) SetTermAndVote(term uint64, votedFor string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRaft)
		if err := b.Put(keyCurrentTerm, u64tob(term)); err != nil {
			return err
		}
		return b.Put(keyVotedFor, []byte(votedFor))
	})
}

func (s *BoltStore) SetCommitIndex(index int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRaft).Put(keyCommitIndex, i64tob(index))
	})
}

func (s *BoltStore) AppendLog(from int64, entries []types.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLog)
		for i, entry := range entries {
			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("failed to marshal log entry: %w", err)
			}
			if err := b.Put(i64tob(from+int64(i)), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) TruncateLog(from int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLog)
		c := b.Cursor()
		var stale [][]byte
		for k, _ := c.Seek(i64tob(from)); k != nil; k, _ = c.Next() {
			stale = append(stale, k)
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Apply(index int64, fn func(tx Txn) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := fn(&boltTxn{tx: tx}); err != nil {
			return err
		}
		return tx.Bucket(bucketRaft).Put(keyLastApplied, i64tob(index))
	})
}

func (s *BoltStore) Load() (*Snapshot, error) {
	snap := &Snapshot{
		CommitIndex: -1,
		LastApplied: -1,
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		raft := tx.Bucket(bucketRaft)
		if v := raft.Get(keyCurrentTerm); v != nil {
			snap.CurrentTerm = btou64(v)
		}
		if v := raft.Get(keyVotedFor); v != nil {
			snap.VotedFor = string(v)
		}
		if v := raft.Get(keyCommitIndex); v != nil {
			snap.CommitIndex = btoi64(v)
		}
		if v := raft.Get(keyLastApplied); v != nil {
			snap.LastApplied = btoi64(v)
		}

		// Log positions are contiguous from 0; key order is position order.
		logBucket := tx.Bucket(bucketLog)
		err := logBucket.ForEach(func(k, v []byte) error {
			var entry types.LogEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("failed to unmarshal log entry: %w", err)
			}
			if btoi64(k) != int64(len(snap.Log)) {
				return fmt.Errorf("log gap: expected position %d, found %d", len(snap.Log), btoi64(k))
			}
			snap.Log = append(snap.Log, entry)
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket(bucketUsers).ForEach(func(k, v []byte) error {
			var user types.User
			if err := json.Unmarshal(v, &user); err != nil {
				return fmt.Errorf("failed to unmarshal user: %w", err)
			}
			snap.Users = append(snap.Users, &user)
			return nil
		})
		if err != nil {
			return err
		}

		err = tx.Bucket(bucketMessages).ForEach(func(k, v []byte) error {
			var msg types.Message
			if err := json.Unmarshal(v, &msg); err != nil {
				return fmt.Errorf("failed to unmarshal message: %w", err)
			}
			snap.Messages = append(snap.Messages, &msg)
			return nil
		})
		if err != nil {
			return err
		}

		return tx.Bucket(bucketSessions).ForEach(func(k, v []byte) error {
			var sess types.Session
			if err := json.Unmarshal(v, &sess); err != nil {
				return fmt.Errorf("failed to unmarshal session: %w", err)
			}
			snap.Sessions = append(snap.Sessions, &sess)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// boltTxn adapts a bbolt transaction to the Txn write surface.
type boltTxn struct {
	tx *bolt.Tx
}

func (t *boltTxn) PutUser(user *types.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	return t.tx.Bucket(bucketUsers).Put(u32tob(user.ID), data)
}

func (t *boltTxn) DeleteUser(id uint32) error {
	return t.tx.Bucket(bucketUsers).Delete(u32tob(id))
}

func (t *boltTxn) PutMessage(msg *types.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return t.tx.Bucket(bucketMessages).Put(u32tob(msg.ID), data)
}

func (t *boltTxn) DeleteMessage(id uint32) error {
	return t.tx.Bucket(bucketMessages).Delete(u32tob(id))
}

func (t *boltTxn) PutSession(sess *types.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return t.tx.Bucket(bucketSessions).Put(u32tob(sess.UserID), data)
}

func (t *boltTxn) DeleteSession(userID uint32) error {
	return t.tx.Bucket(bucketSessions).Delete(u32tob(userID))
}

func u64tob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btou64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

func i64tob(v int64) []byte {
	return u64tob(uint64(v))
}

func btoi64(b []byte) int64 {
	return int64(btou64(b))
}

func u32tob(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}
