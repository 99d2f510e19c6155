package state

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/parleychat/parley/pkg/storage"
	"github.com/parleychat/parley/pkg/types"
)

// State holds the in-memory indices over the replicated data. Reads come
// from any node and take the read lock; mutations come only from the
// command applier (and id reservations from the leader's propose path) and
// take the write lock.
type State struct {
	mu sync.RWMutex

	users  map[uint32]*types.User
	byName map[string]*types.User
	userIDs *idPool

	messages   map[uint32]*types.Message
	messageIDs *idPool

	conversations map[types.ConversationKey][]*types.Message

	sessions map[uint32]*types.Session
}

// New returns an empty state.
func New() *State {
	return &State{
		users:         make(map[uint32]*types.User),
		byName:        make(map[string]*types.User),
		userIDs:       newIDPool(),
		messages:      make(map[uint32]*types.Message),
		messageIDs:    newIDPool(),
		conversations: make(map[types.ConversationKey][]*types.Message),
		sessions:      make(map[uint32]*types.Session),
	}
}

// NewFromSnapshot rebuilds the indices from a storage snapshot. Sessions
// already expired at load time are dropped. The conversation index is
// rebuilt in (timestamp, uid) order, which equals insertion order whenever
// uids were not reused; a reused uid can only land earlier within the same
// second it was sent.
func NewFromSnapshot(snap *storage.Snapshot, now int64) *State {
	s := New()

	userIDs := make([]uint32, 0, len(snap.Users))
	for _, user := range snap.Users {
		s.users[user.ID] = user
		s.byName[user.Username] = user
		userIDs = append(userIDs, user.ID)
	}
	s.userIDs.rebuild(userIDs)

	messages := make([]*types.Message, len(snap.Messages))
	copy(messages, snap.Messages)
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Timestamp != messages[j].Timestamp {
			return messages[i].Timestamp < messages[j].Timestamp
		}
		return messages[i].ID < messages[j].ID
	})

	messageIDs := make([]uint32, 0, len(messages))
	for _, msg := range messages {
		s.messages[msg.ID] = msg
		messageIDs = append(messageIDs, msg.ID)
		key := types.NewConversationKey(msg.SenderID, msg.ReceiverID)
		s.conversations[key] = append(s.conversations[key], msg)
	}
	s.messageIDs.rebuild(messageIDs)

	for _, sess := range snap.Sessions {
		if !sess.Expired(now) {
			s.sessions[sess.UserID] = sess
		}
	}

	return s
}

// ReserveUserID hands out the next user id on the leader's propose path.
func (s *State) ReserveUserID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userIDs.reserve()
}

// ReserveMessageID hands out the next message uid on the leader's propose path.
func (s *State) ReserveMessageID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageIDs.reserve()
}

// ReleaseUserID returns a reserved user id whose command will never apply,
// keeping lowest-first reuse intact across failed proposals.
func (s *State) ReleaseUserID(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userIDs.release(id)
}

// ReleaseMessageID returns a reserved message uid whose command will never
// apply.
func (s *State) ReleaseMessageID(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageIDs.release(id)
}

// UsernameExists reports whether a username is taken.
func (s *State) UsernameExists(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byName[username]
	return ok
}

// UserExists reports whether a user id is present.
func (s *State) UserExists(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[id]
	return ok
}

// Username returns the username for an id.
func (s *State) Username(id uint32) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return "", false
	}
	return user.Username, true
}

// UserID returns the id for a username.
func (s *State) UserID(username string) (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byName[username]
	if !ok {
		return 0, false
	}
	return user.ID, true
}

// Authenticate checks a username/credential pair and returns the user id.
func (s *State) Authenticate(username string, passwordHash []byte) (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byName[username]
	if !ok || !bytes.Equal(user.PasswordHash, passwordHash) {
		return 0, false
	}
	return user.ID, true
}

// ValidateSession reports whether (userID, token) matches the current
// unexpired session for the user.
func (s *State) ValidateSession(userID uint32, token []byte, now int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok || sess.Expired(now) {
		return false
	}
	return bytes.Equal(sess.Token, token)
}

// UnreadCount returns the number of unread messages queued for a user.
func (s *State) UnreadCount(userID uint32) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return 0
	}
	return uint32(len(user.Unread))
}

// UnreadInfo describes one entry of a user's unread queue.
type UnreadInfo struct {
	MessageID  uint32
	SenderID   uint32
	ReceiverID uint32
}

// UnreadList returns the user's unread queue in FIFO order.
func (s *State) UnreadList(userID uint32) []UnreadInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil
	}
	infos := make([]UnreadInfo, 0, len(user.Unread))
	for _, id := range user.Unread {
		msg, ok := s.messages[id]
		if !ok {
			continue
		}
		infos = append(infos, UnreadInfo{MessageID: msg.ID, SenderID: msg.SenderID, ReceiverID: msg.ReceiverID})
	}
	return infos
}

// SearchUsernames returns all usernames matching the wildcard pattern,
// sorted. An empty pattern matches nothing; "*" matches everyone.
func (s *State) SearchUsernames(pattern string) ([]string, error) {
	re, err := compileWildcard(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid search pattern %q: %w", pattern, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []string
	for name := range s.byName {
		if re.MatchString(name) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// ConversationEntry is one message of a conversation as seen by a viewer.
type ConversationEntry struct {
	MessageID uint32
	SenderID  uint32
	Content   string
}

// Conversation returns the messages between two users in insertion order.
func (s *State) Conversation(a, b uint32) []ConversationEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.conversations[types.NewConversationKey(a, b)]
	entries := make([]ConversationEntry, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, ConversationEntry{MessageID: msg.ID, SenderID: msg.SenderID, Content: msg.Content})
	}
	return entries
}

// MessageInfo is the metadata view of a single message.
type MessageInfo struct {
	Read     bool
	SenderID uint32
	Content  string
}

// MessageInfoFor returns message metadata, but only to its sender or
// receiver. Absent messages and foreign requesters both report not-found.
func (s *State) MessageInfoFor(requesterID, messageID uint32) (MessageInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[messageID]
	if !ok || (msg.SenderID != requesterID && msg.ReceiverID != requesterID) {
		return MessageInfo{}, false
	}
	return MessageInfo{Read: msg.Read, SenderID: msg.SenderID, Content: msg.Content}, true
}

// MessageExists reports whether a message uid is present.
func (s *State) MessageExists(id uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.messages[id]
	return ok
}

// MessageParticipant reports whether the user is the sender or receiver of
// the message.
func (s *State) MessageParticipant(userID, messageID uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return false
	}
	return msg.SenderID == userID || msg.ReceiverID == userID
}

// UserCount returns the number of registered users.
func (s *State) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// MessageCount returns the number of stored messages.
func (s *State) MessageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// SessionCount returns the number of active sessions.
func (s *State) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
