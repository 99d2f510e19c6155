package state

import (
	"github.com/parleychat/parley/pkg/types"
)

// The Apply* methods below are the only mutations of the indices. They are
// called while applying committed log entries, in strict log order, and
// return the entities they touched so the applier can persist exactly those
// records in the same storage transaction.

// ApplyCreateAccount inserts a new user and its initial session. It no-ops
// and releases the id reservation when the username is already taken, which
// happens when two create proposals for the same name race into the log.
func (s *State) ApplyCreateAccount(d types.CreateAccountData) (*types.User, *types.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[d.Username]; exists {
		s.userIDs.release(d.UserID)
		return nil, nil, false
	}

	s.userIDs.observe(d.UserID)
	user := &types.User{
		ID:           d.UserID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
	}
	s.users[user.ID] = user
	s.byName[user.Username] = user

	sess := &types.Session{UserID: d.UserID, Token: d.Token, ExpiresAt: d.ExpiresAt}
	s.sessions[d.UserID] = sess

	return user, sess, true
}

// ApplyLogin overwrites the user's session. No-op when the user was deleted
// between propose and apply.
func (s *State) ApplyLogin(d types.LoginData) (*types.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[d.UserID]; !ok {
		return nil, false
	}
	sess := &types.Session{UserID: d.UserID, Token: d.Token, ExpiresAt: d.ExpiresAt}
	s.sessions[d.UserID] = sess
	return sess, true
}

// ApplyDeleteAccount removes the user and its session and tombstones the
// id. Messages stay; conversation history outlives its participants.
func (s *State) ApplyDeleteAccount(d types.DeleteAccountData) (existed, hadSession bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[d.UserID]
	if !ok {
		return false, false
	}
	delete(s.users, d.UserID)
	delete(s.byName, user.Username)
	s.userIDs.release(d.UserID)

	_, hadSession = s.sessions[d.UserID]
	delete(s.sessions, d.UserID)
	return true, hadSession
}

// SendOutcome reports what ApplySendMessage touched. Sender or Receiver is
// nil when that user no longer exists, or for Sender when both sides are
// the same user.
type SendOutcome struct {
	Message  *types.Message
	Sender   *types.User
	Receiver *types.User
}

// ApplySendMessage constructs the message, appends it to the conversation,
// queues it unread for the receiver, and refreshes both recent-conversant
// lists. A participant deleted between propose and apply is skipped.
func (s *State) ApplySendMessage(d types.SendMessageData) SendOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messageIDs.observe(d.MessageID)
	msg := &types.Message{
		ID:         d.MessageID,
		SenderID:   d.SenderID,
		ReceiverID: d.ReceiverID,
		Content:    d.Content,
		Timestamp:  d.Timestamp,
	}
	s.messages[msg.ID] = msg

	key := types.NewConversationKey(d.SenderID, d.ReceiverID)
	s.conversations[key] = append(s.conversations[key], msg)

	out := SendOutcome{Message: msg}

	if receiver, ok := s.users[d.ReceiverID]; ok {
		receiver.Unread = appendIfMissing(receiver.Unread, msg.ID)
		receiver.Recent = moveToFront(receiver.Recent, d.SenderID)
		out.Receiver = receiver
	}
	if d.SenderID != d.ReceiverID {
		if sender, ok := s.users[d.SenderID]; ok {
			sender.Recent = moveToFront(sender.Recent, d.ReceiverID)
			out.Sender = sender
		}
	}
	return out
}

// ApplyMarkRead flips the message's read flag and drops it from the user's
// unread queue. Either half may be absent; each returned pointer is nil
// when that entity did not change.
func (s *State) ApplyMarkRead(d types.MarkReadData) (*types.Message, *types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dirtyMsg *types.Message
	if msg, ok := s.messages[d.MessageID]; ok {
		if !msg.Read {
			msg.Read = true
			dirtyMsg = msg
		}
	}

	var dirtyUser *types.User
	if user, ok := s.users[d.UserID]; ok {
		var removed bool
		user.Unread, removed = removeID(user.Unread, d.MessageID)
		if removed {
			dirtyUser = user
		}
	}
	return dirtyMsg, dirtyUser
}

// ApplyReadMessages dequeues up to Count unread uids FIFO, flipping each
// message's read flag. Returns the user (nil when nothing was dequeued) and
// the messages whose flag changed.
func (s *State) ApplyReadMessages(d types.ReadMessagesData) (*types.User, []*types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[d.UserID]
	if !ok || len(user.Unread) == 0 || d.Count == 0 {
		return nil, nil
	}

	n := int(d.Count)
	if n > len(user.Unread) {
		n = len(user.Unread)
	}

	var dirty []*types.Message
	for _, id := range user.Unread[:n] {
		if msg, ok := s.messages[id]; ok && !msg.Read {
			msg.Read = true
			dirty = append(dirty, msg)
		}
	}
	user.Unread = append([]uint32(nil), user.Unread[n:]...)
	return user, dirty
}

// ApplyDeleteMessage removes the message from the table, the conversation
// index and the receiver's unread queue, and tombstones the uid.
func (s *State) ApplyDeleteMessage(d types.DeleteMessageData) (bool, *types.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[d.MessageID]
	if !ok {
		return false, nil
	}
	delete(s.messages, d.MessageID)
	s.messageIDs.release(d.MessageID)

	key := types.NewConversationKey(msg.SenderID, msg.ReceiverID)
	msgs := s.conversations[key]
	for i, m := range msgs {
		if m.ID == d.MessageID {
			s.conversations[key] = append(msgs[:i], msgs[i+1:]...)
			break
		}
	}
	if len(s.conversations[key]) == 0 {
		delete(s.conversations, key)
	}

	var dirtyUser *types.User
	if receiver, ok := s.users[msg.ReceiverID]; ok {
		var removed bool
		receiver.Unread, removed = removeID(receiver.Unread, d.MessageID)
		if removed {
			dirtyUser = receiver
		}
	}
	return true, dirtyUser
}

func appendIfMissing(ids []uint32, id uint32) []uint32 {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []uint32, id uint32) ([]uint32, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...), true
		}
	}
	return ids, false
}

func moveToFront(ids []uint32, id uint32) []uint32 {
	ids, _ = removeID(ids, id)
	return append([]uint32{id}, ids...)
}
