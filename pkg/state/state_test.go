package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleychat/parley/pkg/storage"
	"github.com/parleychat/parley/pkg/types"
)

func createAccount(t *testing.T, s *State, id uint32, name string) {
	t.Helper()
	_, _, ok := s.ApplyCreateAccount(types.CreateAccountData{
		UserID:       id,
		Username:     name,
		PasswordHash: []byte("hash-" + name),
		Token:        []byte("token-" + name),
		ExpiresAt:    1_000_000,
		Timestamp:    100,
	})
	require.True(t, ok)
}

func TestWildcardSearch(t *testing.T) {
	s := New()
	for i, name := range []string{"alice", "alina", "bob", "a.c", "axc"} {
		createAccount(t, s, uint32(i+1), name)
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"alice", []string{"alice"}},
		{"*", []string{"a.c", "alice", "alina", "axc", "bob"}},
		{"ali*", []string{"alice", "alina"}},
		{"ali??", []string{"alice", "alina"}},
		{"?ob", []string{"bob"}},
		{"a.c", []string{"a.c"}}, // dot is literal, not a regex wildcard
		{"a?c", []string{"a.c", "axc"}},
		{"*z*", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := s.SearchUsernames(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyCreateAccount(t *testing.T) {
	s := New()

	user, sess, ok := s.ApplyCreateAccount(types.CreateAccountData{
		UserID:       1,
		Username:     "alice",
		PasswordHash: []byte("h"),
		Token:        []byte("tok"),
		ExpiresAt:    500,
	})
	require.True(t, ok)
	assert.Equal(t, uint32(1), user.ID)
	assert.Equal(t, uint32(1), sess.UserID)

	assert.True(t, s.UsernameExists("alice"))
	assert.True(t, s.UserExists(1))
	assert.True(t, s.ValidateSession(1, []byte("tok"), 100))
	assert.False(t, s.ValidateSession(1, []byte("tok"), 500), "expired token")
	assert.False(t, s.ValidateSession(1, []byte("other"), 100))

	id, ok := s.Authenticate("alice", []byte("h"))
	assert.True(t, ok)
	assert.Equal(t, uint32(1), id)
	_, ok = s.Authenticate("alice", []byte("wrong"))
	assert.False(t, ok)
}

func TestReleaseReservedIDs(t *testing.T) {
	s := New()

	// A released reservation is the next one handed out.
	first := s.ReserveUserID()
	assert.Equal(t, uint32(1), first)
	s.ReleaseUserID(first)
	assert.Equal(t, first, s.ReserveUserID())

	mid := s.ReserveMessageID()
	last := s.ReserveMessageID()
	s.ReleaseMessageID(mid)
	assert.Equal(t, mid, s.ReserveMessageID())
	assert.Equal(t, last+1, s.ReserveMessageID())
}

func TestApplyCreateAccountDuplicateReleasesID(t *testing.T) {
	s := New()
	createAccount(t, s, 1, "alice")

	// A raced second create for the same name was proposed with id 2.
	dup := s.ReserveUserID()
	require.Equal(t, uint32(2), dup)
	_, _, ok := s.ApplyCreateAccount(types.CreateAccountData{UserID: dup, Username: "alice"})
	assert.False(t, ok)

	// The released id is allocated to the next distinct account.
	assert.Equal(t, uint32(2), s.ReserveUserID())
	assert.Equal(t, 1, s.UserCount())
}

func TestApplySendMessage(t *testing.T) {
	s := New()
	createAccount(t, s, 1, "alice")
	createAccount(t, s, 2, "bob")

	out := s.ApplySendMessage(types.SendMessageData{
		MessageID: 1, SenderID: 1, ReceiverID: 2, Content: "hi", Timestamp: 10,
	})
	require.NotNil(t, out.Message)
	require.NotNil(t, out.Sender)
	require.NotNil(t, out.Receiver)

	assert.Equal(t, []uint32{1}, out.Receiver.Unread)
	assert.Equal(t, []uint32{1}, out.Receiver.Recent)
	assert.Equal(t, []uint32{2}, out.Sender.Recent)

	conv := s.Conversation(2, 1)
	require.Len(t, conv, 1)
	assert.Equal(t, uint32(1), conv[0].MessageID)
	assert.Equal(t, uint32(1), conv[0].SenderID)
	assert.Equal(t, "hi", conv[0].Content)

	assert.Equal(t, uint32(1), s.UnreadCount(2))
	assert.Equal(t, uint32(0), s.UnreadCount(1))
}

func TestApplySendMessageRecentOrder(t *testing.T) {
	s := New()
	createAccount(t, s, 1, "alice")
	createAccount(t, s, 2, "bob")
	createAccount(t, s, 3, "charlie")

	s.ApplySendMessage(types.SendMessageData{MessageID: 1, SenderID: 2, ReceiverID: 1, Content: "a"})
	s.ApplySendMessage(types.SendMessageData{MessageID: 2, SenderID: 3, ReceiverID: 1, Content: "b"})
	out := s.ApplySendMessage(types.SendMessageData{MessageID: 3, SenderID: 2, ReceiverID: 1, Content: "c"})

	// bob moved back to the front, deduplicated.
	assert.Equal(t, []uint32{2, 3}, out.Receiver.Recent)
}

func TestApplySendMessageToMissingReceiver(t *testing.T) {
	s := New()
	createAccount(t, s, 1, "alice")

	out := s.ApplySendMessage(types.SendMessageData{MessageID: 1, SenderID: 1, ReceiverID: 9, Content: "hi"})
	require.NotNil(t, out.Message)
	assert.Nil(t, out.Receiver)
	require.NotNil(t, out.Sender)
	assert.Equal(t, []uint32{9}, out.Sender.Recent)

	// The message still lands in the conversation index.
	assert.Len(t, s.Conversation(1, 9), 1)
}

func TestApplySendMessageToSelf(t *testing.T) {
	s := New()
	createAccount(t, s, 1, "alice")

	out := s.ApplySendMessage(types.SendMessageData{MessageID: 1, SenderID: 1, ReceiverID: 1, Content: "note"})
	require.NotNil(t, out.Receiver)
	assert.Nil(t, out.Sender)
	assert.Equal(t, []uint32{1}, out.Receiver.Unread)
	assert.Equal(t, []uint32{1}, out.Receiver.Recent)
	assert.Len(t, s.Conversation(1, 1), 1)
}

func TestApplyMarkRead(t *testing.T) {
	s := New()
	createAccount(t, s, 1, "alice")
	createAccount(t, s, 2, "bob")
	s.ApplySendMessage(types.SendMessageData{MessageID: 1, SenderID: 1, ReceiverID: 2, Content: "hi"})

	msg, user := s.ApplyMarkRead(types.MarkReadData{UserID: 2, MessageID: 1})
	require.NotNil(t, msg)
	assert.True(t, msg.Read)
	require.NotNil(t, user)
	assert.Empty(t, user.Unread)

	// Marking again changes nothing.
	msg, user = s.ApplyMarkRead(types.MarkReadData{UserID: 2, MessageID: 1})
	assert.Nil(t, msg)
	assert.Nil(t, user)

	// Absent message is a no-op.
	msg, user = s.ApplyMarkRead(types.MarkReadData{UserID: 2, MessageID: 99})
	assert.Nil(t, msg)
	assert.Nil(t, user)
}

func TestApplyReadMessagesFIFO(t *testing.T) {
	s := New()
	createAccount(t, s, 1, "alice")
	createAccount(t, s, 2, "bob")
	for i := uint32(1); i <= 4; i++ {
		s.ApplySendMessage(types.SendMessageData{MessageID: i, SenderID: 1, ReceiverID: 2, Content: "m"})
	}

	user, read := s.ApplyReadMessages(types.ReadMessagesData{UserID: 2, Count: 2})
	require.NotNil(t, user)
	require.Len(t, read, 2)
	assert.Equal(t, uint32(1), read[0].ID)
	assert.Equal(t, uint32(2), read[1].ID)
	assert.Equal(t, []uint32{3, 4}, user.Unread)

	// Requesting more than queued drains silently.
	user, read = s.ApplyReadMessages(types.ReadMessagesData{UserID: 2, Count: 10})
	require.NotNil(t, user)
	assert.Len(t, read, 2)
	assert.Empty(t, user.Unread)

	// Empty queue and zero count are no-ops.
	user, read = s.ApplyReadMessages(types.ReadMessagesData{UserID: 2, Count: 1})
	assert.Nil(t, user)
	assert.Nil(t, read)
	user, _ = s.ApplyReadMessages(types.ReadMessagesData{UserID: 1, Count: 0})
	assert.Nil(t, user)
}

func TestApplyDeleteMessage(t *testing.T) {
	s := New()
	createAccount(t, s, 1, "alice")
	createAccount(t, s, 2, "bob")
	s.ApplySendMessage(types.SendMessageData{MessageID: 1, SenderID: 1, ReceiverID: 2, Content: "a"})
	s.ApplySendMessage(types.SendMessageData{MessageID: 2, SenderID: 1, ReceiverID: 2, Content: "b"})

	existed, receiver := s.ApplyDeleteMessage(types.DeleteMessageData{MessageID: 1})
	assert.True(t, existed)
	require.NotNil(t, receiver)
	assert.Equal(t, []uint32{2}, receiver.Unread)

	conv := s.Conversation(1, 2)
	require.Len(t, conv, 1)
	assert.Equal(t, uint32(2), conv[0].MessageID)
	assert.False(t, s.MessageExists(1))

	existed, _ = s.ApplyDeleteMessage(types.DeleteMessageData{MessageID: 1})
	assert.False(t, existed)

	// The tombstoned uid is reused lowest-first.
	assert.Equal(t, uint32(1), s.ReserveMessageID())
}

func TestApplyDeleteAccount(t *testing.T) {
	s := New()
	createAccount(t, s, 1, "alice")
	createAccount(t, s, 2, "bob")
	s.ApplySendMessage(types.SendMessageData{MessageID: 1, SenderID: 1, ReceiverID: 2, Content: "hi"})

	existed, hadSession := s.ApplyDeleteAccount(types.DeleteAccountData{UserID: 1})
	assert.True(t, existed)
	assert.True(t, hadSession)

	assert.False(t, s.UserExists(1))
	assert.False(t, s.UsernameExists("alice"))
	assert.False(t, s.ValidateSession(1, []byte("token-alice"), 100))

	// History is retained even though the sender is gone.
	assert.Len(t, s.Conversation(1, 2), 1)
	assert.True(t, s.MessageExists(1))

	// The username and the id are both reusable.
	assert.Equal(t, uint32(1), s.ReserveUserID())

	existed, _ = s.ApplyDeleteAccount(types.DeleteAccountData{UserID: 1})
	assert.False(t, existed)
}

func TestMessageInfoFor(t *testing.T) {
	s := New()
	createAccount(t, s, 1, "alice")
	createAccount(t, s, 2, "bob")
	createAccount(t, s, 3, "eve")
	s.ApplySendMessage(types.SendMessageData{MessageID: 1, SenderID: 1, ReceiverID: 2, Content: "secret"})

	info, ok := s.MessageInfoFor(1, 1)
	require.True(t, ok)
	assert.Equal(t, "secret", info.Content)
	assert.False(t, info.Read)
	assert.Equal(t, uint32(1), info.SenderID)

	_, ok = s.MessageInfoFor(2, 1)
	assert.True(t, ok)

	// Neither sender nor receiver: looks absent.
	_, ok = s.MessageInfoFor(3, 1)
	assert.False(t, ok)
	_, ok = s.MessageInfoFor(1, 42)
	assert.False(t, ok)
}

func TestUnreadListSkipsDeletedMessages(t *testing.T) {
	s := New()
	createAccount(t, s, 1, "alice")
	createAccount(t, s, 2, "bob")
	s.ApplySendMessage(types.SendMessageData{MessageID: 1, SenderID: 1, ReceiverID: 2, Content: "a"})
	s.ApplySendMessage(types.SendMessageData{MessageID: 2, SenderID: 1, ReceiverID: 2, Content: "b"})

	infos := s.UnreadList(2)
	require.Len(t, infos, 2)
	assert.Equal(t, uint32(1), infos[0].MessageID)
	assert.Equal(t, uint32(1), infos[0].SenderID)
	assert.Equal(t, uint32(2), infos[0].ReceiverID)
}

func TestNewFromSnapshot(t *testing.T) {
	snap := &storage.Snapshot{
		Users: []*types.User{
			{ID: 1, Username: "alice", PasswordHash: []byte("ha"), Unread: nil, Recent: []uint32{2}},
			{ID: 2, Username: "bob", PasswordHash: []byte("hb"), Unread: []uint32{2}, Recent: []uint32{1}},
			{ID: 4, Username: "dave", PasswordHash: []byte("hd")},
		},
		Messages: []*types.Message{
			// Stored in uid order; insertion order differs.
			{ID: 1, SenderID: 1, ReceiverID: 2, Content: "first", Read: true, Timestamp: 100},
			{ID: 2, SenderID: 2, ReceiverID: 1, Content: "second", Timestamp: 200},
		},
		Sessions: []*types.Session{
			{UserID: 1, Token: []byte("live"), ExpiresAt: 5_000},
			{UserID: 2, Token: []byte("stale"), ExpiresAt: 900},
		},
	}

	s := NewFromSnapshot(snap, 1_000)

	assert.Equal(t, 3, s.UserCount())
	assert.Equal(t, 2, s.MessageCount())

	// Expired session dropped at load.
	assert.Equal(t, 1, s.SessionCount())
	assert.True(t, s.ValidateSession(1, []byte("live"), 1_000))
	assert.False(t, s.ValidateSession(2, []byte("stale"), 1_000))

	conv := s.Conversation(1, 2)
	require.Len(t, conv, 2)
	assert.Equal(t, "first", conv[0].Content)
	assert.Equal(t, "second", conv[1].Content)

	// Unread queues come back with the user records.
	assert.Equal(t, uint32(1), s.UnreadCount(2))

	// Id pools resume with gap reuse: user id 3 is free, then 5.
	assert.Equal(t, uint32(3), s.ReserveUserID())
	assert.Equal(t, uint32(5), s.ReserveUserID())
	assert.Equal(t, uint32(3), s.ReserveMessageID())
}

func TestConversationOrderAfterRebuild(t *testing.T) {
	// Same second, ids ascending: rebuild preserves send order.
	snap := &storage.Snapshot{
		Users: []*types.User{{ID: 1, Username: "a"}, {ID: 2, Username: "b"}},
		Messages: []*types.Message{
			{ID: 3, SenderID: 1, ReceiverID: 2, Content: "c", Timestamp: 50},
			{ID: 1, SenderID: 1, ReceiverID: 2, Content: "a", Timestamp: 50},
			{ID: 2, SenderID: 2, ReceiverID: 1, Content: "b", Timestamp: 50},
		},
	}
	s := NewFromSnapshot(snap, 0)

	conv := s.Conversation(1, 2)
	require.Len(t, conv, 3)
	assert.Equal(t, "a", conv[0].Content)
	assert.Equal(t, "b", conv[1].Content)
	assert.Equal(t, "c", conv[2].Content)
}
