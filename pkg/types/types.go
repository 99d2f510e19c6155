package types

import "encoding/json"

// User represents a registered account.
//
// Unread is the queue of message uids delivered to this user and not yet
// read, oldest first. Recent lists the user ids this user most recently
// exchanged messages with, most recent first, deduplicated.
type User struct {
	ID           uint32
	Username     string
	PasswordHash []byte
	Unread       []uint32
	Recent       []uint32
}

// Message represents a single message between two users.
type Message struct {
	ID         uint32
	SenderID   uint32
	ReceiverID uint32
	Content    string
	Read       bool
	Timestamp  int64 // seconds since epoch, assigned by the leader
}

// Session binds a user id to its currently valid token. A user has at most
// one active session; a new login overwrites the previous token.
type Session struct {
	UserID    uint32
	Token     []byte
	ExpiresAt int64 // seconds since epoch
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now int64) bool {
	return now >= s.ExpiresAt
}

// ConversationKey identifies the conversation between two users independent
// of direction. Low is always the smaller user id.
type ConversationKey struct {
	Low  uint32
	High uint32
}

// NewConversationKey builds the canonical key for the pair {a, b}.
func NewConversationKey(a, b uint32) ConversationKey {
	if a > b {
		a, b = b, a
	}
	return ConversationKey{Low: a, High: b}
}

// Other returns the conversation participant that is not id.
func (k ConversationKey) Other(id uint32) uint32 {
	if id == k.Low {
		return k.High
	}
	return k.Low
}

// LogEntry is a single replicated log entry: the term in which it was
// created and the encoded command payload.
type LogEntry struct {
	Term    uint64
	Command []byte
}

// Command represents a state change operation in the replicated log
type Command struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"data"`
}

// Command op names. These are the only values ever written to the log;
// changing one breaks replay of existing logs.
const (
	OpCreateAccount = "create_account"
	OpLogin         = "login"
	OpDeleteAccount = "delete_account"
	OpSendMessage   = "send_message"
	OpMarkRead      = "mark_read"
	OpReadMessages  = "read_messages"
	OpDeleteMessage = "delete_message"
)

// EncodeCommand marshals a payload and wraps it in a Command envelope.
func EncodeCommand(op string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Command{Op: op, Data: data})
}

// CreateAccountData carries everything a replica needs to apply an account
// creation deterministically. The leader assigns the id, the initial session
// token and both timestamps before proposing.
type CreateAccountData struct {
	UserID       uint32
	Username     string
	PasswordHash []byte
	Token        []byte
	ExpiresAt    int64
	Timestamp    int64
}

// LoginData installs a fresh session token for an existing user.
type LoginData struct {
	UserID    uint32
	Token     []byte
	ExpiresAt int64
	Timestamp int64
}

// DeleteAccountData removes a user and its session.
type DeleteAccountData struct {
	UserID uint32
}

// SendMessageData delivers a message. The leader assigns the uid and the
// timestamp before proposing.
type SendMessageData struct {
	MessageID  uint32
	SenderID   uint32
	ReceiverID uint32
	Content    string
	Timestamp  int64
}

// MarkReadData flips a single message's read flag for the given user.
type MarkReadData struct {
	UserID    uint32
	MessageID uint32
}

// ReadMessagesData dequeues up to Count unread messages for the user.
type ReadMessagesData struct {
	UserID uint32
	Count  uint32
}

// DeleteMessageData removes a message everywhere it is referenced.
type DeleteMessageData struct {
	MessageID uint32
}
