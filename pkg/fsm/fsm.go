package fsm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/parleychat/parley/pkg/events"
	"github.com/parleychat/parley/pkg/log"
	"github.com/parleychat/parley/pkg/state"
	"github.com/parleychat/parley/pkg/storage"
	"github.com/parleychat/parley/pkg/types"
)

// Business outcomes of applying a command. These are deterministic (a pure
// function of state and payload) and are delivered to the commit-waiter on
// the proposing node; they are not storage failures.
var (
	// ErrUsernameTaken reports a create_account whose username was claimed
	// by an earlier log entry.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrUserMissing reports a command whose subject user was deleted by an
	// earlier log entry.
	ErrUserMissing = errors.New("user no longer exists")
)

// FSM decodes committed commands and applies them: in-memory indices first,
// then the touched records and the last_applied advance in one storage
// transaction. A storage failure at this point is unrecoverable (memory and
// disk would diverge) and terminates the node.
type FSM struct {
	state  *state.State
	store  storage.Store
	broker *events.Broker
	logger zerolog.Logger
}

// New builds an applier over st and store. broker may be nil.
func New(st *state.State, store storage.Store, broker *events.Broker) *FSM {
	return &FSM{
		state:  st,
		store:  store,
		broker: broker,
		logger: log.WithComponent("fsm"),
	}
}

// Apply runs one committed entry. index is the entry's log position; the
// storage transaction advances last_applied to it. The returned error is
// the command's deterministic business outcome (nil, ErrUsernameTaken, ...)
// and is identical on every replica; it is delivered to the commit-waiter
// on the proposing node. Undecodable commands also return an error, which
// is equally deterministic.
func (f *FSM) Apply(index int64, entry types.LogEntry) error {
	var cmd types.Command
	if err := json.Unmarshal(entry.Command, &cmd); err != nil {
		return fmt.Errorf("failed to decode command at index %d: %w", index, err)
	}

	switch cmd.Op {
	case types.OpCreateAccount:
		return f.applyCreateAccount(index, cmd.Data)
	case types.OpLogin:
		return f.applyLogin(index, cmd.Data)
	case types.OpDeleteAccount:
		return f.applyDeleteAccount(index, cmd.Data)
	case types.OpSendMessage:
		return f.applySendMessage(index, cmd.Data)
	case types.OpMarkRead:
		return f.applyMarkRead(index, cmd.Data)
	case types.OpReadMessages:
		return f.applyReadMessages(index, cmd.Data)
	case types.OpDeleteMessage:
		return f.applyDeleteMessage(index, cmd.Data)
	default:
		return fmt.Errorf("unknown command %q at index %d", cmd.Op, index)
	}
}

func (f *FSM) applyCreateAccount(index int64, data json.RawMessage) error {
	var d types.CreateAccountData
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("failed to decode create_account: %w", err)
	}

	user, sess, ok := f.state.ApplyCreateAccount(d)
	if !ok {
		// Raced proposal; still advance last_applied.
		f.mustPersist(index, func(storage.Txn) error { return nil })
		return ErrUsernameTaken
	}

	f.mustPersist(index, func(tx storage.Txn) error {
		if err := tx.PutUser(user); err != nil {
			return err
		}
		return tx.PutSession(sess)
	})

	f.logger.Info().Uint32("user_id", user.ID).Str("username", user.Username).Msg("account created")
	f.publish(events.EventAccountCreated, "account created", map[string]string{
		"user_id":  formatID(user.ID),
		"username": user.Username,
	})
	return nil
}

func (f *FSM) applyLogin(index int64, data json.RawMessage) error {
	var d types.LoginData
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("failed to decode login: %w", err)
	}

	sess, ok := f.state.ApplyLogin(d)
	if !ok {
		f.mustPersist(index, func(storage.Txn) error { return nil })
		return ErrUserMissing
	}

	f.mustPersist(index, func(tx storage.Txn) error { return tx.PutSession(sess) })

	f.publish(events.EventSessionCreated, "session created", map[string]string{
		"user_id": formatID(d.UserID),
	})
	return nil
}

func (f *FSM) applyDeleteAccount(index int64, data json.RawMessage) error {
	var d types.DeleteAccountData
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("failed to decode delete_account: %w", err)
	}

	existed, hadSession := f.state.ApplyDeleteAccount(d)

	f.mustPersist(index, func(tx storage.Txn) error {
		if !existed {
			return nil
		}
		if err := tx.DeleteUser(d.UserID); err != nil {
			return err
		}
		if hadSession {
			return tx.DeleteSession(d.UserID)
		}
		return nil
	})
	if !existed {
		return ErrUserMissing
	}

	f.logger.Info().Uint32("user_id", d.UserID).Msg("account deleted")
	f.publish(events.EventAccountDeleted, "account deleted", map[string]string{
		"user_id": formatID(d.UserID),
	})
	return nil
}

func (f *FSM) applySendMessage(index int64, data json.RawMessage) error {
	var d types.SendMessageData
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("failed to decode send_message: %w", err)
	}

	out := f.state.ApplySendMessage(d)

	f.mustPersist(index, func(tx storage.Txn) error {
		if err := tx.PutMessage(out.Message); err != nil {
			return err
		}
		if out.Receiver != nil {
			if err := tx.PutUser(out.Receiver); err != nil {
				return err
			}
		}
		if out.Sender != nil {
			return tx.PutUser(out.Sender)
		}
		return nil
	})

	f.publish(events.EventMessageSent, "message sent", map[string]string{
		"message_id": formatID(d.MessageID),
		"sender_id":  formatID(d.SenderID),
		"receiver":   formatID(d.ReceiverID),
	})
	return nil
}

func (f *FSM) applyMarkRead(index int64, data json.RawMessage) error {
	var d types.MarkReadData
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("failed to decode mark_read: %w", err)
	}

	msg, user := f.state.ApplyMarkRead(d)

	f.mustPersist(index, func(tx storage.Txn) error {
		if msg != nil {
			if err := tx.PutMessage(msg); err != nil {
				return err
			}
		}
		if user != nil {
			return tx.PutUser(user)
		}
		return nil
	})

	if msg != nil {
		f.publish(events.EventMessageRead, "message read", map[string]string{
			"message_id": formatID(d.MessageID),
			"user_id":    formatID(d.UserID),
		})
	}
	return nil
}

func (f *FSM) applyReadMessages(index int64, data json.RawMessage) error {
	var d types.ReadMessagesData
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("failed to decode read_messages: %w", err)
	}

	user, msgs := f.state.ApplyReadMessages(d)

	f.mustPersist(index, func(tx storage.Txn) error {
		if user != nil {
			if err := tx.PutUser(user); err != nil {
				return err
			}
		}
		for _, msg := range msgs {
			if err := tx.PutMessage(msg); err != nil {
				return err
			}
		}
		return nil
	})

	if len(msgs) > 0 {
		f.publish(events.EventMessageRead, "messages read", map[string]string{
			"user_id": formatID(d.UserID),
			"count":   strconv.Itoa(len(msgs)),
		})
	}
	return nil
}

func (f *FSM) applyDeleteMessage(index int64, data json.RawMessage) error {
	var d types.DeleteMessageData
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("failed to decode delete_message: %w", err)
	}

	existed, receiver := f.state.ApplyDeleteMessage(d)

	f.mustPersist(index, func(tx storage.Txn) error {
		if !existed {
			return nil
		}
		if err := tx.DeleteMessage(d.MessageID); err != nil {
			return err
		}
		if receiver != nil {
			return tx.PutUser(receiver)
		}
		return nil
	})
	if !existed {
		// Deleting an already-deleted message is a no-op, not an error.
		return nil
	}

	f.publish(events.EventMessageDeleted, "message deleted", map[string]string{
		"message_id": formatID(d.MessageID),
	})
	return nil
}

// mustPersist commits one command's entity writes together with the
// last_applied advance. There is no recovery path from a failed commit
// here: the in-memory indices already changed.
func (f *FSM) mustPersist(index int64, fn func(tx storage.Txn) error) {
	if err := f.store.Apply(index, fn); err != nil {
		f.logger.Fatal().Err(err).Int64("index", index).Msg("durable store failure")
	}
}

func (f *FSM) publish(typ events.EventType, msg string, meta map[string]string) {
	if f.broker == nil {
		return
	}
	f.broker.Publish(&events.Event{Type: typ, Message: msg, Metadata: meta})
}

func formatID(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}

// IsBusinessError reports whether err is a deterministic command outcome
// rather than a storage or decode failure.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrUserMissing)
}
