package proto

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Status is the in-band result carried by LoginResponse.
type Status int32

const (
	StatusSuccess Status = 0
	StatusFailure Status = 1
)

// FoundStatus is the in-band lookup result carried by GetUserByUsernameResponse.
type FoundStatus int32

const (
	Found    FoundStatus = 0
	NotFound FoundStatus = 1
)

type CreateAccountRequest struct {
	Username     string
	PasswordHash []byte
}

func (m *CreateAccountRequest) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.Username)
	b = appendBytes(b, 2, m.PasswordHash)
	return b
}

func (m *CreateAccountRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.Username, n, err = consumeString(data, typ)
		case 2:
			m.PasswordHash, n, err = consumeBytes(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type CreateAccountResponse struct {
	SessionToken []byte
}

func (m *CreateAccountResponse) MarshalWire() []byte {
	return appendBytes(nil, 1, m.SessionToken)
}

func (m *CreateAccountResponse) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.SessionToken, n, err = consumeBytes(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type LoginRequest struct {
	Username     string
	PasswordHash []byte
}

func (m *LoginRequest) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.Username)
	b = appendBytes(b, 2, m.PasswordHash)
	return b
}

func (m *LoginRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.Username, n, err = consumeString(data, typ)
		case 2:
			m.PasswordHash, n, err = consumeBytes(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type LoginResponse struct {
	Status       Status
	SessionToken []byte
	UnreadCount  uint32
}

func (m *LoginResponse) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, uint32(m.Status))
	b = appendBytes(b, 2, m.SessionToken)
	b = appendUint32(b, 3, m.UnreadCount)
	return b
}

func (m *LoginResponse) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			var v uint32
			v, n, err = consumeUint32(data, typ)
			m.Status = Status(v)
		case 2:
			m.SessionToken, n, err = consumeBytes(data, typ)
		case 3:
			m.UnreadCount, n, err = consumeUint32(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type ListAccountsRequest struct {
	UserID       uint32
	SessionToken []byte
	Wildcard     string
}

func (m *ListAccountsRequest) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, m.UserID)
	b = appendBytes(b, 2, m.SessionToken)
	b = appendString(b, 3, m.Wildcard)
	return b
}

func (m *ListAccountsRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.UserID, n, err = consumeUint32(data, typ)
		case 2:
			m.SessionToken, n, err = consumeBytes(data, typ)
		case 3:
			m.Wildcard, n, err = consumeString(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type ListAccountsResponse struct {
	AccountCount uint32
	Usernames    []string
}

func (m *ListAccountsResponse) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, m.AccountCount)
	for _, name := range m.Usernames {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, name)
	}
	return b
}

func (m *ListAccountsResponse) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.AccountCount, n, err = consumeUint32(data, typ)
		case 2:
			var v string
			v, n, err = consumeString(data, typ)
			if err == nil {
				m.Usernames = append(m.Usernames, v)
			}
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type DisplayConversationRequest struct {
	UserID       uint32
	SessionToken []byte
	ConversantID uint32
}

func (m *DisplayConversationRequest) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, m.UserID)
	b = appendBytes(b, 2, m.SessionToken)
	b = appendUint32(b, 3, m.ConversantID)
	return b
}

func (m *DisplayConversationRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.UserID, n, err = consumeUint32(data, typ)
		case 2:
			m.SessionToken, n, err = consumeBytes(data, typ)
		case 3:
			m.ConversantID, n, err = consumeUint32(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// ConversationMessage is one message of a conversation as rendered for a
// specific viewer: SenderFlag is true when the viewer wrote it.
type ConversationMessage struct {
	MessageID  uint32
	SenderFlag bool
	Content    string
}

func (m *ConversationMessage) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, m.MessageID)
	b = appendBool(b, 2, m.SenderFlag)
	b = appendString(b, 3, m.Content)
	return b
}

func (m *ConversationMessage) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.MessageID, n, err = consumeUint32(data, typ)
		case 2:
			m.SenderFlag, n, err = consumeBool(data, typ)
		case 3:
			m.Content, n, err = consumeString(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type DisplayConversationResponse struct {
	MessageCount uint32
	Messages     []*ConversationMessage
}

func (m *DisplayConversationResponse) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, m.MessageCount)
	for _, msg := range m.Messages {
		b = appendMessage(b, 2, msg)
	}
	return b
}

func (m *DisplayConversationResponse) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.MessageCount, n, err = consumeUint32(data, typ)
		case 2:
			var body []byte
			body, n, err = consumeBytes(data, typ)
			if err == nil {
				msg := &ConversationMessage{}
				if err = msg.UnmarshalWire(body); err == nil {
					m.Messages = append(m.Messages, msg)
				}
			}
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type SendMessageRequest struct {
	SenderUserID    uint32
	SessionToken    []byte
	RecipientUserID uint32
	MessageContent  string
}

func (m *SendMessageRequest) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, m.SenderUserID)
	b = appendBytes(b, 2, m.SessionToken)
	b = appendUint32(b, 3, m.RecipientUserID)
	b = appendString(b, 4, m.MessageContent)
	return b
}

func (m *SendMessageRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.SenderUserID, n, err = consumeUint32(data, typ)
		case 2:
			m.SessionToken, n, err = consumeBytes(data, typ)
		case 3:
			m.RecipientUserID, n, err = consumeUint32(data, typ)
		case 4:
			m.MessageContent, n, err = consumeString(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type SendMessageResponse struct{}

func (m *SendMessageResponse) MarshalWire() []byte            { return nil }
func (m *SendMessageResponse) UnmarshalWire(data []byte) error { return discardUnknown(data) }

type ReadMessagesRequest struct {
	UserID              uint32
	SessionToken        []byte
	NumberOfMessagesReq uint32
}

func (m *ReadMessagesRequest) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, m.UserID)
	b = appendBytes(b, 2, m.SessionToken)
	b = appendUint32(b, 3, m.NumberOfMessagesReq)
	return b
}

func (m *ReadMessagesRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.UserID, n, err = consumeUint32(data, typ)
		case 2:
			m.SessionToken, n, err = consumeBytes(data, typ)
		case 3:
			m.NumberOfMessagesReq, n, err = consumeUint32(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type ReadMessagesResponse struct{}

func (m *ReadMessagesResponse) MarshalWire() []byte            { return nil }
func (m *ReadMessagesResponse) UnmarshalWire(data []byte) error { return discardUnknown(data) }

type DeleteMessageRequest struct {
	UserID       uint32
	MessageUID   uint32
	SessionToken []byte
}

func (m *DeleteMessageRequest) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, m.UserID)
	b = appendUint32(b, 2, m.MessageUID)
	b = appendBytes(b, 3, m.SessionToken)
	return b
}

func (m *DeleteMessageRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.UserID, n, err = consumeUint32(data, typ)
		case 2:
			m.MessageUID, n, err = consumeUint32(data, typ)
		case 3:
			m.SessionToken, n, err = consumeBytes(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type DeleteMessageResponse struct{}

func (m *DeleteMessageResponse) MarshalWire() []byte            { return nil }
func (m *DeleteMessageResponse) UnmarshalWire(data []byte) error { return discardUnknown(data) }

type DeleteAccountRequest struct {
	UserID       uint32
	SessionToken []byte
}

func (m *DeleteAccountRequest) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, m.UserID)
	b = appendBytes(b, 2, m.SessionToken)
	return b
}

func (m *DeleteAccountRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.UserID, n, err = consumeUint32(data, typ)
		case 2:
			m.SessionToken, n, err = consumeBytes(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type DeleteAccountResponse struct{}

func (m *DeleteAccountResponse) MarshalWire() []byte            { return nil }
func (m *DeleteAccountResponse) UnmarshalWire(data []byte) error { return discardUnknown(data) }

type GetUnreadMessagesRequest struct {
	UserID       uint32
	SessionToken []byte
}

func (m *GetUnreadMessagesRequest) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, m.UserID)
	b = appendBytes(b, 2, m.SessionToken)
	return b
}

func (m *GetUnreadMessagesRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.UserID, n, err = consumeUint32(data, typ)
		case 2:
			m.SessionToken, n, err = consumeBytes(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type UnreadMessageInfo struct {
	MessageUID uint32
	SenderID   uint32
	ReceiverID uint32
}

func (m *UnreadMessageInfo) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, m.MessageUID)
	b = appendUint32(b, 2, m.SenderID)
	b = appendUint32(b, 3, m.ReceiverID)
	return b
}

func (m *UnreadMessageInfo) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.MessageUID, n, err = consumeUint32(data, typ)
		case 2:
			m.SenderID, n, err = consumeUint32(data, typ)
		case 3:
			m.ReceiverID, n, err = consumeUint32(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type GetUnreadMessagesResponse struct {
	Count    uint32
	Messages []*UnreadMessageInfo
}

func (m *GetUnreadMessagesResponse) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, m.Count)
	for _, msg := range m.Messages {
		b = appendMessage(b, 2, msg)
	}
	return b
}

func (m *GetUnreadMessagesResponse) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.Count, n, err = consumeUint32(data, typ)
		case 2:
			var body []byte
			body, n, err = consumeBytes(data, typ)
			if err == nil {
				info := &UnreadMessageInfo{}
				if err = info.UnmarshalWire(body); err == nil {
					m.Messages = append(m.Messages, info)
				}
			}
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type GetMessageInformationRequest struct {
	UserID       uint32
	SessionToken []byte
	MessageUID   uint32
}

func (m *GetMessageInformationRequest) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, m.UserID)
	b = appendBytes(b, 2, m.SessionToken)
	b = appendUint32(b, 3, m.MessageUID)
	return b
}

func (m *GetMessageInformationRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.UserID, n, err = consumeUint32(data, typ)
		case 2:
			m.SessionToken, n, err = consumeBytes(data, typ)
		case 3:
			m.MessageUID, n, err = consumeUint32(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type GetMessageInformationResponse struct {
	ReadFlag       bool
	SenderID       uint32
	ContentLength  uint32
	MessageContent string
}

func (m *GetMessageInformationResponse) MarshalWire() []byte {
	var b []byte
	b = appendBool(b, 1, m.ReadFlag)
	b = appendUint32(b, 2, m.SenderID)
	b = appendUint32(b, 3, m.ContentLength)
	b = appendString(b, 4, m.MessageContent)
	return b
}

func (m *GetMessageInformationResponse) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.ReadFlag, n, err = consumeBool(data, typ)
		case 2:
			m.SenderID, n, err = consumeUint32(data, typ)
		case 3:
			m.ContentLength, n, err = consumeUint32(data, typ)
		case 4:
			m.MessageContent, n, err = consumeString(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type GetUsernameByIDRequest struct {
	UserID uint32
}

func (m *GetUsernameByIDRequest) MarshalWire() []byte {
	return appendUint32(nil, 1, m.UserID)
}

func (m *GetUsernameByIDRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.UserID, n, err = consumeUint32(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type GetUsernameByIDResponse struct {
	Username string
}

func (m *GetUsernameByIDResponse) MarshalWire() []byte {
	return appendString(nil, 1, m.Username)
}

func (m *GetUsernameByIDResponse) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.Username, n, err = consumeString(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type MarkMessageAsReadRequest struct {
	UserID       uint32
	SessionToken []byte
	MessageUID   uint32
}

func (m *MarkMessageAsReadRequest) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, m.UserID)
	b = appendBytes(b, 2, m.SessionToken)
	b = appendUint32(b, 3, m.MessageUID)
	return b
}

func (m *MarkMessageAsReadRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.UserID, n, err = consumeUint32(data, typ)
		case 2:
			m.SessionToken, n, err = consumeBytes(data, typ)
		case 3:
			m.MessageUID, n, err = consumeUint32(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type MarkMessageAsReadResponse struct{}

func (m *MarkMessageAsReadResponse) MarshalWire() []byte            { return nil }
func (m *MarkMessageAsReadResponse) UnmarshalWire(data []byte) error { return discardUnknown(data) }

type GetUserByUsernameRequest struct {
	Username string
}

func (m *GetUserByUsernameRequest) MarshalWire() []byte {
	return appendString(nil, 1, m.Username)
}

func (m *GetUserByUsernameRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.Username, n, err = consumeString(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type GetUserByUsernameResponse struct {
	Status FoundStatus
	UserID uint32
}

func (m *GetUserByUsernameResponse) MarshalWire() []byte {
	var b []byte
	b = appendUint32(b, 1, uint32(m.Status))
	b = appendUint32(b, 2, m.UserID)
	return b
}

func (m *GetUserByUsernameResponse) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			var v uint32
			v, n, err = consumeUint32(data, typ)
			m.Status = FoundStatus(v)
		case 2:
			m.UserID, n, err = consumeUint32(data, typ)
		default:
			n, err = skipField(num, typ, data)
		}
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

type LeaderPingRequest struct{}

func (m *LeaderPingRequest) MarshalWire() []byte            { return nil }
func (m *LeaderPingRequest) UnmarshalWire(data []byte) error { return discardUnknown(data) }

type LeaderPingResponse struct{}

func (m *LeaderPingResponse) MarshalWire() []byte            { return nil }
func (m *LeaderPingResponse) UnmarshalWire(data []byte) error { return discardUnknown(data) }
