package proto

import (
	"google.golang.org/protobuf/encoding/protowire"
)

type RequestVoteRequest struct {
	Term         uint64
	CandidateID  string
	LastLogIndex int64 // -1 = empty log
	LastLogTerm  uint64
}

func (m *RequestVoteRequest) MarshalWire() []byte {
	var b []byte
	b = appendUint64(b, 1, m.Term)
	b = appendString(b, 2, m.CandidateID)
	b = appendInt64(b, 3, m.LastLogIndex)
	b = appendUint64(b, 4, m.LastLogTerm)
	return b
}

func (m *RequestVoteRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.Term, n, err = consumeUint64(data, typ)
		case 2:
			m.CandidateID, n, err = consumeString(data, typ)
		case 3:
			m.LastLogIndex, n, err = consumeInt64(data, typ)
		case 4:
			m.LastLogTerm, n, err = consumeUint64(data, typ)
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

type RequestVoteResponse struct {
	Term        uint64
	VoteGranted bool
}

func (m *RequestVoteResponse) MarshalWire() []byte {
	var b []byte
	b = appendUint64(b, 1, m.Term)
	b = appendBool(b, 2, m.VoteGranted)
	return b
}

func (m *RequestVoteResponse) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.Term, n, err = consumeUint64(data, typ)
		case 2:
			m.VoteGranted, n, err = consumeBool(data, typ)
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

type LogEntry struct {
	Term    uint64
	Command []byte
}

func (m *LogEntry) MarshalWire() []byte {
	var b []byte
	b = appendUint64(b, 1, m.Term)
	b = appendBytes(b, 2, m.Command)
	return b
}

func (m *LogEntry) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.Term, n, err = consumeUint64(data, typ)
		case 2:
			m.Command, n, err = consumeBytes(data, typ)
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

type AppendEntriesRequest struct {
	Term         uint64
	LeaderID     string
	PrevLogIndex int64 // -1 = before the first entry
	PrevLogTerm  uint64
	Entries      []*LogEntry
	LeaderCommit int64
}

func (m *AppendEntriesRequest) MarshalWire() []byte {
	var b []byte
	b = appendUint64(b, 1, m.Term)
	b = appendString(b, 2, m.LeaderID)
	b = appendInt64(b, 3, m.PrevLogIndex)
	b = appendUint64(b, 4, m.PrevLogTerm)
	for _, entry := range m.Entries {
		b = appendMessage(b, 5, entry)
	}
	b = appendInt64(b, 6, m.LeaderCommit)
	return b
}

func (m *AppendEntriesRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.Term, n, err = consumeUint64(data, typ)
		case 2:
			m.LeaderID, n, err = consumeString(data, typ)
		case 3:
			m.PrevLogIndex, n, err = consumeInt64(data, typ)
		case 4:
			m.PrevLogTerm, n, err = consumeUint64(data, typ)
		case 5:
			var body []byte
			body, n, err = consumeBytes(data, typ)
			if err == nil {
				entry := &LogEntry{}
				if err = entry.UnmarshalWire(body); err == nil {
					m.Entries = append(m.Entries, entry)
				}
			}
		case 6:
			m.LeaderCommit, n, err = consumeInt64(data, typ)
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

type AppendEntriesResponse struct {
	Term    uint64
	Success bool
}

func (m *AppendEntriesResponse) MarshalWire() []byte {
	var b []byte
	b = appendUint64(b, 1, m.Term)
	b = appendBool(b, 2, m.Success)
	return b
}

func (m *AppendEntriesResponse) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		var err error
		switch num {
		case 1:
			m.Term, n, err = consumeUint64(data, typ)
		case 2:
			m.Success, n, err = consumeBool(data, typ)
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
