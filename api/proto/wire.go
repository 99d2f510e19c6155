package proto

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every wire type in this package. MarshalWire
// emits proto3 wire format with the field numbers from messaging.proto;
// UnmarshalWire accepts the same and skips unknown fields.
type Message interface {
	MarshalWire() []byte
	UnmarshalWire(data []byte) error
}

// Codec is the gRPC codec for this package's hand-maintained wire types.
// Servers install it with grpc.ForceServerCodec, clients with
// grpc.ForceCodec; the bytes on the wire are indistinguishable from the
// default proto codec over protoc-generated types.
type Codec struct{}

// CodecName identifies the codec in gRPC content-subtype negotiation.
const CodecName = "parley-proto"

func (Codec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("proto codec: cannot marshal %T", v)
	}
	return m.MarshalWire(), nil
}

func (Codec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("proto codec: cannot unmarshal into %T", v)
	}
	return m.UnmarshalWire(data)
}

func (Codec) Name() string { return CodecName }

var errWireType = errors.New("proto: unexpected wire type for field")

// Append helpers. Proto3 semantics: zero values are not emitted. Negative
// int64 sentinels (-1 log indices) are non-zero and always encode.

func appendUint32(b []byte, num protowire.Number, v uint32) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendUint64(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendMessage(b []byte, num protowire.Number, m Message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.MarshalWire())
}

// Consume helpers. Each validates the wire type, decodes one value and
// returns the number of bytes consumed.

func consumeVarint(data []byte, typ protowire.Type) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, errWireType
	}
	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeUint32(data []byte, typ protowire.Type) (uint32, int, error) {
	v, n, err := consumeVarint(data, typ)
	return uint32(v), n, err
}

func consumeUint64(data []byte, typ protowire.Type) (uint64, int, error) {
	return consumeVarint(data, typ)
}

func consumeInt64(data []byte, typ protowire.Type) (int64, int, error) {
	v, n, err := consumeVarint(data, typ)
	return int64(v), n, err
}

func consumeBool(data []byte, typ protowire.Type) (bool, int, error) {
	v, n, err := consumeVarint(data, typ)
	return v != 0, n, err
}

func consumeString(data []byte, typ protowire.Type) (string, int, error) {
	if typ != protowire.BytesType {
		return "", 0, errWireType
	}
	v, n := protowire.ConsumeString(data)
	if n < 0 {
		return "", 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeBytes(data []byte, typ protowire.Type) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, errWireType
	}
	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	// The input buffer belongs to the transport; detach.
	out := make([]byte, len(v))
	copy(out, v)
	return out, n, nil
}

func skipField(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, data)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}

// discardUnknown walks a message body, validating structure and dropping
// every field. Empty messages use it so that future field additions from
// newer peers stay compatible.
func discardUnknown(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		n, err := skipField(num, typ, data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
