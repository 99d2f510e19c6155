// Package proto carries the wire contract of the parley cluster: the
// protobuf schema in messaging.proto, Go structs for every message, and the
// gRPC service bindings for MessagingService and RaftService.
//
// The bindings are maintained by hand on top of
// google.golang.org/protobuf/encoding/protowire rather than generated by
// protoc, so the module builds without a code-generation step. Field numbers
// and types follow messaging.proto exactly; the encoding is standard proto3
// wire format and interoperates with any protoc-generated client of the same
// schema. wire_test.go pins the encoding of every message.
package proto
