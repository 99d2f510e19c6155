// Package transport carries Raft RPCs between cluster nodes over gRPC.
package transport

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/parleychat/parley/api/proto"
)

// GRPC maintains one lazily established client connection per peer. gRPC
// reconnects under the hood, so a failed peer needs no handling here beyond
// the per-call errors the consensus layer already tolerates.
type GRPC struct {
	addrs    map[string]string
	dialOpts []grpc.DialOption

	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

// NewGRPC builds a transport over the static topology. extraOpts is for
// tests that dial in-memory listeners; production callers pass none.
func NewGRPC(addrs map[string]string, extraOpts ...grpc.DialOption) *GRPC {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, extraOpts...)
	return &GRPC{
		addrs:    addrs,
		dialOpts: opts,
		conns:    map[string]*grpc.ClientConn{},
	}
}

func (t *GRPC) client(peerID string) (proto.RaftServiceClient, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if conn, ok := t.conns[peerID]; ok {
		return proto.NewRaftServiceClient(conn), nil
	}
	addr, ok := t.addrs[peerID]
	if !ok {
		return nil, fmt.Errorf("unknown peer %s", peerID)
	}
	conn, err := grpc.NewClient(addr, t.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to peer %s at %s: %w", peerID, addr, err)
	}
	t.conns[peerID] = conn
	return proto.NewRaftServiceClient(conn), nil
}

// RequestVote implements raft.Transport.
func (t *GRPC) RequestVote(ctx context.Context, peerID string, req *proto.RequestVoteRequest) (*proto.RequestVoteResponse, error) {
	c, err := t.client(peerID)
	if err != nil {
		return nil, err
	}
	return c.RequestVote(ctx, req)
}

// AppendEntries implements raft.Transport.
func (t *GRPC) AppendEntries(ctx context.Context, peerID string, req *proto.AppendEntriesRequest) (*proto.AppendEntriesResponse, error) {
	c, err := t.client(peerID)
	if err != nil {
		return nil, err
	}
	return c.AppendEntries(ctx, req)
}

// Close tears down every peer connection.
func (t *GRPC) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var firstErr error
	for id, conn := range t.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(t.conns, id)
	}
	return firstErr
}
