package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/parleychat/parley/api/proto"
	"github.com/parleychat/parley/pkg/fsm"
	"github.com/parleychat/parley/pkg/log"
	"github.com/parleychat/parley/pkg/metrics"
	"github.com/parleychat/parley/pkg/raft"
	"github.com/parleychat/parley/pkg/state"
	"github.com/parleychat/parley/pkg/types"
	"github.com/parleychat/parley/pkg/wait"
)

// DefaultCommitWait bounds how long a mutation blocks on replication before
// the caller gets Unavailable. The entry may still commit afterwards.
const DefaultCommitWait = 5 * time.Second

const sessionTTL = 24 * time.Hour

// Server exposes the MessagingService and RaftService on one listener.
// Mutations run on the leader only: preconditions against local state, then
// propose and block on the commit-wait channel. Reads are served from local
// state on any node, stale by at most a replication round.
type Server struct {
	state      *state.State
	node       *raft.Node
	grpc       *grpc.Server
	commitWait time.Duration
	logger     zerolog.Logger
}

// NewServer wires the façade over the local state and the consensus node.
func NewServer(st *state.State, node *raft.Node) *Server {
	s := &Server{
		state:      st,
		node:       node,
		commitWait: DefaultCommitWait,
		logger:     log.WithComponent("server"),
	}
	s.grpc = grpc.NewServer(grpc.UnaryInterceptor(UnaryInterceptor(s.logger)))
	proto.RegisterMessagingServiceServer(s.grpc, s)
	proto.RegisterRaftServiceServer(s.grpc, s)
	return s
}

// SetCommitWait overrides the replication wait bound; tests shorten it.
func (s *Server) SetCommitWait(d time.Duration) {
	s.commitWait = d
}

// Start serves on addr until Stop.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(lis)
}

// Serve serves on an existing listener; tests pass a bufconn.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC server listening")
	return s.grpc.Serve(lis)
}

// Stop drains in-flight RPCs and stops the server.
func (s *Server) Stop() {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
}

// requireLeader gates a mutation. Followers answer with the redirect the
// client protocol expects; with no known leader the request is Unavailable.
func (s *Server) requireLeader() error {
	if s.node.IsLeader() {
		return nil
	}
	addr := s.node.LeaderAddr()
	if addr == "" {
		return status.Error(codes.Unavailable, "No leader available")
	}
	return status.Errorf(codes.FailedPrecondition, "Not the leader. Try %s", addr)
}

// authenticate validates (user id, token) against the local session map.
func (s *Server) authenticate(userID uint32, token []byte) error {
	if !s.state.ValidateSession(userID, token, time.Now().Unix()) {
		return status.Error(codes.Unauthenticated, "Invalid session token")
	}
	return nil
}

// propose encodes the command, appends it to the log and blocks until it is
// applied (returning the command's business outcome) or the wait expires.
// dropped is true when the entry provably never reached the log or was
// overwritten, so ids reserved for it can go back to the pool; it stays
// false on timeout, where the entry may still commit later.
func (s *Server) propose(op string, payload interface{}) (dropped bool, _ error) {
	cmd, err := types.EncodeCommand(op, payload)
	if err != nil {
		return true, status.Errorf(codes.Internal, "failed to encode command: %v", err)
	}

	_, term, ch, err := s.node.Propose(cmd)
	if err != nil {
		if errors.Is(err, raft.ErrNotLeader) {
			// Lost leadership between the gate and the append.
			metrics.ProposalsTotal.WithLabelValues("rejected").Inc()
			if lerr := s.requireLeader(); lerr != nil {
				return true, lerr
			}
			return true, status.Error(codes.Unavailable, "leadership changed before commit")
		}
		return true, status.Errorf(codes.Internal, "proposal failed: %v", err)
	}

	var res wait.Result
	select {
	case res = <-ch:
	case <-time.After(s.commitWait):
		metrics.ProposalsTotal.WithLabelValues("timeout").Inc()
		return false, status.Error(codes.Unavailable, raft.ErrTimeout.Error())
	}

	// A different term at our index means the entry was overwritten after a
	// leadership change; the command did not take effect.
	if res.Term != term {
		metrics.ProposalsTotal.WithLabelValues("rejected").Inc()
		return true, status.Error(codes.Unavailable, "leadership changed before commit")
	}
	metrics.ProposalsTotal.WithLabelValues("committed").Inc()
	return false, res.Err
}

// CreateAccount registers a username and logs the new account in: the
// response carries the initial session token.
func (s *Server) CreateAccount(ctx context.Context, req *proto.CreateAccountRequest) (*proto.CreateAccountResponse, error) {
	if err := s.requireLeader(); err != nil {
		return nil, err
	}
	if req.Username == "" {
		return nil, status.Error(codes.InvalidArgument, "username is empty")
	}
	if s.state.UsernameExists(req.Username) {
		return nil, status.Errorf(codes.AlreadyExists, "username %s already exists", req.Username)
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to generate session token: %v", err)
	}
	now := time.Now().Unix()
	data := types.CreateAccountData{
		UserID:       s.state.ReserveUserID(),
		Username:     req.Username,
		PasswordHash: req.PasswordHash,
		Token:        token,
		ExpiresAt:    now + int64(sessionTTL.Seconds()),
		Timestamp:    now,
	}

	if dropped, err := s.propose(types.OpCreateAccount, data); err != nil {
		if dropped {
			s.state.ReleaseUserID(data.UserID)
		}
		if errors.Is(err, fsm.ErrUsernameTaken) {
			return nil, status.Errorf(codes.AlreadyExists, "username %s already exists", req.Username)
		}
		return nil, err
	}
	return &proto.CreateAccountResponse{SessionToken: token}, nil
}

// Login checks credentials and replicates a fresh session. Bad credentials
// are an in-band failure, not a gRPC error.
func (s *Server) Login(ctx context.Context, req *proto.LoginRequest) (*proto.LoginResponse, error) {
	if err := s.requireLeader(); err != nil {
		return nil, err
	}

	userID, ok := s.state.Authenticate(req.Username, req.PasswordHash)
	if !ok {
		return &proto.LoginResponse{Status: proto.StatusFailure}, nil
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to generate session token: %v", err)
	}
	now := time.Now().Unix()
	data := types.LoginData{
		UserID:    userID,
		Token:     token,
		ExpiresAt: now + int64(sessionTTL.Seconds()),
		Timestamp: now,
	}

	if _, err := s.propose(types.OpLogin, data); err != nil {
		if errors.Is(err, fsm.ErrUserMissing) {
			return &proto.LoginResponse{Status: proto.StatusFailure}, nil
		}
		return nil, err
	}
	return &proto.LoginResponse{
		Status:       proto.StatusSuccess,
		SessionToken: token,
		UnreadCount:  s.state.UnreadCount(userID),
	}, nil
}

// ListAccounts returns the usernames matching a wildcard pattern.
func (s *Server) ListAccounts(ctx context.Context, req *proto.ListAccountsRequest) (*proto.ListAccountsResponse, error) {
	if err := s.authenticate(req.UserID, req.SessionToken); err != nil {
		return nil, err
	}

	names, err := s.state.SearchUsernames(req.Wildcard)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &proto.ListAccountsResponse{
		AccountCount: uint32(len(names)),
		Usernames:    names,
	}, nil
}

// DisplayConversation returns the full history between the caller and the
// conversant, flagging the caller's own messages.
func (s *Server) DisplayConversation(ctx context.Context, req *proto.DisplayConversationRequest) (*proto.DisplayConversationResponse, error) {
	if err := s.authenticate(req.UserID, req.SessionToken); err != nil {
		return nil, err
	}

	entries := s.state.Conversation(req.UserID, req.ConversantID)
	msgs := make([]*proto.ConversationMessage, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, &proto.ConversationMessage{
			MessageID:  e.MessageID,
			SenderFlag: e.SenderID == req.UserID,
			Content:    e.Content,
		})
	}
	return &proto.DisplayConversationResponse{
		MessageCount: uint32(len(msgs)),
		Messages:     msgs,
	}, nil
}

// SendMessage delivers a message to an existing recipient.
func (s *Server) SendMessage(ctx context.Context, req *proto.SendMessageRequest) (*proto.SendMessageResponse, error) {
	if err := s.requireLeader(); err != nil {
		return nil, err
	}
	if err := s.authenticate(req.SenderUserID, req.SessionToken); err != nil {
		return nil, err
	}
	if !s.state.UserExists(req.RecipientUserID) {
		return nil, status.Errorf(codes.NotFound, "user %d not found", req.RecipientUserID)
	}

	data := types.SendMessageData{
		MessageID:  s.state.ReserveMessageID(),
		SenderID:   req.SenderUserID,
		ReceiverID: req.RecipientUserID,
		Content:    req.MessageContent,
		Timestamp:  time.Now().Unix(),
	}
	if dropped, err := s.propose(types.OpSendMessage, data); err != nil {
		if dropped {
			s.state.ReleaseMessageID(data.MessageID)
		}
		return nil, err
	}
	return &proto.SendMessageResponse{}, nil
}

// ReadMessages dequeues up to the requested number of unread messages.
func (s *Server) ReadMessages(ctx context.Context, req *proto.ReadMessagesRequest) (*proto.ReadMessagesResponse, error) {
	if err := s.requireLeader(); err != nil {
		return nil, err
	}
	if err := s.authenticate(req.UserID, req.SessionToken); err != nil {
		return nil, err
	}

	data := types.ReadMessagesData{UserID: req.UserID, Count: req.NumberOfMessagesReq}
	if _, err := s.propose(types.OpReadMessages, data); err != nil {
		return nil, err
	}
	return &proto.ReadMessagesResponse{}, nil
}

// DeleteMessage removes a message everywhere. Deleting an absent message is
// a quiet no-op.
func (s *Server) DeleteMessage(ctx context.Context, req *proto.DeleteMessageRequest) (*proto.DeleteMessageResponse, error) {
	if err := s.requireLeader(); err != nil {
		return nil, err
	}
	if err := s.authenticate(req.UserID, req.SessionToken); err != nil {
		return nil, err
	}

	if _, err := s.propose(types.OpDeleteMessage, types.DeleteMessageData{MessageID: req.MessageUID}); err != nil {
		return nil, err
	}
	return &proto.DeleteMessageResponse{}, nil
}

// DeleteAccount removes the caller's account and session. Message history
// is retained.
func (s *Server) DeleteAccount(ctx context.Context, req *proto.DeleteAccountRequest) (*proto.DeleteAccountResponse, error) {
	if err := s.requireLeader(); err != nil {
		return nil, err
	}
	if err := s.authenticate(req.UserID, req.SessionToken); err != nil {
		return nil, err
	}

	if _, err := s.propose(types.OpDeleteAccount, types.DeleteAccountData{UserID: req.UserID}); err != nil {
		if errors.Is(err, fsm.ErrUserMissing) {
			return nil, status.Errorf(codes.NotFound, "user %d not found", req.UserID)
		}
		return nil, err
	}
	return &proto.DeleteAccountResponse{}, nil
}

// GetUnreadMessages lists the caller's unread queue without consuming it.
func (s *Server) GetUnreadMessages(ctx context.Context, req *proto.GetUnreadMessagesRequest) (*proto.GetUnreadMessagesResponse, error) {
	if err := s.authenticate(req.UserID, req.SessionToken); err != nil {
		return nil, err
	}

	infos := s.state.UnreadList(req.UserID)
	msgs := make([]*proto.UnreadMessageInfo, 0, len(infos))
	for _, info := range infos {
		msgs = append(msgs, &proto.UnreadMessageInfo{
			MessageUID: info.MessageID,
			SenderID:   info.SenderID,
			ReceiverID: info.ReceiverID,
		})
	}
	return &proto.GetUnreadMessagesResponse{
		Count:    uint32(len(msgs)),
		Messages: msgs,
	}, nil
}

// GetMessageInformation returns message metadata to its sender or receiver;
// anyone else sees NotFound.
func (s *Server) GetMessageInformation(ctx context.Context, req *proto.GetMessageInformationRequest) (*proto.GetMessageInformationResponse, error) {
	if err := s.authenticate(req.UserID, req.SessionToken); err != nil {
		return nil, err
	}

	info, ok := s.state.MessageInfoFor(req.UserID, req.MessageUID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "message %d not found", req.MessageUID)
	}
	return &proto.GetMessageInformationResponse{
		ReadFlag:       info.Read,
		SenderID:       info.SenderID,
		ContentLength:  uint32(len(info.Content)),
		MessageContent: info.Content,
	}, nil
}

// GetUsernameByID resolves a user id. No session required.
func (s *Server) GetUsernameByID(ctx context.Context, req *proto.GetUsernameByIDRequest) (*proto.GetUsernameByIDResponse, error) {
	name, ok := s.state.Username(req.UserID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "user %d not found", req.UserID)
	}
	return &proto.GetUsernameByIDResponse{Username: name}, nil
}

// MarkMessageAsRead flips a single message's read flag for the caller.
func (s *Server) MarkMessageAsRead(ctx context.Context, req *proto.MarkMessageAsReadRequest) (*proto.MarkMessageAsReadResponse, error) {
	if err := s.requireLeader(); err != nil {
		return nil, err
	}
	if err := s.authenticate(req.UserID, req.SessionToken); err != nil {
		return nil, err
	}

	data := types.MarkReadData{UserID: req.UserID, MessageID: req.MessageUID}
	if _, err := s.propose(types.OpMarkRead, data); err != nil {
		return nil, err
	}
	return &proto.MarkMessageAsReadResponse{}, nil
}

// GetUserByUsername resolves a username; absence is in-band. No session
// required.
func (s *Server) GetUserByUsername(ctx context.Context, req *proto.GetUserByUsernameRequest) (*proto.GetUserByUsernameResponse, error) {
	id, ok := s.state.UserID(req.Username)
	if !ok {
		return &proto.GetUserByUsernameResponse{Status: proto.NotFound}, nil
	}
	return &proto.GetUserByUsernameResponse{Status: proto.Found, UserID: id}, nil
}

// LeaderPing succeeds only on the leader; the error detail carries the
// believed leader endpoint for client discovery.
func (s *Server) LeaderPing(ctx context.Context, req *proto.LeaderPingRequest) (*proto.LeaderPingResponse, error) {
	if s.node.IsLeader() {
		return &proto.LeaderPingResponse{}, nil
	}
	return nil, status.Errorf(codes.FailedPrecondition, "Not the leader. Try %s", s.node.LeaderAddr())
}

// RequestVote delegates to the consensus core.
func (s *Server) RequestVote(ctx context.Context, req *proto.RequestVoteRequest) (*proto.RequestVoteResponse, error) {
	return s.node.HandleRequestVote(req), nil
}

// AppendEntries delegates to the consensus core.
func (s *Server) AppendEntries(ctx context.Context, req *proto.AppendEntriesRequest) (*proto.AppendEntriesResponse, error) {
	return s.node.HandleAppendEntries(req), nil
}
