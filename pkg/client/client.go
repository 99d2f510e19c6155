package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/parleychat/parley/api/proto"
)

const redirectPrefix = "Not the leader. Try "

// Defaults for leader discovery and retry.
const (
	DefaultAttempts  = 5
	DefaultRetryBase = 100 * time.Millisecond
)

var (
	// ErrNoSession reports an authenticated call made before CreateAccount
	// or Login established a session.
	ErrNoSession = errors.New("no active session")

	// ErrBadCredentials reports an in-band login failure.
	ErrBadCredentials = errors.New("invalid username or password")

	// ErrNoLeader reports that no endpoint claimed leadership during a
	// discovery sweep.
	ErrNoLeader = errors.New("no leader found")
)

// Session is the identity remembered after CreateAccount or Login.
type Session struct {
	UserID uint32
	Token  []byte
}

// Client is a fault-tolerant client for the messaging cluster. It discovers
// the leader by probing endpoints with LeaderPing, follows redirect details
// when leadership moves, and retries with exponential backoff. The session
// established by CreateAccount or Login is remembered and attached to every
// authenticated call.
type Client struct {
	endpoints []string
	attempts  int
	retryBase time.Duration
	dialOpts  []grpc.DialOption

	mu      sync.Mutex
	conns   map[string]*grpc.ClientConn
	leader  string
	session *Session
}

// New builds a client over the cluster endpoints. extraOpts exists for
// tests that dial in-memory listeners.
func New(endpoints []string, extraOpts ...grpc.DialOption) *Client {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, extraOpts...)
	return &Client{
		endpoints: endpoints,
		attempts:  DefaultAttempts,
		retryBase: DefaultRetryBase,
		dialOpts:  opts,
		conns:     map[string]*grpc.ClientConn{},
	}
}

// SetRetry overrides the retry budget.
func (c *Client) SetRetry(attempts int, base time.Duration) {
	c.attempts = attempts
	c.retryBase = base
}

// Close tears down every connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for addr, conn := range c.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.conns, addr)
	}
	return firstErr
}

// Session returns the remembered session, or nil before login.
func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Client) requireSession() (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, ErrNoSession
	}
	return c.session, nil
}

func (c *Client) clientFor(addr string) (proto.MessagingServiceClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[addr]; ok {
		return proto.NewMessagingServiceClient(conn), nil
	}
	conn, err := grpc.NewClient(addr, c.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	c.conns[addr] = conn
	return proto.NewMessagingServiceClient(conn), nil
}

func (c *Client) rememberLeader(addr string) {
	c.mu.Lock()
	c.leader = addr
	c.mu.Unlock()
}

func (c *Client) knownLeader() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leader
}

// redirectTarget extracts the endpoint hint from a not-the-leader error.
// The second return is true for any redirect, even one with an empty hint.
func redirectTarget(err error) (string, bool) {
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.FailedPrecondition {
		return "", false
	}
	if !strings.HasPrefix(st.Message(), redirectPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(st.Message(), redirectPrefix)), true
}

// DiscoverLeader probes the cluster until some endpoint answers LeaderPing,
// following redirect hints along the way. It returns the leader's endpoint.
func (c *Client) DiscoverLeader(ctx context.Context) (string, error) {
	candidates := c.endpoints
	if known := c.knownLeader(); known != "" {
		candidates = append([]string{known}, c.endpoints...)
	}

	for _, addr := range candidates {
		cli, err := c.clientFor(addr)
		if err != nil {
			continue
		}
		_, err = cli.LeaderPing(ctx, &proto.LeaderPingRequest{})
		if err == nil {
			c.rememberLeader(addr)
			return addr, nil
		}
		hint, ok := redirectTarget(err)
		if !ok || hint == "" || hint == addr {
			continue
		}
		cli, err = c.clientFor(hint)
		if err != nil {
			continue
		}
		if _, err := cli.LeaderPing(ctx, &proto.LeaderPingRequest{}); err == nil {
			c.rememberLeader(hint)
			return hint, nil
		}
	}
	return "", ErrNoLeader
}

// call runs fn against the leader, rediscovering and backing off on
// leadership errors. Any other error is terminal and returned as-is.
func (c *Client) call(ctx context.Context, fn func(proto.MessagingServiceClient) error) error {
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryBase << (attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		addr, err := c.DiscoverLeader(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		cli, err := c.clientFor(addr)
		if err != nil {
			lastErr = err
			continue
		}

		err = fn(cli)
		if err == nil {
			return nil
		}
		if hint, ok := redirectTarget(err); ok {
			c.rememberLeader(hint)
			lastErr = err
			continue
		}
		if status.Code(err) == codes.Unavailable {
			c.rememberLeader("")
			lastErr = err
			continue
		}
		return err
	}
	return fmt.Errorf("request failed after %d attempts: %w", c.attempts, lastErr)
}

// CreateAccount registers a username and remembers the resulting session.
func (c *Client) CreateAccount(ctx context.Context, username string, passwordHash []byte) error {
	var token []byte
	err := c.call(ctx, func(cli proto.MessagingServiceClient) error {
		resp, err := cli.CreateAccount(ctx, &proto.CreateAccountRequest{
			Username:     username,
			PasswordHash: passwordHash,
		})
		if err != nil {
			return err
		}
		token = resp.SessionToken
		return nil
	})
	if err != nil {
		return err
	}

	userID, found, err := c.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("account created but id lookup failed: %w", err)
	}
	if !found {
		return fmt.Errorf("account created but %s not visible yet", username)
	}
	c.setSession(&Session{UserID: userID, Token: token})
	return nil
}

// Login authenticates, remembers the resulting session and returns the
// unread message count.
func (c *Client) Login(ctx context.Context, username string, passwordHash []byte) (uint32, error) {
	var resp *proto.LoginResponse
	err := c.call(ctx, func(cli proto.MessagingServiceClient) error {
		var err error
		resp, err = cli.Login(ctx, &proto.LoginRequest{
			Username:     username,
			PasswordHash: passwordHash,
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	if resp.Status != proto.StatusSuccess {
		return 0, ErrBadCredentials
	}

	userID, found, err := c.GetUserByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("logged in but id lookup failed: %w", err)
	}
	if !found {
		return 0, fmt.Errorf("logged in but %s not visible", username)
	}
	c.setSession(&Session{UserID: userID, Token: resp.SessionToken})
	return resp.UnreadCount, nil
}

// ListAccounts returns the usernames matching the wildcard pattern.
func (c *Client) ListAccounts(ctx context.Context, wildcard string) ([]string, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	var names []string
	err = c.call(ctx, func(cli proto.MessagingServiceClient) error {
		resp, err := cli.ListAccounts(ctx, &proto.ListAccountsRequest{
			UserID:       sess.UserID,
			SessionToken: sess.Token,
			Wildcard:     wildcard,
		})
		if err != nil {
			return err
		}
		names = resp.Usernames
		return nil
	})
	return names, err
}

// DisplayConversation returns the full history with the conversant.
func (c *Client) DisplayConversation(ctx context.Context, conversantID uint32) ([]*proto.ConversationMessage, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	var msgs []*proto.ConversationMessage
	err = c.call(ctx, func(cli proto.MessagingServiceClient) error {
		resp, err := cli.DisplayConversation(ctx, &proto.DisplayConversationRequest{
			UserID:       sess.UserID,
			SessionToken: sess.Token,
			ConversantID: conversantID,
		})
		if err != nil {
			return err
		}
		msgs = resp.Messages
		return nil
	})
	return msgs, err
}

// SendMessage delivers a message to the recipient.
func (c *Client) SendMessage(ctx context.Context, recipientID uint32, content string) error {
	sess, err := c.requireSession()
	if err != nil {
		return err
	}
	return c.call(ctx, func(cli proto.MessagingServiceClient) error {
		_, err := cli.SendMessage(ctx, &proto.SendMessageRequest{
			SenderUserID:    sess.UserID,
			SessionToken:    sess.Token,
			RecipientUserID: recipientID,
			MessageContent:  content,
		})
		return err
	})
}

// ReadMessages dequeues up to n unread messages.
func (c *Client) ReadMessages(ctx context.Context, n uint32) error {
	sess, err := c.requireSession()
	if err != nil {
		return err
	}
	return c.call(ctx, func(cli proto.MessagingServiceClient) error {
		_, err := cli.ReadMessages(ctx, &proto.ReadMessagesRequest{
			UserID:              sess.UserID,
			SessionToken:        sess.Token,
			NumberOfMessagesReq: n,
		})
		return err
	})
}

// DeleteMessage removes a message for both participants.
func (c *Client) DeleteMessage(ctx context.Context, messageUID uint32) error {
	sess, err := c.requireSession()
	if err != nil {
		return err
	}
	return c.call(ctx, func(cli proto.MessagingServiceClient) error {
		_, err := cli.DeleteMessage(ctx, &proto.DeleteMessageRequest{
			UserID:       sess.UserID,
			MessageUID:   messageUID,
			SessionToken: sess.Token,
		})
		return err
	})
}

// DeleteAccount removes the session's account and forgets the session.
func (c *Client) DeleteAccount(ctx context.Context) error {
	sess, err := c.requireSession()
	if err != nil {
		return err
	}
	err = c.call(ctx, func(cli proto.MessagingServiceClient) error {
		_, err := cli.DeleteAccount(ctx, &proto.DeleteAccountRequest{
			UserID:       sess.UserID,
			SessionToken: sess.Token,
		})
		return err
	})
	if err != nil {
		return err
	}
	c.setSession(nil)
	return nil
}

// GetUnreadMessages lists the unread queue without consuming it.
func (c *Client) GetUnreadMessages(ctx context.Context) ([]*proto.UnreadMessageInfo, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	var msgs []*proto.UnreadMessageInfo
	err = c.call(ctx, func(cli proto.MessagingServiceClient) error {
		resp, err := cli.GetUnreadMessages(ctx, &proto.GetUnreadMessagesRequest{
			UserID:       sess.UserID,
			SessionToken: sess.Token,
		})
		if err != nil {
			return err
		}
		msgs = resp.Messages
		return nil
	})
	return msgs, err
}

// GetMessageInformation returns metadata for a message the session's user
// sent or received.
func (c *Client) GetMessageInformation(ctx context.Context, messageUID uint32) (*proto.GetMessageInformationResponse, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	var info *proto.GetMessageInformationResponse
	err = c.call(ctx, func(cli proto.MessagingServiceClient) error {
		var err error
		info, err = cli.GetMessageInformation(ctx, &proto.GetMessageInformationRequest{
			UserID:       sess.UserID,
			SessionToken: sess.Token,
			MessageUID:   messageUID,
		})
		return err
	})
	return info, err
}

// GetUsernameByID resolves a user id to its username.
func (c *Client) GetUsernameByID(ctx context.Context, userID uint32) (string, error) {
	var name string
	err := c.call(ctx, func(cli proto.MessagingServiceClient) error {
		resp, err := cli.GetUsernameByID(ctx, &proto.GetUsernameByIDRequest{UserID: userID})
		if err != nil {
			return err
		}
		name = resp.Username
		return nil
	})
	return name, err
}

// MarkMessageAsRead flips a single message's read flag.
func (c *Client) MarkMessageAsRead(ctx context.Context, messageUID uint32) error {
	sess, err := c.requireSession()
	if err != nil {
		return err
	}
	return c.call(ctx, func(cli proto.MessagingServiceClient) error {
		_, err := cli.MarkMessageAsRead(ctx, &proto.MarkMessageAsReadRequest{
			UserID:       sess.UserID,
			SessionToken: sess.Token,
			MessageUID:   messageUID,
		})
		return err
	})
}

// GetUserByUsername resolves a username. Absence is reported in-band, not
// as an error.
func (c *Client) GetUserByUsername(ctx context.Context, username string) (uint32, bool, error) {
	var (
		id    uint32
		found bool
	)
	err := c.call(ctx, func(cli proto.MessagingServiceClient) error {
		resp, err := cli.GetUserByUsername(ctx, &proto.GetUserByUsernameRequest{Username: username})
		if err != nil {
			return err
		}
		id = resp.UserID
		found = resp.Status == proto.Found
		return nil
	})
	return id, found, err
}
