package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/repository"
	errprocess "github.com/bhanuudhay/baat-cheet-backend/pkg/err"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/logger"
)

// SessionState connection lifecycle state
type SessionState int

const (
	// StateUnauthenticated connection open, no identity yet
	StateUnauthenticated SessionState = iota
	// StateAuthenticated identity established, presence registered
	StateAuthenticated
	// StateClosed terminal, no further operations accepted
	StateClosed
)

// ConnectionSession per-connection state: the authenticated identity, the
// joined room set and the transport send function. The owning identity is
// set once, at authentication, and never changes for this handle.
type ConnectionSession struct {
	id   string
	send func(resp domain.WSResponse) error

	mu          sync.Mutex
	state       SessionState
	userID      string
	rooms       map[string]struct{}
	cancelRelay context.CancelFunc
}

// ID transport-scoped handle id
func (s *ConnectionSession) ID() string { return s.id }

// Push delivers resp over the transport. Closed handles reject the push.
func (s *ConnectionSession) Push(resp domain.WSResponse) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	s.mu.Unlock()
	return s.send(resp)
}

// UserID the authenticated identity, or "" while unauthenticated
func (s *ConnectionSession) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// RequireAuth returns the identity, or ErrNotAuthenticated before
// authentication and after close
func (s *ConnectionSession) RequireAuth() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated {
		return "", domain.ErrNotAuthenticated
	}
	return s.userID, nil
}

// JoinRoom track a room this handle is currently viewing
func (s *ConnectionSession) JoinRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = struct{}{}
}

// LeaveRoom drop a room from this handle's joined set
func (s *ConnectionSession) LeaveRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
}

// InRoom reports whether this handle currently has the room joined
func (s *ConnectionSession) InRoom(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[roomID]
	return ok
}

// SessionManager drives the session lifecycle: authenticate registers the
// handle with presence, persists the status mirror and broadcasts the
// transition; close does the reverse on the last handle.
type SessionManager struct {
	presence  *PresenceRegistry
	users     repository.UserRepository
	validator repository.SessionValidator
	pubsub    repository.PubSub
	nodeID    string
	timeout   time.Duration
}

// NewSessionManager create a SessionManager
func NewSessionManager(
	presence *PresenceRegistry,
	users repository.UserRepository,
	validator repository.SessionValidator,
	pubsub repository.PubSub,
	nodeID string,
	timeout time.Duration,
) *SessionManager {
	return &SessionManager{
		presence:  presence,
		users:     users,
		validator: validator,
		pubsub:    pubsub,
		nodeID:    nodeID,
		timeout:   timeout,
	}
}

// NewSession wraps a transport send function into an unauthenticated session
func (m *SessionManager) NewSession(send func(resp domain.WSResponse) error) *ConnectionSession {
	return &ConnectionSession{
		id:    uuid.New().String(),
		send:  send,
		state: StateUnauthenticated,
		rooms: make(map[string]struct{}),
	}
}

// Authenticate validates the token, binds the identity to the session and
// registers it with presence. Re-authenticating an authenticated session
// is a no-op returning the bound identity (idempotent per transport
// session). Status persistence failure after a successful registration is
// logged, not surfaced: the user IS reachable at that point.
func (m *SessionManager) Authenticate(ctx context.Context, s *ConnectionSession, tokenStr string) (string, error) {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return "", domain.ErrNotAuthenticated
	case StateAuthenticated:
		userID := s.userID
		s.mu.Unlock()
		return userID, nil
	}
	s.mu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	userID, err := m.validator.Validate(opCtx, tokenStr)
	if err != nil {
		return "", err
	}

	// the session may outlive the account, the user record decides
	user, err := m.users.FindByID(opCtx, userID)
	if err != nil {
		return "", errprocess.Wrap(domain.ErrExternalUnavailable, "find user", err)
	}
	if user == nil {
		return "", errprocess.Wrap(domain.ErrNotAuthenticated, "unknown user "+userID, nil)
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return "", domain.ErrNotAuthenticated
	}
	s.userID = userID
	s.state = StateAuthenticated
	s.mu.Unlock()

	wentOnline := m.presence.Register(userID, s)
	if wentOnline {
		m.persistStatus(userID, domain.StatusOnline)
		m.presence.Broadcast(presenceResponse(userID, domain.StatusOnline))
	}

	// bridge events relayed by other nodes onto this handle
	if m.pubsub != nil {
		relayCtx, cancelRelay := context.WithCancel(context.Background())
		s.mu.Lock()
		s.cancelRelay = cancelRelay
		s.mu.Unlock()

		err := m.pubsub.Subscribe(relayCtx, repository.UserChannel(userID), func(ev domain.RelayEvent) {
			if ev.NodeID == m.nodeID {
				return
			}
			if err := s.Push(ev.Resp); err != nil {
				logger.Log.Errorf("relay push skipped:", err)
			}
		})
		if err != nil {
			logger.Log.Errorf("relay subscribe failed:", err, zap.String("userID", userID))
		}
	}

	logger.Log.Info("session authenticated", zap.String("userID", userID), zap.String("handle", s.id))
	return userID, nil
}

// Close tears the session down. Idempotent and terminal: the handle is
// unregistered from presence, and when it was the user's last handle the
// offline transition is persisted and broadcast.
func (m *SessionManager) Close(s *ConnectionSession) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	wasAuthenticated := s.state == StateAuthenticated
	userID := s.userID
	cancelRelay := s.cancelRelay
	s.state = StateClosed
	s.mu.Unlock()

	if !wasAuthenticated {
		return
	}
	if cancelRelay != nil {
		cancelRelay()
	}

	wentOffline := m.presence.Unregister(userID, s)
	if wentOffline {
		m.persistStatus(userID, domain.StatusOffline)
		m.presence.Broadcast(presenceResponse(userID, domain.StatusOffline))
	}

	logger.Log.Info("session closed", zap.String("userID", userID), zap.String("handle", s.id))
}

func (m *SessionManager) persistStatus(userID string, status domain.UserStatus) {
	opCtx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.users.UpdateStatus(opCtx, userID, status, time.Now().Unix()); err != nil {
		logger.Log.Errorf("persist user status failed:", err, zap.String("userID", userID))
	}
}

func presenceResponse(userID string, status domain.UserStatus) domain.WSResponse {
	return domain.WSResponse{
		Action:  string(domain.PresenceChanged),
		Success: true,
		Payload: map[string]interface{}{
			"user_id": userID,
			"status":  string(status),
		},
	}
}
