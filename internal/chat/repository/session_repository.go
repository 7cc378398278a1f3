package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/database"
	"github.com/bhanuudhay/baat-cheet-backend/pkg/token"
)

// SessionValidator checks a bearer token against the auth collaborator's
// session store and resolves the owning user identity
type SessionValidator interface {
	Validate(ctx context.Context, tokenStr string) (string, error)
}

type sessionValidator struct {
	sessions database.RedisRepository[domain.Session]
	ttl      time.Duration
}

// NewSessionValidator create a SessionValidator over the redis session
// store. Each successful validation slides the session's expiry by ttl.
func NewSessionValidator(sessions database.RedisRepository[domain.Session], ttl time.Duration) SessionValidator {
	return &sessionValidator{sessions: sessions, ttl: ttl}
}

// Validate parses the JWT, then requires a live redis session for the
// claimed user. A bad token or a missing/expired session is
// ErrNotAuthenticated; a store failure is ErrExternalUnavailable.
func (v *sessionValidator) Validate(ctx context.Context, tokenStr string) (string, error) {
	claims, err := token.ParseJWT(tokenStr)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", domain.ErrNotAuthenticated)
	}

	sess, err := v.sessions.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrCacheMiss) {
			return "", fmt.Errorf("no live session: %w", domain.ErrNotAuthenticated)
		}
		return "", fmt.Errorf("session store: %w", domain.ErrExternalUnavailable)
	}
	if sess.ExpiredAt != 0 && sess.ExpiredAt < time.Now().Unix() {
		return "", fmt.Errorf("session expired: %w", domain.ErrNotAuthenticated)
	}

	if v.ttl > 0 {
		// sliding expiry, a live connection keeps the session warm
		_ = v.sessions.ExtendTTL(ctx, claims.UserID, v.ttl)
	}
	return claims.UserID, nil
}
