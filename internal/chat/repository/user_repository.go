package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/bhanuudhay/baat-cheet-backend/internal/chat/domain"
)

// UserRepository external user record gateway: identity lookup, block
// list, presence status mirror. FindByID returns (nil, nil) for an
// unknown user.
type UserRepository interface {
	FindByID(ctx context.Context, userID string) (*domain.User, error)
	UpdateStatus(ctx context.Context, userID string, status domain.UserStatus, lastSeen int64) error
}

type userRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository create a UserRepository backed by postgres
func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		"SELECT user_id, username, email, status, last_seen, blocked FROM users WHERE user_id = $1",
		userID,
	)

	var user domain.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Status, &user.LastSeen, &user.Blocked)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, userID string, status domain.UserStatus, lastSeen int64) error {
	_, err := r.db.Exec(ctx,
		"UPDATE users SET status = $1, last_seen = $2 WHERE user_id = $3",
		status, lastSeen, userID,
	)
	return err
}
