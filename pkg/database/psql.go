package database

import (
	"context"
	"fmt"

	"github.com/bhanuudhay/baat-cheet-backend/pkg/logger"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

// NewDatabaseConnection create a new postgreSQL connection pool
func NewDatabaseConnection(d Connection) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	dbConfig, _ := pgxpool.ParseConfig(d.ConnectStr)
	attempt := 0
	err := withRetry(d.RetryCount, d.RetryInterval, func() error {
		attempt++
		var dialErr error
		pool, dialErr = pgxpool.ConnectConfig(context.Background(), dbConfig)
		if dialErr != nil {
			logger.Log.Warn(
				"Failed to connect to postgreSQL database, retrying...",
				zap.Int("attempt", attempt),
				zap.String("address", fmt.Sprintf("[%s]", d.ConnectStr)),
				zap.Error(dialErr),
			)
		}
		return dialErr
	})

	return pool, err
}
