package database

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// withRetry runs dial up to count times, sleeping interval between
// failed attempts. interval is a Duration and is slept as-is.
func withRetry(count int, interval time.Duration, dial func() error) error {
	var err error
	for i := 0; i < count; i++ {
		if err = dial(); err == nil {
			return nil
		}
		if i < count-1 {
			time.Sleep(interval)
		}
	}
	return err
}

// Connection definition db connection setting
type Connection struct {
	ConnectStr string

	RetryCount    int
	RetryInterval time.Duration
}

// MongoDB definition mongo db
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// MinIOConnection definition minio
type MinIOConnection struct {
	Endpoint   string
	User       string
	Password   string
	BucketName string
	UseSSL     bool

	RetryCount    int
	RetryInterval time.Duration
}

// KafkaConnection definition kafka
type KafkaConnection struct {
	Brokers       []string
	Topic         string
	RetryCount    int
	RetryInterval time.Duration
}
