package database

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithRetry_SleepsIntervalAsConfigured(t *testing.T) {
	calls := 0
	start := time.Now()
	err := withRetry(3, 20*time.Millisecond, func() error {
		calls++
		return errors.New("dial refused")
	})
	elapsed := time.Since(start)

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
	// two sleeps between three attempts, no re-scaling of the interval
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestWithRetry_StopsOnFirstSuccess(t *testing.T) {
	calls := 0
	err := withRetry(5, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return errors.New("dial refused")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}
