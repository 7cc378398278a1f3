package errprocess

import (
	"fmt"

	"github.com/bhanuudhay/baat-cheet-backend/pkg/logger"
)

// Set logs errMsg and returns it as an error
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return fmt.Errorf("%s", errMsg)
}

// Wrap logs msg with the cause and returns sentinel wrapped with msg, so
// callers can still branch on the sentinel with errors.Is
func Wrap(sentinel error, msg string, cause error) error {
	logger.Log.Errorf(msg, cause)
	return fmt.Errorf("%s: %w", msg, sentinel)
}
