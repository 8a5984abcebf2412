package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/brahmacharya/internal/logger"
)

// ErrStorageIO classifies every failure of the persistent store: the device
// store being unavailable, a rejected write, or a value that will not decode.
var ErrStorageIO = stderrors.New("storage I/O error")

// StorageIOError records which store operation failed and on which key
type StorageIOError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageIOError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s: %v", ErrStorageIO, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", ErrStorageIO, e.Op, e.Key, e.Err)
}

func (e *StorageIOError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrStorageIO) match any StorageIOError
func (e *StorageIOError) Is(target error) bool {
	return target == ErrStorageIO
}

// NewStorageIO wraps err as a StorageIOError, returning nil for a nil err
func NewStorageIO(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageIOError{Op: op, Key: key, Err: err}
}

// IsStorageIO reports whether err is (or wraps) a storage failure
func IsStorageIO(err error) bool {
	return stderrors.Is(err, ErrStorageIO)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
