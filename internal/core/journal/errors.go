package journal

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound means the journal directory or a day's file is missing or
	// cannot be created.
	ErrNotFound = errors.New("not found")

	// ErrWriteConflict means the day's file changed between read and write,
	// or the per-day lock could not be acquired in time.
	ErrWriteConflict = errors.New("write conflict")

	// ErrInvalidInput means a malformed date key or an incomplete entry.
	ErrInvalidInput = errors.New("invalid input")
)

// LockTimeoutError reports lock contention on a day's file. It unwraps to
// ErrWriteConflict.
type LockTimeoutError struct {
	LockPath string
	Waited   time.Duration
	Attempts int
	Timeout  time.Duration
}

func (err LockTimeoutError) Error() string {
	return fmt.Sprintf(
		"journal lock contention: timed out (path=%s waited=%s attempts=%d timeout=%s)",
		err.LockPath,
		err.Waited.Truncate(time.Millisecond),
		err.Attempts,
		err.Timeout,
	)
}

func (err LockTimeoutError) Unwrap() error {
	return ErrWriteConflict
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
