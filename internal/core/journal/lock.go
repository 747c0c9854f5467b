package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLockTimeout    = 5 * time.Second
	DefaultLockRetry      = 25 * time.Millisecond
	DefaultLockStaleAfter = 2 * time.Minute
)

type lockConfig struct {
	Timeout    time.Duration
	Retry      time.Duration
	StaleAfter time.Duration
}

func (c lockConfig) withDefaults() lockConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultLockTimeout
	}
	if c.Retry <= 0 {
		c.Retry = DefaultLockRetry
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = DefaultLockStaleAfter
	}
	if c.Retry > c.Timeout {
		c.Retry = c.Timeout
	}
	return c
}

// processLocks serializes goroutines of this process per lock path; the
// lock file serializes separate processes.
var processLocks sync.Map

func processLock(lockPath string) chan struct{} {
	sem, _ := processLocks.LoadOrStore(lockPath, make(chan struct{}, 1))
	return sem.(chan struct{})
}

func lockPathFor(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".lock")
}

// lockOwner is what a lock file holds. Token tells two holders with the
// same pid apart.
type lockOwner struct {
	PID       int    `json:"pid"`
	Host      string `json:"host,omitempty"`
	CreatedAt string `json:"created_at"`
	Token     string `json:"token,omitempty"`
}

func newLockOwner() ([]byte, error) {
	host, _ := os.Hostname()
	encoded, err := json.Marshal(lockOwner{
		PID:       os.Getpid(),
		Host:      host,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Token:     uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	return append(encoded, '\n'), nil
}

// withFileLock runs fn while holding the exclusive lock for path. The wait
// is bounded by cfg.Timeout and ctx; the lock is released on every exit.
// fn gets a check that fails with ErrWriteConflict once the lock file no
// longer belongs to this holder.
func withFileLock(ctx context.Context, path string, cfg lockConfig, fn func(held func() error) error) error {
	cfg = cfg.withDefaults()
	lockPath := lockPathFor(path)
	start := time.Now()
	deadline := time.NewTimer(cfg.Timeout)
	defer deadline.Stop()

	timeout := func(attempts int) error {
		return LockTimeoutError{
			LockPath: lockPath,
			Waited:   time.Since(start),
			Attempts: attempts,
			Timeout:  cfg.Timeout,
		}
	}

	sem := processLock(lockPath)
	select {
	case sem <- struct{}{}:
	case <-deadline.C:
		return timeout(0)
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sem }()

	attempts := 0
	for {
		attempts++
		owner, err := newLockOwner()
		if err != nil {
			return fmt.Errorf("encode journal lock: %w", err)
		}
		err = createLockFile(lockPath, owner)
		if err == nil {
			defer releaseLock(lockPath, owner)
			return fn(func() error { return checkLockHeld(lockPath, owner) })
		}
		if !os.IsExist(err) {
			return fmt.Errorf("acquire journal lock: %w", err)
		}

		if stealStaleLock(lockPath, time.Now().UTC(), cfg.StaleAfter) {
			select {
			case <-deadline.C:
				return timeout(attempts)
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			continue
		}

		retry := time.NewTimer(cfg.Retry)
		select {
		case <-retry.C:
		case <-deadline.C:
			retry.Stop()
			return timeout(attempts)
		case <-ctx.Done():
			retry.Stop()
			return ctx.Err()
		}
	}
}

// createLockFile publishes content at lockPath only if nothing is there.
// The content is written to a temp file and hard-linked into place, so a
// waiter never reads a half-written lock.
func createLockFile(lockPath string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(lockPath), filepath.Base(lockPath)+".new.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	_, writeErr := tmp.Write(content)
	closeErr := tmp.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return closeErr
	}

	err = os.Link(tmpName, lockPath)
	if err == nil || os.IsExist(err) {
		return err
	}
	// No hard links on this filesystem.
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	_, writeErr = lockFile.Write(content)
	closeErr = lockFile.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

func checkLockHeld(lockPath string, owner []byte) error {
	current, err := os.ReadFile(lockPath)
	if err != nil || !bytes.Equal(current, owner) {
		return fmt.Errorf("%w: journal lock %s was taken over", ErrWriteConflict, lockPath)
	}
	return nil
}

// releaseLock removes the lock only while it is still ours.
func releaseLock(lockPath string, owner []byte) {
	if checkLockHeld(lockPath, owner) == nil {
		_ = os.Remove(lockPath)
	}
}

// stealStaleLock clears an abandoned lock and reports whether the caller
// should try to create its own right away. The lock is moved aside under a
// unique name first; if what was moved is not the lock judged stale,
// another waiter got there first and its lock is put back.
func stealStaleLock(lockPath string, now time.Time, staleAfter time.Duration) bool {
	content, err := os.ReadFile(lockPath)
	if err != nil {
		return os.IsNotExist(err)
	}
	if !lockIsStale(lockPath, content, now, staleAfter) {
		return false
	}

	aside := lockPath + ".stale." + uuid.NewString()
	if err := os.Rename(lockPath, aside); err != nil {
		return os.IsNotExist(err)
	}
	defer func() { _ = os.Remove(aside) }()

	taken, err := os.ReadFile(aside)
	if err != nil {
		return false
	}
	if bytes.Equal(taken, content) {
		return true
	}
	if err := os.Link(aside, lockPath); err != nil && !os.IsExist(err) {
		_ = os.Rename(aside, lockPath)
	}
	return false
}

// lockIsStale reports whether content, read from lockPath, is a lock left
// behind by a holder that never released it. A holder still running on
// this host keeps its lock however old it is.
func lockIsStale(lockPath string, content []byte, now time.Time, staleAfter time.Duration) bool {
	var owner lockOwner
	if err := json.Unmarshal(content, &owner); err != nil {
		// Unreadable lock: fall back to the file's mtime.
		info, statErr := os.Stat(lockPath)
		if statErr != nil {
			return false
		}
		return now.Sub(info.ModTime()) > staleAfter
	}
	createdAt, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(owner.CreatedAt))
	if err != nil {
		return false
	}
	if now.Sub(createdAt) <= staleAfter {
		return false
	}
	if host, _ := os.Hostname(); owner.Host != "" && owner.Host == host && owner.PID > 0 {
		return !processAlive(owner.PID)
	}
	return true
}
