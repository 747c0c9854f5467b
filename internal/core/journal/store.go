package journal

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/neilberkman/daybook/internal/core/dates"
)

// FileExt is the extension of every journal file.
const FileExt = ".md"

// Options tunes a Store. Zero values pick the defaults.
type Options struct {
	LockTimeout     time.Duration
	LockRetry       time.Duration
	LockStaleAfter  time.Duration
	SessionTemplate string
}

// Store manages the journal directory: one Markdown file per day. The
// filesystem is the only state; nothing is cached between calls.
type Store struct {
	dir      string
	lock     lockConfig
	renderer *Renderer
}

// EntryRef identifies one day's journal file.
type EntryRef struct {
	Date    dates.Key
	Path    string
	Size    int64
	ModTime time.Time
}

// AppendResult describes a successful append.
type AppendResult struct {
	Date        dates.Key
	Path        string
	Session     int
	Created     bool
	BytesBefore int64
	BytesAfter  int64
}

// NewStore opens the journal rooted at dir. The directory is created on the
// first append, not here.
func NewStore(dir string, opts Options) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, invalidf("journal directory is required")
	}
	renderer, err := NewRenderer(opts.SessionTemplate)
	if err != nil {
		return nil, err
	}
	return &Store{
		dir: filepath.Clean(dir),
		lock: lockConfig{
			Timeout:    opts.LockTimeout,
			Retry:      opts.LockRetry,
			StaleAfter: opts.LockStaleAfter,
		}.withDefaults(),
		renderer: renderer,
	}, nil
}

// Dir returns the journal directory.
func (s *Store) Dir() string { return s.dir }

// Renderer returns the renderer the store appends with.
func (s *Store) Renderer() *Renderer { return s.renderer }

// Path returns the file path for a day.
func (s *Store) Path(date dates.Key) string {
	return filepath.Join(s.dir, string(date)+FileExt)
}

// AppendSession appends entry as the next session of date's file, creating
// the file (with its date header) if needed. Existing bytes are kept as an
// exact prefix of the new file. The read-modify-write runs under the day's
// lock and the file is replaced atomically.
func (s *Store) AppendSession(ctx context.Context, date dates.Key, entry Entry) (AppendResult, error) {
	if _, err := dates.ParseKey(string(date)); err != nil {
		return AppendResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := entry.Validate(); err != nil {
		return AppendResult{}, err
	}
	entry = entry.Normalized()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return AppendResult{}, fmt.Errorf("%w: create journal directory %s: %w", ErrNotFound, s.dir, err)
	}

	path := s.Path(date)
	var result AppendResult
	err := withFileLock(ctx, path, s.lock, func(held func() error) error {
		before, existed, err := readIfExists(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		next := CountSessions(string(before)) + 1
		block, err := s.renderer.Session(next, entry)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		buf.Write(before)
		if existed && len(before) > 0 {
			if !bytes.HasSuffix(before, []byte("\n")) {
				buf.WriteByte('\n')
			}
			if next > 1 {
				buf.WriteString(Separator)
			} else {
				buf.WriteByte('\n')
			}
		} else {
			header, err := s.renderer.Header(date)
			if err != nil {
				return fmt.Errorf("render header: %w", err)
			}
			buf.WriteString(header)
			buf.WriteByte('\n')
		}
		buf.WriteString(block)

		expected := sha256.Sum256(before)
		unchanged := func() error {
			if err := held(); err != nil {
				return err
			}
			now, stillExists, err := readIfExists(path)
			if err != nil {
				return fmt.Errorf("re-read %s: %w", path, err)
			}
			if stillExists != existed || sha256.Sum256(now) != expected {
				return fmt.Errorf("%w: %s changed while appending session %d", ErrWriteConflict, path, next)
			}
			return nil
		}

		if err := writeFileAtomic(path, buf.Bytes(), 0o644, unchanged); err != nil {
			if errors.Is(err, ErrWriteConflict) {
				return err
			}
			return fmt.Errorf("%w: write %s: %w", ErrNotFound, path, err)
		}

		result = AppendResult{
			Date:        date,
			Path:        path,
			Session:     next,
			Created:     !existed,
			BytesBefore: int64(len(before)),
			BytesAfter:  int64(buf.Len()),
		}
		return nil
	})
	if err != nil {
		return AppendResult{}, err
	}
	return result, nil
}

// NextSession reports the number the next append to date would get. It is
// advisory: another writer may append first.
func (s *Store) NextSession(date dates.Key) (int, error) {
	content, _, err := readIfExists(s.Path(date))
	if err != nil {
		return 0, err
	}
	return CountSessions(string(content)) + 1, nil
}

// Entries lists the journal files matching sel in date order. The sequence
// re-reads the directory every time it is ranged over. A missing journal
// directory yields nothing.
func (s *Store) Entries(sel dates.Selector) iter.Seq2[EntryRef, error] {
	return func(yield func(EntryRef, error) bool) {
		dirEntries, err := os.ReadDir(s.dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return
			}
			yield(EntryRef{}, fmt.Errorf("read journal directory: %w", err))
			return
		}

		// os.ReadDir sorts by filename, which for date keys is date order.
		for _, de := range dirEntries {
			if de.IsDir() {
				continue
			}
			name := de.Name()
			if !strings.HasSuffix(name, FileExt) {
				continue
			}
			key, err := dates.ParseKey(strings.TrimSuffix(name, FileExt))
			if err != nil || !sel.Match(key) {
				continue
			}
			info, err := de.Info()
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				if !yield(EntryRef{}, err) {
					return
				}
				continue
			}
			ref := EntryRef{
				Date:    key,
				Path:    filepath.Join(s.dir, name),
				Size:    info.Size(),
				ModTime: info.ModTime(),
			}
			if !yield(ref, nil) {
				return
			}
		}
	}
}

// List collects Entries into a slice.
func (s *Store) List(sel dates.Selector) ([]EntryRef, error) {
	var refs []EntryRef
	for ref, err := range s.Entries(sel) {
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Read loads and parses one day's file.
func (s *Store) Read(date dates.Key) (Day, error) {
	if _, err := dates.ParseKey(string(date)); err != nil {
		return Day{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	path := s.Path(date)
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Day{}, fmt.Errorf("%w: no journal for %s", ErrNotFound, date)
		}
		return Day{}, fmt.Errorf("read %s: %w", path, err)
	}
	day := ParseDay(date, string(content))
	day.Path = path
	return day, nil
}

func readIfExists(path string) ([]byte, bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return content, true, nil
}
