// Package draft is the approval gate in front of the journal. An entry is
// first proposed, which stores a draft and renders a preview; only an
// explicit Commit appends it to the day's file.
package draft

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neilberkman/daybook/internal/core/dates"
	"github.com/neilberkman/daybook/internal/core/journal"
	"gopkg.in/yaml.v3"
)

// DirName is the drafts directory inside the journal directory.
const DirName = ".drafts"

const (
	draftExt   = ".yaml"
	claimedExt = ".committing"
)

// Draft is a proposed session waiting for approval.
type Draft struct {
	ID        string        `yaml:"id" json:"id"`
	Date      dates.Key     `yaml:"date" json:"date"`
	Entry     journal.Entry `yaml:"entry" json:"entry"`
	CreatedAt time.Time     `yaml:"created_at" json:"created_at"`

	// Filled on read, never stored.
	Preview          string `yaml:"-" json:"preview"`
	ProjectedSession int    `yaml:"-" json:"projected_session"`
}

// Gate proposes, commits and rejects drafts for one journal.
type Gate struct {
	store *journal.Store
	dir   string
	now   func() time.Time
}

// NewGate keeps drafts under the store's directory.
func NewGate(store *journal.Store) *Gate {
	return &Gate{
		store: store,
		dir:   filepath.Join(store.Dir(), DirName),
		now:   time.Now,
	}
}

// Propose validates entry, stores it as a draft for date and returns it
// with a rendered preview. The journal file is not touched. Days after
// today are refused. An empty time label is filled with the current time.
func (g *Gate) Propose(date dates.Key, entry journal.Entry) (Draft, error) {
	if _, err := dates.ParseKey(string(date)); err != nil {
		return Draft{}, fmt.Errorf("%w: %v", journal.ErrInvalidInput, err)
	}
	now := g.now()
	if date > dates.FromTime(now) {
		return Draft{}, fmt.Errorf("%w: %s is in the future", journal.ErrInvalidInput, date)
	}
	if strings.TrimSpace(entry.Time) == "" {
		entry.Time = now.Format("15:04")
	}
	if err := entry.Validate(); err != nil {
		return Draft{}, err
	}

	d := Draft{
		ID:        uuid.NewString(),
		Date:      date,
		Entry:     entry.Normalized(),
		CreatedAt: now.UTC(),
	}
	if err := g.write(d); err != nil {
		return Draft{}, err
	}
	if err := g.preview(&d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// Get loads a pending draft with a fresh preview.
func (g *Gate) Get(id string) (Draft, error) {
	path, err := g.path(id)
	if err != nil {
		return Draft{}, err
	}
	d, err := readDraft(path)
	if err != nil {
		return Draft{}, err
	}
	if err := g.preview(&d); err != nil {
		return Draft{}, err
	}
	return d, nil
}

// List returns pending drafts, oldest first.
func (g *Gate) List() ([]Draft, error) {
	entries, err := os.ReadDir(g.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read drafts directory: %w", err)
	}

	var drafts []Draft
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), draftExt) {
			continue
		}
		d, err := readDraft(filepath.Join(g.dir, e.Name()))
		if err != nil {
			if errors.Is(err, journal.ErrNotFound) {
				continue
			}
			fmt.Fprintf(os.Stderr, "Warning: skipping draft %s: %v\n", e.Name(), err)
			continue
		}
		if err := g.preview(&d); err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].CreatedAt.Before(drafts[j].CreatedAt)
	})
	return drafts, nil
}

// Commit appends an approved draft to its day's file and removes the
// draft. The draft is claimed first so two concurrent commits of the same
// id cannot both append; if the append fails the draft is put back.
func (g *Gate) Commit(ctx context.Context, id string) (journal.AppendResult, error) {
	path, err := g.path(id)
	if err != nil {
		return journal.AppendResult{}, err
	}
	claimed := path + claimedExt
	if err := os.Rename(path, claimed); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return journal.AppendResult{}, fmt.Errorf("%w: no pending draft %s", journal.ErrNotFound, id)
		}
		return journal.AppendResult{}, fmt.Errorf("claim draft %s: %w", id, err)
	}

	d, err := readDraft(claimed)
	if err != nil {
		_ = os.Rename(claimed, path)
		return journal.AppendResult{}, err
	}

	result, err := g.store.AppendSession(ctx, d.Date, d.Entry)
	if err != nil {
		if restoreErr := os.Rename(claimed, path); restoreErr != nil {
			return journal.AppendResult{}, errors.Join(err, fmt.Errorf("restore draft %s: %w", id, restoreErr))
		}
		return journal.AppendResult{}, err
	}

	if err := os.Remove(claimed); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: session appended but draft %s not removed: %v\n", id, err)
	}
	return result, nil
}

// Reject discards a pending draft without touching the journal.
func (g *Gate) Reject(id string) error {
	path, err := g.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: no pending draft %s", journal.ErrNotFound, id)
		}
		return fmt.Errorf("remove draft %s: %w", id, err)
	}
	return nil
}

func (g *Gate) path(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", fmt.Errorf("%w: bad draft id %q", journal.ErrInvalidInput, id)
	}
	return filepath.Join(g.dir, parsed.String()+draftExt), nil
}

func (g *Gate) preview(d *Draft) error {
	next, err := g.store.NextSession(d.Date)
	if err != nil {
		return fmt.Errorf("count sessions for %s: %w", d.Date, err)
	}
	block, err := g.store.Renderer().Session(next, d.Entry)
	if err != nil {
		return err
	}
	d.ProjectedSession = next
	d.Preview = block
	return nil
}

func (g *Gate) write(d Draft) error {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create drafts directory: %w", journal.ErrNotFound, err)
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}

	tmp, err := os.CreateTemp(g.dir, ".draft-*")
	if err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write draft: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write draft: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(g.dir, d.ID+draftExt)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write draft: %w", err)
	}
	return nil
}

func readDraft(path string) (Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Draft{}, fmt.Errorf("%w: no pending draft %s", journal.ErrNotFound, strings.TrimSuffix(filepath.Base(path), draftExt))
		}
		return Draft{}, fmt.Errorf("read draft: %w", err)
	}
	var d Draft
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft %s: %w", filepath.Base(path), err)
	}
	return d, nil
}
