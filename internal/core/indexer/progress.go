package indexer

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressCallback defines the interface for progress reporting
type ProgressCallback interface {
	Update(date string, indexed bool)
	Finish()
}

// ProgressReporter handles progress feedback during sync
type ProgressReporter struct {
	writer    io.Writer
	total     int
	current   int
	indexed   int
	startTime time.Time
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(w io.Writer, total int) *ProgressReporter {
	return &ProgressReporter{
		writer:    w,
		total:     total,
		startTime: time.Now(),
	}
}

// Update advances the progress bar by one journal file
func (p *ProgressReporter) Update(date string, indexed bool) {
	p.current++
	if indexed {
		p.indexed++
	}
	if p.total <= 0 {
		return
	}

	pct := float64(p.current) / float64(p.total) * 100

	// Draw progress bar (40 chars wide)
	barWidth := 40
	filled := int(float64(barWidth) * float64(p.current) / float64(p.total))
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	status := "unchanged"
	if indexed {
		status = "indexed"
	}

	_, _ = fmt.Fprintf(p.writer, "\r[%s] %3.0f%% (%d/%d) %s %-9s", bar, pct, p.current, p.total, date, status)
}

// Finish completes the progress display
func (p *ProgressReporter) Finish() {
	elapsed := time.Since(p.startTime)
	_, _ = fmt.Fprintf(p.writer, "\nCompleted: indexed %d of %d journal files in %s\n", p.indexed, p.current, elapsed.Round(time.Millisecond))
}
