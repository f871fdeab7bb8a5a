package retention

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gomemo-fmtpla/backend/internal/domain"
)

type NoteStore interface {
	ListNotesOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Note, error)
	DeleteNoteMetadata(ctx context.Context, noteID int64) error
	DeleteNoteRow(ctx context.Context, noteID int64) error
}

type BlobStore interface {
	ResolveName(rawURL string) (string, bool)
	Delete(name string) error
}

// Result aggregates one sweep: how many notes went away and which non-fatal
// problems came up along the way.
type Result struct {
	Deleted int
	Errors  []string
}

// Sweeper deletes notes past the retention window together with their
// metadata and any backing blob. Each note is processed independently; one
// note failing never rolls back or blocks the rest.
type Sweeper struct {
	store    NoteStore
	blobs    BlobStore
	window   time.Duration
	interval time.Duration
}

func NewSweeper(store NoteStore, blobs BlobStore, window, interval time.Duration) *Sweeper {
	return &Sweeper{store: store, blobs: blobs, window: window, interval: interval}
}

// Run sweeps immediately and then on every tick until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	log.Printf("retention sweeper running every %s, window %s", s.interval, s.window)

	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	result := s.SweepOnce(ctx)
	log.Printf("retention sweep deleted %d notes", result.Deleted)
	for _, msg := range result.Errors {
		log.Printf("retention sweep warning: %s", msg)
	}
}

// SweepOnce scans for expired notes and deletes them one at a time: metadata
// first, then the blob (best effort), then the note row. Re-running right
// after a successful sweep finds nothing to do.
func (s *Sweeper) SweepOnce(ctx context.Context) Result {
	var result Result

	cutoff := time.Now().Add(-s.window)
	candidates, err := s.store.ListNotesOlderThan(ctx, cutoff)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("list expired notes: %v", err))
		return result
	}

	for _, note := range candidates {
		if err := s.store.DeleteNoteMetadata(ctx, note.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("note %d: %v", note.ID, err))
			continue
		}

		// Blob deletion is best effort: external storage being unreachable
		// must not keep expired rows around.
		if name, ok := s.blobs.ResolveName(note.ContentURL); ok {
			if err := s.blobs.Delete(name); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("note %d blob %s: %v", note.ID, name, err))
			}
		}

		if err := s.store.DeleteNoteRow(ctx, note.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("note %d: %v", note.ID, err))
			continue
		}
		result.Deleted++
	}

	return result
}
