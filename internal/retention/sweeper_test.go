package retention

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gomemo-fmtpla/backend/internal/domain"
)

type recordingStore struct {
	notes []domain.Note
	log   *[]string

	failMetadataFor int64
	failRowFor      int64
}

func (s *recordingStore) ListNotesOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Note, error) {
	var expired []domain.Note
	for _, note := range s.notes {
		if note.CreatedAt.Before(cutoff) {
			expired = append(expired, note)
		}
	}
	return expired, nil
}

func (s *recordingStore) DeleteNoteMetadata(ctx context.Context, noteID int64) error {
	*s.log = append(*s.log, "metadata")
	if noteID == s.failMetadataFor {
		return errors.New("metadata delete failed")
	}
	return nil
}

func (s *recordingStore) DeleteNoteRow(ctx context.Context, noteID int64) error {
	*s.log = append(*s.log, "note")
	if noteID == s.failRowFor {
		return errors.New("note delete failed")
	}
	s.remove(noteID)
	return nil
}

func (s *recordingStore) remove(noteID int64) {
	for i, note := range s.notes {
		if note.ID == noteID {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			return
		}
	}
}

type recordingBlobs struct {
	log     *[]string
	deleted []string
	failAll bool
}

func (b *recordingBlobs) ResolveName(rawURL string) (string, bool) {
	name, found := strings.CutPrefix(rawURL, "https://cdn/bucket/")
	return name, found && name != ""
}

func (b *recordingBlobs) Delete(name string) error {
	*b.log = append(*b.log, "blob")
	if b.failAll {
		return errors.New("storage unreachable")
	}
	b.deleted = append(b.deleted, name)
	return nil
}

func newDoubles(notes ...domain.Note) (*recordingStore, *recordingBlobs, *[]string) {
	log := &[]string{}
	return &recordingStore{notes: notes, log: log}, &recordingBlobs{log: log}, log
}

func ago(days int) time.Time {
	return time.Now().AddDate(0, 0, -days)
}

func TestSweepOnceRespectsWindow(t *testing.T) {
	store, blobs, _ := newDoubles(
		domain.Note{ID: 1, CreatedAt: ago(120)},
		domain.Note{ID: 2, CreatedAt: ago(30)},
		domain.Note{ID: 3, CreatedAt: ago(91)},
	)
	s := NewSweeper(store, blobs, 90*24*time.Hour, time.Hour)

	result := s.SweepOnce(context.Background())
	if result.Deleted != 2 {
		t.Fatalf("deleted %d notes, want 2", result.Deleted)
	}
	if len(store.notes) != 1 || store.notes[0].ID != 2 {
		t.Fatalf("surviving notes = %+v, want only note 2", store.notes)
	}
}

func TestSweepOnceDeletesMetadataBeforeNote(t *testing.T) {
	store, blobs, log := newDoubles(
		domain.Note{ID: 1, CreatedAt: ago(120), ContentURL: "https://cdn/bucket/audio-1.mp3"},
	)
	s := NewSweeper(store, blobs, 90*24*time.Hour, time.Hour)

	s.SweepOnce(context.Background())

	want := []string{"metadata", "blob", "note"}
	if len(*log) != len(want) {
		t.Fatalf("call order = %v, want %v", *log, want)
	}
	for i := range want {
		if (*log)[i] != want[i] {
			t.Fatalf("call order = %v, want %v", *log, want)
		}
	}
	if len(blobs.deleted) != 1 || blobs.deleted[0] != "audio-1.mp3" {
		t.Fatalf("deleted blobs = %v", blobs.deleted)
	}
}

func TestSweepOnceBlobFailureStillDeletesNote(t *testing.T) {
	store, blobs, _ := newDoubles(
		domain.Note{ID: 1, CreatedAt: ago(120), ContentURL: "https://cdn/bucket/audio-1.mp3"},
	)
	blobs.failAll = true
	s := NewSweeper(store, blobs, 90*24*time.Hour, time.Hour)

	result := s.SweepOnce(context.Background())
	if result.Deleted != 1 {
		t.Fatalf("deleted %d notes, want 1", result.Deleted)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("warnings = %v, want one blob warning", result.Errors)
	}
	if len(store.notes) != 0 {
		t.Fatal("expired note survived a blob failure")
	}
}

func TestSweepOnceMetadataFailureSkipsNote(t *testing.T) {
	store, blobs, log := newDoubles(
		domain.Note{ID: 1, CreatedAt: ago(120)},
		domain.Note{ID: 2, CreatedAt: ago(120)},
	)
	store.failMetadataFor = 1
	s := NewSweeper(store, blobs, 90*24*time.Hour, time.Hour)

	result := s.SweepOnce(context.Background())
	if result.Deleted != 1 {
		t.Fatalf("deleted %d notes, want 1", result.Deleted)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want one", result.Errors)
	}

	// Only three calls: the failed note never reached its row delete.
	if len(*log) != 3 {
		t.Fatalf("calls = %v, want metadata/metadata/note", *log)
	}
	for _, note := range store.notes {
		if note.ID == 2 {
			t.Fatal("note 2 should have been deleted")
		}
	}
}

func TestSweepOnceIdempotent(t *testing.T) {
	store, blobs, _ := newDoubles(
		domain.Note{ID: 1, CreatedAt: ago(120)},
	)
	s := NewSweeper(store, blobs, 90*24*time.Hour, time.Hour)

	first := s.SweepOnce(context.Background())
	second := s.SweepOnce(context.Background())
	if first.Deleted != 1 || second.Deleted != 0 {
		t.Fatalf("deleted %d then %d, want 1 then 0", first.Deleted, second.Deleted)
	}
}
