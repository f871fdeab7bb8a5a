package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gomemo-fmtpla/backend/internal/domain"
)

const noteColumns = `id, user_id, folder_id, title, summary, transcript_text,
	language, content_url, translated, flashcards, quizzes, created_at, updated_at`

// NoteUpdate carries a partial update: only non-nil fields are written.
type NoteUpdate struct {
	Title          *string
	Summary        *string
	TranscriptText *string
	Language       *string
	FolderID       *int64
}

// MetadataUpdate carries a partial update of a note's display metadata.
type MetadataUpdate struct {
	Title           *string
	ContentCategory *string
	Emoji           *string
}

// CreateNoteWithMetadata inserts the note and its metadata companion in one
// transaction so the 1:1 invariant holds even on failure.
func (s *Store) CreateNoteWithMetadata(ctx context.Context, note *domain.Note, meta *domain.NoteMetadata) error {
	flashcards, err := marshalNullable(note.Flashcards)
	if err != nil {
		return fmt.Errorf("marshal flashcards: %w", err)
	}
	quizzes, err := marshalNullable(note.Quizzes)
	if err != nil {
		return fmt.Errorf("marshal quizzes: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`INSERT INTO notes (user_id, folder_id, title, summary, transcript_text,
				language, content_url, translated, flashcards, quizzes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at, updated_at`,
			note.UserID, note.FolderID, note.Title, note.Summary, note.TranscriptText,
			note.Language, note.ContentURL, note.Translated, flashcards, quizzes)
		if err := row.Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt); err != nil {
			return fmt.Errorf("insert note: %w", err)
		}

		meta.NoteID = note.ID
		meta.UserID = note.UserID
		if meta.DateCreated.IsZero() {
			meta.DateCreated = note.CreatedAt
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO note_metadata (note_id, user_id, title, content_category, emoji, date_created)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			meta.NoteID, meta.UserID, meta.Title, meta.ContentCategory, meta.Emoji, meta.DateCreated); err != nil {
			return fmt.Errorf("insert note metadata: %w", err)
		}
		return nil
	})
}

// GetNote fetches a note scoped by owner. A mismatched owner is
// indistinguishable from a missing note.
func (s *Store) GetNote(ctx context.Context, noteID, userID int64) (domain.Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2`,
		noteID, userID)
	return scanNote(row)
}

// GetNoteByID fetches a note without an owner filter. Only the signed share
// path uses it; the signature stands in for ownership.
func (s *Store) GetNoteByID(ctx context.Context, noteID int64) (domain.Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1`, noteID)
	return scanNote(row)
}

func (s *Store) GetMetadata(ctx context.Context, noteID, userID int64) (domain.NoteMetadata, error) {
	var meta domain.NoteMetadata
	err := s.db.QueryRowContext(ctx,
		`SELECT note_id, user_id, title, content_category, emoji, date_created
		FROM note_metadata WHERE note_id = $1 AND user_id = $2`,
		noteID, userID).
		Scan(&meta.NoteID, &meta.UserID, &meta.Title, &meta.ContentCategory, &meta.Emoji, &meta.DateCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NoteMetadata{}, domain.NotFoundf("metadata for note %d not found", noteID)
	}
	if err != nil {
		return domain.NoteMetadata{}, fmt.Errorf("get metadata: %w", err)
	}
	return meta, nil
}

func (s *Store) ListMetadata(ctx context.Context, userID int64) ([]domain.NoteMetadata, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT note_id, user_id, title, content_category, emoji, date_created
		FROM note_metadata WHERE user_id = $1 ORDER BY date_created DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	defer rows.Close()

	metas := []domain.NoteMetadata{}
	for rows.Next() {
		var meta domain.NoteMetadata
		if err := rows.Scan(&meta.NoteID, &meta.UserID, &meta.Title, &meta.ContentCategory, &meta.Emoji, &meta.DateCreated); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

func (s *Store) ListUnfolderedNotes(ctx context.Context, userID int64) ([]domain.Note, error) {
	return s.listNotes(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = $1 AND folder_id IS NULL ORDER BY created_at DESC`,
		userID)
}

func (s *Store) ListNotesByFolder(ctx context.Context, userID, folderID int64) ([]domain.Note, error) {
	return s.listNotes(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = $1 AND folder_id = $2 ORDER BY created_at DESC`,
		userID, folderID)
}

// ListNotesOlderThan returns sweep candidates across all users.
func (s *Store) ListNotesOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Note, error) {
	return s.listNotes(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE created_at < $1 ORDER BY created_at`,
		cutoff)
}

// UpdateNote applies the supplied fields only. A title change is mirrored to
// note_metadata in the same transaction.
func (s *Store) UpdateNote(ctx context.Context, noteID, userID int64, upd NoteUpdate) (domain.Note, error) {
	var note domain.Note
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`UPDATE notes SET
				title = COALESCE($3, title),
				summary = COALESCE($4, summary),
				transcript_text = COALESCE($5, transcript_text),
				language = COALESCE($6, language),
				folder_id = COALESCE($7, folder_id),
				updated_at = now()
			WHERE id = $1 AND user_id = $2
			RETURNING `+noteColumns,
			noteID, userID, upd.Title, upd.Summary, upd.TranscriptText, upd.Language, upd.FolderID)

		var err error
		note, err = scanNote(row)
		if err != nil {
			return err
		}

		if upd.Title != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE note_metadata SET title = $3 WHERE note_id = $1 AND user_id = $2`,
				noteID, userID, *upd.Title); err != nil {
				return fmt.Errorf("mirror title to metadata: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Note{}, err
	}
	return note, nil
}

func (s *Store) UpdateMetadata(ctx context.Context, noteID, userID int64, upd MetadataUpdate) (domain.NoteMetadata, error) {
	var meta domain.NoteMetadata
	err := s.db.QueryRowContext(ctx,
		`UPDATE note_metadata SET
			title = COALESCE($3, title),
			content_category = COALESCE($4, content_category),
			emoji = COALESCE($5, emoji)
		WHERE note_id = $1 AND user_id = $2
		RETURNING note_id, user_id, title, content_category, emoji, date_created`,
		noteID, userID, upd.Title, upd.ContentCategory, upd.Emoji).
		Scan(&meta.NoteID, &meta.UserID, &meta.Title, &meta.ContentCategory, &meta.Emoji, &meta.DateCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NoteMetadata{}, domain.NotFoundf("metadata for note %d not found", noteID)
	}
	if err != nil {
		return domain.NoteMetadata{}, fmt.Errorf("update metadata: %w", err)
	}
	return meta, nil
}

// SetFlashcards persists a generated flashcard set if none exists yet. Under
// concurrent first reads the first writer wins; later writers get the stored
// set back. Returns the set that is now persisted.
func (s *Store) SetFlashcards(ctx context.Context, noteID, userID int64, cards []domain.Flashcard) ([]domain.Flashcard, error) {
	payload, err := json.Marshal(cards)
	if err != nil {
		return nil, fmt.Errorf("marshal flashcards: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET flashcards = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND flashcards IS NULL`,
		noteID, userID, payload)
	if err != nil {
		return nil, fmt.Errorf("set flashcards: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return cards, nil
	}

	note, err := s.GetNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}
	if note.Flashcards == nil {
		return nil, domain.Conflict("flashcards write lost", nil)
	}
	return note.Flashcards, nil
}

// SetQuizzes mirrors SetFlashcards for the quiz slot.
func (s *Store) SetQuizzes(ctx context.Context, noteID, userID int64, quizzes []domain.Quiz) ([]domain.Quiz, error) {
	payload, err := json.Marshal(quizzes)
	if err != nil {
		return nil, fmt.Errorf("marshal quizzes: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET quizzes = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND quizzes IS NULL`,
		noteID, userID, payload)
	if err != nil {
		return nil, fmt.Errorf("set quizzes: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return quizzes, nil
	}

	note, err := s.GetNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}
	if note.Quizzes == nil {
		return nil, domain.Conflict("quizzes write lost", nil)
	}
	return note.Quizzes, nil
}

// ReplaceSummary overwrites a note's summary and its metadata display fields
// in one transaction. Used by the explicit regenerate path; the translated
// flag is deliberately left untouched.
func (s *Store) ReplaceSummary(ctx context.Context, noteID, userID int64, title, summary, category, emoji string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE notes SET title = $3, summary = $4, updated_at = now()
			WHERE id = $1 AND user_id = $2`,
			noteID, userID, title, summary)
		if err != nil {
			return fmt.Errorf("replace summary: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.NotFoundf("note %d not found", noteID)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE note_metadata SET title = $3, content_category = $4, emoji = $5
			WHERE note_id = $1 AND user_id = $2`,
			noteID, userID, title, category, emoji); err != nil {
			return fmt.Errorf("update metadata: %w", err)
		}
		return nil
	})
}

// DeleteNote removes a note and its metadata, owner scoped, in one
// transaction. Metadata goes first so a partial failure never leaves an
// orphaned companion row.
func (s *Store) DeleteNote(ctx context.Context, noteID, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM note_metadata WHERE note_id = $1 AND user_id = $2`,
			noteID, userID); err != nil {
			return fmt.Errorf("delete metadata: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM notes WHERE id = $1 AND user_id = $2`, noteID, userID)
		if err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.NotFoundf("note %d not found", noteID)
		}
		return nil
	})
}

// DeleteNoteMetadata and DeleteNoteRow are the sweeper's per-step primitives:
// the sweeper owns the ordering and commits per note.
func (s *Store) DeleteNoteMetadata(ctx context.Context, noteID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM note_metadata WHERE note_id = $1`, noteID); err != nil {
		return fmt.Errorf("delete metadata for note %d: %w", noteID, err)
	}
	return nil
}

func (s *Store) DeleteNoteRow(ctx context.Context, noteID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, noteID); err != nil {
		return fmt.Errorf("delete note %d: %w", noteID, err)
	}
	return nil
}

func (s *Store) listNotes(ctx context.Context, query string, args ...any) ([]domain.Note, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []domain.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (domain.Note, error) {
	var (
		note       domain.Note
		contentURL sql.NullString
		flashcards []byte
		quizzes    []byte
	)
	err := row.Scan(&note.ID, &note.UserID, &note.FolderID, &note.Title, &note.Summary,
		&note.TranscriptText, &note.Language, &contentURL, &note.Translated,
		&flashcards, &quizzes, &note.CreatedAt, &note.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Note{}, domain.NotFound("note not found")
	}
	if err != nil {
		return domain.Note{}, fmt.Errorf("scan note: %w", err)
	}

	note.ContentURL = contentURL.String
	if flashcards != nil {
		if err := json.Unmarshal(flashcards, &note.Flashcards); err != nil {
			return domain.Note{}, fmt.Errorf("unmarshal flashcards: %w", err)
		}
	}
	if quizzes != nil {
		if err := json.Unmarshal(quizzes, &note.Quizzes); err != nil {
			return domain.Note{}, fmt.Errorf("unmarshal quizzes: %w", err)
		}
	}
	return note, nil
}

func marshalNullable(v any) ([]byte, error) {
	switch val := v.(type) {
	case []domain.Flashcard:
		if val == nil {
			return nil, nil
		}
	case []domain.Quiz:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
