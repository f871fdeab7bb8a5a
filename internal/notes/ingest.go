package notes

import (
	"context"
	"strings"

	"github.com/gomemo-fmtpla/backend/internal/domain"
)

// IngestInput describes one transcript ready to become a note.
type IngestInput struct {
	UserID     int64
	FolderID   *int64
	ContentURL string
	Transcript string
	Language   string
	Context    string
}

// Ingest turns a transcript into a persisted note plus metadata: summarize,
// then write both rows in one transaction. Nothing is persisted if the
// summary generation fails.
func (c *ArtifactCache) Ingest(ctx context.Context, in IngestInput) (domain.Note, domain.NoteMetadata, error) {
	if strings.TrimSpace(in.Transcript) == "" {
		return domain.Note{}, domain.NoteMetadata{}, domain.Invalid("transcript is empty")
	}

	summary, err := c.generateSummary(ctx, in.Transcript, in.Language, in.Context)
	if err != nil {
		return domain.Note{}, domain.NoteMetadata{}, err
	}

	return c.createNote(ctx, createNoteInput{
		userID:     in.UserID,
		folderID:   in.FolderID,
		transcript: in.Transcript,
		contentURL: in.ContentURL,
		summary:    summary,
	})
}

type createNoteInput struct {
	userID     int64
	folderID   *int64
	transcript string
	contentURL string
	translated bool
	summary    domain.Summary
}

func (c *ArtifactCache) createNote(ctx context.Context, in createNoteInput) (domain.Note, domain.NoteMetadata, error) {
	note := domain.Note{
		UserID:         in.userID,
		FolderID:       in.folderID,
		Title:          in.summary.Title,
		Summary:        in.summary.Markdown,
		TranscriptText: in.transcript,
		Language:       in.summary.Language,
		ContentURL:     in.contentURL,
		Translated:     in.translated,
	}
	meta := domain.NoteMetadata{
		Title:           in.summary.Title,
		ContentCategory: in.summary.Category,
		Emoji:           in.summary.Emoji,
	}

	if err := c.store.CreateNoteWithMetadata(ctx, &note, &meta); err != nil {
		return domain.Note{}, domain.NoteMetadata{}, err
	}
	return note, meta, nil
}
