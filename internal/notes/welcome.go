package notes

import (
	"context"

	"github.com/gomemo-fmtpla/backend/internal/domain"
)

var welcomeSummary = "# Welcome to Gomemo 📝\n\n" +
	"## Overview\n" +
	"- Gomemo turns any audio or video into organized notes, flashcards, quizzes, and more.\n" +
	"- Paste a video link or upload a recording to create your first note.\n\n" +
	"## Create a Note\n" +
	"1. **Paste a link** — captions are fetched automatically when available.\n" +
	"2. **Upload audio** — recordings are transcribed and summarized for you.\n\n" +
	"## Additional Features\n" +
	"- **Quizzes and flashcards** are generated from your notes on demand.\n" +
	"- **Translation** creates a copy of a note in another language.\n\n" +
	"## Support\n" +
	"- Tap the contact button to send us a message. We read every single one.\n"

var welcomeTranscript = "Gomemo turns any audio or video into organized notes, flashcards, " +
	"quizzes, and more. To create a note, paste a video link or upload an audio recording; " +
	"Gomemo transcribes it and writes a structured summary. Quizzes and flashcards are " +
	"generated from your notes on demand, and translation creates a copy of a note in " +
	"another language. If you need help, tap the contact button to send us a message."

// CreateWelcomeNote seeds a new account with an introductory note. It writes
// directly: no generator call, nothing to fail over to.
func (c *ArtifactCache) CreateWelcomeNote(ctx context.Context, userID int64) (domain.NoteMetadata, error) {
	note := domain.Note{
		UserID:         userID,
		Title:          "Welcome to Gomemo",
		Summary:        welcomeSummary,
		TranscriptText: welcomeTranscript,
		Language:       "English",
	}
	meta := domain.NoteMetadata{
		Title:           "Welcome to Gomemo",
		ContentCategory: "Introduction",
		Emoji:           "🙌",
	}

	if err := c.store.CreateNoteWithMetadata(ctx, &note, &meta); err != nil {
		return domain.NoteMetadata{}, err
	}
	return meta, nil
}
