package notes

import (
	"context"
	"log"
	"strings"

	"github.com/gomemo-fmtpla/backend/internal/domain"
)

// NoteStore is the slice of persistence the artifact cache needs. The
// Postgres store satisfies it; tests use in-memory fakes.
type NoteStore interface {
	GetNote(ctx context.Context, noteID, userID int64) (domain.Note, error)
	CreateNoteWithMetadata(ctx context.Context, note *domain.Note, meta *domain.NoteMetadata) error
	SetFlashcards(ctx context.Context, noteID, userID int64, cards []domain.Flashcard) ([]domain.Flashcard, error)
	SetQuizzes(ctx context.Context, noteID, userID int64, quizzes []domain.Quiz) ([]domain.Quiz, error)
	ReplaceSummary(ctx context.Context, noteID, userID int64, title, summary, category, emoji string) error
}

type SummaryGenerator interface {
	GenerateSummary(ctx context.Context, transcript, language, extra string) (domain.Summary, error)
}

type FlashcardGenerator interface {
	GenerateFlashcards(ctx context.Context, transcript, language string) ([]domain.Flashcard, error)
}

type QuizGenerator interface {
	GenerateQuizzes(ctx context.Context, transcript, language string) ([]domain.Quiz, error)
}

type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

type ChatAnswerer interface {
	Answer(ctx context.Context, question, summary, language string) (string, error)
}

// Generators bundles the external artifact generators. SummaryFallback is
// optional; when set it is tried after the primary summary generator fails.
type Generators struct {
	Summary         SummaryGenerator
	SummaryFallback SummaryGenerator
	Flashcards      FlashcardGenerator
	Quizzes         QuizGenerator
	Translator      Translator
	Chat            ChatAnswerer
}

// ArtifactCache owns the compute-once-persist-serve policy for every derived
// field on a note. Cached state lives exclusively in the store; there is no
// in-process cache, so correctness under concurrency reduces to the store's
// guarantees.
type ArtifactCache struct {
	store NoteStore
	gen   Generators

	// useNoteLanguage controls whether generators receive the note's
	// language or an empty string (autodetect). The upstream behavior was
	// inconsistent, so it is an explicit knob.
	useNoteLanguage bool
}

func NewArtifactCache(store NoteStore, gen Generators, useNoteLanguage bool) *ArtifactCache {
	return &ArtifactCache{store: store, gen: gen, useNoteLanguage: useNoteLanguage}
}

// Flashcards returns the note's flashcard set, generating and persisting it
// on first request. A generation failure persists nothing; the caller may
// simply re-request.
func (c *ArtifactCache) Flashcards(ctx context.Context, noteID, userID int64) ([]domain.Flashcard, error) {
	note, err := c.store.GetNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}
	if note.Flashcards != nil {
		return note.Flashcards, nil
	}
	if strings.TrimSpace(note.TranscriptText) == "" {
		return nil, domain.Invalid("note has no transcript to generate flashcards from")
	}

	cards, err := c.gen.Flashcards.GenerateFlashcards(ctx, note.TranscriptText, c.artifactLanguage(note))
	if err != nil {
		return nil, domain.Upstream("flashcard generation failed", err)
	}
	if err := domain.ValidateFlashcards(cards); err != nil {
		return nil, domain.Upstream("flashcard generation returned a malformed set", err)
	}

	return c.store.SetFlashcards(ctx, noteID, userID, cards)
}

// Quizzes mirrors Flashcards for the quiz slot.
func (c *ArtifactCache) Quizzes(ctx context.Context, noteID, userID int64) ([]domain.Quiz, error) {
	note, err := c.store.GetNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}
	if note.Quizzes != nil {
		return note.Quizzes, nil
	}
	if strings.TrimSpace(note.TranscriptText) == "" {
		return nil, domain.Invalid("note has no transcript to generate quizzes from")
	}

	quizzes, err := c.gen.Quizzes.GenerateQuizzes(ctx, note.TranscriptText, c.artifactLanguage(note))
	if err != nil {
		return nil, domain.Upstream("quiz generation failed", err)
	}
	if err := domain.ValidateQuizzes(quizzes); err != nil {
		return nil, domain.Upstream("quiz generation returned a malformed set", err)
	}

	return c.store.SetQuizzes(ctx, noteID, userID, quizzes)
}

// RegenerateSummary is the explicit invalidation path: it recomputes the
// summary from the stored transcript and overwrites the cached value together
// with the metadata display fields. The translated flag survives failure and
// success alike.
func (c *ArtifactCache) RegenerateSummary(ctx context.Context, noteID, userID int64) (domain.Note, error) {
	note, err := c.store.GetNote(ctx, noteID, userID)
	if err != nil {
		return domain.Note{}, err
	}
	if strings.TrimSpace(note.TranscriptText) == "" {
		return domain.Note{}, domain.Invalid("note has no transcript to summarize")
	}

	summary, err := c.generateSummary(ctx, note.TranscriptText, c.artifactLanguage(note), "")
	if err != nil {
		return domain.Note{}, err
	}

	if err := c.store.ReplaceSummary(ctx, noteID, userID, summary.Title, summary.Markdown, summary.Category, summary.Emoji); err != nil {
		return domain.Note{}, err
	}
	return c.store.GetNote(ctx, noteID, userID)
}

// Translate materializes a translated copy as a new note rather than
// mutating the original: the copy carries translated=true, its own empty
// artifact slots, and the original's content reference.
func (c *ArtifactCache) Translate(ctx context.Context, noteID, userID int64, targetLang string) (domain.Note, domain.NoteMetadata, error) {
	if strings.TrimSpace(targetLang) == "" {
		return domain.Note{}, domain.NoteMetadata{}, domain.Invalid("target language is empty")
	}

	note, err := c.store.GetNote(ctx, noteID, userID)
	if err != nil {
		return domain.Note{}, domain.NoteMetadata{}, err
	}
	if strings.TrimSpace(note.TranscriptText) == "" {
		return domain.Note{}, domain.NoteMetadata{}, domain.Invalid("note has no transcript to translate")
	}

	translated, err := c.gen.Translator.Translate(ctx, note.TranscriptText, targetLang)
	if err != nil {
		return domain.Note{}, domain.NoteMetadata{}, domain.Upstream("translation failed", err)
	}

	summary, err := c.generateSummary(ctx, translated, targetLang, "")
	if err != nil {
		return domain.Note{}, domain.NoteMetadata{}, err
	}

	return c.createNote(ctx, createNoteInput{
		userID:     userID,
		transcript: translated,
		contentURL: note.ContentURL,
		translated: true,
		summary:    summary,
	})
}

// Chat answers a question grounded in the note's summary. Answers are never
// cached.
func (c *ArtifactCache) Chat(ctx context.Context, noteID, userID int64, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", domain.Invalid("question is empty")
	}

	note, err := c.store.GetNote(ctx, noteID, userID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(note.Summary) == "" {
		return "", domain.Invalid("note has no summary to chat about")
	}

	answer, err := c.gen.Chat.Answer(ctx, question, note.Summary, c.artifactLanguage(note))
	if err != nil {
		return "", domain.Upstream("chat generation failed", err)
	}
	return answer, nil
}

func (c *ArtifactCache) generateSummary(ctx context.Context, transcript, language, extra string) (domain.Summary, error) {
	summary, err := c.gen.Summary.GenerateSummary(ctx, transcript, language, extra)
	if err == nil {
		return summary, nil
	}
	if c.gen.SummaryFallback == nil {
		return domain.Summary{}, domain.Upstream("summary generation failed", err)
	}

	log.Printf("primary summary generator failed, trying fallback: %v", err)
	summary, fallbackErr := c.gen.SummaryFallback.GenerateSummary(ctx, transcript, language, extra)
	if fallbackErr != nil {
		return domain.Summary{}, domain.Upstream("summary generation failed", fallbackErr)
	}
	return summary, nil
}

func (c *ArtifactCache) artifactLanguage(note domain.Note) string {
	if c.useNoteLanguage {
		return note.Language
	}
	return ""
}
