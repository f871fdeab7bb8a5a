package notes

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gomemo-fmtpla/backend/internal/domain"
)

type fakeStore struct {
	nextID int64
	notes  map[int64]domain.Note
	metas  map[int64]domain.NoteMetadata
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		notes: map[int64]domain.Note{},
		metas: map[int64]domain.NoteMetadata{},
	}
}

func (s *fakeStore) GetNote(ctx context.Context, noteID, userID int64) (domain.Note, error) {
	note, ok := s.notes[noteID]
	if !ok || note.UserID != userID {
		return domain.Note{}, domain.NotFound("note not found")
	}
	return note, nil
}

func (s *fakeStore) CreateNoteWithMetadata(ctx context.Context, note *domain.Note, meta *domain.NoteMetadata) error {
	s.nextID++
	note.ID = s.nextID
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	meta.NoteID = note.ID
	meta.UserID = note.UserID
	meta.DateCreated = note.CreatedAt
	s.notes[note.ID] = *note
	s.metas[note.ID] = *meta
	return nil
}

func (s *fakeStore) SetFlashcards(ctx context.Context, noteID, userID int64, cards []domain.Flashcard) ([]domain.Flashcard, error) {
	note, err := s.GetNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}
	if note.Flashcards != nil {
		return note.Flashcards, nil
	}
	note.Flashcards = cards
	s.notes[noteID] = note
	return cards, nil
}

func (s *fakeStore) SetQuizzes(ctx context.Context, noteID, userID int64, quizzes []domain.Quiz) ([]domain.Quiz, error) {
	note, err := s.GetNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}
	if note.Quizzes != nil {
		return note.Quizzes, nil
	}
	note.Quizzes = quizzes
	s.notes[noteID] = note
	return quizzes, nil
}

func (s *fakeStore) ReplaceSummary(ctx context.Context, noteID, userID int64, title, summary, category, emoji string) error {
	note, err := s.GetNote(ctx, noteID, userID)
	if err != nil {
		return err
	}
	note.Title = title
	note.Summary = summary
	s.notes[noteID] = note

	meta := s.metas[noteID]
	meta.Title = title
	meta.ContentCategory = category
	meta.Emoji = emoji
	s.metas[noteID] = meta
	return nil
}

func (s *fakeStore) seedNote(note domain.Note) int64 {
	s.nextID++
	note.ID = s.nextID
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now()
	}
	s.notes[note.ID] = note
	s.metas[note.ID] = domain.NoteMetadata{NoteID: note.ID, UserID: note.UserID, Title: note.Title}
	return note.ID
}

type fakeGen struct {
	summaryCalls   int
	fallbackCalls  int
	flashcardCalls int
	quizCalls      int
	chatCalls      int

	failSummary  bool
	badFlashcard bool
}

func (g *fakeGen) GenerateSummary(ctx context.Context, transcript, language, extra string) (domain.Summary, error) {
	g.summaryCalls++
	if g.failSummary {
		return domain.Summary{}, errors.New("summary model unavailable")
	}
	return domain.Summary{
		Title:    "Generated Title",
		Markdown: "# Generated Title\n\n## Key points\n- point one\n",
		Language: language,
		Category: "Education",
		Emoji:    "📚",
	}, nil
}

func (g *fakeGen) GenerateFlashcards(ctx context.Context, transcript, language string) ([]domain.Flashcard, error) {
	g.flashcardCalls++
	if g.badFlashcard {
		return []domain.Flashcard{{Question: "incomplete"}}, nil
	}
	return []domain.Flashcard{{Question: "What is covered?", Answer: "The lecture topic."}}, nil
}

func (g *fakeGen) GenerateQuizzes(ctx context.Context, transcript, language string) ([]domain.Quiz, error) {
	g.quizCalls++
	return []domain.Quiz{{
		Question: "What is covered?",
		Choices:  []string{"a", "b", "c", "d"},
		Answer:   1,
	}}, nil
}

func (g *fakeGen) Translate(ctx context.Context, text, targetLang string) (string, error) {
	return fmt.Sprintf("[%s] %s", targetLang, text), nil
}

func (g *fakeGen) Answer(ctx context.Context, question, summary, language string) (string, error) {
	g.chatCalls++
	return "an answer", nil
}

type fallbackGen struct {
	calls int
}

func (g *fallbackGen) GenerateSummary(ctx context.Context, transcript, language, extra string) (domain.Summary, error) {
	g.calls++
	return domain.Summary{
		Title:    "Fallback Title",
		Markdown: "# Fallback Title\n\n## Notes\n- rescued\n",
		Language: language,
		Category: "Education",
		Emoji:    "🛟",
	}, nil
}

func newCache(store *fakeStore, gen *fakeGen) *ArtifactCache {
	return NewArtifactCache(store, Generators{
		Summary:    gen,
		Flashcards: gen,
		Quizzes:    gen,
		Translator: gen,
		Chat:       gen,
	}, true)
}

func TestFlashcardsGeneratedOnceThenServedFromStore(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{}
	cache := newCache(store, gen)
	id := store.seedNote(domain.Note{UserID: 1, TranscriptText: "a lecture transcript"})

	first, err := cache.Flashcards(context.Background(), id, 1)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := cache.Flashcards(context.Background(), id, 1)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}

	if gen.flashcardCalls != 1 {
		t.Fatalf("generator called %d times, want 1", gen.flashcardCalls)
	}
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Fatalf("reads disagree: %+v vs %+v", first, second)
	}
}

func TestFlashcardsEmptyTranscript(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{}
	cache := newCache(store, gen)
	id := store.seedNote(domain.Note{UserID: 1, TranscriptText: "   "})

	_, err := cache.Flashcards(context.Background(), id, 1)
	if !domain.IsKind(err, domain.KindInvalidInput) {
		t.Fatalf("error kind = %v, want invalid input", domain.KindOf(err))
	}
	if gen.flashcardCalls != 0 {
		t.Fatalf("generator called %d times, want 0", gen.flashcardCalls)
	}
}

func TestFlashcardsMalformedSetNotPersisted(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{badFlashcard: true}
	cache := newCache(store, gen)
	id := store.seedNote(domain.Note{UserID: 1, TranscriptText: "transcript"})

	_, err := cache.Flashcards(context.Background(), id, 1)
	if !domain.IsKind(err, domain.KindUpstream) {
		t.Fatalf("error kind = %v, want upstream", domain.KindOf(err))
	}
	if store.notes[id].Flashcards != nil {
		t.Fatal("malformed set was persisted")
	}
}

func TestQuizzesGeneratedOnce(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{}
	cache := newCache(store, gen)
	id := store.seedNote(domain.Note{UserID: 1, TranscriptText: "transcript"})

	for i := 0; i < 3; i++ {
		if _, err := cache.Quizzes(context.Background(), id, 1); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
	}
	if gen.quizCalls != 1 {
		t.Fatalf("generator called %d times, want 1", gen.quizCalls)
	}
}

func TestArtifactsOwnershipIsolation(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{}
	cache := newCache(store, gen)
	id := store.seedNote(domain.Note{UserID: 1, TranscriptText: "transcript"})

	_, err := cache.Flashcards(context.Background(), id, 2)
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("error kind = %v, want not found", domain.KindOf(err))
	}
	if gen.flashcardCalls != 0 {
		t.Fatal("generator ran for a foreign note")
	}
}

func TestTranslateCreatesNewNote(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{}
	cache := newCache(store, gen)
	id := store.seedNote(domain.Note{
		UserID:         1,
		Title:          "Original",
		TranscriptText: "original transcript",
		ContentURL:     "https://cdn/audio.mp3",
		Flashcards:     []domain.Flashcard{{Question: "q", Answer: "a"}},
	})

	note, meta, err := cache.Translate(context.Background(), id, 1, "French")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	if note.ID == id {
		t.Fatal("translation overwrote the original note")
	}
	if !note.Translated {
		t.Fatal("new note not marked translated")
	}
	if note.Flashcards != nil || note.Quizzes != nil {
		t.Fatal("new note inherited cached artifacts")
	}
	if note.ContentURL != "https://cdn/audio.mp3" {
		t.Fatalf("content url = %q, want original's", note.ContentURL)
	}
	if meta.NoteID != note.ID {
		t.Fatalf("metadata note id = %d, want %d", meta.NoteID, note.ID)
	}

	original := store.notes[id]
	if original.Title != "Original" || original.Translated {
		t.Fatalf("original note changed: %+v", original)
	}
}

func TestIngestEmptyTranscript(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{}
	cache := newCache(store, gen)

	_, _, err := cache.Ingest(context.Background(), IngestInput{UserID: 1, Transcript: "  "})
	if !domain.IsKind(err, domain.KindInvalidInput) {
		t.Fatalf("error kind = %v, want invalid input", domain.KindOf(err))
	}
	if len(store.notes) != 0 {
		t.Fatal("note created from empty transcript")
	}
}

func TestIngestSummaryFailureCreatesNothing(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{failSummary: true}
	cache := newCache(store, gen)

	_, _, err := cache.Ingest(context.Background(), IngestInput{UserID: 1, Transcript: "transcript"})
	if !domain.IsKind(err, domain.KindUpstream) {
		t.Fatalf("error kind = %v, want upstream", domain.KindOf(err))
	}
	if len(store.notes) != 0 {
		t.Fatal("note created despite summary failure")
	}
}

func TestIngestUsesSummaryFallback(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{failSummary: true}
	fallback := &fallbackGen{}
	cache := NewArtifactCache(store, Generators{
		Summary:         gen,
		SummaryFallback: fallback,
		Flashcards:      gen,
		Quizzes:         gen,
		Translator:      gen,
		Chat:            gen,
	}, true)

	note, _, err := cache.Ingest(context.Background(), IngestInput{UserID: 1, Transcript: "transcript"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if fallback.calls != 1 {
		t.Fatalf("fallback called %d times, want 1", fallback.calls)
	}
	if note.Title != "Fallback Title" {
		t.Fatalf("title = %q, want fallback's", note.Title)
	}
}

func TestChatNeverCached(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{}
	cache := newCache(store, gen)
	id := store.seedNote(domain.Note{UserID: 1, Summary: "# Title\n\n## Points\n- one\n", TranscriptText: "t"})

	for i := 0; i < 2; i++ {
		if _, err := cache.Chat(context.Background(), id, 1, "what is this about?"); err != nil {
			t.Fatalf("chat %d: %v", i, err)
		}
	}
	if gen.chatCalls != 2 {
		t.Fatalf("chat generator called %d times, want 2", gen.chatCalls)
	}
}

func TestRegenerateSummaryKeepsTranslatedFlag(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{}
	cache := newCache(store, gen)
	id := store.seedNote(domain.Note{UserID: 1, TranscriptText: "transcript", Translated: true})

	note, err := cache.RegenerateSummary(context.Background(), id, 1)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if !note.Translated {
		t.Fatal("translated flag lost on regeneration")
	}
	if note.Title != "Generated Title" {
		t.Fatalf("title = %q, want regenerated", note.Title)
	}
}

func TestCreateWelcomeNote(t *testing.T) {
	store := newFakeStore()
	cache := newCache(store, &fakeGen{})

	meta, err := cache.CreateWelcomeNote(context.Background(), 7)
	if err != nil {
		t.Fatalf("welcome note: %v", err)
	}
	if meta.UserID != 7 {
		t.Fatalf("metadata user = %d, want 7", meta.UserID)
	}

	note := store.notes[meta.NoteID]
	if err := domain.ValidateSummaryMarkdown(note.Summary); err != nil {
		t.Fatalf("welcome summary shape: %v", err)
	}
}
