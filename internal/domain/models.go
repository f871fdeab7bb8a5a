package domain

import (
	"strings"
	"time"
)

type SubscriptionPlan string

const (
	PlanFree    SubscriptionPlan = "free"
	PlanWeekly  SubscriptionPlan = "weekly"
	PlanMonthly SubscriptionPlan = "monthly"
	PlanAnnual  SubscriptionPlan = "annual"
)

type User struct {
	ID                  int64            `json:"id"`
	Username            string           `json:"username"`
	Email               string           `json:"email"`
	HashedPassword      string           `json:"-"`
	SubscriptionPlan    SubscriptionPlan `json:"subscriptionPlan"`
	SubscriptionEndDate *time.Time       `json:"subscriptionEndDate,omitempty"`
	ReceiptData         string           `json:"-"`
	CreatedAt           time.Time        `json:"createdAt"`
}

type Folder struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Note is the primary content entity. Flashcards and Quizzes are nil until
// generated; a non-nil slice is always a complete, validated set.
type Note struct {
	ID             int64       `json:"id"`
	UserID         int64       `json:"userId"`
	FolderID       *int64      `json:"folderId,omitempty"`
	Title          string      `json:"title"`
	Summary        string      `json:"summary"`
	TranscriptText string      `json:"transcriptText"`
	Language       string      `json:"language"`
	ContentURL     string      `json:"contentUrl,omitempty"`
	Translated     bool        `json:"translated"`
	Flashcards     []Flashcard `json:"flashcards,omitempty"`
	Quizzes        []Quiz      `json:"quizzes,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// NoteMetadata is the 1:1 display companion of a Note. It exists exactly as
// long as the owning Note does, and its Title mirrors Note.Title.
type NoteMetadata struct {
	NoteID          int64     `json:"noteId"`
	UserID          int64     `json:"userId"`
	Title           string    `json:"title"`
	ContentCategory string    `json:"contentCategory"`
	Emoji           string    `json:"emoji"`
	DateCreated     time.Time `json:"dateCreated"`
}

type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Quiz struct {
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Answer   int      `json:"answer"`
}

const QuizChoiceCount = 4

func (f Flashcard) Validate() error {
	if strings.TrimSpace(f.Question) == "" {
		return Invalid("flashcard question is empty")
	}
	if strings.TrimSpace(f.Answer) == "" {
		return Invalid("flashcard answer is empty")
	}
	return nil
}

func (q Quiz) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return Invalid("quiz question is empty")
	}
	if len(q.Choices) != QuizChoiceCount {
		return Invalidf("quiz has %d choices, want %d", len(q.Choices), QuizChoiceCount)
	}
	for i, choice := range q.Choices {
		if strings.TrimSpace(choice) == "" {
			return Invalidf("quiz choice %d is empty", i)
		}
	}
	if q.Answer < 0 || q.Answer >= len(q.Choices) {
		return Invalidf("quiz answer index %d out of range", q.Answer)
	}
	return nil
}

// ValidateFlashcards rejects empty or partially formed sets. Either the whole
// set is persisted or none of it is.
func ValidateFlashcards(cards []Flashcard) error {
	if len(cards) == 0 {
		return Invalid("flashcard set is empty")
	}
	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func ValidateQuizzes(quizzes []Quiz) error {
	if len(quizzes) == 0 {
		return Invalid("quiz set is empty")
	}
	for _, quiz := range quizzes {
		if err := quiz.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSummaryMarkdown checks the structural contract upstream generators
// must satisfy: at least one H1 and one H2 heading.
func ValidateSummaryMarkdown(markdown string) error {
	var hasH1, hasH2 bool
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "## "):
			hasH2 = true
		case strings.HasPrefix(trimmed, "# "):
			hasH1 = true
		}
	}
	if !hasH1 {
		return Invalid("summary markdown is missing an H1 heading")
	}
	if !hasH2 {
		return Invalid("summary markdown is missing an H2 heading")
	}
	return nil
}
