package domain

import "testing"

func TestQuizValidate(t *testing.T) {
	valid := Quiz{Question: "Which?", Choices: []string{"a", "b", "c", "d"}, Answer: 2}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid quiz rejected: %v", err)
	}

	cases := map[string]Quiz{
		"empty question":  {Choices: []string{"a", "b", "c", "d"}, Answer: 0},
		"too few choices": {Question: "q", Choices: []string{"a", "b"}, Answer: 0},
		"blank choice":    {Question: "q", Choices: []string{"a", " ", "c", "d"}, Answer: 0},
		"answer high":     {Question: "q", Choices: []string{"a", "b", "c", "d"}, Answer: 4},
		"answer negative": {Question: "q", Choices: []string{"a", "b", "c", "d"}, Answer: -1},
	}
	for name, quiz := range cases {
		if err := quiz.Validate(); !IsKind(err, KindInvalidInput) {
			t.Errorf("%s: error = %v, want invalid input", name, err)
		}
	}
}

func TestValidateFlashcards(t *testing.T) {
	if err := ValidateFlashcards(nil); !IsKind(err, KindInvalidInput) {
		t.Fatalf("empty set: error = %v, want invalid input", err)
	}

	partial := []Flashcard{
		{Question: "fine", Answer: "fine"},
		{Question: "missing answer"},
	}
	if err := ValidateFlashcards(partial); !IsKind(err, KindInvalidInput) {
		t.Fatalf("partial set: error = %v, want invalid input", err)
	}

	complete := []Flashcard{{Question: "q1", Answer: "a1"}, {Question: "q2", Answer: "a2"}}
	if err := ValidateFlashcards(complete); err != nil {
		t.Fatalf("complete set rejected: %v", err)
	}
}

func TestValidateSummaryMarkdown(t *testing.T) {
	good := "# Title\n\nintro\n\n## Section\n- point\n"
	if err := ValidateSummaryMarkdown(good); err != nil {
		t.Fatalf("well formed summary rejected: %v", err)
	}

	if err := ValidateSummaryMarkdown("## Only a section\n"); !IsKind(err, KindInvalidInput) {
		t.Fatalf("missing H1: error = %v, want invalid input", err)
	}
	if err := ValidateSummaryMarkdown("# Only a title\n"); !IsKind(err, KindInvalidInput) {
		t.Fatalf("missing H2: error = %v, want invalid input", err)
	}
	if err := ValidateSummaryMarkdown("plain prose"); !IsKind(err, KindInvalidInput) {
		t.Fatalf("plain prose: error = %v, want invalid input", err)
	}
}

func TestErrorKindClassification(t *testing.T) {
	err := Upstream("transcription failed", Invalid("inner detail"))
	if !IsKind(err, KindUpstream) {
		t.Fatalf("kind = %v, want upstream", KindOf(err))
	}
	if KindOf(nil) != "" {
		t.Fatal("nil error should have no kind")
	}
}
