package domain

// Summary is the structured output of a summary generation call. Markdown
// must satisfy ValidateSummaryMarkdown; Category and Emoji feed NoteMetadata.
type Summary struct {
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
	Language string `json:"lang"`
	Category string `json:"content_category"`
	Emoji    string `json:"emoji_representation"`
}
