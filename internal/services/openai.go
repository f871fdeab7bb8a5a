package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gomemo-fmtpla/backend/internal/config"
	"github.com/gomemo-fmtpla/backend/internal/domain"
)

const (
	transcriptionEndpoint = "https://api.openai.com/v1/audio/transcriptions"
	completionsEndpoint   = "https://api.openai.com/v1/chat/completions"
	transcribeTimeout     = 30 * time.Minute
	generateTimeout       = 10 * time.Minute
)

// OpenAIService talks to the OpenAI HTTP API directly. It is stateless; every
// method maps one input to one generated output and owns no caching logic.
type OpenAIService struct {
	apiKey          string
	transcribeModel string
	generateModel   string
	httpClient      *http.Client
}

func NewOpenAIService(cfg config.Config) *OpenAIService {
	return &OpenAIService{
		apiKey:          cfg.OpenAIAPIKey,
		transcribeModel: cfg.OpenAIModelTranscribe,
		generateModel:   cfg.OpenAIModelGenerate,
		httpClient:      &http.Client{Timeout: transcribeTimeout},
	}
}

// TranscribeURL downloads the audio behind contentURL and runs it through the
// speech-to-text endpoint.
func (s *OpenAIService) TranscribeURL(ctx context.Context, contentURL string) (string, error) {
	if err := s.ensureAPIKey(); err != nil {
		return "", err
	}

	audio, filename, err := s.fetchAudio(ctx, contentURL)
	if err != nil {
		return "", err
	}
	defer audio.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("copy audio data: %w", err)
	}
	if err := writer.WriteField("model", s.transcribeModel); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := writer.WriteField("response_format", "text"); err != nil {
		return "", fmt.Errorf("write response_format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, transcriptionEndpoint, body)
	if err != nil {
		return "", fmt.Errorf("create transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.do(req, transcribeTimeout)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", s.decodeAPIError(resp)
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcription response: %w", err)
	}
	return strings.TrimSpace(string(text)), nil
}

// GenerateSummary produces a structured markdown summary of the transcript.
// The response schema forces title, markdown, language, category and emoji so
// the ingestion pipeline can fill note and metadata in one pass.
func (s *OpenAIService) GenerateSummary(ctx context.Context, transcript, language, extra string) (domain.Summary, error) {
	system := "Summarize the following content as well-structured markdown with a # title heading, " +
		"## section subheadings, bullet points for key ideas, and a conclusion section."
	if language != "" {
		system += " Write in " + language + "."
	} else {
		system += " Autodetect the content language and write in it."
	}
	if extra != "" {
		system += " Additional context from the author: " + extra
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":                map[string]any{"type": "string"},
			"markdown":             map[string]any{"type": "string"},
			"lang":                 map[string]any{"type": "string"},
			"content_category":     map[string]any{"type": "string"},
			"emoji_representation": map[string]any{"type": "string"},
		},
		"required":             []string{"title", "markdown", "lang", "content_category", "emoji_representation"},
		"additionalProperties": false,
	}

	var summary domain.Summary
	if err := s.structuredCompletion(ctx, system, transcript, "summary_generation", schema, &summary); err != nil {
		return domain.Summary{}, err
	}
	if err := domain.ValidateSummaryMarkdown(summary.Markdown); err != nil {
		return domain.Summary{}, fmt.Errorf("summary failed structural check: %w", err)
	}
	return summary, nil
}

func (s *OpenAIService) GenerateFlashcards(ctx context.Context, transcript, language string) ([]domain.Flashcard, error) {
	system := "Generate a set of study flashcards based on the following content"
	if language != "" {
		system += " using the language " + language + "."
	} else {
		system += ". Autodetect the language."
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"flashcards": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"answer":   map[string]any{"type": "string"},
					},
					"required":             []string{"question", "answer"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"flashcards"},
		"additionalProperties": false,
	}

	var payload struct {
		Flashcards []domain.Flashcard `json:"flashcards"`
	}
	if err := s.structuredCompletion(ctx, system, transcript, "flashcard_generation", schema, &payload); err != nil {
		return nil, err
	}
	return payload.Flashcards, nil
}

func (s *OpenAIService) GenerateQuizzes(ctx context.Context, transcript, language string) ([]domain.Quiz, error) {
	system := fmt.Sprintf("Generate multiple-choice quiz questions based on the following content. "+
		"Each quiz has a question, exactly %d choices, and the correct answer as an index between 0 and %d.",
		domain.QuizChoiceCount, domain.QuizChoiceCount-1)
	if language != "" {
		system += " Use the language " + language + "."
	} else {
		system += " Autodetect the language."
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"quizzes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{"type": "string"},
						"choices":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"answer":   map[string]any{"type": "integer"},
					},
					"required":             []string{"question", "choices", "answer"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"quizzes"},
		"additionalProperties": false,
	}

	var payload struct {
		Quizzes []domain.Quiz `json:"quizzes"`
	}
	if err := s.structuredCompletion(ctx, system, transcript, "quiz_generation", schema, &payload); err != nil {
		return nil, err
	}
	return payload.Quizzes, nil
}

// Translate renders text into targetLang, returning plain text.
func (s *OpenAIService) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if err := s.ensureAPIKey(); err != nil {
		return "", err
	}

	payload := map[string]any{
		"model": s.generateModel,
		"messages": []map[string]string{
			{"role": "system", "content": "Translate the user's text into " + targetLang + ". Output only the translation."},
			{"role": "user", "content": text},
		},
	}

	content, err := s.completion(ctx, payload)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (s *OpenAIService) structuredCompletion(ctx context.Context, system, user, schemaName string, schema map[string]any, out any) error {
	if err := s.ensureAPIKey(); err != nil {
		return err
	}

	payload := map[string]any{
		"model": s.generateModel,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   schemaName,
				"schema": schema,
				"strict": true,
			},
		},
	}

	content, err := s.completion(ctx, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("decode %s response: %w", schemaName, err)
	}
	return nil
}

func (s *OpenAIService) completion(ctx context.Context, payload map[string]any) (string, error) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, completionsEndpoint, buf)
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.do(req, generateTimeout)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", s.decodeAPIError(resp)
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", errors.New("no completion returned")
	}
	return response.Choices[0].Message.Content, nil
}

func (s *OpenAIService) fetchAudio(ctx context.Context, contentURL string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create audio download request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download audio: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, "", fmt.Errorf("download audio: status %d", resp.StatusCode)
	}

	filename := path.Base(contentURL)
	if filename == "" || filename == "/" || filename == "." {
		filename = "audio.mp3"
	}
	return resp.Body, filename, nil
}

// do runs the request under a timeout that also covers reading the body; the
// timer is released when the caller closes the response.
func (s *OpenAIService) do(req *http.Request, timeout time.Duration) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	req = req.WithContext(ctx)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func (s *OpenAIService) decodeAPIError(resp *http.Response) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("openai api error: status %d type %s message %s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
	}
	return fmt.Errorf("openai api error: status %d body %s", resp.StatusCode, string(body))
}

func (s *OpenAIService) ensureAPIKey() error {
	if strings.TrimSpace(s.apiKey) == "" {
		return errors.New("openai api key is not configured")
	}
	return nil
}
