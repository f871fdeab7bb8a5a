package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gomemo-fmtpla/backend/internal/config"
)

const (
	chatEndpoint = "https://api.replicate.com/v1/models/meta/meta-llama-3-8b-instruct/predictions"
	chatTimeout  = 2 * time.Minute
)

// ChatService answers questions grounded strictly in a note's summary. The
// model is instructed to refuse questions outside that context; answers are
// never cached.
type ChatService struct {
	apiToken   string
	httpClient *http.Client
}

func NewChatService(cfg config.Config) *ChatService {
	return &ChatService{
		apiToken:   cfg.ReplicateAPIToken,
		httpClient: &http.Client{Timeout: chatTimeout},
	}
}

func (s *ChatService) Answer(ctx context.Context, question, summary, language string) (string, error) {
	if strings.TrimSpace(s.apiToken) == "" {
		return "", errors.New("replicate api token is not configured")
	}

	system := "You are an assistant that answers questions solely based on the following context:\n\n" +
		summary +
		"\n\nIf the user's question is not relevant to this context, respond with " +
		"'This question doesn't seem related to the note. Do you have another question?'."
	if language != "" {
		system += " Answer in " + language + "."
	} else {
		system += " Detect the language of the context and respond in it."
	}

	payload := map[string]any{
		"input": map[string]string{
			"system_prompt": system,
			"prompt":        question,
		},
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatEndpoint, buf)
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "wait")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("replicate api error: status %d body %s", resp.StatusCode, string(body))
	}

	var prediction struct {
		Output []string `json:"output"`
		Error  string   `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if prediction.Error != "" {
		return "", fmt.Errorf("replicate prediction failed: %s", prediction.Error)
	}

	answer := strings.TrimSpace(strings.Join(prediction.Output, ""))
	if answer == "" {
		return "", errors.New("no chat answer returned")
	}
	return answer, nil
}
