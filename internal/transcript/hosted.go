package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const hostedTimeout = 60 * time.Minute

// HostedSource sends the content reference to a self-hosted batch
// transcription service. Jobs can run for tens of minutes, so the timeout is
// generous; callers should reach this source through a background task rather
// than an interactive request.
type HostedSource struct {
	endpoint   string
	httpClient *http.Client
}

func NewHostedSource(endpoint string) *HostedSource {
	return &HostedSource{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: hostedTimeout},
	}
}

func (s *HostedSource) Name() string { return "hosted-transcriber" }

func (s *HostedSource) Timeout() time.Duration { return hostedTimeout }

func (s *HostedSource) Transcribe(ctx context.Context, ref, langHint string) (string, error) {
	if s.endpoint == "" {
		return "", errors.New("hosted transcriber endpoint is not configured")
	}

	payload := map[string]string{"url": ref}
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode transcription payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, buf)
	if err != nil {
		return "", fmt.Errorf("create transcription request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcriber returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Transcription string `json:"transcription"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	return result.Transcription, nil
}
