package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/gomemo-fmtpla/backend/internal/config"
	"github.com/gomemo-fmtpla/backend/internal/domain"
)

const geminiModel = "gemini-2.5-flash"

// GeminiService is the fallback summary generator, used when the primary
// provider is unavailable.
type GeminiService struct {
	client *genai.Client
}

func NewGeminiService(ctx context.Context, cfg config.Config) (*GeminiService, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return nil, errors.New("gemini api key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiService{client: client}, nil
}

func (g *GeminiService) GenerateSummary(ctx context.Context, transcript, language, extra string) (domain.Summary, error) {
	prompt := "Summarize the following content as well-structured markdown with a # title heading, " +
		"## section subheadings, bullet points for key ideas, and a conclusion section."
	if language != "" {
		prompt += " Write in " + language + "."
	} else {
		prompt += " Autodetect the content language and write in it."
	}
	if extra != "" {
		prompt += " Additional context from the author: " + extra
	}
	prompt += "\n\n" + transcript

	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":                {Type: genai.TypeString},
			"markdown":             {Type: genai.TypeString},
			"lang":                 {Type: genai.TypeString},
			"content_category":     {Type: genai.TypeString},
			"emoji_representation": {Type: genai.TypeString},
		},
		Required: []string{"title", "markdown", "lang", "content_category", "emoji_representation"},
	}

	resp, err := g.client.Models.GenerateContent(ctx, geminiModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return domain.Summary{}, fmt.Errorf("gemini generate: %w", err)
	}

	var summary domain.Summary
	if err := json.Unmarshal([]byte(resp.Text()), &summary); err != nil {
		return domain.Summary{}, fmt.Errorf("decode gemini summary: %w", err)
	}
	if err := domain.ValidateSummaryMarkdown(summary.Markdown); err != nil {
		return domain.Summary{}, fmt.Errorf("summary failed structural check: %w", err)
	}
	return summary, nil
}
