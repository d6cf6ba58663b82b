package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"chikota/internal/config"
)

// Summarizer produces a short Markdown summary of a bookmarked page.
type Summarizer interface {
	Summarize(ctx context.Context, url, title string) (string, error)
}

type googleSummarizer struct {
	apiKey string
	model  string
}

func NewSummarizer(cfg config.LLMConfig) Summarizer {
	return &googleSummarizer{apiKey: cfg.APIKey, model: cfg.Model}
}

func (g *googleSummarizer) Summarize(ctx context.Context, url, title string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("summaries are disabled: %w", ErrUnavailable)
	}

	llm, err := googleai.New(ctx, googleai.WithAPIKey(g.apiKey), googleai.WithDefaultModel(g.model))
	if err != nil {
		return "", fmt.Errorf("failed to create Google AI LLM: %w", err)
	}

	summary, err := llms.GenerateFromSinglePrompt(ctx, llm, summaryPrompt(url, title))
	if err != nil {
		return "", fmt.Errorf("failed to generate summary from LLM: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

func summaryPrompt(url, title string) string {
	return fmt.Sprintf(
		"You are a bookmark summarizer. Generate a concise summary in Markdown format. "+
			"Use headings, bullets when helpful. Return only Markdown.\n\nTitle: %s\nURL: %s",
		title,
		url,
	)
}
