package services

import (
	"context"
	"fmt"
	"strings"

	"finserv-doc-pipeline/internal/ai"
	"finserv-doc-pipeline/internal/logger"

	genai "github.com/google/generative-ai-go/genai"
)

// Summarizer produces a natural-language summary of document text. A false
// result means summarization failed or produced nothing usable; failures
// never propagate as errors.
type Summarizer interface {
	Summarize(ctx context.Context, text, question string) (string, bool)
}

// GeminiSummarizer wraps the Gemini client with prompt construction and
// failure normalization.
type GeminiSummarizer struct {
	client *ai.GeminiClient
}

func NewGeminiSummarizer(client *ai.GeminiClient) *GeminiSummarizer {
	return &GeminiSummarizer{client: client}
}

func (s *GeminiSummarizer) Summarize(ctx context.Context, text, question string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		logger.Debug("No document text provided for summarization")
		return "", false
	}

	prompt := buildSummaryPrompt(text, question)

	resp, err := s.client.GenerateContent(ctx, prompt)
	if err != nil {
		logger.Error("Gemini summarization failed", "error", err)
		return "", false
	}

	summary := extractTextFromResponse(resp)
	if strings.TrimSpace(summary) == "" {
		logger.Warn("Gemini response did not contain a valid summary")
		return "", false
	}

	return summary, true
}

// buildSummaryPrompt composes the summarization prompt. Without a custom
// question it asks for the financial/banking services governed by the
// document.
func buildSummaryPrompt(text, question string) string {
	if question != "" {
		return fmt.Sprintf("%s\n\nDocument text:\n\n%s\n\nSummary:", question, text)
	}
	return fmt.Sprintf("What financial or banking services are governed by the act in the following document:\n\n%s. Provide a detailed list of all the services you can find.\n\nSummary:", text)
}

// extractTextFromResponse concatenates the text parts of all candidates.
func extractTextFromResponse(resp *genai.GenerateContentResponse) string {
	var result strings.Builder

	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					result.WriteString(string(text))
				}
			}
		}
	}

	return result.String()
}
