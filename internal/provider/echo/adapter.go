// Package echo provides an offline completion provider. It answers from the
// prompt itself, listing the work logs it was given, without external calls.
package echo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/davidbz/scribe/internal/domain"
	"github.com/davidbz/scribe/internal/observability"
)

// ProviderName identifies the echo provider in the registry.
const ProviderName = "echo"

const titlePrefix = "Title: "

// Provider implements domain.CompletionProvider without a model.
type Provider struct{}

// NewProvider creates a new echo provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Complete answers with the user's question and the titles of the work logs
// found in the system prompt.
func (p *Provider) Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var question string
	var titles []string
	for _, msg := range req.Messages {
		switch msg.Role {
		case domain.RoleUser:
			question = msg.Content
		case domain.RoleSystem:
			titles = append(titles, extractTitles(msg.Content)...)
		}
	}

	content := buildAnswer(question, titles)
	promptTokens := countTokens(req.Messages)
	completionTokens := len(strings.Fields(content))

	observability.FromContext(ctx).Debug("echo completed",
		observability.Int("work_logs", len(titles)))

	return &domain.CompletionResponse{
		ID:       fmt.Sprintf("echo-%d", time.Now().UnixNano()),
		Model:    req.Model,
		Provider: ProviderName,
		Content:  content,
		Usage: domain.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		FinishTime: time.Now(),
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return ProviderName
}

func extractTitles(prompt string) []string {
	var titles []string
	for _, line := range strings.Split(prompt, "\n") {
		if title, ok := strings.CutPrefix(line, titlePrefix); ok {
			titles = append(titles, strings.TrimSpace(title))
		}
	}
	return titles
}

func buildAnswer(question string, titles []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You asked: %s\n", question)
	if len(titles) == 0 {
		b.WriteString("No work logs were provided.")
		return b.String()
	}

	b.WriteString("Related work logs:")
	for _, title := range titles {
		b.WriteString("\n- ")
		b.WriteString(title)
	}
	return b.String()
}

// countTokens performs simple word-based token counting.
func countTokens(messages []domain.Message) int {
	n := 0
	for _, msg := range messages {
		n += len(strings.Fields(msg.Content))
	}
	return n
}
