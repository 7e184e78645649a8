package domain

import (
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultContentBudget is the per-document content length, in characters,
	// rendered into the model context.
	DefaultContentBudget = 600

	truncationMarker  = "…"
	blockDelimiter    = "\n\n---\n\n"
	contextDateLayout = "2006-01-02"
)

// ContextAssembler renders retrieved documents into one bounded text block.
type ContextAssembler struct {
	contentBudget int
}

// NewContextAssembler creates an assembler keeping at most contentBudget
// characters of each document; non-positive budgets use DefaultContentBudget.
func NewContextAssembler(contentBudget int) *ContextAssembler {
	if contentBudget <= 0 {
		contentBudget = DefaultContentBudget
	}
	return &ContextAssembler{contentBudget: contentBudget}
}

// Build renders docs as numbered blocks separated by a delimiter line.
// It reports false for an empty list: there is no context to answer from.
func (a *ContextAssembler) Build(docs []RetrievedDocument) (string, bool) {
	if len(docs) == 0 {
		return "", false
	}

	blocks := make([]string, 0, len(docs))
	for i, doc := range docs {
		blocks = append(blocks, a.block(i+1, doc))
	}
	return strings.Join(blocks, blockDelimiter), true
}

func (a *ContextAssembler) block(index int, doc RetrievedDocument) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[Work log %d]", index)
	if doc.Score != nil {
		fmt.Fprintf(&b, " (relevance: %d%%)", int(math.Round(*doc.Score*100)))
	}
	b.WriteByte('\n')

	fmt.Fprintf(&b, "Title: %s\n", orDefault(doc.Title, "Untitled"))

	author := orDefault(doc.Author, "Unknown author")
	if doc.Division != "" {
		author += " (" + doc.Division + ")"
	}
	fmt.Fprintf(&b, "Author: %s\n", author)

	date := "unknown"
	if !doc.CreatedAt.IsZero() {
		date = doc.CreatedAt.Format(contextDateLayout)
	}
	fmt.Fprintf(&b, "Date: %s\n", date)

	tags := "none"
	if len(doc.Tags) > 0 {
		tags = strings.Join(doc.Tags, ", ")
	}
	fmt.Fprintf(&b, "Tags: %s\n", tags)

	fmt.Fprintf(&b, "Content: %s", a.truncate(doc))

	return b.String()
}

func (a *ContextAssembler) truncate(doc RetrievedDocument) string {
	content := strings.TrimSpace(doc.Content)
	runes := []rune(content)
	if len(runes) > a.contentBudget {
		return strings.TrimSpace(string(runes[:a.contentBudget])) + truncationMarker
	}
	if doc.Truncated {
		return content + truncationMarker
	}
	return content
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
