package domain

import "time"

// RetrievedDocument is a work log projected for use as answer context.
// Score is nil for documents produced by the recency fallback.
type RetrievedDocument struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Truncated bool      `json:"truncated"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	Author    string    `json:"author"`
	Division  string    `json:"division"`
	Score     *float64  `json:"score,omitempty"`
}

// RetrievalResult is the outcome of one retrieval. Degraded is set when the
// documents come from the recency fallback instead of semantic search.
type RetrievalResult struct {
	Documents []RetrievedDocument
	Degraded  bool
}

// ConversationExchange is one answered question, handed to the history store.
type ConversationExchange struct {
	SessionID        string    `json:"session_id"`
	Question         string    `json:"question"`
	Answer           string    `json:"answer"`
	ContextDocuments int       `json:"context_documents"`
	Degraded         bool      `json:"degraded"`
	CreatedAt        time.Time `json:"created_at"`
}

// ChatRequest is an inbound question.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// PhaseTimings is the per-phase latency breakdown of one pipeline run.
type PhaseTimings struct {
	Embedding time.Duration
	Search    time.Duration
	AI        time.Duration
	Total     time.Duration
}

// ChatResponse is the answer to a ChatRequest.
type ChatResponse struct {
	SessionID        string
	Message          string
	Response         string
	ContextLogsCount int
	Degraded         bool
	Sources          []RetrievedDocument
	Timings          PhaseTimings
}

// CompletionRequest is a chat completion call to an LLM provider.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // system, user
	Content string `json:"content"`
}

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// CompletionResponse is a provider's answer.
type CompletionResponse struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	Provider   string    `json:"provider"`
	Content    string    `json:"content"`
	Usage      Usage     `json:"usage"`
	FinishTime time.Time `json:"finish_time"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost,omitempty"`
}

// CacheStats is a point-in-time view of a compute cache.
type CacheStats struct {
	Entries   int    `json:"entries"`
	InFlight  int64  `json:"in_flight"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Coalesced uint64 `json:"coalesced"`
}
