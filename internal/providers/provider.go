package providers

import (
	"context"
	"time"
)

// LLMClient is the interface for chat-completion requests.
type LLMClient interface {
	// Chat sends one chat completion request and returns the raw reply.
	// Generation parameters come from the client's configuration.
	Chat(ctx context.Context, req *ChatRequest) (*Reply, error)

	// Name returns the client identifier (e.g., "azure").
	Name() string
}

// Message roles.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role" yaml:"role"` // "system", "user"
	Content string `json:"content" yaml:"content"`
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	// Required
	Messages []Message `json:"messages"`

	// Request tracking
	RequestID string `json:"-"`
}

// Reply is the raw model reply. It is discarded once the XSLT has been
// extracted from it.
type Reply struct {
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Provider info
	Provider     string `json:"provider"`
	ModelUsed    string `json:"model_used"`
	FinishReason string `json:"finish_reason,omitempty"`

	// Request tracking
	RequestID string        `json:"request_id"`
	Attempts  int           `json:"attempts"`
	Latency   time.Duration `json:"latency"`
}
