package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
//
// Scripted Errors are returned in order, one per call; once exhausted the
// client replies with ResponseText. ShouldFail overrides both.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	ResponseText string
	Errors       []error

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	last         *ChatRequest
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Chat returns the scripted reply or error.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*Reply, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.last = req
	var scripted error
	if idx := int(count) - 1; idx < len(c.Errors) {
		scripted = c.Errors[idx]
	}
	c.mu.Unlock()

	if c.Latency > 0 {
		timer := time.NewTimer(c.Latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.ShouldFail {
		return nil, fmt.Errorf("mock client configured to fail")
	}
	if scripted != nil {
		return nil, scripted
	}

	// Rough token estimate
	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(m.Content) / 4
	}
	completionTokens := len(c.ResponseText) / 4

	requestID := req.RequestID
	if requestID == "" {
		requestID = fmt.Sprintf("mock-%d", count)
	}
	return &Reply{
		Text:             c.ResponseText,
		ReceivedAt:       time.Now(),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		Provider:         MockClientName,
		ModelUsed:        MockClientName,
		FinishReason:     "stop",
		RequestID:        requestID,
		Attempts:         1,
		Latency:          time.Since(start),
	}, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// LastRequest returns the most recent request, or nil.
func (c *MockClient) LastRequest() *ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Reset resets the request counter.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
	c.mu.Lock()
	c.last = nil
	c.mu.Unlock()
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
