package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAPIErrorKindForStatus(t *testing.T) {
	tests := map[int]APIErrorKind{
		400: BadRequest,
		401: Unauthorized,
		403: Unauthorized,
		404: NotFound,
		409: BadRequest,
		422: BadRequest,
		429: RateLimited,
		500: ServerError,
		502: ServerError,
		503: ServerError,
	}
	for status, want := range tests {
		if got := APIErrorKindForStatus(status); got != want {
			t.Errorf("APIErrorKindForStatus(%d) = %s, want %s", status, got, want)
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&APIError{Kind: RateLimited}, true},
		{&APIError{Kind: ServerError}, true},
		{&APIError{Kind: BadRequest}, false},
		{&APIError{Kind: Unauthorized}, false},
		{&APIError{Kind: NotFound}, false},
		{&TransportError{Kind: Timeout}, true},
		{&TransportError{Kind: ConnectionRefused}, false},
		{&TransportError{Kind: TLSError}, false},
		{&EmptyResponseError{}, false},
		{fmt.Errorf("wrapped: %w", &APIError{Kind: RateLimited}), true},
		{context.Canceled, false},
	}
	for _, tt := range tests {
		if got := Retryable(tt.err); got != tt.want {
			t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestAPIError_TruncatesBody(t *testing.T) {
	err := &APIError{Kind: BadRequest, StatusCode: 400, Body: strings.Repeat("x", 2000)}
	msg := err.Error()
	if len(msg) > 600 {
		t.Errorf("message length = %d", len(msg))
	}
	if !strings.Contains(msg, "truncated") {
		t.Error("expected truncation marker")
	}
}

func TestClassify_PassesParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := classify(ctx, errors.New("boom")); !errors.Is(err, context.Canceled) {
		t.Errorf("classify() = %v, want context.Canceled", err)
	}
	if err := classify(context.Background(), context.DeadlineExceeded); !errors.As(err, new(*TransportError)) {
		t.Errorf("classify() = %v, want *TransportError", err)
	}
}
