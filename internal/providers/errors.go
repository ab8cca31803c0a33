package providers

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	openai "github.com/openai/openai-go/v3"
)

// TransportErrorKind classifies network-layer failures.
type TransportErrorKind string

const (
	Timeout           TransportErrorKind = "timeout"
	ConnectionRefused TransportErrorKind = "connection_refused"
	TLSError          TransportErrorKind = "tls_error"
)

// TransportError is a failure below HTTP: the request never produced a
// response.
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIErrorKind classifies non-2xx responses.
type APIErrorKind string

const (
	Unauthorized APIErrorKind = "unauthorized"
	NotFound     APIErrorKind = "not_found"
	BadRequest   APIErrorKind = "bad_request"
	RateLimited  APIErrorKind = "rate_limited"
	ServerError  APIErrorKind = "server_error"
)

// APIError is a non-2xx response from the chat-completion service.
type APIError struct {
	Kind       APIErrorKind
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 500 {
		body = body[:500] + "...[truncated]"
	}
	if body == "" {
		return fmt.Sprintf("API error %s (status %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("API error %s (status %d): %s", e.Kind, e.StatusCode, body)
}

// EmptyResponseError is returned when a 2xx response has no choices.
type EmptyResponseError struct {
	Model string
}

func (e *EmptyResponseError) Error() string {
	if e.Model == "" {
		return "empty response: no completion choices"
	}
	return fmt.Sprintf("empty response: no completion choices (model=%s)", e.Model)
}

// APIErrorKindForStatus maps an HTTP status code to an APIErrorKind.
func APIErrorKindForStatus(status int) APIErrorKind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return Unauthorized
	case status == http.StatusNotFound:
		return NotFound
	case status == http.StatusTooManyRequests:
		return RateLimited
	case status >= 500:
		return ServerError
	default:
		return BadRequest
	}
}

// Retryable reports whether err is worth another attempt: rate limiting,
// server errors and timeouts. Everything else is terminal.
func Retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == RateLimited || apiErr.Kind == ServerError
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return tErr.Kind == Timeout
	}
	return false
}

// classify converts an SDK or network error into the package taxonomy.
// parent is the caller's context: its cancellation is passed through as is.
func classify(parent context.Context, err error) error {
	if err == nil {
		return nil
	}
	if parent.Err() != nil {
		return parent.Err()
	}

	var sdkErr *openai.Error
	if errors.As(err, &sdkErr) {
		body := sdkErr.RawJSON()
		if body == "" {
			body = sdkErr.Message
		}
		return &APIError{
			Kind:       APIErrorKindForStatus(sdkErr.StatusCode),
			StatusCode: sdkErr.StatusCode,
			Body:       body,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Kind: Timeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Kind: Timeout, Err: err}
	}

	if isTLSError(err) {
		return &TransportError{Kind: TLSError, Err: err}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &TransportError{Kind: ConnectionRefused, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &TransportError{Kind: ConnectionRefused, Err: err}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &TransportError{Kind: ConnectionRefused, Err: err}
	}

	return err
}

func isTLSError(err error) bool {
	var (
		certErr     *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		unknownAuth x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidCert x509.CertificateInvalidError
		alertErr    tls.AlertError
	)
	switch {
	case errors.As(err, &certErr),
		errors.As(err, &recordErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidCert),
		errors.As(err, &alertErr):
		return true
	}
	return strings.Contains(err.Error(), "tls: ")
}
