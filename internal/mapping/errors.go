package mapping

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackzampolin/oicmap/internal/providers"
	"github.com/jackzampolin/oicmap/internal/schemadoc"
	"github.com/jackzampolin/oicmap/internal/xslt"
)

// UploadError is a failure to normalize one of the uploads.
type UploadError struct {
	Role Role
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s upload: %v", e.Role, e.Err)
	}
	return fmt.Sprintf("%s upload %s: %v", e.Role, e.Name, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ProviderError means no client could be found for the request.
type ProviderError struct {
	Name string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("no default provider: %v", e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Name, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Error kinds reported by Kind.
const (
	KindMissingFile       = "missing_file"
	KindInvalidJSON       = "invalid_json"
	KindInvalidXML        = "invalid_xml"
	KindUnsupportedFormat = "unsupported_format"
	KindTimeout           = "timeout"
	KindConnectionRefused = "connection_refused"
	KindTLS               = "tls_error"
	KindUnauthorized      = "unauthorized"
	KindNotFound          = "not_found"
	KindBadRequest        = "bad_request"
	KindRateLimited       = "rate_limited"
	KindServerError       = "server_error"
	KindEmptyResponse     = "empty_response"
	KindMalformedXSLT     = "malformed_xslt"
	KindNoProvider        = "no_provider"
	KindCanceled          = "canceled"
	KindInternal          = "internal"
)

// Kind returns a stable machine-readable name for err.
func Kind(err error) string {
	var (
		parseErr     *schemadoc.ParseError
		uploadErr    *UploadError
		transportErr *providers.TransportError
		apiErr       *providers.APIError
		emptyErr     *providers.EmptyResponseError
		malformedErr *xslt.MalformedXSLTError
		providerErr  *ProviderError
	)
	switch {
	case errors.As(err, &parseErr):
		return string(parseErr.Kind)
	case errors.As(err, &uploadErr):
		return KindMissingFile
	case errors.As(err, &transportErr):
		return string(transportErr.Kind)
	case errors.As(err, &apiErr):
		return string(apiErr.Kind)
	case errors.As(err, &emptyErr):
		return KindEmptyResponse
	case errors.As(err, &malformedErr):
		return KindMalformedXSLT
	case errors.As(err, &providerErr):
		return KindNoProvider
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindInternal
	}
}

// UserMessage turns err into a message a user can act on. Every error kind
// gets its own message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		uploadErr    *UploadError
		parseErr     *schemadoc.ParseError
		transportErr *providers.TransportError
		apiErr       *providers.APIError
		malformedErr *xslt.MalformedXSLTError
	)
	role := "uploaded"
	if errors.As(err, &uploadErr) {
		role = string(uploadErr.Role)
	}

	switch kind := Kind(err); kind {
	case KindMissingFile:
		return fmt.Sprintf("No %s file was uploaded. Choose a JSON or XML file.", role)
	case KindInvalidJSON, KindInvalidXML, KindUnsupportedFormat:
		errors.As(err, &parseErr)
		switch parseErr.Kind {
		case schemadoc.InvalidJSON:
			return fmt.Sprintf("The %s file %s is not valid JSON (%v). Fix the syntax and upload it again.", role, parseErr.Name, parseErr.Err)
		case schemadoc.InvalidXML:
			return fmt.Sprintf("The %s file %s is not valid XML (%v). Fix the syntax and upload it again.", role, parseErr.Name, parseErr.Err)
		default:
			return fmt.Sprintf("The %s file %s has an unsupported type. Upload a .json or .xml file.", role, parseErr.Name)
		}
	case KindTimeout:
		if errors.As(err, &transportErr) {
			return "The model service did not answer in time. Try again, or raise the request timeout in the configuration."
		}
		return "The request ran out of time before the mapping was generated. Try again."
	case KindConnectionRefused:
		return "Could not connect to the model service. Check the endpoint URL and your network connection."
	case KindTLS:
		return "The secure connection to the model service failed. Check the endpoint URL and the server certificate."
	case KindUnauthorized:
		return "The model service rejected the credentials. Check the API key in the configuration."
	case KindNotFound:
		return "The model deployment was not found. Check the deployment name, endpoint and API version."
	case KindBadRequest:
		errors.As(err, &apiErr)
		return fmt.Sprintf("The model service rejected the request (status %d). The documents may be too large for the model; try smaller schemas.", apiErr.StatusCode)
	case KindRateLimited:
		return "The model service is rate limiting requests. Wait a minute and try again."
	case KindServerError:
		errors.As(err, &apiErr)
		return fmt.Sprintf("The model service had an internal error (status %d). Try again later.", apiErr.StatusCode)
	case KindEmptyResponse:
		return "The model returned an empty answer. Try again."
	case KindMalformedXSLT:
		errors.As(err, &malformedErr)
		return fmt.Sprintf("The generated XSLT is not well-formed (%s). Try again, or disable strict validation to see the raw output.", malformedErr.Reason)
	case KindNoProvider:
		return "No model provider is configured. Add one under llm_providers in the configuration."
	case KindCanceled:
		return "The request was canceled."
	default:
		return "Unexpected error: " + err.Error()
	}
}
