// Package mapping runs one mapping request end to end: normalize both
// uploads, build the prompt, call the model and extract the stylesheet.
package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/oicmap/internal/prompts/xsltmap"
	"github.com/jackzampolin/oicmap/internal/providers"
	"github.com/jackzampolin/oicmap/internal/schemadoc"
	"github.com/jackzampolin/oicmap/internal/xslt"
)

// ClientSource looks up LLM clients by name. An empty name selects the
// default client. *providers.Registry satisfies it.
type ClientSource interface {
	GetLLM(name string) (providers.LLMClient, error)
}

// Options configures a Service.
type Options struct {
	// Strict runs xslt.Validate on the extracted stylesheet.
	Strict bool

	// StyleGuide is the constraint list rendered into the prompt.
	// Nil uses xsltmap.DefaultStyleGuide.
	StyleGuide []string

	// Provider names the client to use; empty selects the default.
	Provider string

	// Builder renders prompts. Nil uses the embedded prompts.
	Builder *xsltmap.Builder

	Logger *slog.Logger
}

// Upload is one uploaded file.
type Upload struct {
	Name string
	Data []byte
}

// Role names which upload a document came from.
type Role string

const (
	RoleSource Role = "source"
	RoleTarget Role = "target"
)

// Result is the outcome of one mapping request.
type Result struct {
	XSLT      string   `json:"xslt,omitempty" yaml:"xslt,omitempty"`
	Found     bool     `json:"found" yaml:"found"`
	Remainder string   `json:"remainder,omitempty" yaml:"remainder,omitempty"`
	Warnings  []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	SourceKind  schemadoc.Kind `json:"source_kind" yaml:"source_kind"`
	TargetKind  schemadoc.Kind `json:"target_kind" yaml:"target_kind"`
	Fingerprint string         `json:"fingerprint" yaml:"fingerprint"`

	RequestID        string        `json:"request_id" yaml:"request_id"`
	Provider         string        `json:"provider" yaml:"provider"`
	Model            string        `json:"model,omitempty" yaml:"model,omitempty"`
	Attempts         int           `json:"attempts" yaml:"attempts"`
	PromptTokens     int           `json:"prompt_tokens" yaml:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens" yaml:"completion_tokens"`
	Duration         time.Duration `json:"duration" yaml:"duration"`
}

// CallOption overrides Options for one call.
type CallOption func(*callOptions)

type callOptions struct {
	strict   bool
	provider string
}

// WithStrict overrides Options.Strict.
func WithStrict(strict bool) CallOption {
	return func(o *callOptions) { o.strict = strict }
}

// WithProvider overrides Options.Provider.
func WithProvider(name string) CallOption {
	return func(o *callOptions) { o.provider = name }
}

// Service orchestrates mapping requests. It holds no per-request state and
// is safe for concurrent use.
type Service struct {
	clients ClientSource
	logger  *slog.Logger

	mu   sync.RWMutex
	opts Options
}

// NewService creates a mapping service.
func NewService(clients ClientSource, opts Options) *Service {
	if opts.StyleGuide == nil {
		opts.StyleGuide = xsltmap.DefaultStyleGuide()
	}
	if opts.Builder == nil {
		opts.Builder = xsltmap.NewBuilder(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{clients: clients, opts: opts, logger: opts.Logger}
}

// StyleGuide returns the configured constraint list.
func (s *Service) StyleGuide() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.opts.StyleGuide))
	copy(out, s.opts.StyleGuide)
	return out
}

// Reconfigure replaces the strict flag, style guide and default provider
// used by later calls. A nil style guide restores the default.
func (s *Service) Reconfigure(strict bool, styleGuide []string, provider string) {
	if styleGuide == nil {
		styleGuide = xsltmap.DefaultStyleGuide()
	}
	s.mu.Lock()
	s.opts.Strict = strict
	s.opts.StyleGuide = styleGuide
	s.opts.Provider = provider
	s.mu.Unlock()
}

func (s *Service) snapshot() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// Prepare normalizes both uploads and builds the request without calling
// the model.
func (s *Service) Prepare(source, target Upload) (*xsltmap.Request, error) {
	return s.prepare(s.snapshot(), source, target)
}

func (s *Service) prepare(opts Options, source, target Upload) (*xsltmap.Request, error) {
	src, err := normalize(RoleSource, source)
	if err != nil {
		return nil, err
	}
	tgt, err := normalize(RoleTarget, target)
	if err != nil {
		return nil, err
	}
	return opts.Builder.Build(src, tgt, opts.StyleGuide)
}

// Generate runs the whole pipeline. A reply without a stylesheet is not an
// error: the Result has Found=false and the reply in Remainder.
func (s *Service) Generate(ctx context.Context, source, target Upload, opts ...CallOption) (*Result, error) {
	start := time.Now()
	current := s.snapshot()
	call := callOptions{strict: current.Strict, provider: current.Provider}
	for _, o := range opts {
		o(&call)
	}

	req, err := s.prepare(current, source, target)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.GetLLM(call.provider)
	if err != nil {
		return nil, &ProviderError{Name: call.provider, Err: err}
	}

	requestID := uuid.New().String()
	logger := s.logger.With(
		"request_id", requestID,
		"provider", client.Name(),
		"fingerprint", req.Fingerprint[:12],
	)
	logger.Info("generating mapping", "source", source.Name, "target", target.Name, "strict", call.strict)

	reply, err := client.Chat(ctx, req.ChatRequest(requestID))
	if ctxErr := ctx.Err(); ctxErr != nil {
		logger.Warn("mapping canceled", "error", ctxErr)
		return nil, ctxErr
	}
	if err != nil {
		logger.Error("mapping request failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	extracted := xslt.Extract(reply.Text)
	result := &Result{
		XSLT:             extracted.XSLT,
		Found:            extracted.Found,
		Remainder:        extracted.Remainder,
		SourceKind:       req.Source.Kind(),
		TargetKind:       req.Target.Kind(),
		Fingerprint:      req.Fingerprint,
		RequestID:        requestID,
		Provider:         client.Name(),
		Model:            reply.ModelUsed,
		Attempts:         reply.Attempts,
		PromptTokens:     reply.PromptTokens,
		CompletionTokens: reply.CompletionTokens,
	}

	if extracted.Found {
		if call.strict {
			if err := xslt.Validate(extracted.XSLT); err != nil {
				logger.Warn("generated stylesheet failed validation", "error", err)
				return nil, err
			}
		}
		result.Warnings = xslt.Lint(extracted.XSLT)
	} else {
		logger.Warn("reply contained no stylesheet", "reply_len", len(reply.Text))
	}

	result.Duration = time.Since(start)
	logger.Info("mapping complete",
		"found", result.Found,
		"model", result.Model,
		"attempts", result.Attempts,
		"warnings", len(result.Warnings),
		"duration", result.Duration,
	)
	return result, nil
}

func normalize(role Role, u Upload) (schemadoc.Document, error) {
	if len(u.Data) == 0 && u.Name == "" {
		return nil, &UploadError{Role: role, Err: fmt.Errorf("no file uploaded")}
	}
	doc, err := schemadoc.Normalize(u.Name, u.Data)
	if err != nil {
		return nil, &UploadError{Role: role, Name: u.Name, Err: err}
	}
	return doc, nil
}

// FileName is the download name for a stylesheet mapping source to target,
// e.g. order.json and invoice.xsd give order_to_invoice.xslt.
func FileName(source, target string) string {
	stem := func(name string) string {
		base := filepath.Base(name)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		if base == "" || base == "." || base == string(filepath.Separator) {
			return "mapping"
		}
		return base
	}
	return stem(source) + "_to_" + stem(target) + ".xslt"
}
