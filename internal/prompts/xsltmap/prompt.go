// Package xsltmap builds the chat request that asks the model for an XSLT
// mapping between a source and a target schema document.
package xsltmap

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackzampolin/oicmap/internal/prompts"
	"github.com/jackzampolin/oicmap/internal/providers"
	"github.com/jackzampolin/oicmap/internal/schemadoc"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

// Prompt keys
const (
	SystemPromptKey = "xsltmap.system"
	UserPromptKey   = "xsltmap.user"
)

// RegisterPrompts registers the mapping prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Mapping system prompt - identifies the assistant as an OIC Gen3 XSLT generator",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Mapping user prompt template - embeds both documents and the style guide",
	})
}

// DefaultStyleGuide returns the house constraints for generated stylesheets.
func DefaultStyleGuide() []string {
	return []string{
		"Declare every namespace you use on the xsl:stylesheet element and reference target elements through their namespace prefix.",
		"Do not use xsl:template beyond the single root match, and do not use xsl:call-template or xsl:variable.",
		"The stylesheet must be compatible with Oracle Integration Cloud (OIC) Gen3 mappers.",
		"Output only the XSLT stylesheet, from <xsl:stylesheet> to </xsl:stylesheet>.",
	}
}

// Request is one mapping request, built once per user action.
type Request struct {
	Source       schemadoc.Document
	Target       schemadoc.Document
	Instructions []string
	Messages     []providers.Message

	// Fingerprint identifies the rendered messages; identical input gives
	// an identical fingerprint.
	Fingerprint string
}

// ChatRequest converts the request into a client request.
func (r *Request) ChatRequest(requestID string) *providers.ChatRequest {
	msgs := make([]providers.Message, len(r.Messages))
	copy(msgs, r.Messages)
	return &providers.ChatRequest{Messages: msgs, RequestID: requestID}
}

// UserContent returns the content of the user message.
func (r *Request) UserContent() string {
	for _, m := range r.Messages {
		if m.Role == providers.RoleUser {
			return m.Content
		}
	}
	return ""
}

type docData struct {
	Name  string
	Label string
	Text  string
}

type rule struct {
	N    int
	Text string
}

type userData struct {
	Source docData
	Target docData
	Rules  []rule
}

// Builder renders requests from prompts resolved by key, so configured
// overrides apply.
type Builder struct {
	resolver *prompts.Resolver
}

// NewBuilder creates a builder. A nil resolver uses the embedded prompts.
func NewBuilder(resolver *prompts.Resolver) *Builder {
	if resolver == nil {
		resolver = prompts.NewResolver(nil)
		RegisterPrompts(resolver)
	}
	return &Builder{resolver: resolver}
}

// BuildRequest builds a request from the embedded prompts.
func BuildRequest(source, target schemadoc.Document, styleGuide []string) (*Request, error) {
	return NewBuilder(nil).Build(source, target, styleGuide)
}

// Build serializes both documents and renders the system and user messages.
func (b *Builder) Build(source, target schemadoc.Document, styleGuide []string) (*Request, error) {
	if source == nil || target == nil {
		return nil, fmt.Errorf("source and target documents are required")
	}

	src, err := describe(source)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize source: %w", err)
	}
	tgt, err := describe(target)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize target: %w", err)
	}

	instructions := make([]string, 0, len(styleGuide))
	rules := make([]rule, 0, len(styleGuide))
	for _, s := range styleGuide {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		instructions = append(instructions, s)
		rules = append(rules, rule{N: len(rules) + 1, Text: s})
	}

	system, err := b.render(SystemPromptKey, nil)
	if err != nil {
		return nil, err
	}
	user, err := b.render(UserPromptKey, userData{Source: src, Target: tgt, Rules: rules})
	if err != nil {
		return nil, err
	}

	messages := []providers.Message{
		{Role: providers.RoleSystem, Content: system},
		{Role: providers.RoleUser, Content: user},
	}
	return &Request{
		Source:       source,
		Target:       target,
		Instructions: instructions,
		Messages:     messages,
		Fingerprint:  fingerprint(messages),
	}, nil
}

func (b *Builder) render(key string, data any) (string, error) {
	p, err := b.resolver.Resolve(key)
	if err != nil {
		return "", err
	}
	out, err := prompts.Render(key, p.Text, data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func describe(doc schemadoc.Document) (docData, error) {
	text, err := doc.Serialize()
	if err != nil {
		return docData{}, err
	}
	return docData{Name: doc.Name(), Label: doc.Kind().Label(), Text: text}, nil
}

func fingerprint(messages []providers.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(m.Role)
		sb.WriteByte('\n')
		sb.WriteString(m.Content)
		sb.WriteByte(0)
	}
	return prompts.HashText(sb.String())
}
