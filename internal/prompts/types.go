// Package prompts manages the prompt templates sent to the mapping model.
//
// Defaults live in embedded .tmpl files next to the code that renders them.
// Operators may override any prompt by key from configuration:
//
//	prompts:
//	  overrides:
//	    xsltmap:
//	      system: "You generate XSLT for ..."
//
// Resolution order:
//  1. Config override (if set for the key)
//  2. Embedded default
package prompts

// EmbeddedPrompt is a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: xsltmap.system
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the prompt text chosen for a key.
type ResolvedPrompt struct {
	Key        string   `json:"key" yaml:"key"`
	Text       string   `json:"text" yaml:"text"`
	Variables  []string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Hash       string   `json:"hash" yaml:"hash"`
	IsOverride bool     `json:"is_override" yaml:"is_override"`
}
