// Package schemadoc normalizes uploaded schema documents (JSON or XML) into
// a tagged, immutable in-memory form.
//
// A Document is either a *JSONDocument or an *XMLDocument. Callers switch on
// the concrete type (or on Format) instead of walking an untyped tree:
//
//	switch d := doc.(type) {
//	case *schemadoc.JSONDocument:
//	    use(d.Value)
//	case *schemadoc.XMLDocument:
//	    use(d.Root)
//	}
package schemadoc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Format identifies the wire format of a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// Kind describes what a document appears to contain. It only affects how
// the document is labeled in a prompt; it never fails normalization.
type Kind string

const (
	KindJSONSchema Kind = "json-schema"
	KindJSONSample Kind = "json-sample"
	KindXSD        Kind = "xsd"
	KindXMLSample  Kind = "xml-sample"
)

// Label returns a human-readable name for the kind.
func (k Kind) Label() string {
	switch k {
	case KindJSONSchema:
		return "JSON Schema"
	case KindJSONSample:
		return "JSON sample"
	case KindXSD:
		return "XML Schema (XSD)"
	case KindXMLSample:
		return "XML sample"
	default:
		return string(k)
	}
}

// Document is a normalized schema document.
type Document interface {
	// Name is the file name the document was uploaded with.
	Name() string
	Format() Format
	Kind() Kind

	// Serialize returns a deterministic textual form of the document.
	Serialize() (string, error)

	// Fold returns the document as nested maps, slices and scalars.
	Fold() any

	sealed()
}

// JSONDocument is a parsed JSON document.
// Value holds map[string]any, []any, json.Number, string, bool or nil.
type JSONDocument struct {
	name  string
	kind  Kind
	Value any
}

func (d *JSONDocument) Name() string   { return d.name }
func (d *JSONDocument) Format() Format { return FormatJSON }
func (d *JSONDocument) Kind() Kind     { return d.kind }
func (d *JSONDocument) Fold() any      { return d.Value }
func (d *JSONDocument) sealed()        {}

// Serialize pretty-prints the value with two-space indentation. Map keys
// are emitted in sorted order, so equal values serialize identically.
func (d *JSONDocument) Serialize() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.Value); err != nil {
		return "", fmt.Errorf("failed to serialize %s: %w", d.name, err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// XMLDocument is a parsed XML document. Source keeps the uploaded text so
// the prompt can embed it as written.
type XMLDocument struct {
	name   string
	kind   Kind
	Root   *Node
	Source []byte
}

func (d *XMLDocument) Name() string   { return d.name }
func (d *XMLDocument) Format() Format { return FormatXML }
func (d *XMLDocument) Kind() Kind     { return d.kind }
func (d *XMLDocument) sealed()        {}

// Serialize returns the original XML text, trimmed.
func (d *XMLDocument) Serialize() (string, error) {
	return string(bytes.TrimSpace(d.Source)), nil
}

// Fold returns a single-entry map from the root tag to the folded root.
func (d *XMLDocument) Fold() any {
	return map[string]any{d.Root.Name: d.Root.Fold()}
}

var (
	_ Document = (*JSONDocument)(nil)
	_ Document = (*XMLDocument)(nil)
)
