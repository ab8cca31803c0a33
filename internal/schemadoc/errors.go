package schemadoc

import "fmt"

// ParseErrorKind classifies normalization failures.
type ParseErrorKind string

const (
	InvalidJSON       ParseErrorKind = "invalid_json"
	InvalidXML        ParseErrorKind = "invalid_xml"
	UnsupportedFormat ParseErrorKind = "unsupported_format"
)

// ParseError is returned by Normalize when a document cannot be parsed.
type ParseError struct {
	Kind ParseErrorKind
	Name string // uploaded file name
	Err  error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case UnsupportedFormat:
		return fmt.Sprintf("%s: unsupported format (want .json or .xml)", e.Name)
	case InvalidJSON:
		return fmt.Sprintf("%s: invalid JSON: %v", e.Name, e.Err)
	case InvalidXML:
		return fmt.Sprintf("%s: invalid XML: %v", e.Name, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }
