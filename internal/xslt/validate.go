package xslt

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Namespace is the XSLT namespace URI.
const Namespace = "http://www.w3.org/1999/XSL/Transform"

// MalformedXSLTError reports a stylesheet that is not well-formed XML or
// whose root is not xsl:stylesheet.
type MalformedXSLTError struct {
	Reason string
	Line   int
	Err    error
}

func (e *MalformedXSLTError) Error() string {
	var b strings.Builder
	b.WriteString("malformed xslt")
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MalformedXSLTError) Unwrap() error { return e.Err }

// isXSL reports whether name is in the XSLT namespace. An undeclared xsl
// prefix is left in Space by encoding/xml and is accepted here; Lint warns
// about it.
func isXSL(name xml.Name) bool {
	return name.Space == Namespace || name.Space == "xsl"
}

// Validate checks that doc is a single well-formed element rooted at
// xsl:stylesheet.
func Validate(doc string) error {
	dec := xml.NewDecoder(strings.NewReader(doc))
	dec.Strict = true

	depth := 0
	roots := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, _ := dec.InputPos()
			return &MalformedXSLTError{Reason: "not well-formed", Line: line, Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					line, _ := dec.InputPos()
					return &MalformedXSLTError{Reason: "more than one root element", Line: line}
				}
				if t.Name.Local != "stylesheet" || !isXSL(t.Name) {
					return &MalformedXSLTError{Reason: fmt.Sprintf("root element is %s, want xsl:stylesheet", t.Name.Local)}
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				line, _ := dec.InputPos()
				return &MalformedXSLTError{Reason: "text outside the root element", Line: line}
			}
		}
	}
	if depth != 0 {
		return &MalformedXSLTError{Reason: "unclosed element"}
	}
	if roots == 0 {
		return &MalformedXSLTError{Reason: "no root element"}
	}
	return nil
}
