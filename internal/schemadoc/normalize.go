package schemadoc

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
)

var (
	utf8BOM = []byte("\xef\xbb\xbf")

	// xmlDeclEncoding matches the encoding pseudo-attribute of a leading
	// XML declaration. Group 1 is the label.
	xmlDeclEncoding = regexp.MustCompile(`^\s*<\?xml\s[^>]*?encoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)
)

// Normalize parses data according to the extension of name. A leading
// UTF-8 byte-order mark is ignored.
// It returns a *ParseError for malformed input or an unknown extension.
func Normalize(name string, data []byte) (Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return parseJSON(name, data)
	case ".xml":
		return parseXML(name, data)
	default:
		return nil, &ParseError{Kind: UnsupportedFormat, Name: name}
	}
}

func parseJSON(name string, data []byte) (*JSONDocument, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty document")
		}
		return nil, &ParseError{Kind: InvalidJSON, Name: name, Err: err}
	}
	// Exactly one top-level value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Kind: InvalidJSON, Name: name, Err: errors.New("unexpected data after top-level value")}
	}

	return &JSONDocument{
		name:  name,
		kind:  detectJSONKind(value),
		Value: value,
	}, nil
}

func parseXML(name string, data []byte) (*XMLDocument, error) {
	data, err := toUTF8(data)
	if err != nil {
		return nil, &ParseError{Kind: InvalidXML, Name: name, Err: err}
	}
	root, err := buildTree(data)
	if err != nil {
		return nil, &ParseError{Kind: InvalidXML, Name: name, Err: err}
	}

	kind := KindXMLSample
	if root.LocalName() == "schema" {
		kind = KindXSD
	}

	src := make([]byte, len(data))
	copy(src, data)
	return &XMLDocument{
		name:   name,
		kind:   kind,
		Root:   root,
		Source: src,
	}, nil
}

// toUTF8 transcodes a document whose declaration names another encoding and
// rewrites the declaration to say UTF-8. Other input is returned unchanged.
func toUTF8(data []byte) ([]byte, error) {
	m := xmlDeclEncoding.FindSubmatchIndex(data)
	if m == nil {
		return data, nil
	}
	label := string(data[m[2]:m[3]])
	if strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return data, nil
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s text: %w", label, err)
	}

	m = xmlDeclEncoding.FindSubmatchIndex(decoded)
	if m == nil {
		return decoded, nil
	}
	out := make([]byte, 0, len(decoded))
	out = append(out, decoded[:m[2]]...)
	out = append(out, "UTF-8"...)
	out = append(out, decoded[m[3]:]...)
	return out, nil
}

// buildTree reads raw tokens so prefixes survive as written, and checks
// element balance itself.
func buildTree(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *Node
		stack []*Node
		texts [][]byte
	)

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				line, _ := dec.InputPos()
				return nil, fmt.Errorf("line %d: more than one root element", line)
			}
			n := &Node{Name: qualified(t.Name)}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else {
				root = n
			}
			stack = append(stack, n)
			texts = append(texts, nil)

		case xml.EndElement:
			name := qualified(t.Name)
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected closing tag </%s>", name)
			}
			top := stack[len(stack)-1]
			if top.Name != name {
				return nil, fmt.Errorf("closing tag </%s> does not match <%s>", name, top.Name)
			}
			top.Text = string(bytes.TrimSpace(texts[len(texts)-1]))
			stack = stack[:len(stack)-1]
			texts = texts[:len(texts)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, errors.New("text outside the root element")
				}
				continue
			}
			texts[len(texts)-1] = append(texts[len(texts)-1], t...)
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].Name)
	}
	if root == nil {
		return nil, errors.New("no root element")
	}
	return root, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
