package schemadoc

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize_Dispatch(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		data     string
		wantFmt  Format
		wantKind ParseErrorKind
	}{
		{name: "json", file: "source.json", data: `{"a": 1}`, wantFmt: FormatJSON},
		{name: "json upper-case extension", file: "SOURCE.JSON", data: `[1,2]`, wantFmt: FormatJSON},
		{name: "xml", file: "target.xml", data: `<b>1</b>`, wantFmt: FormatXML},
		{name: "invalid json", file: "bad.json", data: `{"a": }`, wantKind: InvalidJSON},
		{name: "empty json", file: "empty.json", data: ``, wantKind: InvalidJSON},
		{name: "trailing json", file: "two.json", data: `{"a":1} {"b":2}`, wantKind: InvalidJSON},
		{name: "invalid xml", file: "bad.xml", data: `<a><b></a>`, wantKind: InvalidXML},
		{name: "unclosed xml", file: "open.xml", data: `<a><b>x</b>`, wantKind: InvalidXML},
		{name: "empty xml", file: "empty.xml", data: `  `, wantKind: InvalidXML},
		{name: "two roots", file: "roots.xml", data: `<a/><b/>`, wantKind: InvalidXML},
		{name: "text outside root", file: "text.xml", data: `<a/>hello`, wantKind: InvalidXML},
		{name: "bom json", file: "bom.json", data: "\ufeff{\"a\":1}", wantFmt: FormatJSON},
		{name: "bom xml", file: "bom.xml", data: "\ufeff<?xml version=\"1.0\"?><a><b>1</b></a>", wantFmt: FormatXML},
		{name: "unknown encoding", file: "enc.xml", data: `<?xml version="1.0" encoding="klingon-1"?><a/>`, wantKind: InvalidXML},
		{name: "xlsx", file: "sheet.xlsx", data: `PK..`, wantKind: UnsupportedFormat},
		{name: "no extension", file: "schema", data: `{}`, wantKind: UnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Normalize(tt.file, []byte(tt.data))
			if tt.wantKind != "" {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("Normalize() error = %v, want *ParseError", err)
				}
				if pe.Kind != tt.wantKind {
					t.Errorf("Kind = %s, want %s", pe.Kind, tt.wantKind)
				}
				if pe.Name != tt.file {
					t.Errorf("Name = %q, want %q", pe.Name, tt.file)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if doc.Format() != tt.wantFmt {
				t.Errorf("Format() = %s, want %s", doc.Format(), tt.wantFmt)
			}
			if doc.Name() != tt.file {
				t.Errorf("Name() = %q, want %q", doc.Name(), tt.file)
			}
		})
	}
}

func TestXMLDocument_DeclaredEncoding(t *testing.T) {
	data := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><a>caf\xe9</a>")
	doc, err := Normalize("latin1.xml", data)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	xd := doc.(*XMLDocument)
	if xd.Root.Text != "café" {
		t.Errorf("Root.Text = %q, want %q", xd.Root.Text, "café")
	}

	got, err := doc.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	want := `<?xml version="1.0" encoding="UTF-8"?><a>café</a>`
	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestNormalize_BOMIsDropped(t *testing.T) {
	doc, err := Normalize("bom.xml", []byte("\ufeff<a>1</a>"))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	got, _ := doc.Serialize()
	if got != "<a>1</a>" {
		t.Errorf("Serialize() = %q, want %q", got, "<a>1</a>")
	}
}

func TestJSONDocument_RoundTrip(t *testing.T) {
	inputs := []string{
		`{"a": 1}`,
		`{"z": [1, 2.5, -3e10], "a": {"nested": true, "nil": null}, "s": "<tag> & \"q\""}`,
		`[{"id": 12345678901234567890}, "x", false]`,
		`"just a string"`,
		`{}`,
	}

	for _, in := range inputs {
		doc, err := Normalize("doc.json", []byte(in))
		if err != nil {
			t.Fatalf("Normalize(%s) error = %v", in, err)
		}
		text, err := doc.Serialize()
		if err != nil {
			t.Fatalf("Serialize() error = %v", err)
		}
		again, err := Normalize("doc.json", []byte(text))
		if err != nil {
			t.Fatalf("re-Normalize(%s) error = %v", text, err)
		}
		if diff := cmp.Diff(doc.Fold(), again.Fold()); diff != "" {
			t.Errorf("round trip mismatch for %s (-first +second):\n%s", in, diff)
		}
	}
}

func TestJSONDocument_SerializeDeterministic(t *testing.T) {
	a, err := Normalize("a.json", []byte(`{"b": 1, "a": {"d": 2, "c": 3}}`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Normalize("b.json", []byte(`{"a": {"c": 3, "d": 2}, "b": 1}`))
	if err != nil {
		t.Fatal(err)
	}
	sa, _ := a.Serialize()
	sb, _ := b.Serialize()
	if sa != sb {
		t.Errorf("serializations differ:\n%s\n---\n%s", sa, sb)
	}
	want := "{\n  \"a\": {\n    \"c\": 3,\n    \"d\": 2\n  },\n  \"b\": 1\n}"
	if sa != want {
		t.Errorf("Serialize() = %q, want %q", sa, want)
	}
}

func TestJSONDocument_PreservesNumbers(t *testing.T) {
	doc, err := Normalize("n.json", []byte(`{"big": 12345678901234567890}`))
	if err != nil {
		t.Fatal(err)
	}
	v := doc.Fold().(map[string]any)["big"]
	n, ok := v.(json.Number)
	if !ok {
		t.Fatalf("big = %T, want json.Number", v)
	}
	if n.String() != "12345678901234567890" {
		t.Errorf("big = %s", n)
	}
}

func TestXMLDocument_Fold(t *testing.T) {
	t.Run("leaf and nested", func(t *testing.T) {
		doc, err := Normalize("o.xml", []byte(`<?xml version="1.0"?>
<Order>
  <Id>42</Id>
  <Empty/>
  <Customer><Name>Ada</Name></Customer>
</Order>`))
		if err != nil {
			t.Fatal(err)
		}
		want := map[string]any{
			"Order": map[string]any{
				"Id":       "42",
				"Empty":    "",
				"Customer": map[string]any{"Name": "Ada"},
			},
		}
		if diff := cmp.Diff(want, doc.Fold()); diff != "" {
			t.Errorf("Fold() mismatch (-want +got):\n%s", diff)
		}
	})

	// Same-tag siblings are kept as an ordered list rather than collapsed.
	t.Run("duplicate siblings preserved in order", func(t *testing.T) {
		doc, err := Normalize("o.xml", []byte(`<Order><Line>a</Line><Id>1</Id><Line>b</Line><Line><Sku>c</Sku></Line></Order>`))
		if err != nil {
			t.Fatal(err)
		}
		want := map[string]any{
			"Order": map[string]any{
				"Id":   "1",
				"Line": []any{"a", "b", map[string]any{"Sku": "c"}},
			},
		}
		if diff := cmp.Diff(want, doc.Fold()); diff != "" {
			t.Errorf("Fold() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("prefixes kept", func(t *testing.T) {
		doc, err := Normalize("ns.xml", []byte(`<ns0:Order xmlns:ns0="urn:x"><ns0:Id>7</ns0:Id></ns0:Order>`))
		if err != nil {
			t.Fatal(err)
		}
		x := doc.(*XMLDocument)
		if x.Root.Name != "ns0:Order" {
			t.Errorf("Root.Name = %q", x.Root.Name)
		}
		if diff := cmp.Diff([]Attr{{Name: "xmlns:ns0", Value: "urn:x"}}, x.Root.Attrs); diff != "" {
			t.Errorf("Attrs mismatch (-want +got):\n%s", diff)
		}
		want := map[string]any{"ns0:Order": map[string]any{"ns0:Id": "7"}}
		if diff := cmp.Diff(want, doc.Fold()); diff != "" {
			t.Errorf("Fold() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestXMLDocument_Reconstruct(t *testing.T) {
	inputs := []string{
		`<a><b>1</b><c><d>x &amp; y</d><e/></c></a>`,
		`<ns0:Order xmlns:ns0="urn:x" id="5"><ns0:Id>7</ns0:Id><ns0:Note>"q" &lt;x&gt;</ns0:Note></ns0:Order>`,
		"<root>\n  <child>  padded  </child>\n</root>",
	}

	for _, in := range inputs {
		doc, err := Normalize("in.xml", []byte(in))
		if err != nil {
			t.Fatalf("Normalize(%s) error = %v", in, err)
		}
		root := doc.(*XMLDocument).Root

		var b strings.Builder
		if err := root.Encode(&b); err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		again, err := Normalize("out.xml", []byte(b.String()))
		if err != nil {
			t.Fatalf("re-Normalize(%s) error = %v", b.String(), err)
		}
		if diff := cmp.Diff(root, again.(*XMLDocument).Root); diff != "" {
			t.Errorf("reconstruction mismatch for %s (-orig +rebuilt):\n%s", in, diff)
		}
	}
}

func TestXMLDocument_SerializeKeepsSource(t *testing.T) {
	src := "\n  <a>\n    <b>1</b>\n  </a>\n"
	doc, err := Normalize("a.xml", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := doc.Serialize()
	if got != strings.TrimSpace(src) {
		t.Errorf("Serialize() = %q", got)
	}
}

func TestNormalize_Kind(t *testing.T) {
	tests := []struct {
		file string
		data string
		want Kind
	}{
		{"s.json", `{"$schema": "http://json-schema.org/draft-07/schema#", "type": "object", "properties": {"a": {"type": "integer"}}}`, KindJSONSchema},
		{"s.json", `{"type": "object", "properties": {"a": {"type": "string"}}}`, KindJSONSchema},
		{"s.json", `{"type": "object", "properties": {"a": {"type": 12}}}`, KindJSONSample},
		{"s.json", `{"a": 1}`, KindJSONSample},
		{"s.json", `[1, 2]`, KindJSONSample},
		{"s.xml", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="a"/></xs:schema>`, KindXSD},
		{"s.xml", `<Order><Id>1</Id></Order>`, KindXMLSample},
	}

	for _, tt := range tests {
		doc, err := Normalize(tt.file, []byte(tt.data))
		if err != nil {
			t.Fatalf("Normalize(%s) error = %v", tt.data, err)
		}
		if doc.Kind() != tt.want {
			t.Errorf("Kind(%s) = %s, want %s", tt.data, doc.Kind(), tt.want)
		}
	}
}

func TestParseError_Message(t *testing.T) {
	_, err := Normalize("target.xml", []byte(`<a>`))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "target.xml") || !strings.Contains(err.Error(), "invalid XML") {
		t.Errorf("Error() = %q", err.Error())
	}
}
