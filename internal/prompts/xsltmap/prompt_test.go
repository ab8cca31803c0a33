package xsltmap

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jackzampolin/oicmap/internal/prompts"
	"github.com/jackzampolin/oicmap/internal/providers"
	"github.com/jackzampolin/oicmap/internal/schemadoc"
)

func mustNormalize(t *testing.T, name, data string) schemadoc.Document {
	t.Helper()
	doc, err := schemadoc.Normalize(name, []byte(data))
	if err != nil {
		t.Fatalf("Normalize(%s) error = %v", name, err)
	}
	return doc
}

func TestBuildRequest(t *testing.T) {
	source := mustNormalize(t, "source.json", `{"a": 1}`)
	target := mustNormalize(t, "target.json", `{"b": 1}`)

	req, err := BuildRequest(source, target, DefaultStyleGuide())
	if err != nil {
		t.Fatalf("BuildRequest() error = %v", err)
	}

	if len(req.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(req.Messages))
	}
	if req.Messages[0].Role != providers.RoleSystem || req.Messages[1].Role != providers.RoleUser {
		t.Errorf("roles = %s, %s", req.Messages[0].Role, req.Messages[1].Role)
	}
	if !strings.Contains(req.Messages[0].Content, "OIC Gen3") {
		t.Errorf("system prompt = %q", req.Messages[0].Content)
	}

	user := req.UserContent()
	for _, want := range []string{"{\n  \"a\": 1\n}", "{\n  \"b\": 1\n}", "source.json", "target.json"} {
		if !strings.Contains(user, want) {
			t.Errorf("user content missing %q:\n%s", want, user)
		}
	}
	for i, rule := range DefaultStyleGuide() {
		if !strings.Contains(user, rule) {
			t.Errorf("user content missing rule %d", i+1)
		}
	}
	if !strings.Contains(user, "1. "+DefaultStyleGuide()[0]) {
		t.Error("rules are not numbered")
	}
	if diff := cmp.Diff(DefaultStyleGuide(), req.Instructions); diff != "" {
		t.Errorf("Instructions mismatch:\n%s", diff)
	}
}

func TestBuildRequest_Deterministic(t *testing.T) {
	build := func() *Request {
		source := mustNormalize(t, "source.json", `{"z": {"y": [1, 2]}, "a": "x<y"}`)
		target := mustNormalize(t, "target.xml", `<ns:order xmlns:ns="urn:x"><ns:id>1</ns:id></ns:order>`)
		req, err := BuildRequest(source, target, []string{"one", "two"})
		if err != nil {
			t.Fatal(err)
		}
		return req
	}

	a, b := build(), build()
	if diff := cmp.Diff(a.Messages, b.Messages); diff != "" {
		t.Errorf("messages differ between runs:\n%s", diff)
	}
	if a.Fingerprint != b.Fingerprint {
		t.Error("fingerprints differ between runs")
	}
	if !strings.Contains(a.UserContent(), `<ns:order xmlns:ns="urn:x"><ns:id>1</ns:id></ns:order>`) {
		t.Error("xml source text not embedded verbatim")
	}
}

func TestBuildRequest_StyleGuide(t *testing.T) {
	source := mustNormalize(t, "s.json", `{}`)
	target := mustNormalize(t, "t.json", `{}`)

	t.Run("blank rules skipped", func(t *testing.T) {
		req, err := BuildRequest(source, target, []string{"first", "  ", "second"})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"first", "second"}, req.Instructions); diff != "" {
			t.Errorf("Instructions mismatch:\n%s", diff)
		}
		if !strings.Contains(req.UserContent(), "2. second") {
			t.Errorf("numbering wrong:\n%s", req.UserContent())
		}
	})

	t.Run("no rules", func(t *testing.T) {
		req, err := BuildRequest(source, target, nil)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(req.UserContent(), "constraints") {
			t.Error("constraint header rendered without rules")
		}
	})

	t.Run("fingerprint tracks style guide", func(t *testing.T) {
		a, _ := BuildRequest(source, target, []string{"x"})
		b, _ := BuildRequest(source, target, []string{"y"})
		if a.Fingerprint == b.Fingerprint {
			t.Error("different style guides share a fingerprint")
		}
	})
}

func TestDefaultStyleGuide(t *testing.T) {
	rules := DefaultStyleGuide()
	if len(rules) != 4 {
		t.Fatalf("len = %d, want 4", len(rules))
	}
	joined := strings.ToLower(strings.Join(rules, "\n"))
	for _, topic := range []string{"namespace", "xsl:variable", "gen3", "only the xslt"} {
		if !strings.Contains(joined, topic) {
			t.Errorf("style guide does not cover %q", topic)
		}
	}
	rules[0] = "mutated"
	if DefaultStyleGuide()[0] == "mutated" {
		t.Error("DefaultStyleGuide returns shared state")
	}
}

func TestBuilder_Overrides(t *testing.T) {
	r := prompts.NewResolver(nil)
	RegisterPrompts(r)
	if err := r.SetOverrides(map[string]string{
		SystemPromptKey: "custom system",
		UserPromptKey:   "S={{.Source.Text}} T={{.Target.Text}}",
	}); err != nil {
		t.Fatal(err)
	}

	req, err := NewBuilder(r).Build(
		mustNormalize(t, "s.json", `1`),
		mustNormalize(t, "t.json", `2`),
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	if req.Messages[0].Content != "custom system" {
		t.Errorf("system = %q", req.Messages[0].Content)
	}
	if req.UserContent() != "S=1 T=2" {
		t.Errorf("user = %q", req.UserContent())
	}
}

func TestBuildRequest_NilDocument(t *testing.T) {
	if _, err := BuildRequest(nil, mustNormalize(t, "t.json", `{}`), nil); err == nil {
		t.Error("expected error for nil source")
	}
}
