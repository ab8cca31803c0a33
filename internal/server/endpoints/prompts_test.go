package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackzampolin/oicmap/internal/prompts"
	"github.com/jackzampolin/oicmap/internal/prompts/xsltmap"
	"github.com/jackzampolin/oicmap/internal/svcctx"
)

func TestListPrompts_ShowsDefaultForOverrides(t *testing.T) {
	resolver := prompts.NewResolver(nil)
	xsltmap.RegisterPrompts(resolver)
	if err := resolver.SetOverrides(map[string]string{xsltmap.SystemPromptKey: "You write XSLT."}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/prompts", nil)
	req = req.WithContext(svcctx.WithServices(req.Context(), &svcctx.Services{Prompts: resolver}))
	rec := httptest.NewRecorder()
	(&ListPromptsEndpoint{}).handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp PromptsListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Prompts) != 2 {
		t.Fatalf("len(Prompts) = %d, want 2", len(resp.Prompts))
	}

	embedded, _ := resolver.GetEmbedded(xsltmap.SystemPromptKey)
	for _, p := range resp.Prompts {
		switch p.Key {
		case xsltmap.SystemPromptKey:
			if !p.IsOverride || p.Text != "You write XSLT." {
				t.Errorf("system prompt = %+v", p.ResolvedPrompt)
			}
			if p.DefaultText != embedded.Text || p.DefaultHash != embedded.Hash {
				t.Error("overridden prompt is missing its embedded default")
			}
		case xsltmap.UserPromptKey:
			if p.IsOverride || p.DefaultText != "" {
				t.Errorf("user prompt = %+v", p)
			}
		}
	}
}
