package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/oicmap/internal/api"
	"github.com/jackzampolin/oicmap/internal/config"
	"github.com/jackzampolin/oicmap/internal/mapping"
	"github.com/jackzampolin/oicmap/internal/providers"
	"github.com/jackzampolin/oicmap/internal/server/endpoints"
)

// waitForServer polls /health until it answers or the timeout passes.
func waitForServer(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	return fmt.Errorf("server at %s not ready after %s", baseURL, timeout)
}

func startServer(t *testing.T, srv *Server) (string, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(ctx)
	}()

	// Addr reports the bound port only once Start has listened.
	deadline := time.Now().Add(5 * time.Second)
	for srv.Port() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	baseURL := "http://" + srv.Addr()
	if err := waitForServer(baseURL, 5*time.Second); err != nil {
		cancel()
		t.Fatal(err)
	}

	stop := func() {
		cancel()
		select {
		case err := <-serverErr:
			if err != nil {
				t.Errorf("Start() returned %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("server did not shut down within timeout")
		}
	}
	return baseURL, stop
}

func TestServer_Lifecycle(t *testing.T) {
	reg := providers.NewRegistry()
	reg.RegisterLLM("mock", providers.NewMockClient())
	srv, err := New(Config{Port: "0", Registry: reg})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.Port() != 0 {
		t.Errorf("Port() before Start = %d", srv.Port())
	}

	baseURL, stop := startServer(t, srv)

	if !srv.IsRunning() {
		t.Error("IsRunning() = false, want true")
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}

	var health endpoints.HealthResponse
	if err := api.NewClient(baseURL).Get(context.Background(), "/health", &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" {
		t.Errorf("Status = %q", health.Status)
	}

	stop()
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown, want false")
	}
}

func TestNew_RequiresProviders(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() without config or registry should fail")
	}
}

// fakeAzure answers chat completions with a fixed stylesheet.
func fakeAzure(t *testing.T, content string) string {
	t.Helper()
	return httpTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/openai/deployments/gpt-4/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("api-key") != "secret" {
			t.Errorf("api-key = %q", r.Header.Get("api-key"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":%q}}],
"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`, content)
	})
}

func TestServer_ConfiguredProvider(t *testing.T) {
	endpoint := fakeAzure(t, "Here it is: "+stylesheet)
	t.Setenv("OICMAP_TEST_KEY", "secret")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfgYAML := fmt.Sprintf(`llm_providers:
  azure:
    enabled: false
  fake:
    type: azure
    endpoint: %s
    deployment: gpt-4
    api_key: ${OICMAP_TEST_KEY}
    enabled: true
defaults:
  llm_provider: fake
  strict: true
style_guide:
  - "Only one rule."
server:
  max_upload_bytes: 4096
`, endpoint)
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	mgr, err := config.NewManager(cfgPath)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	srv, err := New(Config{Port: "0", ConfigManager: mgr})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	baseURL, stop := startServer(t, srv)
	defer stop()

	client := api.NewClient(baseURL)

	var guide endpoints.StyleGuideResponse
	if err := client.Get(context.Background(), "/api/style-guide", &guide); err != nil {
		t.Fatal(err)
	}
	if len(guide.Rules) != 1 || guide.Rules[0] != "Only one rule." {
		t.Errorf("Rules = %v", guide.Rules)
	}

	var result mapping.Result
	err = client.PostFiles(context.Background(), "/api/mappings", nil, []api.FormFile{
		{Field: "source", Name: "a.json", Data: []byte(`{"a":1}`)},
		{Field: "target", Name: "b.json", Data: []byte(`{"b":1}`)},
	}, &result)
	if err != nil {
		t.Fatalf("PostFiles() error = %v", err)
	}
	if result.Provider != "fake" || result.XSLT != stylesheet || result.PromptTokens != 3 {
		t.Errorf("result = %+v", result)
	}

	t.Run("upload limit", func(t *testing.T) {
		_, err := client.PostFilesRaw(context.Background(), "/api/mappings", nil, []api.FormFile{
			{Field: "source", Name: "a.json", Data: []byte(`{"a":"` + strings.Repeat("x", 8192) + `"}`)},
			{Field: "target", Name: "b.json", Data: []byte(`{}`)},
		})
		if sErr, ok := err.(*api.ServerError); !ok || sErr.StatusCode != http.StatusRequestEntityTooLarge {
			t.Errorf("error = %v, want 413", err)
		}
	})
}

func httpTestServer(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts.URL
}
