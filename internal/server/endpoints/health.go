package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/oicmap/internal/api"
	"github.com/jackzampolin/oicmap/internal/svcctx"
)

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status    string   `json:"status" yaml:"status"`
	Providers []string `json:"providers" yaml:"providers"`
	Default   string   `json:"default_provider,omitempty" yaml:"default_provider,omitempty"`
}

// HealthEndpoint handles GET /health. The status is "degraded" while no
// model provider is usable.
type HealthEndpoint struct{}

var _ api.Endpoint = (*HealthEndpoint)(nil)

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Health check
//	@Description	Report server status and the registered model providers; status is degraded while no default provider resolves
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Providers: []string{}}

	if registry := svcctx.RegistryFrom(r.Context()); registry != nil {
		resp.Providers = registry.ListLLM()
		if client, err := registry.GetLLM(""); err == nil {
			resp.Default = client.Name()
		}
	}
	if resp.Default == "" {
		resp.Status = "degraded"
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			if resp.Status != "ok" {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: no model provider configured")
			}
			return api.Output(resp)
		},
	}
}
