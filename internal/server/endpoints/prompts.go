package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/oicmap/internal/api"
	"github.com/jackzampolin/oicmap/internal/prompts"
	"github.com/jackzampolin/oicmap/internal/svcctx"
)

// PromptInfo is a resolved prompt. When an override is active the
// embedded default is included alongside it.
type PromptInfo struct {
	prompts.ResolvedPrompt `yaml:",inline"`
	DefaultText            string `json:"default_text,omitempty" yaml:"default_text,omitempty"`
	DefaultHash            string `json:"default_hash,omitempty" yaml:"default_hash,omitempty"`
}

// PromptsListResponse contains all prompts as currently resolved.
type PromptsListResponse struct {
	Prompts []PromptInfo `json:"prompts" yaml:"prompts"`
}

// ListPromptsEndpoint handles GET /api/prompts.
type ListPromptsEndpoint struct{}

var _ api.Endpoint = (*ListPromptsEndpoint)(nil)

func (e *ListPromptsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prompts", e.handler
}

func (e *ListPromptsEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		List prompts
//	@Description	Get every prompt the server renders, with config overrides applied and embedded defaults shown for overridden keys
//	@Tags			prompts
//	@Produce		json
//	@Success		200	{object}	PromptsListResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/prompts [get]
func (e *ListPromptsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resolver := svcctx.PromptsFrom(r.Context())
	if resolver == nil {
		writeError(w, http.StatusInternalServerError, "internal", "prompt resolver not available")
		return
	}

	resolved := resolver.All()
	resp := PromptsListResponse{Prompts: make([]PromptInfo, 0, len(resolved))}
	for _, p := range resolved {
		info := PromptInfo{ResolvedPrompt: p}
		if p.IsOverride {
			if embedded, ok := resolver.GetEmbedded(p.Key); ok {
				info.DefaultText = embedded.Text
				info.DefaultHash = embedded.Hash
			}
		}
		resp.Prompts = append(resp.Prompts, info)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListPromptsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "prompts",
		Short: "List the prompts the server renders, with overrides applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PromptsListResponse
			if err := client.Get(cmd.Context(), "/api/prompts", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
