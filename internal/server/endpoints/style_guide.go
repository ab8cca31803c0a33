package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/oicmap/internal/api"
	"github.com/jackzampolin/oicmap/internal/prompts/xsltmap"
	"github.com/jackzampolin/oicmap/internal/svcctx"
)

// StyleGuideResponse lists the constraints rendered into every prompt.
type StyleGuideResponse struct {
	Rules []string `json:"rules" yaml:"rules"`
}

// StyleGuideEndpoint handles GET /api/style-guide.
type StyleGuideEndpoint struct{}

var _ api.Endpoint = (*StyleGuideEndpoint)(nil)

func (e *StyleGuideEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/style-guide", e.handler
}

func (e *StyleGuideEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Get the style guide
//	@Description	Get the constraint list rendered into every mapping prompt, including configured additions
//	@Tags			mappings
//	@Produce		json
//	@Success		200	{object}	StyleGuideResponse
//	@Router			/api/style-guide [get]
func (e *StyleGuideEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	rules := xsltmap.DefaultStyleGuide()
	if svc := svcctx.MappingFrom(r.Context()); svc != nil {
		rules = svc.StyleGuide()
	}
	writeJSON(w, http.StatusOK, StyleGuideResponse{Rules: rules})
}

func (e *StyleGuideEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "style-guide",
		Short: "Show the style guide the server applies",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StyleGuideResponse
			if err := client.Get(cmd.Context(), "/api/style-guide", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
