package endpoints

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/oicmap/internal/api"
	"github.com/jackzampolin/oicmap/internal/mapping"
	"github.com/jackzampolin/oicmap/internal/svcctx"
)

const (
	defaultMaxUploadBytes = 10 << 20
	defaultRequestTimeout = 2 * time.Minute
)

// XSLTContentType is the media type of a stylesheet download.
const XSLTContentType = "application/xslt+xml"

// GenerateMappingEndpoint handles POST /api/mappings.
//
// The body is a multipart form with "source" and "target" files. Optional
// fields: strict=true|false, provider=<name>, format=xslt. With format=xslt
// the stylesheet is returned as an attachment instead of a JSON result.
type GenerateMappingEndpoint struct{}

var _ api.Endpoint = (*GenerateMappingEndpoint)(nil)

func (e *GenerateMappingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/mappings", e.handler
}

func (e *GenerateMappingEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Generate an XSLT mapping
//	@Description	Upload a source and a target schema document (JSON or XML) and ask the model for an OIC Gen3 XSLT mapping between them
//	@Tags			mappings
//	@Accept			mpfd
//	@Produce		json
//	@Produce		xml
//	@Param			source		formData	file	true	"Source schema or sample (.json or .xml)"
//	@Param			target		formData	file	true	"Target schema or sample (.json or .xml)"
//	@Param			strict		formData	bool	false	"Fail when the extracted stylesheet is not well-formed"
//	@Param			provider	formData	string	false	"Model provider name (uses the default if not provided)"
//	@Param			format		formData	string	false	"Set to xslt to download the stylesheet instead of the JSON result"
//	@Success		200		{object}	mapping.Result
//	@Failure		400		{object}	ErrorResponse
//	@Failure		408		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Failure		504		{object}	ErrorResponse
//	@Router			/api/mappings [post]
func (e *GenerateMappingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc := svcctx.MappingFrom(r.Context())
	if svc == nil {
		writeError(w, http.StatusServiceUnavailable, mapping.KindNoProvider, "mapping service not available")
		return
	}

	maxBytes := int64(defaultMaxUploadBytes)
	timeout := defaultRequestTimeout
	if cfg := svcctx.ConfigFrom(r.Context()); cfg != nil {
		if cfg.Server.MaxUploadBytes > 0 {
			maxBytes = cfg.Server.MaxUploadBytes
		}
		if t := cfg.Server.RequestTimeout(); t > 0 {
			timeout = t
		}
	}

	if r.ContentLength > maxBytes {
		writeTooLarge(w, maxBytes)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeTooLarge(w, maxBytes)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_form",
			fmt.Sprintf("The request is not a valid multipart form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	source, err := formUpload(r.MultipartForm, "source")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}
	target, err := formUpload(r.MultipartForm, "target")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_form", err.Error())
		return
	}

	var opts []mapping.CallOption
	if v := r.FormValue("strict"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_form", fmt.Sprintf("strict must be true or false, got %q", v))
			return
		}
		opts = append(opts, mapping.WithStrict(strict))
	}
	if p := r.FormValue("provider"); p != "" {
		opts = append(opts, mapping.WithProvider(p))
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	result, err := svc.Generate(ctx, source, target, opts...)
	if err != nil {
		if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
			logger.Warn("mapping request failed", "kind", mapping.Kind(err), "error", err)
		}
		writeMappingError(w, err)
		return
	}

	if r.FormValue("format") != "xslt" {
		writeJSON(w, http.StatusOK, result)
		return
	}

	if !result.Found {
		writeError(w, http.StatusUnprocessableEntity, "no_stylesheet",
			"The model reply did not contain an XSLT stylesheet. Request the JSON result to read the reply.")
		return
	}
	w.Header().Set("Content-Type", XSLTContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", mapping.FileName(source.Name, target.Name)))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, result.XSLT)
}

func writeTooLarge(w http.ResponseWriter, maxBytes int64) {
	writeError(w, http.StatusRequestEntityTooLarge, "too_large",
		fmt.Sprintf("The upload is larger than %d bytes. Upload smaller schema files.", maxBytes))
}

// formUpload reads one file field. A missing field gives an empty Upload,
// which the mapping service reports as a missing file.
func formUpload(form *multipart.Form, field string) (mapping.Upload, error) {
	files := form.File[field]
	if len(files) == 0 {
		return mapping.Upload{}, nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return mapping.Upload{}, fmt.Errorf("failed to open %s upload: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return mapping.Upload{}, fmt.Errorf("failed to read %s upload: %w", field, err)
	}
	return mapping.Upload{Name: fh.Filename, Data: data}, nil
}

func (e *GenerateMappingEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		sourcePath string
		targetPath string
		outPath    string
		strict     bool
		provider   string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a mapping on the server",
		Long: `Upload a source and a target schema to the server and print the result.

With --out the stylesheet is downloaded and written to the given file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]api.FormFile, 0, 2)
			for field, path := range map[string]string{"source": sourcePath, "target": targetPath} {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", field, err)
				}
				files = append(files, api.FormFile{Field: field, Name: path, Data: data})
			}

			fields := map[string]string{}
			if cmd.Flags().Changed("strict") {
				fields["strict"] = strconv.FormatBool(strict)
			}
			if provider != "" {
				fields["provider"] = provider
			}

			client := api.NewClient(getServerURL())
			if outPath == "" {
				var result mapping.Result
				if err := client.PostFiles(cmd.Context(), "/api/mappings", fields, files, &result); err != nil {
					return err
				}
				return api.Output(result)
			}

			fields["format"] = "xslt"
			body, err := client.PostFilesRaw(cmd.Context(), "/api/mappings", fields, files)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, body, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", outPath, len(body))
			return nil
		},
	}
	cmd.Flags().StringVar(&sourcePath, "source", "", "source schema or sample (.json or .xml)")
	cmd.Flags().StringVar(&targetPath, "target", "", "target schema or sample (.json or .xml)")
	cmd.Flags().StringVar(&outPath, "out", "", "write the stylesheet to this file")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject stylesheets that are not well-formed")
	cmd.Flags().StringVar(&provider, "provider", "", "provider name (default: the configured default)")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("target")
	return cmd
}
