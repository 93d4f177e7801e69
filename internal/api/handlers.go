package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/pixeljudge/pixeljudge/pkg/errors"
	"github.com/pixeljudge/pixeljudge/pkg/palette"
	"github.com/pixeljudge/pixeljudge/pkg/pipeline"
	"github.com/pixeljudge/pixeljudge/pkg/renderer"
)

// maxBodyBytes caps request bodies; base64 inflates images by ~33%, so this
// allows originals of roughly 24 MB.
const maxBodyBytes = 32 << 20

// analyzeRequest is the body of POST /v1/analyze.
type analyzeRequest struct {
	// Image is the base64-encoded screenshot (PNG or JPEG). A data URL
	// prefix ("data:image/png;base64,") is tolerated.
	Image string `json:"image"`

	MaxColors int    `json:"max_colors,omitempty"`
	Method    string `json:"method,omitempty"`
	Refresh   bool   `json:"refresh,omitempty"`
}

// validateRequest is the body of POST /v1/validate.
type validateRequest struct {
	analyzeRequest

	// Rendered is the base64-encoded reproduction image. Alternatively,
	// Source carries UI code for the renderer collaborator.
	Rendered  string            `json:"rendered,omitempty"`
	Source    renderer.Source   `json:"source,omitempty"`
	Viewport  renderer.Viewport `json:"viewport,omitempty"`
	Threshold float64           `json:"threshold,omitempty"`

	LayoutScore      *float64 `json:"layout_score,omitempty"`
	TypographyScore  *float64 `json:"typography_score,omitempty"`
	InteractionScore *float64 `json:"interaction_score,omitempty"`
}

// handleAnalyze runs the analysis stage on an uploaded screenshot.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	imagePath, cleanup, err := spoolImage(req.Image, "original")
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer cleanup()

	opts := pipeline.Options{
		ImagePath: imagePath,
		MaxColors: req.MaxColors,
		Method:    palette.Method(req.Method),
		Refresh:   req.Refresh,
		Logger:    s.logger,
	}

	analysis, err := s.runner.Analyze(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	// The path is a server-side temp file, meaningless to the caller.
	analysis.Image.Path = ""

	writeJSON(w, http.StatusOK, analysis)
}

// handleValidate runs the full validation stage.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	imagePath, cleanup, err := spoolImage(req.Image, "original")
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer cleanup()

	var renderedPath string
	if req.Rendered != "" {
		path, cleanupRendered, err := spoolImage(req.Rendered, "rendered")
		if err != nil {
			s.writeError(w, err)
			return
		}
		defer cleanupRendered()
		renderedPath = path
	}

	opts := pipeline.Options{
		ImagePath:        imagePath,
		MaxColors:        req.MaxColors,
		Method:           palette.Method(req.Method),
		Refresh:          req.Refresh,
		RenderedPath:     renderedPath,
		Source:           req.Source,
		Viewport:         req.Viewport,
		Threshold:        req.Threshold,
		LayoutScore:      req.LayoutScore,
		TypographyScore:  req.TypographyScore,
		InteractionScore: req.InteractionScore,
		Logger:           s.logger,
	}

	validation, err := s.runner.Validate(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	validation.Analysis.Image.Path = ""
	validation.Rendered.Path = ""

	writeJSON(w, http.StatusOK, validation)
}

// decodeBody parses a JSON request body with a size cap.
func decodeBody(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse request body")
	}
	return nil
}

// spoolImage decodes a base64 image payload into a temp file and returns its
// path plus a cleanup func. The pipeline consumes images by path, so uploads
// are spooled to disk first.
func spoolImage(encoded, label string) (string, func(), error) {
	if encoded == "" {
		return "", nil, errors.New(errors.ErrCodeInvalidInput, "%s image payload is required", label)
	}
	if idx := strings.Index(encoded, ";base64,"); idx >= 0 {
		encoded = encoded[idx+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s image payload", label)
	}

	f, err := os.CreateTemp("", "pixeljudge-"+label+"-*.img")
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInternal, err, "spool %s image", label)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, errors.Wrap(errors.ErrCodeInternal, err, "spool %s image", label)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, errors.Wrap(errors.ErrCodeInternal, err, "spool %s image", label)
	}

	path := f.Name()
	return path, func() { os.Remove(path) }, nil
}
