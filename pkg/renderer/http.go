package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pixeljudge/pixeljudge/pkg/errors"
	"github.com/pixeljudge/pixeljudge/pkg/httputil"
	"github.com/pixeljudge/pixeljudge/pkg/raster"
)

// HTTPRenderer renders via a screenshot service: it POSTs the source and
// viewport as JSON and expects a PNG (or JPEG) bitmap back.
type HTTPRenderer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPRenderer creates a renderer client for the given service endpoint.
func NewHTTPRenderer(endpoint string) (*HTTPRenderer, error) {
	if err := errors.ValidateURL(endpoint); err != nil {
		return nil, err
	}
	return &HTTPRenderer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// renderRequest is the wire shape of a render call.
type renderRequest struct {
	Type     string   `json:"type"`
	Content  string   `json:"content"`
	Viewport Viewport `json:"viewport"`
}

// Render submits the source and decodes the returned bitmap.
// Transient failures (network errors, 5xx) are retried with backoff;
// rejections (4xx) are returned immediately.
func (r *HTTPRenderer) Render(ctx context.Context, src Source, viewport Viewport) (*raster.Image, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = DefaultViewport
	}

	body, err := json.Marshal(renderRequest{
		Type:     string(src.Type),
		Content:  src.Content,
		Viewport: viewport,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode render request")
	}

	var img *raster.Image
	err = httputil.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "image/png")

		resp, err := r.client.Do(req)
		if err != nil {
			return httputil.Retryable(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			return httputil.Retryable(fmt.Errorf("renderer returned %s", resp.Status))
		case resp.StatusCode != http.StatusOK:
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return errors.New(errors.ErrCodeRenderer, "renderer rejected source: %s: %s", resp.Status, detail)
		}

		decoded, err := raster.DecodeReader(resp.Body)
		if err != nil {
			return errors.Wrap(errors.ErrCodeRenderer, err, "renderer returned an undecodable image")
		}
		img = decoded
		return nil
	})
	if err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeRenderer, err, "render request failed")
	}
	return img, nil
}

// Ensure HTTPRenderer implements Renderer.
var _ Renderer = (*HTTPRenderer)(nil)
