// Package renderer integrates the external rendering collaborator.
//
// Rendering generated UI source to a bitmap is not this pipeline's job: a
// headless browser (or an equivalent screenshot service) does it, and the
// pipeline only consumes the resulting image. This package defines the
// collaborator contract and an HTTP client for a screenshot service.
package renderer

import (
	"context"
	"strings"

	"github.com/pixeljudge/pixeljudge/pkg/errors"
	"github.com/pixeljudge/pixeljudge/pkg/raster"
)

// Viewport is the fixed render viewport.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultViewport matches a common desktop layout width.
var DefaultViewport = Viewport{Width: 1280, Height: 800}

// SourceType identifies the kind of UI source being rendered.
type SourceType string

// Supported source types.
const (
	SourceHTML   SourceType = "html"
	SourceReact  SourceType = "react"
	SourceVue    SourceType = "vue"
	SourceSvelte SourceType = "svelte"
)

// supportedSources is the set of renderable source types.
var supportedSources = map[SourceType]bool{
	SourceHTML:   true,
	SourceReact:  true,
	SourceVue:    true,
	SourceSvelte: true,
}

// Source is a piece of generated UI code to render.
type Source struct {
	Type    SourceType `json:"type"`
	Content string     `json:"content"`
}

// Validate rejects sources the renderer cannot handle before any network
// call, so an unsupported type produces a clear rejection rather than a
// corrupt image.
func (s Source) Validate() error {
	if strings.TrimSpace(s.Content) == "" {
		return errors.New(errors.ErrCodeInvalidSource, "render source is empty")
	}
	if !supportedSources[s.Type] {
		return errors.New(errors.ErrCodeInvalidSource,
			"unsupported render source type: %q (supported: html, react, vue, svelte)", s.Type)
	}
	return nil
}

// Renderer is the rendering collaborator contract.
type Renderer interface {
	// Render produces a bitmap of the source at the given viewport.
	Render(ctx context.Context, src Source, viewport Viewport) (*raster.Image, error)
}
