// Package render turns a resolved form schema into presentable output. The
// package defines the view model and renderer contract; concrete renderers
// (HTML today) register themselves in a Registry.
package render

import (
	"context"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-recordform/pkg/codec"
)

// Options carry per-request data a renderer can use without mutating the
// form view pipeline.
type Options struct {
	// Theme supplies resolved theme tokens, CSS variables, and asset
	// resolution. Nil renders unthemed output.
	Theme *theme.RendererConfig
	// Values pre-populates controls, keyed by column id.
	Values map[string]codec.FormValue
	// Errors surfaces validation feedback keyed by column id.
	Errors map[string][]string
}

// Renderer converts a Form into a byte representation.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form Form, options Options) ([]byte, error)
}
