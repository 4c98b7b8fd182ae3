package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/flosch/pongo2/v6"
	theme "github.com/goliatone/go-theme"
)

//go:embed templates/*.html
var templatesFS embed.FS

const htmlTemplateName = "templates/form.html"

// HTMLOption configures the HTML renderer.
type HTMLOption func(*htmlConfig)

type htmlConfig struct {
	templates fs.FS
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) HTMLOption {
	return func(cfg *htmlConfig) {
		if files != nil {
			cfg.templates = files
		}
	}
}

// HTMLRenderer renders a Form as a standalone HTML document.
type HTMLRenderer struct {
	set *pongo2.TemplateSet
}

var _ Renderer = (*HTMLRenderer)(nil)

// NewHTML constructs the HTML renderer applying any provided options.
func NewHTML(options ...HTMLOption) (*HTMLRenderer, error) {
	cfg := htmlConfig{templates: templatesFS}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return &HTMLRenderer{
		set: pongo2.NewSet("recordform", pongo2.NewFSLoader(cfg.templates)),
	}, nil
}

func (r *HTMLRenderer) Name() string {
	return "html"
}

func (r *HTMLRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render executes the form template with the view model and theme context.
func (r *HTMLRenderer) Render(ctx context.Context, form Form, options Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpl, err := r.set.FromFile(htmlTemplateName)
	if err != nil {
		return nil, fmt.Errorf("render: load template %q: %w", htmlTemplateName, err)
	}

	var buf bytes.Buffer
	err = tmpl.ExecuteWriter(pongo2.Context{
		"form":  form,
		"theme": buildThemeContext(options.Theme),
	}, &buf)
	if err != nil {
		return nil, fmt.Errorf("render: execute template: %w", err)
	}
	return buf.Bytes(), nil
}

type themeContext struct {
	Name          string
	Variant       string
	CSSVarsStyle  string
	StylesheetURL string
}

func buildThemeContext(cfg *theme.RendererConfig) themeContext {
	if cfg == nil {
		return themeContext{}
	}
	ctx := themeContext{
		Name:         cfg.Theme,
		Variant:      cfg.Variant,
		CSSVarsStyle: cssVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		ctx.StylesheetURL = cfg.AssetURL("form.css")
	}
	return ctx
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteString(": ")
		sb.WriteString(vars[key])
		sb.WriteString("; ")
	}
	return strings.TrimSpace(sb.String())
}
