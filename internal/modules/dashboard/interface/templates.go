package transport

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	dashboard "mesaYaWaitlist/internal/modules/dashboard/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// SiteInfo is the page header.
type SiteInfo struct {
	Title    string
	Subtitle string
}

// Renderer renders the front desk page and its regions. It implements
// echo.Renderer so handlers can use c.Render.
type Renderer struct {
	templates *template.Template
	site      SiteInfo
}

type pageData struct {
	Site  SiteInfo
	State dashboard.State
}

// NewRenderer parses the embedded templates.
func NewRenderer(site SiteInfo) (*Renderer, error) {
	tmpl, err := template.New("dashboard").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard templates: %w", err)
	}
	return &Renderer{templates: tmpl, site: site}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	if state, ok := data.(dashboard.State); ok && name == "page" {
		data = pageData{Site: r.site, State: state}
	}
	return r.templates.ExecuteTemplate(w, name, data)
}

// RenderRegion renders the inner markup of one page region.
func (r *Renderer) RenderRegion(region string, state dashboard.State) (string, error) {
	if _, ok := dashboard.ParseRegion(region); !ok {
		return "", fmt.Errorf("unknown region %q", region)
	}
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, region, state); err != nil {
		return "", fmt.Errorf("render region %s: %w", region, err)
	}
	return buf.String(), nil
}
