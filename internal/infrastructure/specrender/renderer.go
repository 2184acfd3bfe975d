// Package specrender renders specification sheets as storefront HTML.
package specrender

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/enrichment/backend/internal/domain/enrichment"
)

// EmptyPlaceholder is shown by the grouped view when there are no specifications
const EmptyPlaceholder = "No specifications available."

// DefaultHighlightsTitle heads the highlights block
const DefaultHighlightsTitle = "Key features"

const highlightsTemplate = `<div class="mt-3"><h3>{{.Title}}</h3><ul class="list-unstyled row row-cols-1 row-cols-md-2 g-2">
{{- range .Rows}}<li class="col"><strong>{{.Name}}</strong>: {{.Value}}</li>{{end -}}
</ul></div>`

const sectionsTemplate = `<div class="accordion mt-4" id="{{.ID}}">
{{- range $i, $s := .Sections}}
<div class="accordion-item">
<h2 class="accordion-header" id="heading{{$i}}"><button class="accordion-button{{if not $s.Expanded}} collapsed{{end}}" type="button" data-bs-toggle="collapse" data-bs-target="#collapse{{$i}}" aria-expanded="{{$s.Expanded}}" aria-controls="collapse{{$i}}">{{$s.Title}}</button></h2>
<div id="collapse{{$i}}" class="accordion-collapse collapse{{if $s.Expanded}} show{{end}}" aria-labelledby="heading{{$i}}" data-bs-parent="#{{$.ID}}">
<div class="accordion-body p-0"><table class="table table-sm table-striped mb-0"><tbody>
{{- range $s.Rows}}<tr><td class="w-50">{{.Name}}</td><td>{{.Value}}</td></tr>{{end -}}
</tbody></table></div>
</div>
</div>
{{- end}}
</div>`

const groupedTemplate = `{{- if not .Groups}}<p>{{.Placeholder}}</p>{{else}}<div class="icecat-specifications">
{{- range .Groups}}
<div class="specs-group"><h4 class="specs-group-title">{{.Name}}</h4><table class="table table-sm table-striped specs-table"><tbody>
{{- range .Rows}}<tr><td class="spec-key"><strong>{{.Name}}</strong></td><td class="spec-value">{{.Value}}</td></tr>{{end -}}
</tbody></table></div>
{{- end}}
</div>{{end}}`

// Renderer renders specification sheets with html/template, escaping upstream text
type Renderer struct {
	highlights      *template.Template
	sections        *template.Template
	grouped         *template.Template
	highlightsTitle string
	accordionID     string
}

// Option configures the renderer
type Option func(*Renderer)

// WithHighlightsTitle overrides the highlights heading
func WithHighlightsTitle(title string) Option {
	return func(r *Renderer) {
		if strings.TrimSpace(title) != "" {
			r.highlightsTitle = title
		}
	}
}

// WithAccordionID overrides the id of the accordion container
func WithAccordionID(id string) Option {
	return func(r *Renderer) {
		if id != "" {
			r.accordionID = id
		}
	}
}

// New parses the templates and returns a renderer
func New(opts ...Option) *Renderer {
	r := &Renderer{
		highlights:      template.Must(template.New("highlights").Parse(highlightsTemplate)),
		sections:        template.Must(template.New("sections").Parse(sectionsTemplate)),
		grouped:         template.Must(template.New("grouped").Parse(groupedTemplate)),
		highlightsTitle: DefaultHighlightsTitle,
		accordionID:     "productSpecifications",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderHighlights renders the highlights list, or "" when rows is empty
func (r *Renderer) RenderHighlights(rows []enrichment.SpecRow) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	return execute(r.highlights, struct {
		Title string
		Rows  []enrichment.SpecRow
	}{r.highlightsTitle, rows})
}

// RenderSections renders one collapsible accordion item per section
func (r *Renderer) RenderSections(sections []enrichment.SpecSection) (string, error) {
	return execute(r.sections, struct {
		ID       string
		Sections []enrichment.SpecSection
	}{r.accordionID, sections})
}

type groupView struct {
	Name string
	Rows []enrichment.SpecRow
}

// RenderGrouped renders plain tables per group, or the placeholder when there is nothing to show
func (r *Renderer) RenderGrouped(groups []enrichment.SpecGroup) (string, error) {
	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		v := groupView{Name: g.Name}
		for _, spec := range g.Specs {
			v.Rows = append(v.Rows, enrichment.SpecRow{Name: spec.Name, Value: spec.DisplayValue()})
		}
		views = append(views, v)
	}
	return execute(r.grouped, struct {
		Groups      []groupView
		Placeholder string
	}{views, EmptyPlaceholder})
}

func execute(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// Ensure Renderer implements SpecRenderer
var _ enrichment.SpecRenderer = (*Renderer)(nil)
