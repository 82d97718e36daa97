package resolve

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	sprig "github.com/go-task/slim-sprig/v3"

	"imgres/asset"
)

// DefaultMarkup is used when no template is configured.
const DefaultMarkup = `<img class="custom-image-embed" src="{{ .Src }}" alt="{{ .Name }}" title="{{ .Name }}">`

// Values is what markup template can use.
type Values struct {
	Name   string
	Raw    string
	Src    template.URL
	Inline bool
	Scope  string
	Tier   string
}

// Markup renders substitution for resolved placeholder.
type Markup struct {
	tmpl *template.Template
}

func NewMarkup(text string) (*Markup, error) {
	if len(strings.TrimSpace(text)) == 0 {
		text = DefaultMarkup
	}
	tmpl, err := template.New("markup").Funcs(sprig.HtmlFuncMap()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("unable to parse markup template: %w", err)
	}
	return &Markup{tmpl: tmpl}, nil
}

func (m *Markup) Render(v Values) (string, error) {
	buf := new(bytes.Buffer)
	if err := m.tmpl.Execute(buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// safeSrc trusts inline data and plain web URLs, anything else is neutered.
func safeSrc(loc asset.Location) template.URL {
	src := loc.Source()
	if loc.IsInline() {
		return template.URL(src)
	}
	u, err := url.Parse(src)
	if err != nil {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https":
		return template.URL(u.String())
	}
	return "#"
}
