// Package assets embeds the page sources and renders the single page application.
package assets

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

//go:embed index.html.tpl style.css script.js theme.svg favicon.svg
var files embed.FS

// Favicon is the minified site icon.
var Favicon = mustMinify("image/svg+xml", "favicon.svg")

// PageData is the client visible part of the configuration.
type PageData struct {
	Config      interface{} // serialized into the app-config JSON block
	Title       string
	Description string
}

type templateData struct {
	Title       string
	Description string
	Config      string
	CSS         string
	JS          string
	SVG         string
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}

func minifyFile(m *minify.M, mediaType, name string) (string, error) {
	raw, err := files.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	out, err := m.String(mediaType, string(raw))
	if err != nil {
		return "", fmt.Errorf("minify %s: %w", name, err)
	}
	return out, nil
}

func mustMinify(mediaType, name string) []byte {
	out, err := minifyFile(newMinifier(), mediaType, name)
	if err != nil {
		panic(err)
	}
	return []byte(out)
}

// Render executes the page template with inlined, minified CSS, JS and SVG
// and minifies the resulting HTML.
func Render(data PageData) ([]byte, error) {
	m := newMinifier()

	cssMin, err := minifyFile(m, "text/css", "style.css")
	if err != nil {
		return nil, err
	}
	jsMin, err := minifyFile(m, "text/javascript", "script.js")
	if err != nil {
		return nil, err
	}
	svgMin, err := minifyFile(m, "image/svg+xml", "theme.svg")
	if err != nil {
		return nil, err
	}

	cfgJSON := []byte("{}")
	if data.Config != nil {
		// json.Marshal escapes <, > and & so the value cannot close the script block
		if cfgJSON, err = json.Marshal(data.Config); err != nil {
			return nil, fmt.Errorf("encode page config: %w", err)
		}
	}

	raw, err := files.ReadFile("index.html.tpl")
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New("index").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, templateData{
		Title:       data.Title,
		Description: data.Description,
		Config:      string(cfgJSON),
		CSS:         cssMin,
		JS:          jsMin,
		SVG:         svgMin,
	})
	if err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	out, err := m.Bytes("text/html", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify html: %w", err)
	}
	return out, nil
}
