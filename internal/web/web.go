// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Package web holds the embedded HTML page templates for the browser
// surface: the submission form, the visualization page, and the error
// page. The JSON API under /api/v1 never touches this package.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// IndexData feeds the submission form page.
type IndexData struct {
	DefaultModel string
	DefaultText  string
	LoadedModel  string
	Username     string
}

// VizData feeds the visualization page, both the owner view and the
// public share view. HTML is sidecar output stored verbatim; it is
// marked template.HTML because escaping it would destroy the rendering.
type VizData struct {
	ID         string
	ModelName  string
	InputText  string
	ViewType   string
	TokenCount int
	Truncated  bool
	HTML       template.HTML
	CreatedAt  time.Time
	Shared     bool
	ShareToken string
	Username   string
}

// ErrorData feeds the error page for browser navigations.
type ErrorData struct {
	Status  int
	Title   string
	Message string
}

// Templates wraps the parsed page templates.
type Templates struct {
	tmpl *template.Template
}

// New parses the embedded templates. Failure here is a packaging bug,
// not a runtime condition, so callers treat it as fatal.
func New() (*Templates, error) {
	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04 UTC")
		},
	}).ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	return &Templates{tmpl: tmpl}, nil
}

// Render executes the named page template ("index", "viz", "error").
func (t *Templates) Render(w io.Writer, name string, data interface{}) error {
	return t.tmpl.ExecuteTemplate(w, name, data)
}
