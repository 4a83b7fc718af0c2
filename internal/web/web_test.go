// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package web

import (
	"bytes"
	"html/template"
	"strings"
	"testing"
	"time"
)

func TestNewParsesEmbeddedTemplates(t *testing.T) {
	if _, err := New(); err != nil {
		t.Fatalf("New: %v", err)
	}
}

func TestRenderIndex(t *testing.T) {
	pages, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	err = pages.Render(&buf, "index", IndexData{
		DefaultModel: "google/gemma-2b",
		DefaultText:  "The cat sat on the mat.",
		LoadedModel:  "gpt2",
		Username:     "ada",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`value="google/gemma-2b"`,
		"The cat sat on the mat.",
		"gpt2",
		"Signed in as ada",
		`action="/visualize"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("index output missing %q", want)
		}
	}
}

func TestRenderVizKeepsSidecarHTMLUnescaped(t *testing.T) {
	pages, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	err = pages.Render(&buf, "viz", VizData{
		ID:         "abc",
		ModelName:  "gpt2",
		InputText:  "The cat sat on the mat.",
		ViewType:   "head",
		TokenCount: 7,
		Truncated:  true,
		HTML:       template.HTML(`<div id="bertviz"><svg></svg></div>`),
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Shared:     true,
		ShareToken: "tok123",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `<div id="bertviz"><svg></svg></div>`) {
		t.Error("sidecar HTML was escaped or dropped")
	}
	if !strings.Contains(out, "input truncated") {
		t.Error("missing truncation notice")
	}
	if !strings.Contains(out, "/share/tok123") {
		t.Error("missing share link")
	}
	if !strings.Contains(out, "Switch to Model View") {
		t.Error("head view should offer switch to model view")
	}
}

func TestRenderVizSwitchFormCarriesInput(t *testing.T) {
	pages, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	err = pages.Render(&buf, "viz", VizData{
		ModelName: "gpt2",
		InputText: "hello world",
		ViewType:  "model",
		HTML:      template.HTML("<div></div>"),
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `name="text" value="hello world"`) {
		t.Error("switch form must carry the original input text")
	}
	if !strings.Contains(out, `value="head"`) {
		t.Error("model view should switch back to head view")
	}
}

func TestRenderError(t *testing.T) {
	pages, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var buf bytes.Buffer
	err = pages.Render(&buf, "error", ErrorData{
		Status:  404,
		Title:   "Not Found",
		Message: "Visualization not found",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "404 Not Found") || !strings.Contains(out, "Visualization not found") {
		t.Errorf("unexpected error page output: %s", out)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	pages, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := pages.Render(&bytes.Buffer{}, "missing", nil); err == nil {
		t.Fatal("expected error for unknown template name")
	}
}
