// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package inference

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/nilskoch/attentia/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.InferenceConfig{
		RendererURL: srv.URL,
		Timeout:     5 * time.Second,
	})
}

func TestClientRender(t *testing.T) {
	var gotReq RenderRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/render" || r.Method != http.MethodPost {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Decode request: %v", err)
		}
		json.NewEncoder(w).Encode(RenderResult{
			HTML:       "<div id='vis'></div>",
			TokenCount: 8,
			Truncated:  false,
		})
	}))

	result, err := client.Render(context.Background(), &RenderRequest{
		ModelName: "google/gemma-2b",
		InputText: "The cat sat on the mat.",
		ViewType:  "model",
		MaxTokens: 50,
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if result.HTML == "" || result.TokenCount != 8 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if gotReq.ModelName != "google/gemma-2b" || gotReq.MaxTokens != 50 {
		t.Errorf("Request payload mismatch: %+v", gotReq)
	}
}

func TestClientRenderSidecarError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "CUDA out of memory"})
	}))

	_, err := client.Render(context.Background(), &RenderRequest{ModelName: "m"})
	if err == nil {
		t.Fatal("Expected error from 500 response")
	}
	if !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Errorf("Expected sidecar detail in error, got %v", err)
	}
	if !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("Expected status code in error, got %v", err)
	}
}

func TestClientLoadAndUnload(t *testing.T) {
	var paths []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/load" {
			var body struct {
				ModelName string `json:"model_name"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ModelName != "gpt2" {
				t.Errorf("Bad load payload: %+v err=%v", body, err)
			}
		}
		w.WriteHeader(http.StatusOK)
	}))

	if err := client.Load(context.Background(), "gpt2"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := client.Unload(context.Background()); err != nil {
		t.Fatalf("Unload failed: %v", err)
	}
	if len(paths) != 2 || paths[0] != "/load" || paths[1] != "/unload" {
		t.Errorf("Unexpected call sequence: %v", paths)
	}
}

func TestClientHealth(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(SidecarHealth{
			Status:      "ok",
			ModelLoaded: true,
			ModelName:   "gpt2",
			Version:     "1.2.0",
		})
	}))

	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if !health.ModelLoaded || health.ModelName != "gpt2" {
		t.Errorf("Unexpected health: %+v", health)
	}
}

func TestClientHealthDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	client := NewClient(&config.InferenceConfig{RendererURL: srv.URL, Timeout: time.Second})
	if _, err := client.Health(context.Background()); err == nil {
		t.Error("Expected error when sidecar is unreachable")
	}
}

func TestClientContextCancellation(t *testing.T) {
	started := make(chan struct{})
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background read; without
		// it r.Context() is never canceled on client disconnect and
		// srv.Close deadlocks in cleanup.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.Render(ctx, &RenderRequest{ModelName: "m"})
		done <- err
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Expected error after cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Render did not return after context cancellation")
	}
}
