// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package inference

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/nilskoch/attentia/internal/config"
)

func int64Ptr(v int64) *int64 { return &v }

func newTestHub(t *testing.T, handler http.Handler) *HubClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHubClient(&config.InferenceConfig{HFHubURL: srv.URL})
}

func TestModelSizeSafetensorsPreferred(t *testing.T) {
	hub := newTestHub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/models/google/gemma-2b" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("blobs") != "true" {
			t.Error("Expected blobs=true query")
		}
		json.NewEncoder(w).Encode(hubModelInfo{Siblings: []hubSibling{
			{Rfilename: "model-00001-of-00002.safetensors", Size: int64Ptr(3 << 30)},
			{Rfilename: "model-00002-of-00002.safetensors", Size: int64Ptr(2 << 30)},
			{Rfilename: "pytorch_model.bin", Size: int64Ptr(9 << 30)}, // ignored
			{Rfilename: "config.json", Size: int64Ptr(2048)},          // ignored
		}})
	}))

	size, err := hub.ModelSize(context.Background(), "google/gemma-2b")
	if err != nil {
		t.Fatalf("ModelSize failed: %v", err)
	}
	if want := int64(5 << 30); size != want {
		t.Errorf("Expected %d bytes, got %d", want, size)
	}
}

func TestModelSizeBinFallback(t *testing.T) {
	hub := newTestHub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(hubModelInfo{Siblings: []hubSibling{
			{Rfilename: "pytorch_model.bin", Size: int64Ptr(1 << 30)},
			{Rfilename: "vocab.txt", Size: int64Ptr(500000)},
			{Rfilename: "tokenizer.json", Size: nil}, // missing size skipped
		}})
	}))

	size, err := hub.ModelSize(context.Background(), "gpt2")
	if err != nil {
		t.Fatalf("ModelSize failed: %v", err)
	}
	if want := int64(1 << 30); size != want {
		t.Errorf("Expected %d bytes, got %d", want, size)
	}
}

func TestModelSizeGated(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		hub := newTestHub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := hub.ModelSize(context.Background(), "meta-llama/Llama-2-7b")
		if !errors.Is(err, ErrModelGated) {
			t.Errorf("Status %d: expected ErrModelGated, got %v", status, err)
		}
	}
}

func TestModelSizeNotFound(t *testing.T) {
	hub := newTestHub(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := hub.ModelSize(context.Background(), "nobody/no-such-model")
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound, got %v", err)
	}
}

func TestModelSizeSendsToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(hubModelInfo{})
	}))
	t.Cleanup(srv.Close)

	hub := NewHubClient(&config.InferenceConfig{HFHubURL: srv.URL, HFToken: "hf_secret"})
	if _, err := hub.ModelSize(context.Background(), "gpt2"); err != nil {
		t.Fatalf("ModelSize failed: %v", err)
	}
	if gotAuth != "Bearer hf_secret" {
		t.Errorf("Expected bearer token header, got %q", gotAuth)
	}
}

func TestModelSizeErrorMessage(t *testing.T) {
	err := &ModelSizeError{
		ModelName:  "big/model",
		SizeBytes:  8 << 30,
		LimitBytes: 6 << 30,
	}
	if !errors.Is(err, ErrModelTooLarge) {
		t.Error("ModelSizeError must unwrap to ErrModelTooLarge")
	}
	msg := err.Error()
	if msg != "model big/model is 8.00 GB (limit: 6.00 GB)" {
		t.Errorf("Unexpected message: %q", msg)
	}
}
