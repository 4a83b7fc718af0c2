// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nilskoch/attentia/internal/config"
)

// mockRenderer records sidecar calls.
type mockRenderer struct {
	mu      sync.Mutex
	loads   []string
	unloads int
	renders []RenderRequest

	loadErr   error
	renderErr error
}

func (m *mockRenderer) Health(ctx context.Context) (*SidecarHealth, error) {
	return &SidecarHealth{Status: "ok"}, nil
}

func (m *mockRenderer) Load(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loads = append(m.loads, modelName)
	return nil
}

func (m *mockRenderer) Unload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unloads++
	return nil
}

func (m *mockRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.renderErr != nil {
		return nil, m.renderErr
	}
	m.renders = append(m.renders, *req)
	return &RenderResult{HTML: "<div>att</div>", TokenCount: 5}, nil
}

// mockSizes returns canned sizes/errors per model.
type mockSizes struct {
	mu    sync.Mutex
	sizes map[string]int64
	errs  map[string]error
	calls []string
}

func (m *mockSizes) ModelSize(ctx context.Context, modelName string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, modelName)
	if err, ok := m.errs[modelName]; ok {
		return 0, err
	}
	return m.sizes[modelName], nil
}

// mockStatusHub records broadcast model events.
type mockStatusHub struct {
	mu     sync.Mutex
	events []string
}

func (m *mockStatusHub) BroadcastModelStatus(modelName, status, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, modelName+":"+status)
}

func newTestSession(renderer *mockRenderer, sizes *mockSizes, hub *mockStatusHub) *Session {
	return NewSession(renderer, sizes, hub, &config.InferenceConfig{
		MaxModelBytes: 6 << 30,
		MaxTokens:     50,
	})
}

func TestSessionLoadsOnFirstRender(t *testing.T) {
	renderer := &mockRenderer{}
	sizes := &mockSizes{sizes: map[string]int64{"gpt2": 1 << 30}}
	hub := &mockStatusHub{}
	session := newTestSession(renderer, sizes, hub)

	result, err := session.Render(context.Background(), "gpt2", "hello", "head")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if result.HTML == "" {
		t.Error("Expected rendered HTML")
	}
	if len(renderer.loads) != 1 || renderer.loads[0] != "gpt2" {
		t.Errorf("Expected one load of gpt2, got %v", renderer.loads)
	}
	if session.Current() != "gpt2" {
		t.Errorf("Expected current model gpt2, got %q", session.Current())
	}
	if len(hub.events) != 1 || hub.events[0] != "gpt2:loaded" {
		t.Errorf("Expected loaded broadcast, got %v", hub.events)
	}
}

func TestSessionReusesLoadedModel(t *testing.T) {
	renderer := &mockRenderer{}
	sizes := &mockSizes{sizes: map[string]int64{"gpt2": 1 << 30}}
	session := newTestSession(renderer, sizes, &mockStatusHub{})

	for i := 0; i < 3; i++ {
		if _, err := session.Render(context.Background(), "gpt2", "hello", "head"); err != nil {
			t.Fatalf("Render %d failed: %v", i, err)
		}
	}

	if len(renderer.loads) != 1 {
		t.Errorf("Expected a single load, got %d", len(renderer.loads))
	}
	// The size check runs only on entry to the slot.
	if len(sizes.calls) != 1 {
		t.Errorf("Expected a single size check, got %d", len(sizes.calls))
	}
	if len(renderer.renders) != 3 {
		t.Errorf("Expected 3 renders, got %d", len(renderer.renders))
	}
}

func TestSessionSwitchUnloadsOldModel(t *testing.T) {
	renderer := &mockRenderer{}
	sizes := &mockSizes{sizes: map[string]int64{"gpt2": 1 << 30, "distilbert-base-uncased": 1 << 28}}
	hub := &mockStatusHub{}
	session := newTestSession(renderer, sizes, hub)

	if _, err := session.Render(context.Background(), "gpt2", "a", "head"); err != nil {
		t.Fatalf("First render failed: %v", err)
	}
	if _, err := session.Render(context.Background(), "distilbert-base-uncased", "a", "head"); err != nil {
		t.Fatalf("Second render failed: %v", err)
	}

	if renderer.unloads != 1 {
		t.Errorf("Expected one unload on switch, got %d", renderer.unloads)
	}
	if got := renderer.loads; len(got) != 2 || got[1] != "distilbert-base-uncased" {
		t.Errorf("Unexpected load sequence: %v", got)
	}
	if session.Current() != "distilbert-base-uncased" {
		t.Errorf("Expected current distilbert-base-uncased, got %q", session.Current())
	}
	want := []string{"gpt2:loaded", "gpt2:unloaded", "distilbert-base-uncased:loaded"}
	if len(hub.events) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, hub.events)
	}
	for i := range want {
		if hub.events[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], hub.events[i])
		}
	}
}

func TestSessionRejectsTooLargeModel(t *testing.T) {
	renderer := &mockRenderer{}
	sizes := &mockSizes{sizes: map[string]int64{"huge/model": 8 << 30}}
	session := newTestSession(renderer, sizes, &mockStatusHub{})

	_, err := session.Render(context.Background(), "huge/model", "a", "head")
	if !errors.Is(err, ErrModelTooLarge) {
		t.Fatalf("Expected ErrModelTooLarge, got %v", err)
	}

	var sizeErr *ModelSizeError
	if !errors.As(err, &sizeErr) {
		t.Fatal("Expected *ModelSizeError")
	}
	if sizeErr.SizeBytes != 8<<30 {
		t.Errorf("Expected size 8GB, got %d", sizeErr.SizeBytes)
	}
	if len(renderer.loads) != 0 {
		t.Error("Rejected model must not be loaded")
	}
	if session.Current() != "" {
		t.Errorf("Slot must stay free after rejection, got %q", session.Current())
	}
}

func TestSessionRejectsGatedModel(t *testing.T) {
	renderer := &mockRenderer{}
	sizes := &mockSizes{errs: map[string]error{
		"meta-llama/Llama-2-7b": fmt.Errorf("%w: meta-llama/Llama-2-7b", ErrModelGated),
	}}
	session := newTestSession(renderer, sizes, &mockStatusHub{})

	_, err := session.Render(context.Background(), "meta-llama/Llama-2-7b", "a", "head")
	if !errors.Is(err, ErrModelGated) {
		t.Fatalf("Expected ErrModelGated, got %v", err)
	}
	if len(renderer.loads) != 0 {
		t.Error("Gated model must not be loaded")
	}
}

func TestSessionRejectionKeepsCurrentModel(t *testing.T) {
	renderer := &mockRenderer{}
	sizes := &mockSizes{sizes: map[string]int64{"gpt2": 1 << 30, "huge/model": 8 << 30}}
	session := newTestSession(renderer, sizes, &mockStatusHub{})

	if _, err := session.Render(context.Background(), "gpt2", "a", "head"); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if _, err := session.Render(context.Background(), "huge/model", "a", "head"); err == nil {
		t.Fatal("Expected rejection")
	}

	// Rejection happens before the old model is touched.
	if renderer.unloads != 0 {
		t.Errorf("Expected no unload on rejection, got %d", renderer.unloads)
	}
	if session.Current() != "gpt2" {
		t.Errorf("Expected gpt2 still loaded, got %q", session.Current())
	}
}

func TestSessionUnload(t *testing.T) {
	renderer := &mockRenderer{}
	sizes := &mockSizes{sizes: map[string]int64{"gpt2": 1 << 30}}
	hub := &mockStatusHub{}
	session := newTestSession(renderer, sizes, hub)

	if _, err := session.Render(context.Background(), "gpt2", "a", "head"); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if err := session.Unload(context.Background()); err != nil {
		t.Fatalf("Unload failed: %v", err)
	}
	if session.Current() != "" {
		t.Errorf("Expected free slot, got %q", session.Current())
	}
	if renderer.unloads != 1 {
		t.Errorf("Expected one unload, got %d", renderer.unloads)
	}

	// Unloading a free slot is a no-op.
	if err := session.Unload(context.Background()); err != nil {
		t.Errorf("Unload of free slot returned error: %v", err)
	}
	if renderer.unloads != 1 {
		t.Errorf("Free-slot unload must not call the sidecar, got %d", renderer.unloads)
	}
}

func TestSessionLoadFailure(t *testing.T) {
	renderer := &mockRenderer{loadErr: errors.New("sidecar exploded")}
	sizes := &mockSizes{sizes: map[string]int64{"gpt2": 1 << 30}}
	hub := &mockStatusHub{}
	session := newTestSession(renderer, sizes, hub)

	_, err := session.Render(context.Background(), "gpt2", "a", "head")
	if err == nil {
		t.Fatal("Expected load error")
	}
	if session.Current() != "" {
		t.Errorf("Slot must stay free after failed load, got %q", session.Current())
	}
	if len(hub.events) != 1 || hub.events[0] != "gpt2:load_failed" {
		t.Errorf("Expected load_failed broadcast, got %v", hub.events)
	}
}

func TestSessionConcurrentRenders(t *testing.T) {
	renderer := &mockRenderer{}
	sizes := &mockSizes{sizes: map[string]int64{"gpt2": 1 << 30}}
	session := newTestSession(renderer, sizes, &mockStatusHub{})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := session.Render(context.Background(), "gpt2", "a", "head"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Concurrent render failed: %v", err)
	}

	if len(renderer.loads) != 1 {
		t.Errorf("Expected a single load under concurrency, got %d", len(renderer.loads))
	}
	if len(renderer.renders) != 8 {
		t.Errorf("Expected 8 renders, got %d", len(renderer.renders))
	}
}

func TestSessionNilHub(t *testing.T) {
	renderer := &mockRenderer{}
	sizes := &mockSizes{sizes: map[string]int64{"gpt2": 1 << 30}}
	session := NewSession(renderer, sizes, nil, &config.InferenceConfig{})

	if _, err := session.Render(context.Background(), "gpt2", "a", "head"); err != nil {
		t.Fatalf("Render with nil hub failed: %v", err)
	}
}
