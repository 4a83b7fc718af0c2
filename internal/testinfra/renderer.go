// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultRendererImage is the attention renderer sidecar image.
	DefaultRendererImage = "ghcr.io/nilskoch/attentia-renderer:latest"

	// DefaultRendererPort is the sidecar HTTP port.
	DefaultRendererPort = "8001"

	// DefaultRendererModel is a small model the sidecar can load quickly
	// in CI without a GPU.
	DefaultRendererModel = "prajjwal1/bert-tiny"
)

// RendererContainer represents a running renderer sidecar for testing.
// The sidecar serves GET /health, POST /load, POST /unload and POST /render,
// matching the inference.Client wire protocol.
type RendererContainer struct {
	testcontainers.Container
	URL string
}

// RendererOption configures the renderer container.
type RendererOption func(*rendererConfig)

type rendererConfig struct {
	image        string
	cacheDir     string
	startTimeout time.Duration
}

// WithRendererImage sets a custom renderer Docker image.
func WithRendererImage(image string) RendererOption {
	return func(c *rendererConfig) {
		c.image = image
	}
}

// WithModelCacheDir mounts a host directory as the HuggingFace cache so
// repeated test runs do not re-download model weights.
func WithModelCacheDir(dir string) RendererOption {
	return func(c *rendererConfig) {
		c.cacheDir = dir
	}
}

// WithRendererStartTimeout sets the timeout for waiting for the sidecar to start.
func WithRendererStartTimeout(timeout time.Duration) RendererOption {
	return func(c *rendererConfig) {
		c.startTimeout = timeout
	}
}

// NewRendererContainer creates and starts a renderer sidecar container.
//
// Example:
//
//	ctx := context.Background()
//	renderer, err := NewRendererContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer renderer.Terminate(ctx)
//
//	client := inference.NewClient(&config.InferenceConfig{RendererURL: renderer.URL})
//	health, err := client.Health(ctx)
func NewRendererContainer(ctx context.Context, opts ...RendererOption) (*RendererContainer, error) {
	cfg := &rendererConfig{
		image:        DefaultRendererImage,
		startTimeout: 120 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultRendererPort + "/tcp"},
		Env: map[string]string{
			"RENDERER_PORT": DefaultRendererPort,
			// Keep CPU-only for CI runners
			"CUDA_VISIBLE_DEVICES": "",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultRendererPort+"/tcp"),
			wait.ForHTTP("/health").WithPort(DefaultRendererPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	if cfg.cacheDir != "" {
		req.Env["HF_HOME"] = "/cache/huggingface"
		hostDir := cfg.cacheDir
		req.HostConfigModifier = func(hc *dockercontainer.HostConfig) {
			hc.Binds = append(hc.Binds, hostDir+":/cache/huggingface")
		}
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create renderer container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, DefaultRendererPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &RendererContainer{
		Container: container,
		URL:       fmt.Sprintf("http://%s:%s", host, port.Port()),
	}, nil
}

// Terminate stops and removes the renderer container.
func (c *RendererContainer) Terminate(ctx context.Context) error {
	return c.Container.Terminate(ctx)
}

// Logs returns the container logs for debugging.
func (c *RendererContainer) Logs(ctx context.Context) (string, error) {
	reader, err := c.Container.Logs(ctx)
	if err != nil {
		return "", fmt.Errorf("get logs: %w", err)
	}
	defer reader.Close()

	var logs []byte
	buf := make([]byte, 1024)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			logs = append(logs, buf[:n]...)
		}
		if err != nil {
			break
		}
	}

	return string(logs), nil
}
