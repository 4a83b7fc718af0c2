// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to manage Docker containers for integration tests,
// providing realistic testing environments that closely match production. All of it is
// behind the integration build tag:
//
//	go test -tags integration ./...
//
// # Renderer Container
//
// The RendererContainer runs a real attention renderer sidecar so the
// inference client can be tested against the actual wire protocol:
//
//	func TestRendererRoundTrip(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//
//	    ctx := context.Background()
//	    renderer, err := testinfra.NewRendererContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer renderer.Terminate(ctx)
//
//	    client := inference.NewClient(&config.InferenceConfig{RendererURL: renderer.URL})
//	    if err := client.Load(ctx, testinfra.DefaultRendererModel); err != nil {
//	        t.Fatal(err)
//	    }
//	    // ...
//	}
//
// # Benefits Over Mocks
//
// The sidecar's load and render latency, its error bodies for unknown or
// gated models, and its health payload all come from the real service, so
// these tests catch protocol drift that handler-level stubs cannot.
//
// Tests skip gracefully when Docker is unavailable via SkipIfNoDocker.
package testinfra
