// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validateHTTPURL validates that a URL is a well-formed HTTP/HTTPS base URL.
// Used for RENDERER_URL and HF_HUB_URL validation.
func validateHTTPURL(rawURL, name string) error {
	if rawURL == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", name, u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}

	// Base URLs should not include query strings or fragments
	if u.RawQuery != "" {
		return fmt.Errorf("%s must not include a query string", name)
	}
	if u.Fragment != "" {
		return fmt.Errorf("%s must not include a fragment", name)
	}

	return nil
}

// validateNATSURL validates a NATS server URL.
// Accepts nats://, tls://, ws://, and wss:// schemes.
func validateNATSURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("NATS_URL cannot be empty when NATS is enabled")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("NATS_URL is not a valid URL: %w", err)
	}

	validSchemes := map[string]bool{
		"nats": true,
		"tls":  true,
		"ws":   true,
		"wss":  true,
	}
	if !validSchemes[u.Scheme] {
		return fmt.Errorf("NATS_URL must use nats, tls, ws, or wss scheme, got %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("NATS_URL must include a host")
	}

	return nil
}

// validateOIDCIssuerURL validates an OIDC issuer URL.
// Unlike base URLs, issuer URLs may include a path component
// (e.g. https://keycloak.example.com/realms/attentia).
func validateOIDCIssuerURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("OIDC_ISSUER_URL cannot be empty when auth mode is oidc")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("OIDC_ISSUER_URL is not a valid URL: %w", err)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("OIDC_ISSUER_URL must use http or https scheme, got %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("OIDC_ISSUER_URL must include a host")
	}

	// Issuer URLs must not contain query strings or fragments per OIDC Discovery spec
	if u.RawQuery != "" {
		return fmt.Errorf("OIDC_ISSUER_URL must not include a query string")
	}
	if u.Fragment != "" {
		return fmt.Errorf("OIDC_ISSUER_URL must not include a fragment")
	}

	// Trailing slashes cause issuer mismatch during discovery
	if strings.HasSuffix(u.Path, "/") && u.Path != "/" {
		return fmt.Errorf("OIDC_ISSUER_URL must not end with a trailing slash")
	}

	return nil
}
