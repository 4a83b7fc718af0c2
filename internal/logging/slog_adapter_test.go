// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandlerEnabled(t *testing.T) {
	t.Parallel()

	logger := zerolog.New(nil).Level(zerolog.InfoLevel)
	handler := NewSlogHandlerWithLogger(logger)

	if !handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info to be enabled at info level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected error to be enabled at info level")
	}
	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug to be disabled at info level")
	}
}

func TestSlogHandlerHandle(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		want  string
	}{
		{"debug", slog.LevelDebug, `"level":"debug"`},
		{"info", slog.LevelInfo, `"level":"info"`},
		{"warn", slog.LevelWarn, `"level":"warn"`},
		{"error", slog.LevelError, `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
			handler := NewSlogHandlerWithLogger(logger)

			record := slog.NewRecord(time.Now(), tt.level, "test message", 0)
			if err := handler.Handle(context.Background(), record); err != nil {
				t.Fatalf("Handle returned error: %v", err)
			}

			output := buf.String()
			if !strings.Contains(output, tt.want) {
				t.Errorf("expected %s in output: %s", tt.want, output)
			}
			if !strings.Contains(output, "test message") {
				t.Errorf("expected message in output: %s", output)
			}
		})
	}
}

func TestSlogHandlerAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
	handler := NewSlogHandlerWithLogger(logger)

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "attrs", 0)
	record.AddAttrs(
		slog.String("str", "value"),
		slog.Int64("int", 42),
		slog.Bool("flag", true),
		slog.Duration("dur", time.Second),
	)

	if err := handler.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{`"str":"value"`, `"int":42`, `"flag":true`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output: %s", want, output)
		}
	}
}

func TestSlogHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
	handler := NewSlogHandlerWithLogger(logger)

	withAttrs := handler.WithAttrs([]slog.Attr{slog.String("service", "attentia")})

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "with attrs", 0)
	if err := withAttrs.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, `"service":"attentia"`) {
		t.Errorf("expected pre-configured attr in output: %s", output)
	}

	// Original handler must be unchanged
	buf.Reset()
	record = slog.NewRecord(time.Now(), slog.LevelInfo, "original", 0)
	if err := handler.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if strings.Contains(buf.String(), "service") {
		t.Errorf("original handler mutated: %s", buf.String())
	}
}

func TestSlogHandlerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
	handler := NewSlogHandlerWithLogger(logger)

	grouped := handler.WithGroup("http")

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "grouped", 0)
	record.AddAttrs(slog.String("method", "GET"))

	if err := grouped.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, `"http.method":"GET"`) {
		t.Errorf("expected group-prefixed key in output: %s", output)
	}
}

func TestSlogHandlerWithGroupEmpty(t *testing.T) {
	t.Parallel()

	handler := NewSlogHandler()
	if handler.WithGroup("") != handler {
		t.Error("expected empty group name to return same handler")
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		slogLevel slog.Level
		want      zerolog.Level
	}{
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		got := slogToZerologLevel(tt.slogLevel)
		if got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.slogLevel, got, tt.want)
		}
	}
}

func TestNewSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).Level(zerolog.TraceLevel))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	slogger := NewSlogLogger()
	slogger.Info("via slog", "key", "value")

	output := buf.String()
	if !strings.Contains(output, "via slog") {
		t.Errorf("expected slog message in zerolog output: %s", output)
	}
	if !strings.Contains(output, `"key":"value"`) {
		t.Errorf("expected slog attr in zerolog output: %s", output)
	}
}
