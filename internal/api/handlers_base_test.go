// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/nilskoch/attentia/internal/audit"
	"github.com/nilskoch/attentia/internal/auth"
	"github.com/nilskoch/attentia/internal/cache"
	"github.com/nilskoch/attentia/internal/config"
	"github.com/nilskoch/attentia/internal/database"
	"github.com/nilskoch/attentia/internal/models"
	"github.com/nilskoch/attentia/internal/web"
)

// testDBSemaphore serializes DuckDB creation; concurrent CGO connection
// setup can hang under CI resource pressure.
var testDBSemaphore = make(chan struct{}, 1)

var testDBMutex sync.Mutex

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Path:        ":memory:",
		MaxMemory:   "1GB",
		SkipIndexes: true,
	}

	type result struct {
		db  *database.DB
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		testDBMutex.Lock()
		db, err := database.New(cfg)
		testDBMutex.Unlock()
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() { res.db.Close() })
		return res.db
	case <-time.After(120 * time.Second):
		t.Fatalf("Timeout creating test database")
		return nil
	}
}

// testEnv bundles the handler stack for HTTP-level tests.
type testEnv struct {
	handler *Handler
	router  http.Handler
	db      *database.DB
	jwt     *auth.JWTManager
	cfg     *config.Config
	store   *audit.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)

	cfg := &config.Config{
		Security: config.SecurityConfig{
			AuthMode:          "local",
			JWTSecret:         "test-secret-at-least-32-characters-long",
			SessionTimeout:    time.Hour,
			RateLimitDisabled: true,
			CORSOrigins:       []string{"http://localhost:3000"},
			SignupEnabled:     true,
			SignupRole:        models.RoleEditor,
		},
		Inference: config.InferenceConfig{
			DefaultModel: "google/gemma-2b",
		},
		API: config.APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	pages, err := web.New()
	if err != nil {
		t.Fatalf("web.New: %v", err)
	}

	store := audit.NewMemoryStore(1000)
	auditor := audit.NewLogger(store, nil)
	t.Cleanup(func() { auditor.Close() })

	handler := NewHandler(HandlerDeps{
		DB:         db,
		Config:     cfg,
		JWTManager: jwtManager,
		RespCache:  cache.New(time.Minute),
		Auditor:    auditor,
		Pages:      pages,
		Version:    "test",
	})

	authMW := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode,
		cfg.Security.RateLimitReqs, cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled, cfg.Security.CORSOrigins,
		cfg.Security.TrustedProxies)
	chiMW := NewChiMiddlewareFromSecurity(cfg.Security.CORSOrigins, 0, 0, true)

	router := NewRouter(handler, NewAuditHandlers(store), authMW, nil, chiMW).Setup()

	return &testEnv{
		handler: handler,
		router:  router,
		db:      db,
		jwt:     jwtManager,
		cfg:     cfg,
		store:   store,
	}
}

// createUser inserts a user directly and returns it with a valid token.
func (e *testEnv) createUser(t *testing.T, username, role string) (*models.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		Provider:     "local",
	}
	if err := e.db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	token, err := e.jwt.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return user, token
}

// createViz inserts a visualization owned by userID.
func (e *testEnv) createViz(t *testing.T, userID uuid.UUID) *models.Visualization {
	t.Helper()

	viz := &models.Visualization{
		ID:         uuid.New(),
		UserID:     userID,
		ModelName:  "gpt2",
		InputText:  "The cat sat on the mat.",
		ViewType:   "head",
		HTML:       "<div>attention</div>",
		TokenCount: 7,
	}
	if err := e.db.InsertVisualization(context.Background(), viz); err != nil {
		t.Fatalf("InsertVisualization: %v", err)
	}
	return viz
}

// doJSON performs a JSON request against the router.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// decodeEnvelope unmarshals the APIResponse wrapper.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) *models.APIResponse {
	t.Helper()

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal envelope: %v (body: %s)", err, rec.Body.String())
	}
	return &resp
}

// waitForAuditEvents polls the in-memory audit store until at least n
// events have been flushed from the logger's buffer.
func waitForAuditEvents(t *testing.T, env *testEnv, n int) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if env.store.Len() >= n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected at least %d audit events, got %d", n, env.store.Len())
}

// dataField re-decodes the envelope's data into dst.
func dataField(t *testing.T, resp *models.APIResponse, dst interface{}) {
	t.Helper()

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("re-marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
}
