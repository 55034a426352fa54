package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tierdir.org/internal/audit"
	"tierdir.org/internal/auth"
	"tierdir.org/internal/directory"
	"tierdir.org/internal/tier"
)

type testEnv struct {
	api      *API
	handler  http.Handler
	auditLog *audit.MemoryStore
	recorder *audit.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	model := tier.NewModel()
	store := directory.NewInMemory()
	dir, err := directory.NewService(store, model)
	if err != nil {
		t.Fatalf("directory.NewService: %v", err)
	}
	tokens, err := auth.NewTokens("test-secret", "tierdir", time.Hour)
	if err != nil {
		t.Fatalf("auth.NewTokens: %v", err)
	}
	auditLog := audit.NewMemoryStore()
	recorder := audit.NewRecorder(auditLog)
	t.Cleanup(recorder.Close)

	api, err := New(Options{
		Version:   "test",
		Directory: dir,
		Model:     model,
		Policies:  tier.NewRegistry(),
		Tokens:    tokens,
		Recorder:  recorder,
		// Generous limits so tests never trip the limiter.
		RatePerSec: 1000,
		RateBurst:  1000,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &testEnv{api: api, handler: api.Handler(), auditLog: auditLog, recorder: recorder}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
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
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

// register creates a user through the public endpoint and returns its token.
func (e *testEnv) register(t *testing.T, username, role string, tierValue int) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/account/register", "", map[string]any{
		"username":        username,
		"email":           username + "@example.org",
		"password":        "s3cret!",
		"confirmPassword": "s3cret!",
		"role":            role,
		"tier":            tierValue,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("register %s: status %d body %s", username, rr.Code, rr.Body.String())
	}
	resp := decode[tokenResponse](t, rr)
	if resp.Token == "" {
		t.Fatalf("register %s: empty token", username)
	}
	return resp.Token
}

func (e *testEnv) login(t *testing.T, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodPost, "/api/account/login", "", map[string]any{
		"username": username,
		"password": password,
	})
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func message(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode[map[string]any](t, rr)
	msg, _ := body["message"].(string)
	return msg
}

// userID extracts the directory id from the listing, by username.
func (e *testEnv) userID(t *testing.T, adminToken, username string) string {
	t.Helper()
	rr := e.do(t, http.MethodGet, "/api/admin/users?pageSize=100", adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list users: status %d body %s", rr.Code, rr.Body.String())
	}
	page := decode[directory.Page](t, rr)
	for _, item := range page.Items {
		if item.Username == username {
			return item.ID
		}
	}
	t.Fatalf("user %s not in listing", username)
	return ""
}

func wantStatus(t *testing.T, rr *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rr.Code != code {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, code, rr.Body.String())
	}
}
