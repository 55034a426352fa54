package httpapi

import (
	"net/http"
	"testing"

	"tierdir.org/internal/directory"
)

func TestRegisterLoginMeFlow(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ann", "Manager", 3)

	rr := env.login(t, "ann", "s3cret!")
	wantStatus(t, rr, http.StatusOK)
	token := decode[tokenResponse](t, rr).Token
	if token == "" {
		t.Fatal("empty token after login")
	}

	rr = env.do(t, http.MethodGet, "/api/account/me", token, nil)
	wantStatus(t, rr, http.StatusOK)
	view := decode[directory.View](t, rr)
	if view.Username != "ann" {
		t.Fatalf("username = %q", view.Username)
	}
	if view.Role != "Manager" || view.Tier != "3" {
		t.Fatalf("role/tier = %q/%q", view.Role, view.Tier)
	}
}

func TestRegisterRejectsMismatchedPasswords(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/api/account/register", "", map[string]any{
		"username":        "bob",
		"email":           "bob@example.org",
		"password":        "s3cret!",
		"confirmPassword": "different",
		"role":            "User",
		"tier":            5,
	})
	wantStatus(t, rr, http.StatusBadRequest)
	if msg := message(t, rr); msg != "Passwords do not match" {
		t.Fatalf("message = %q", msg)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/api/account/register", "", map[string]any{
		"username":        "bob",
		"email":           "bob@example.org",
		"password":        "abc",
		"confirmPassword": "abc",
		"role":            "User",
		"tier":            5,
	})
	wantStatus(t, rr, http.StatusBadRequest)
	if msg := message(t, rr); msg != "Password must be at least 6 characters" {
		t.Fatalf("message = %q", msg)
	}
}

func TestRegisterRequiresRole(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/api/account/register", "", map[string]any{
		"username":        "bob",
		"email":           "bob@example.org",
		"password":        "s3cret!",
		"confirmPassword": "s3cret!",
		"role":            "",
		"tier":            5,
	})
	wantStatus(t, rr, http.StatusBadRequest)
	if msg := message(t, rr); msg != "Account must have a role" {
		t.Fatalf("message = %q", msg)
	}
}

func TestRegisterRejectsRoleTierMismatch(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/api/account/register", "", map[string]any{
		"username":        "bob",
		"email":           "bob@example.org",
		"password":        "s3cret!",
		"confirmPassword": "s3cret!",
		"role":            "Manager",
		"tier":            5,
	})
	wantStatus(t, rr, http.StatusBadRequest)
	if msg := message(t, rr); msg != "Tier '5' is not valid for role 'Manager'." {
		t.Fatalf("message = %q", msg)
	}
}

func TestRegisterHoneypotField(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/api/account/register", "", map[string]any{
		"username":        "bot",
		"email":           "bot@example.org",
		"password":        "s3cret!",
		"confirmPassword": "s3cret!",
		"role":            "User",
		"tier":            5,
		"honeypot":        "http://spam.example",
	})
	wantStatus(t, rr, http.StatusForbidden)

	env.recorder.Close()
	events := env.auditLog.Security()
	if len(events) != 1 || events[0].Event != "HoneypotTriggered" {
		t.Fatalf("security events = %+v", events)
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ann", "User", 5)

	rr := env.do(t, http.MethodPost, "/api/account/register", "", map[string]any{
		"username":        "ann",
		"email":           "other@example.org",
		"password":        "s3cret!",
		"confirmPassword": "s3cret!",
		"role":            "User",
		"tier":            5,
	})
	wantStatus(t, rr, http.StatusConflict)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ann", "User", 5)

	rr := env.login(t, "ann", "wrong-password")
	wantStatus(t, rr, http.StatusUnauthorized)
	if msg := message(t, rr); msg != "Invalid username or password." {
		t.Fatalf("message = %q", msg)
	}
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	rr := env.login(t, "ghost", "whatever")
	wantStatus(t, rr, http.StatusUnauthorized)
	if msg := message(t, rr); msg != "Invalid username or password." {
		t.Fatalf("message = %q", msg)
	}
}

func TestMeRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/api/account/me", "", nil)
	wantStatus(t, rr, http.StatusUnauthorized)
}
