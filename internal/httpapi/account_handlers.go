package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tierdir.org/internal/auth"
	"tierdir.org/internal/directory"
	"tierdir.org/internal/tier"
)

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
	Tier            int    `json:"tier"`

	// Hidden in the client form; bots fill it in.
	Honeypot string `json:"honeypot"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Message   string    `json:"message,omitempty"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if strings.TrimSpace(req.Honeypot) != "" {
		if a.recorder != nil {
			a.recorder.Security(r.Context(), "HoneypotTriggered", "register form field filled", clientIP(r))
		}
		writeError(w, r, http.StatusForbidden, "Forbidden")
		return
	}

	if strings.TrimSpace(req.Username) == "" {
		writeError(w, r, http.StatusBadRequest, "Username is required")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, r, http.StatusBadRequest, "Email is required")
		return
	}
	if len(req.Password) < auth.MinPasswordLen {
		writeError(w, r, http.StatusBadRequest,
			fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLen))
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, r, http.StatusBadRequest, "Passwords do not match")
		return
	}
	if strings.TrimSpace(req.Role) == "" {
		writeError(w, r, http.StatusBadRequest, "Account must have a role")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "registration failed")
		return
	}

	rec, err := a.dir.Register(r.Context(), req.Username, req.Email, hash, req.Role, req.Tier)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}

	token, expires, err := a.tokens.Issue(rec.ID, rec.Username, rec.Email,
		[]string{strings.TrimSpace(req.Role)}, strconv.Itoa(req.Tier))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	if a.recorder != nil {
		a.recorder.Activity(r.Context(), rec.ID, "Registered", clientIP(r))
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Message:   "Account created successfully!",
		Token:     token,
		ExpiresAt: expires,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := a.dir.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			writeError(w, r, http.StatusUnauthorized, "Invalid username or password.")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}
	if detail.Record.Locked {
		writeError(w, r, http.StatusUnauthorized, "Account is locked.")
		return
	}
	if err := auth.VerifyPassword(detail.Record.PasswordHash, req.Password); err != nil {
		if a.recorder != nil {
			a.recorder.Security(r.Context(), "FailedLogin",
				"username "+strings.TrimSpace(req.Username), clientIP(r))
		}
		writeError(w, r, http.StatusUnauthorized, "Invalid username or password.")
		return
	}

	tierClaim := ""
	if len(detail.Tiers) > 0 {
		tierClaim = detail.Tiers[0]
	}
	token, expires, err := a.tokens.Issue(detail.Record.ID, detail.Record.Username,
		detail.Record.Email, detail.Roles, tierClaim)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	if a.recorder != nil {
		a.recorder.Activity(r.Context(), detail.Record.ID, "Logged in", clientIP(r))
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expires,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := a.requirePolicy(w, r, tier.PolicyRegularAndAbove)
	if !ok {
		return
	}
	detail, err := a.dir.Get(r.Context(), principal.UserID)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail.View())
}
