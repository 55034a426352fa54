package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"tierdir.org/internal/directory"
	"tierdir.org/internal/tier"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the {"message": ...} envelope every error response uses.
func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"message": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

// handleDirectoryError maps service errors onto status codes. Validation
// failures, including role/tier mismatches, come back as 400 with the
// message verbatim.
func handleDirectoryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, directory.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "User not found")
	case errors.Is(err, directory.ErrConflict):
		writeError(w, r, http.StatusConflict, "Username or email is already taken")
	case errors.Is(err, directory.ErrInvalidInput), errors.Is(err, tier.ErrMismatch):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "directory operation failed")
	}
}

// pageParams reads the surface's pagination parameters with the defaults
// and upper cap applied. The admin surface calls them pageNumber/pageSize,
// the executive surface page/size.
func (a *API) pageParams(r *http.Request, pageKey, sizeKey string) (int, int, error) {
	pageNumber := 1
	pageSize := a.defaultPageSize
	if raw := strings.TrimSpace(r.URL.Query().Get(pageKey)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, errors.New("Invalid integer format")
		}
		pageNumber = n
	}
	if raw := strings.TrimSpace(r.URL.Query().Get(sizeKey)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, errors.New("Invalid integer format")
		}
		pageSize = n
	}
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = a.defaultPageSize
	}
	if pageSize > a.maxPageSize {
		pageSize = a.maxPageSize
	}
	return pageNumber, pageSize, nil
}

func clientIP(r *http.Request) string {
	// X-Forwarded-For support (first IP)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
