package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"tierdir.org/internal/auth"
	"tierdir.org/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID stores the request identifier so audit entries emitted
// further down the call chain can be correlated with the HTTP access log.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent emits one structured audit line for a directory event, picking
// up the request id and the acting user from the context when present.
// The fields map is copied, so callers may reuse theirs.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}

	payload := map[string]any{
		"ts":     time.Now().UTC().Format(time.RFC3339Nano),
		"type":   "audit",
		"event":  event,
		"fields": copyFields(fields),
	}
	if rid := requestIDFromContext(ctx); rid != "" {
		payload["request_id"] = rid
	}
	if userID, ok := auth.UserIDFromContext(ctx); ok {
		payload["user_id"] = userID
	}

	line, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	obs.Logger().Println(string(line))
	return nil
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
