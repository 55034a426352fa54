package audit

import (
	"context"
	"time"
)

// ActivityEntry is one row of the user activity trail.
type ActivityEntry struct {
	ID        string
	UserID    string
	Activity  string
	IP        string
	Timestamp time.Time
}

// SecurityEntry is one row of the security event trail. Security events are
// not tied to an authenticated user.
type SecurityEntry struct {
	ID        string
	Event     string
	Details   string
	IP        string
	Timestamp time.Time
}

// Store persists audit entries. Implementations must tolerate concurrent
// appends.
type Store interface {
	AppendActivity(ctx context.Context, e ActivityEntry) error
	AppendSecurity(ctx context.Context, e SecurityEntry) error
}
