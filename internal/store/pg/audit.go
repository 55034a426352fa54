package pg

import (
	"context"

	"tierdir.org/internal/audit"
)

var _ audit.Store = (*Store)(nil)

func (s *Store) AppendActivity(ctx context.Context, e audit.ActivityEntry) error {
	_, err := s.db.ExecContext(ctx, `
		insert into user_activity_logs (id, user_id, activity, ip, created_at)
		values ($1, $2, $3, $4, $5)
	`, e.ID, e.UserID, e.Activity, e.IP, e.Timestamp)
	return err
}

func (s *Store) AppendSecurity(ctx context.Context, e audit.SecurityEntry) error {
	_, err := s.db.ExecContext(ctx, `
		insert into security_audit_logs (id, event, details, ip, created_at)
		values ($1, $2, $3, $4, $5)
	`, e.ID, e.Event, e.Details, e.IP, e.Timestamp)
	return err
}
