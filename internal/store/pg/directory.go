package pg

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"tierdir.org/internal/directory"
)

var _ directory.Store = (*Store)(nil)

func (s *Store) Create(ctx context.Context, rec *directory.Record, role string, tier int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into users (id, username, email, password_hash, locked, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.Username, rec.Email, rec.PasswordHash, rec.Locked, rec.CreatedAt, rec.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return directory.ErrConflict
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		insert into user_roles (user_id, role_name) values ($1, $2)
	`, rec.ID, role); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		insert into user_claims (user_id, claim_type, claim_value) values ($1, 'Tier', $2)
	`, rec.ID, strconv.Itoa(tier)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Find(ctx context.Context, id string) (directory.Record, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		select id, username, email, password_hash, locked, created_at, updated_at
		from users where id = $1
	`, id))
}

func (s *Store) FindByUsername(ctx context.Context, username string) (directory.Record, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		select id, username, email, password_hash, locked, created_at, updated_at
		from users where lower(username) = lower($1)
	`, username))
}

func (s *Store) scanUser(row *sql.Row) (directory.Record, error) {
	var rec directory.Record
	err := row.Scan(&rec.ID, &rec.Username, &rec.Email, &rec.PasswordHash,
		&rec.Locked, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return directory.Record{}, directory.ErrNotFound
	}
	if err != nil {
		return directory.Record{}, err
	}
	return rec, nil
}

// List enumerates users ordered by id. Ids are ULIDs, so id order is
// creation order.
func (s *Store) List(ctx context.Context) ([]directory.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, username, email, password_hash, locked, created_at, updated_at
		from users
		order by id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []directory.Record
	for rows.Next() {
		var rec directory.Record
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.Email, &rec.PasswordHash,
			&rec.Locked, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Roles(ctx context.Context, userID string) ([]string, error) {
	return s.queryStrings(ctx, `
		select role_name from user_roles where user_id = $1 order by role_name
	`, userID)
}

func (s *Store) TierClaims(ctx context.Context, userID string) ([]string, error) {
	return s.queryStrings(ctx, `
		select claim_value from user_claims
		where user_id = $1 and claim_type = 'Tier'
		order by claim_value
	`, userID)
}

func (s *Store) queryStrings(ctx context.Context, q, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ReplaceRoleTier swaps the user's role set and Tier claim in one
// transaction. The user row is locked first so concurrent swaps for the
// same id serialize.
func (s *Store) ReplaceRoleTier(ctx context.Context, userID, role string, tier int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var dummy int
	err = tx.QueryRowContext(ctx, `select 1 from users where id = $1 for update`, userID).Scan(&dummy)
	if errors.Is(err, sql.ErrNoRows) {
		return directory.ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `delete from user_roles where user_id = $1`, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		insert into user_roles (user_id, role_name) values ($1, $2)
	`, userID, role); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		delete from user_claims where user_id = $1 and claim_type = 'Tier'
	`, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		insert into user_claims (user_id, claim_type, claim_value) values ($1, 'Tier', $2)
	`, userID, strconv.Itoa(tier)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		update users set updated_at = now() where id = $1
	`, userID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Lock(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		update users set locked = true, updated_at = now() where id = $1
	`, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return directory.ErrNotFound
	}
	return nil
}
