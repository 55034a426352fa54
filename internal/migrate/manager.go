package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultMigrationsTable = "schema_migrations"
	defaultSeedsTable      = "schema_seeds"
)

// Manager applies the directory schema migrations and the role catalog
// seeds shipped under ops/migrations. Migrations come in .up.sql/.down.sql
// pairs; seeds are plain .sql scripts applied at most once.
type Manager struct {
	db              *sql.DB
	migrationsDir   string
	seedsDir        string
	migrationsTable string
	seedsTable      string
}

// Option configures Manager.
type Option func(*Manager)

// WithMigrationsTable overrides the default migrations bookkeeping table.
func WithMigrationsTable(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.migrationsTable = name
		}
	}
}

// WithSeedsTable overrides the default seeds bookkeeping table.
func WithSeedsTable(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.seedsTable = name
		}
	}
}

// NewManager constructs a Manager.
func NewManager(db *sql.DB, migrationsDir, seedsDir string, opts ...Option) *Manager {
	m := &Manager{
		db:              db,
		migrationsDir:   migrationsDir,
		seedsDir:        seedsDir,
		migrationsTable: defaultMigrationsTable,
		seedsTable:      defaultSeedsTable,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Up applies all pending migrations in lexical order.
func (m *Manager) Up(ctx context.Context) error {
	return m.runPending(ctx, m.migrationsDir, ".up.sql", m.migrationsTable, "migration")
}

// Seed applies pending seed scripts. The role catalog seed is written to be
// idempotent, but the bookkeeping table keeps re-runs cheap either way.
func (m *Manager) Seed(ctx context.Context) error {
	return m.runPending(ctx, m.seedsDir, ".sql", m.seedsTable, "seed")
}

// Down rolls back the most recently applied migration using its .down.sql
// counterpart.
func (m *Manager) Down(ctx context.Context) error {
	if err := m.ensureTables(ctx); err != nil {
		return err
	}
	order, err := m.appliedOrder(ctx, m.migrationsTable)
	if err != nil {
		return err
	}
	if len(order) == 0 {
		return errors.New("no migrations applied")
	}
	last := order[len(order)-1]
	downPath := strings.TrimSuffix(filepath.Join(m.migrationsDir, last), ".up.sql") + ".down.sql"
	if _, err := os.Stat(downPath); err != nil {
		return fmt.Errorf("missing down migration for %s", last)
	}
	if err := m.applyScript(ctx, downPath); err != nil {
		return fmt.Errorf("rollback migration %s: %w", last, err)
	}
	_, err = m.db.ExecContext(ctx, fmt.Sprintf(`delete from %s where name = $1`, m.migrationsTable), last)
	return err
}

// Status returns the applied migrations in application order.
func (m *Manager) Status(ctx context.Context) ([]string, error) {
	if err := m.ensureTables(ctx); err != nil {
		return nil, err
	}
	return m.appliedOrder(ctx, m.migrationsTable)
}

// runPending applies every script under dir matching suffix that the
// bookkeeping table does not know yet, recording each one as it lands.
func (m *Manager) runPending(ctx context.Context, dir, suffix, table, kind string) error {
	if err := m.ensureTables(ctx); err != nil {
		return err
	}
	applied, err := m.appliedSet(ctx, table)
	if err != nil {
		return err
	}
	scripts, err := listScripts(dir, suffix)
	if err != nil {
		return err
	}
	for _, s := range scripts {
		if applied[s.name] {
			continue
		}
		if err := m.applyScript(ctx, s.path); err != nil {
			return fmt.Errorf("apply %s %s: %w", kind, s.name, err)
		}
		if err := m.markApplied(ctx, table, s.name); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) ensureTables(ctx context.Context) error {
	for _, table := range []string{m.migrationsTable, m.seedsTable} {
		ddl := fmt.Sprintf(`
			create table if not exists %s (
				name text primary key,
				applied_at timestamptz not null default now()
			);`, table)
		if _, err := m.db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}

// applyScript runs every statement of one script inside a single
// transaction, so a half-applied script never gets recorded.
func (m *Manager) applyScript(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range splitStatements(string(raw)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (m *Manager) markApplied(ctx context.Context, table, name string) error {
	_, err := m.db.ExecContext(ctx,
		fmt.Sprintf(`insert into %s(name, applied_at) values ($1, $2)`, table),
		name, time.Now().UTC())
	return err
}

func (m *Manager) appliedSet(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`select name from %s`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func (m *Manager) appliedOrder(ctx context.Context, table string) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`select name from %s order by applied_at asc`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var order []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		order = append(order, name)
	}
	return order, rows.Err()
}

type script struct {
	name string
	path string
}

// listScripts returns the scripts in dir whose names end with suffix, in
// lexical order. A missing directory means nothing to apply.
func listScripts(dir, suffix string) ([]script, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var scripts []script
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		scripts = append(scripts, script{
			name: e.Name(),
			path: filepath.Join(dir, e.Name()),
		})
	}
	return scripts, nil
}

// splitStatements cuts a script into statements on semicolons. Semicolons
// inside single-quoted strings do not terminate a statement; a doubled
// quote ('') stays inside the string.
func splitStatements(src string) []string {
	var stmts []string
	var cur strings.Builder
	inString := false
	runes := []rune(src)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		cur.WriteRune(r)
		switch {
		case r == '\'':
			if inString && i+1 < len(runes) && runes[i+1] == '\'' {
				cur.WriteRune(runes[i+1])
				i++
				continue
			}
			inString = !inString
		case r == ';' && !inString:
			stmts = appendStatement(stmts, cur.String())
			cur.Reset()
		}
	}
	return appendStatement(stmts, cur.String())
}

func appendStatement(stmts []string, s string) []string {
	if strings.TrimSpace(s) == "" {
		return stmts
	}
	return append(stmts, s)
}
