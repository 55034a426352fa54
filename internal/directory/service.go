package directory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tierdir.org/internal/ids"
	"tierdir.org/internal/tier"
)

// Per-record role/claim fetches are I/O bound; cap the fan-out so a large
// directory does not exhaust the store's connection pool.
const listConcurrency = 16

// Service filters, paginates and mutates the user directory while keeping
// role assignments and Tier claims consistent with the tier model.
type Service struct {
	store Store
	model *tier.Model
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service over the given store and tier model.
func NewService(store Store, model *tier.Model, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("directory: store is required")
	}
	if model == nil {
		return nil, errors.New("directory: tier model is required")
	}
	s := &Service{store: store, model: model, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List returns one filtered, paginated page of the directory. Page number
// and size are floored at 1; defaults and upper caps are the caller's
// responsibility. Role and claim fetches run concurrently per record, but
// the page preserves the store's enumeration order.
func (s *Service) List(ctx context.Context, f Filter, pageNumber, pageSize int) (Page, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	records, err := s.store.List(ctx)
	if err != nil {
		return Page{}, err
	}

	type attrs struct {
		roles []string
		tiers []string
	}
	slots := make([]attrs, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, rec := range records {
		g.Go(func() error {
			roles, err := s.store.Roles(gctx, rec.ID)
			if err != nil {
				return err
			}
			tiers, err := s.store.TierClaims(gctx, rec.ID)
			if err != nil {
				return err
			}
			slots[i] = attrs{roles: roles, tiers: tiers}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Page{}, err
	}

	matched := make([]View, 0, len(records))
	for i, rec := range records {
		if !matchesRoles(f.Roles, slots[i].roles) || !matchesTiers(f.Tiers, slots[i].tiers) {
			continue
		}
		matched = append(matched, View{
			ID:       rec.ID,
			Username: rec.Username,
			Email:    rec.Email,
			Role:     strings.Join(slots[i].roles, ", "),
			Tier:     strings.Join(slots[i].tiers, ", "),
		})
	}

	totalItems := len(matched)
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	start := (pageNumber - 1) * pageSize
	if start > totalItems {
		start = totalItems
	}
	end := start + pageSize
	if end > totalItems {
		end = totalItems
	}

	return Page{
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
		Items:      matched[start:end],
	}, nil
}

// Get loads one user with its role and tier claim sets.
func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	rec, err := s.store.Find(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, rec)
}

// GetByUsername loads one user by username, as needed by login.
func (s *Service) GetByUsername(ctx context.Context, username string) (Detail, error) {
	rec, err := s.store.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return Detail{}, err
	}
	return s.detail(ctx, rec)
}

func (s *Service) detail(ctx context.Context, rec Record) (Detail, error) {
	roles, err := s.store.Roles(ctx, rec.ID)
	if err != nil {
		return Detail{}, err
	}
	tiers, err := s.store.TierClaims(ctx, rec.ID)
	if err != nil {
		return Detail{}, err
	}
	return Detail{Record: rec, Roles: roles, Tiers: tiers}, nil
}

// Register creates a user with a single role and the matching Tier claim.
// The role/tier pair is validated before anything is written.
func (s *Service) Register(ctx context.Context, username, email, passwordHash, role string, t int) (Record, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	role = strings.TrimSpace(role)

	if username == "" {
		return Record{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return Record{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if passwordHash == "" {
		return Record{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if role == "" {
		return Record{}, fmt.Errorf("%w: Account must have a role", ErrInvalidInput)
	}
	if err := s.model.Check(role, tier.Tier(t)); err != nil {
		return Record{}, err
	}

	now := s.now().UTC()
	rec := Record{
		ID:           ids.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, &rec, role, t); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Update replaces a user's role set with the single supplied role and swaps
// the Tier claim accordingly. The role/tier pair is validated before any
// state is touched: a rejected pair leaves the user's current role and
// claim exactly as they were.
func (s *Service) Update(ctx context.Context, id, role string, t int) error {
	if _, err := s.store.Find(ctx, id); err != nil {
		return err
	}
	role = strings.TrimSpace(role)
	if role == "" {
		return fmt.Errorf("%w: role is required", ErrInvalidInput)
	}
	if err := s.model.Check(role, tier.Tier(t)); err != nil {
		return err
	}
	return s.store.ReplaceRoleTier(ctx, id, role, t)
}

// Deactivate soft-deletes a user via an indefinite lockout. The record and
// its role/claim history remain in the store.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	if _, err := s.store.Find(ctx, id); err != nil {
		return err
	}
	return s.store.Lock(ctx, id)
}

// matchesRoles reports whether a record's role set intersects the filter.
// Regular and User both label the lowest tier and match each other.
func matchesRoles(filter, roles []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, want := range filter {
		for _, have := range roles {
			if sameRole(want, have) {
				return true
			}
		}
	}
	return false
}

func matchesTiers(filter []int, claims []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, claim := range claims {
		v, err := strconv.Atoi(strings.TrimSpace(claim))
		if err != nil {
			continue
		}
		for _, want := range filter {
			if v == want {
				return true
			}
		}
	}
	return false
}

func sameRole(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	return isLowestLabel(a) && isLowestLabel(b)
}

func isLowestLabel(role string) bool {
	return strings.EqualFold(role, tier.RoleUser) || strings.EqualFold(role, tier.RoleRegular)
}
