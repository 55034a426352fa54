package directory

import "context"

// Store is the directory's persistence contract. List must enumerate
// records in a stable order; ReplaceRoleTier must apply the role swap and
// Tier claim swap atomically, and concurrent calls for the same user id
// must not interleave.
type Store interface {
	Create(ctx context.Context, rec *Record, role string, tier int) error
	Find(ctx context.Context, id string) (Record, error)
	FindByUsername(ctx context.Context, username string) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Roles(ctx context.Context, userID string) ([]string, error)
	TierClaims(ctx context.Context, userID string) ([]string, error)
	ReplaceRoleTier(ctx context.Context, userID, role string, tier int) error
	Lock(ctx context.Context, userID string) error
}
