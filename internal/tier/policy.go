package tier

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Standard policy names. Each one is an inclusive tier range gating a group
// of endpoints.
const (
	PolicySuperAdminOnly  = "SuperAdminOnly"
	PolicyExecutivesOnly  = "ExecutivesOnly"
	PolicyManagerAndAbove = "ManagerAndAbove"
	PolicyLeaderAndAbove  = "LeaderAndAbove"
	PolicyRegularAndAbove = "RegularAndAbove"
)

var ErrUnknownPolicy = errors.New("tier: unknown policy")

// Policy gates an endpoint by an inclusive tier range over the caller's
// tier claim.
type Policy struct {
	Name    string
	MinTier Tier
	MaxTier Tier
}

// Evaluate decides whether a principal carrying the given tier claim passes
// the policy. The claim is the decimal string form of the tier; an absent or
// unparsable claim is denied. Pure predicate, re-evaluated on every request.
func (p Policy) Evaluate(tierClaim string) bool {
	tierClaim = strings.TrimSpace(tierClaim)
	if tierClaim == "" {
		return false
	}
	t, err := strconv.Atoi(tierClaim)
	if err != nil {
		return false
	}
	return Tier(t) >= p.MinTier && Tier(t) <= p.MaxTier
}

// Registry holds the named policies. Registered once at process start,
// immutable afterwards.
type Registry struct {
	byName map[string]Policy
}

// NewRegistry constructs a registry with the five standard policies.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Policy)}
	for _, p := range []Policy{
		{Name: PolicySuperAdminOnly, MinTier: 0, MaxTier: 0},
		{Name: PolicyExecutivesOnly, MinTier: 0, MaxTier: 1},
		{Name: PolicyManagerAndAbove, MinTier: 0, MaxTier: 3},
		{Name: PolicyLeaderAndAbove, MinTier: 0, MaxTier: 4},
		{Name: PolicyRegularAndAbove, MinTier: 0, MaxTier: 5},
	} {
		r.byName[p.Name] = p
	}
	return r
}

// Policy looks up a policy by name.
func (r *Registry) Policy(name string) (Policy, error) {
	p, ok := r.byName[name]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %s", ErrUnknownPolicy, name)
	}
	return p, nil
}
