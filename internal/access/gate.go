// Package access implements the per-resource authorization gate. It checks a
// target user's own roles and tier claims against a caller-supplied role
// whitelist and inclusive tier range, independently of the endpoint-level
// policy the caller already passed.
package access

import (
	"fmt"
	"strconv"
	"strings"
)

// Allowed evaluates the gate rules in order; the first failing rule decides
// the outcome. On denial the returned error names the violated constraint.
func Allowed(allowedRoles, subjectRoles, subjectTiers []string, minTier, maxTier int) (bool, error) {
	if len(subjectRoles) == 0 {
		return false, fmt.Errorf("User has no assigned roles.")
	}

	var outside []string
	for _, role := range subjectRoles {
		if !containsFold(allowedRoles, role) {
			outside = append(outside, role)
		}
	}
	if len(outside) > 0 {
		return false, fmt.Errorf("Roles not permitted: %s", strings.Join(outside, ", "))
	}

	if len(subjectTiers) == 0 {
		return false, fmt.Errorf("User has no assigned tiers.")
	}

	parsed := make([]int, 0, len(subjectTiers))
	for _, claim := range subjectTiers {
		t, err := strconv.Atoi(strings.TrimSpace(claim))
		if err != nil {
			return false, fmt.Errorf("Invalid tier: %s", claim)
		}
		parsed = append(parsed, t)
	}

	for _, t := range parsed {
		if t < minTier || t > maxTier {
			return false, fmt.Errorf("Tier must be between %d and %d.", minTier, maxTier)
		}
	}

	return true, nil
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
