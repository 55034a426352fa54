package access

import (
	"strings"
	"testing"
)

func TestAllowedHappyPath(t *testing.T) {
	ok, err := Allowed([]string{"HR", "Manager"}, []string{"HR"}, []string{"2"}, 2, 5)
	if !ok || err != nil {
		t.Fatalf("expected allow, got ok=%v err=%v", ok, err)
	}
}

func TestAllowedRuleOrder(t *testing.T) {
	allowed := []string{"HR", "Manager", "Leader", "Regular"}

	cases := []struct {
		name    string
		roles   []string
		tiers   []string
		min     int
		max     int
		wantErr string
	}{
		{
			name:    "no roles",
			roles:   nil,
			tiers:   []string{"2"},
			min:     2,
			max:     5,
			wantErr: "User has no assigned roles.",
		},
		{
			name:    "role outside whitelist",
			roles:   []string{"Admin"},
			tiers:   []string{"2"},
			min:     2,
			max:     5,
			wantErr: "Admin",
		},
		{
			name:    "no tiers",
			roles:   []string{"HR"},
			tiers:   nil,
			min:     2,
			max:     5,
			wantErr: "User has no assigned tiers.",
		},
		{
			name:    "unparsable tier",
			roles:   []string{"HR"},
			tiers:   []string{"two"},
			min:     2,
			max:     5,
			wantErr: "Invalid tier: two",
		},
		{
			name:    "tier below range",
			roles:   []string{"HR"},
			tiers:   []string{"1"},
			min:     2,
			max:     5,
			wantErr: "Tier must be between 2 and 5.",
		},
		{
			name:    "tier above range",
			roles:   []string{"HR"},
			tiers:   []string{"6"},
			min:     2,
			max:     5,
			wantErr: "Tier must be between 2 and 5.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := Allowed(allowed, tc.roles, tc.tiers, tc.min, tc.max)
			if ok {
				t.Fatal("expected deny")
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestAllowedRoleMatchIsCaseInsensitive(t *testing.T) {
	ok, err := Allowed([]string{"HR", "Manager"}, []string{"manager"}, []string{"3"}, 2, 5)
	if !ok || err != nil {
		t.Fatalf("expected allow for case-folded role, got ok=%v err=%v", ok, err)
	}
}

func TestAllowedRoleRuleWinsBeforeTierRules(t *testing.T) {
	// Both the role and the tier are bad; the role rule is evaluated first.
	_, err := Allowed([]string{"HR"}, []string{"Admin"}, []string{"0"}, 2, 5)
	if err == nil || !strings.Contains(err.Error(), "Admin") {
		t.Fatalf("expected role denial first, got %v", err)
	}
}
