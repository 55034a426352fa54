package httpapi

import (
	"net/http"
	"strings"

	"tierdir.org/internal/tier"
)

type reportRoute struct {
	policy  string
	message string
}

// Each report name binds to exactly one endpoint policy.
var reportRoutes = map[string]reportRoute{
	"financial":  {tier.PolicyExecutivesOnly, "Access Granted: Executives only"},
	"executives": {tier.PolicyExecutivesOnly, "Access Granted: Executives only"},
	"team":       {tier.PolicyManagerAndAbove, "Access Granted: Managers and above"},
	"manager":    {tier.PolicyManagerAndAbove, "Access Granted: Managers and above"},
	"leader":     {tier.PolicyLeaderAndAbove, "Access Granted: Leaders and above"},
	"general":    {tier.PolicyRegularAndAbove, "Access Granted: All users"},
	"admin":      {tier.PolicySuperAdminOnly, "Access Granted: Super Admin only"},
}

func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/report/"), "/")
	route, ok := reportRoutes[name]
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if _, ok := a.requirePolicy(w, r, route.policy); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": route.message})
}
