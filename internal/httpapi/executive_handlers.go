package httpapi

import (
	"net/http"
	"strings"

	"tierdir.org/internal/access"
	"tierdir.org/internal/tier"
)

// Tier values accepted as executive list filters, and the inclusive range
// the per-resource gate enforces. The filter whitelist deliberately differs
// from the gate range.
var executiveTierFilter = []int{2, 3, 4, 5, 6}

const (
	executiveGateMinTier = 2
	executiveGateMaxTier = 5
)

func (a *API) handleExecutiveUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := a.requirePolicy(w, r, tier.PolicyExecutivesOnly)
	if !ok {
		return
	}
	// This surface inherited the short page/size parameter names.
	a.listUsers(w, r, principal.UserID, a.model.ExecutiveAccessRoles(), executiveTierFilter, "page", "size")
}

func (a *API) handleExecutiveUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.requirePolicy(w, r, tier.PolicyExecutivesOnly)
	if !ok {
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/executive/users/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	detail, err := a.dir.Get(r.Context(), id)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	// The gate answers 400, not 403: the request is rejected as naming a
	// target outside the surface's reach. The whitelist labels the lowest
	// tier "Regular" while stored role sets say "User"; both must pass.
	gateRoles := append(a.model.ExecutiveAccessRoles(), tier.RoleUser)
	if ok, gateErr := access.Allowed(gateRoles, detail.Roles, detail.Tiers,
		executiveGateMinTier, executiveGateMaxTier); !ok {
		writeError(w, r, http.StatusBadRequest, gateErr.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, detail.View())

	case http.MethodPatch:
		var req updateUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.dir.Update(r.Context(), id, req.Role, req.Tier); err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		if a.recorder != nil {
			a.recorder.Activity(r.Context(), principal.UserID, "Updated user "+id, clientIP(r))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "User role and tier updated successfully",
		})

	case http.MethodDelete:
		if err := a.dir.Deactivate(r.Context(), id); err != nil {
			handleDirectoryError(w, r, err)
			return
		}
		if a.recorder != nil {
			a.recorder.Activity(r.Context(), principal.UserID, "Deleted user "+id, clientIP(r))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "User has been deleted successfully",
		})

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}
