package httpapi

import (
	"net/http"
	"strings"

	"tierdir.org/internal/directory"
	"tierdir.org/internal/query"
	"tierdir.org/internal/tier"
)

type updateUserRequest struct {
	Role string `json:"role"`
	Tier int    `json:"tier"`
}

// Tier values accepted as admin list filters.
var adminTierFilter = []int{0, 1, 2, 3, 4}

func (a *API) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := a.requirePolicy(w, r, tier.PolicySuperAdminOnly)
	if !ok {
		return
	}
	a.listUsers(w, r, principal.UserID, a.model.AdminAccessRoles(), adminTierFilter, "pageNumber", "pageSize")
}

func (a *API) handleAdminUser(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.requirePolicy(w, r, tier.PolicySuperAdminOnly)
	if !ok {
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/users/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		detail, err := a.dir.Get(r.Context(), id)
		if err != nil {
			handleDirectoryError(w, r, err)
			return
		}
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

// listUsers validates the role and tier filters against the surface's
// whitelists and serves one page of the directory. The two surfaces use
// different pagination parameter names, so the caller supplies them.
func (a *API) listUsers(w http.ResponseWriter, r *http.Request, callerID string, allowedRoles []string, allowedTiers []int, pageKey, sizeKey string) {
	roles, err := query.ValidateStringList(r.URL.Query().Get("role"), allowedRoles)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	tiers, err := query.ValidateIntList(r.URL.Query().Get("tier"), allowedTiers)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	pageNumber, pageSize, err := a.pageParams(r, pageKey, sizeKey)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	page, err := a.dir.List(r.Context(), directory.Filter{Roles: roles, Tiers: tiers}, pageNumber, pageSize)
	if err != nil {
		handleDirectoryError(w, r, err)
		return
	}
	if a.recorder != nil {
		a.recorder.Activity(r.Context(), callerID, "Viewed user list", clientIP(r))
	}
	writeJSON(w, http.StatusOK, page)
}
