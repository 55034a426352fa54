package directory

import (
	"strings"
	"time"
)

// Record is a stored directory user. Role assignment is persisted as a set
// of role names but treated as single-valued at the mutation boundary: an
// update always replaces the whole set with one element.
type Record struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Locked       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// View is the flattened listing projection. Role and Tier join the
// underlying sets with ", " for display.
type View struct {
	ID       string `json:"id"`
	Username string `json:"userName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Tier     string `json:"tier"`
}

// Detail is a single-user projection carrying the raw role and tier claim
// sets, as needed by the per-resource access gate.
type Detail struct {
	Record Record
	Roles  []string
	Tiers  []string
}

// View flattens the detail into the listing projection.
func (d Detail) View() View {
	return View{
		ID:       d.Record.ID,
		Username: d.Record.Username,
		Email:    d.Record.Email,
		Role:     strings.Join(d.Roles, ", "),
		Tier:     strings.Join(d.Tiers, ", "),
	}
}

// Page is one filtered, paginated slice of the directory.
type Page struct {
	PageNumber int    `json:"pageNumber"`
	PageSize   int    `json:"pageSize"`
	TotalItems int    `json:"totalItems"`
	TotalPages int    `json:"totalPages"`
	Items      []View `json:"items"`
}

// Filter restricts a listing by role names and tier values. An empty slice
// leaves the corresponding axis unfiltered.
type Filter struct {
	Roles []string
	Tiers []int
}
