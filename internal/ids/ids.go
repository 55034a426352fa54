// Package ids generates identifiers for user records, audit entries and
// requests.
package ids

import "github.com/oklog/ulid/v2"

// New returns a lexicographically sortable ULID. Sorting by id preserves
// creation order, which the directory relies on for stable enumeration.
func New() string {
	return ulid.Make().String()
}
