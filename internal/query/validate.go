// Package query validates untrusted comma-separated query parameters
// against caller-supplied whitelists.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidInteger = errors.New("Invalid integer format")

// ValidateIntList splits raw on commas and parses each trimmed segment as a
// base-10 integer, then checks every value against the allowed set. An empty
// raw value is valid and means "no filter". Appearance order and duplicates
// are preserved.
func ValidateIntList(raw string, allowed []int) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, ErrInvalidInteger
		}
		values = append(values, v)
	}
	var invalid []string
	for _, v := range values {
		if !containsInt(allowed, v) {
			invalid = append(invalid, strconv.Itoa(v))
		}
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid values: %s (allowed: %s)",
			strings.Join(invalid, ", "), joinInts(allowed))
	}
	return values, nil
}

// ValidateStringList is the string variant of ValidateIntList: comma split,
// trim, whitelist membership. Matching is exact, not case-folded.
func ValidateStringList(raw string, allowed []string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		values = append(values, strings.TrimSpace(part))
	}
	var invalid []string
	for _, v := range values {
		if !containsString(allowed, v) {
			invalid = append(invalid, v)
		}
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid values: %s (allowed: %s)",
			strings.Join(invalid, ", "), strings.Join(allowed, ", "))
	}
	return values, nil
}

func containsInt(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
