package model

import "strings"

// Contact is a person a campaign can target. Records arrive from upstream
// CRM imports and are occasionally partial; only ID is assumed present, and
// even that is verified at the normalization boundary.
type Contact struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Group is a pre-built set of contacts maintained by the backend.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MemberCount int    `json:"member_count"`
	Color       string `json:"color,omitempty"`
}

// ContactFilter carries the passthrough query parameters for contact search.
type ContactFilter struct {
	Search string
	Limit  int
	Offset int
}

// NormalizeContactIDs drops empty and whitespace-only ids and deduplicates
// the rest, preserving first-seen order. This is the single place malformed
// upstream ids are filtered out; both the selection toggle and request
// construction go through it.
func NormalizeContactIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
