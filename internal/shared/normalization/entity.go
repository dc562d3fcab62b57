package normalization

import "strings"

// Canonical entity names understood by the front desk.
const (
	EntityWaitlist = "waitlist"
	EntityTables   = "tables"
)

// entityAliases maps the entity spellings used by upstream topics and
// configuration onto the canonical names.
var entityAliases = map[string]string{
	"":        "",
	"-":       "",
	"default": "",

	// Waitlist
	"waitlist":         EntityWaitlist,
	"waitlists":        EntityWaitlist,
	"wait-list":        EntityWaitlist,
	"waitlist-entry":   EntityWaitlist,
	"waitlist-entries": EntityWaitlist,
	"customer":         EntityWaitlist,
	"customers":        EntityWaitlist,
	"lista":            EntityWaitlist,

	// Tables
	"table":  EntityTables,
	"tables": EntityTables,
	"mesa":   EntityTables,
	"mesas":  EntityTables,
}

// NormalizeEntity converts various entity name formats to their canonical form.
// It handles singular/plural forms, underscores and the Spanish aliases the
// upstream topics use.
//
// Example:
//
//	NormalizeEntity("Waitlist_Entries") => "waitlist"
//	NormalizeEntity("mesa") => "tables"
func NormalizeEntity(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	normalized := strings.ReplaceAll(trimmed, "_", "-")

	if canonical, found := entityAliases[normalized]; found {
		return canonical
	}
	return normalized
}

// IsValidEntity reports whether raw names one of the refreshable entities.
func IsValidEntity(raw string) bool {
	switch NormalizeEntity(raw) {
	case EntityWaitlist, EntityTables:
		return true
	default:
		return false
	}
}
