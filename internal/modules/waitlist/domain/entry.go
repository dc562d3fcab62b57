package domain

import "mesaYaWaitlist/internal/shared/normalization"

// Entry is a customer waiting for a table, as reported by the waitlist API.
type Entry struct {
	// ID is the textual form of the upstream id, used in URLs and form values.
	ID string
	// RawID keeps the id exactly as decoded so notify requests echo its JSON type.
	RawID        any
	CustomerName string
	Email        string
	Status       string
}

// AddRequest is the body posted to the waitlist endpoint.
// CustomerID carries the customer name typed by staff; the upstream names it customer_id.
type AddRequest struct {
	CustomerID      string `json:"customer_id"`
	Email           string `json:"email"`
	TablePreference string `json:"table_preference"`
}

// NotifyRequest is the body posted to the notify endpoint.
type NotifyRequest struct {
	CustomerID any `json:"customerId"`
}

// NormalizeEntry projects an upstream object into an Entry. Nothing is
// rejected: the upstream list is shown as received.
func NormalizeEntry(raw map[string]any) Entry {
	raw = normalization.MapFromPayload(raw)
	return Entry{
		ID:           normalization.AsIdentifier(raw["id"]),
		RawID:        raw["id"],
		CustomerName: normalization.AsString(raw["customerName"]),
		Email:        normalization.AsString(raw["email"]),
		Status:       normalization.AsString(raw["status"]),
	}
}

// BuildEntryList converts a decoded JSON array into entries, skipping
// elements that are not objects.
func BuildEntryList(items []any) []Entry {
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if rawMap, ok := item.(map[string]any); ok {
			entries = append(entries, NormalizeEntry(rawMap))
		}
	}
	return entries
}

// FindEntry returns the entry with the given textual id.
func FindEntry(entries []Entry, id string) (Entry, bool) {
	for _, entry := range entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return Entry{}, false
}
