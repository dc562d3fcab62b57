package domain

import (
	"strings"

	tables "mesaYaWaitlist/internal/modules/tables/domain"
	waitlist "mesaYaWaitlist/internal/modules/waitlist/domain"
)

// NotificationKind distinguishes success banners from error banners.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is the single transient banner of a view.
// Token identifies which show operation produced it.
type Notification struct {
	Message string
	Kind    NotificationKind
	Token   uint64
}

// Field names a form input.
type Field string

const (
	FieldCustomerName    Field = "customerName"
	FieldEmail           Field = "email"
	FieldTablePreference Field = "tablePreference"
)

// ParseField resolves a form input name. partySize is the legacy name of
// the table preference input.
func ParseField(raw string) (Field, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "customername", "customer_name", "name":
		return FieldCustomerName, true
	case "email":
		return FieldEmail, true
	case "tablepreference", "table_preference", "partysize", "party_size":
		return FieldTablePreference, true
	default:
		return "", false
	}
}

// FormState holds the add-to-waitlist inputs and the inline email error.
type FormState struct {
	CustomerName    string
	Email           string
	TablePreference string
	EmailError      string
}

// AddRequest builds the upstream body from the current inputs.
func (f FormState) AddRequest() waitlist.AddRequest {
	return waitlist.AddRequest{
		CustomerID:      f.CustomerName,
		Email:           f.Email,
		TablePreference: f.TablePreference,
	}
}

// State is everything one view renders. Slices are replaced, never mutated
// in place, so a shallow copy is a safe snapshot.
type State struct {
	Waitlist        []waitlist.Entry
	Tables          []tables.Table
	Form            FormState
	Notification    *Notification
	LoadingWaitlist bool
	LoadingTables   bool
	// NotificationSeq is the token of the last banner shown.
	NotificationSeq uint64
}

// Region is a part of the page that re-renders independently.
type Region uint8

const (
	RegionBanner Region = 1 << iota
	RegionWaitlist
	RegionTables
	RegionForm

	RegionNone Region = 0
	RegionAll         = RegionBanner | RegionWaitlist | RegionTables | RegionForm
)

// Has reports whether r includes every region of other.
func (r Region) Has(other Region) bool {
	return other != 0 && r&other == other
}

var regionNames = []struct {
	region Region
	name   string
}{
	{RegionBanner, "banner"},
	{RegionWaitlist, "waitlist"},
	{RegionTables, "tables"},
	{RegionForm, "form"},
}

// Names lists the region names in render order.
func (r Region) Names() []string {
	names := make([]string, 0, len(regionNames))
	for _, entry := range regionNames {
		if r.Has(entry.region) {
			names = append(names, entry.name)
		}
	}
	return names
}

// ParseRegion resolves a region by name.
func ParseRegion(name string) (Region, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	for _, entry := range regionNames {
		if entry.name == trimmed {
			return entry.region, true
		}
	}
	return RegionNone, false
}
