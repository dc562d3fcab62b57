package domain

import (
	tables "mesaYaWaitlist/internal/modules/tables/domain"
	waitlist "mesaYaWaitlist/internal/modules/waitlist/domain"
)

// Event is an external occurrence that moves a view's State.
type Event interface {
	event()
}

type (
	WaitlistLoadStarted struct{}
	WaitlistLoaded      struct{ Entries []waitlist.Entry }
	WaitlistLoadFailed  struct{}
	TablesLoadStarted   struct{}
	TablesLoaded        struct{ Tables []tables.Table }
	TablesLoadFailed    struct{}

	// FieldChanged is one keystroke worth of form input.
	FieldChanged struct {
		Field Field
		Value string
	}
	// SubmitRequested validates the email before a submission.
	SubmitRequested struct{}
	// FormReset clears the inputs after a successful submission.
	FormReset struct{}

	NotificationShown struct {
		Message string
		Kind    NotificationKind
	}
	// NotificationExpired clears the banner only if Token is still current.
	NotificationExpired struct{ Token uint64 }
)

func (WaitlistLoadStarted) event() {}
func (WaitlistLoaded) event()      {}
func (WaitlistLoadFailed) event()  {}
func (TablesLoadStarted) event()   {}
func (TablesLoaded) event()        {}
func (TablesLoadFailed) event()    {}
func (FieldChanged) event()        {}
func (SubmitRequested) event()     {}
func (FormReset) event()           {}
func (NotificationShown) event()   {}
func (NotificationExpired) event() {}

// Reduce applies ev to s and reports which regions changed.
func Reduce(s State, ev Event) (State, Region) {
	switch e := ev.(type) {
	case WaitlistLoadStarted:
		s.LoadingWaitlist = true
		return s, RegionWaitlist
	case WaitlistLoaded:
		s.LoadingWaitlist = false
		s.Waitlist = e.Entries
		return s, RegionWaitlist
	case WaitlistLoadFailed:
		s.LoadingWaitlist = false
		return s, RegionWaitlist
	case TablesLoadStarted:
		s.LoadingTables = true
		return s, RegionTables
	case TablesLoaded:
		s.LoadingTables = false
		s.Tables = e.Tables
		return s, RegionTables
	case TablesLoadFailed:
		s.LoadingTables = false
		return s, RegionTables
	case FieldChanged:
		return reduceField(s, e), RegionForm
	case SubmitRequested:
		s.Form.EmailError = waitlist.EmailError(s.Form.Email)
		return s, RegionForm
	case FormReset:
		s.Form = FormState{}
		return s, RegionForm
	case NotificationShown:
		s.NotificationSeq++
		s.Notification = &Notification{Message: e.Message, Kind: e.Kind, Token: s.NotificationSeq}
		return s, RegionBanner
	case NotificationExpired:
		if s.Notification == nil || s.Notification.Token != e.Token {
			return s, RegionNone
		}
		s.Notification = nil
		return s, RegionBanner
	default:
		return s, RegionNone
	}
}

func reduceField(s State, e FieldChanged) State {
	switch e.Field {
	case FieldCustomerName:
		s.Form.CustomerName = e.Value
	case FieldEmail:
		s.Form.Email = e.Value
		// only re-validate once an error is already showing
		if s.Form.EmailError != "" {
			s.Form.EmailError = waitlist.EmailError(e.Value)
		}
	case FieldTablePreference:
		s.Form.TablePreference = e.Value
	}
	return s
}
