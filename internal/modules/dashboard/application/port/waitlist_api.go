package port

import (
	"context"
	"errors"

	dashboard "mesaYaWaitlist/internal/modules/dashboard/domain"
	tables "mesaYaWaitlist/internal/modules/tables/domain"
	waitlist "mesaYaWaitlist/internal/modules/waitlist/domain"
)

var (
	// ErrUpstreamStatus wraps any non-2xx answer from the waitlist API.
	ErrUpstreamStatus = errors.New("unexpected upstream status")
	// ErrMalformedEnvelope is returned when a {body: "<json>"} envelope cannot be decoded.
	ErrMalformedEnvelope = errors.New("malformed response envelope")
	// ErrSessionNotFound is returned when a view references an unknown or closed session.
	ErrSessionNotFound = errors.New("session not found")
)

// WaitlistAPI is the remote service behind the front desk.
type WaitlistAPI interface {
	FetchWaitlist(ctx context.Context) ([]waitlist.Entry, error)
	FetchTables(ctx context.Context) ([]tables.Table, error)
	AddToWaitlist(ctx context.Context, req waitlist.AddRequest) error
	NotifyCustomer(ctx context.Context, req waitlist.NotifyRequest) error
}

// ViewNotifier is told about every state change of a session so the open
// view can re-render the changed regions.
type ViewNotifier interface {
	StateChanged(sessionID string, state dashboard.State, regions dashboard.Region)
}

// ViewNotifierFunc adapts a function to ViewNotifier.
type ViewNotifierFunc func(sessionID string, state dashboard.State, regions dashboard.Region)

func (f ViewNotifierFunc) StateChanged(sessionID string, state dashboard.State, regions dashboard.Region) {
	f(sessionID, state, regions)
}
