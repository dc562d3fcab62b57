package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"mesaYaWaitlist/internal/modules/dashboard/application/port"
	dashboard "mesaYaWaitlist/internal/modules/dashboard/domain"
	waitlist "mesaYaWaitlist/internal/modules/waitlist/domain"
	"mesaYaWaitlist/internal/shared/logging"
)

// Banner texts shown to staff.
const (
	MessageCustomerAdded    = "Cliente agregado a la lista de espera"
	MessageAddFailed        = "Error al agregar cliente a la lista"
	MessageCustomerNotified = "Cliente notificado exitosamente"
	MessageNotifyFailed     = "Error al notificar al cliente"
	MessageTablesFailed     = "Error al cargar las mesas disponibles"
)

// DefaultBannerTTL is how long a banner stays before it clears itself.
const DefaultBannerTTL = 3 * time.Second

// ErrSessionClosed is returned by operations on a client that was closed.
var ErrSessionClosed = errors.New("session closed")

// Outcome summarizes a submit or notify operation.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeSucceeded
	// OutcomeInvalid means local validation blocked the request.
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "failed"
	}
}

// Timer is the part of *time.Timer the client needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through realAfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ClientOptions tunes a Client. Zero values fall back to defaults.
type ClientOptions struct {
	BannerTTL time.Duration
	AfterFunc AfterFunc
	Notifier  port.ViewNotifier
	Now       func() time.Time
}

// Client is the waitlist front desk of one view: it owns the view state,
// talks to the waitlist API and schedules banner expiry. Every state change
// goes through the domain reducer under mu; the notifier is called with mu
// held so views observe changes in order, and must not call back into the client.
type Client struct {
	id        string
	api       port.WaitlistAPI
	notifier  port.ViewNotifier
	afterFunc AfterFunc
	bannerTTL time.Duration
	now       func() time.Time
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       dashboard.State
	closed      bool
	bannerTimer Timer
	lastActive  time.Time
	ready       chan struct{}
	mounted     bool
}

// NewClient builds an unmounted client.
func NewClient(id string, api port.WaitlistAPI, opts ClientOptions) *Client {
	if opts.BannerTTL <= 0 {
		opts.BannerTTL = DefaultBannerTTL
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = realAfterFunc
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:         id,
		api:        api,
		notifier:   opts.Notifier,
		afterFunc:  opts.AfterFunc,
		bannerTTL:  opts.BannerTTL,
		now:        opts.Now,
		logger:     logging.Component("waitlist-client").With(slog.String("sessionId", id)),
		ctx:        ctx,
		cancel:     cancel,
		lastActive: opts.Now(),
		ready:      make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// State returns a snapshot of the current view state.
func (c *Client) State() dashboard.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Closed reports whether the client was torn down.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Done is closed when the client is torn down.
func (c *Client) Done() <-chan struct{} { return c.ctx.Done() }

// Ready is closed once both initial loads of Mount have settled.
func (c *Client) Ready() <-chan struct{} { return c.ready }

// LastActive is the time of the last operation requested on the client.
func (c *Client) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastActive = c.now()
	c.mu.Unlock()
}

// Mount fetches the waitlist and the tables in parallel. Only the first call
// starts the loads; every call returns the Ready channel.
func (c *Client) Mount() <-chan struct{} {
	c.mu.Lock()
	if c.mounted || c.closed {
		c.mu.Unlock()
		return c.ready
	}
	c.mounted = true
	c.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.RefreshWaitlist()
	}()
	go func() {
		defer wg.Done()
		c.RefreshTables()
	}()
	go func() {
		wg.Wait()
		close(c.ready)
	}()
	return c.ready
}

// RefreshWaitlist re-fetches the waitlist. Failures are only logged and
// the previous list is kept.
func (c *Client) RefreshWaitlist() {
	if _, ok := c.dispatch(dashboard.WaitlistLoadStarted{}); !ok {
		return
	}
	entries, err := c.api.FetchWaitlist(c.ctx)
	if err != nil {
		if c.ctx.Err() != nil {
			c.logger.Debug("waitlist fetch abandoned", slog.Any("error", err))
			return
		}
		c.logger.Error("waitlist fetch failed", slog.Any("error", err))
		c.dispatch(dashboard.WaitlistLoadFailed{})
		return
	}
	c.logger.Debug("waitlist fetched", slog.Int("entries", len(entries)))
	c.dispatch(dashboard.WaitlistLoaded{Entries: entries})
}

// RefreshTables re-fetches the tables. Failures raise an error banner and
// the previous list is kept.
func (c *Client) RefreshTables() {
	if _, ok := c.dispatch(dashboard.TablesLoadStarted{}); !ok {
		return
	}
	list, err := c.api.FetchTables(c.ctx)
	if err != nil {
		if c.ctx.Err() != nil {
			c.logger.Debug("tables fetch abandoned", slog.Any("error", err))
			return
		}
		c.logger.Warn("tables fetch failed", slog.Any("error", err))
		c.dispatch(dashboard.TablesLoadFailed{})
		c.ShowNotification(MessageTablesFailed, dashboard.NotificationError)
		return
	}
	c.logger.Debug("tables fetched", slog.Int("tables", len(list)))
	c.dispatch(dashboard.TablesLoaded{Tables: list})
}

// SetField records one form input change.
func (c *Client) SetField(field dashboard.Field, value string) error {
	c.touch()
	if _, ok := c.dispatch(dashboard.FieldChanged{Field: field, Value: value}); !ok {
		return ErrSessionClosed
	}
	return nil
}

// SetForm records all three inputs at once, as a posted HTML form does.
func (c *Client) SetForm(form dashboard.FormState) error {
	for _, change := range []dashboard.FieldChanged{
		{Field: dashboard.FieldCustomerName, Value: form.CustomerName},
		{Field: dashboard.FieldEmail, Value: form.Email},
		{Field: dashboard.FieldTablePreference, Value: form.TablePreference},
	} {
		if err := c.SetField(change.Field, change.Value); err != nil {
			return err
		}
	}
	return nil
}

// Submit validates the email and posts the form to the waitlist endpoint.
// On success the form is cleared and the waitlist re-fetched once.
func (c *Client) Submit(ctx context.Context) (Outcome, error) {
	c.touch()
	state, ok := c.dispatch(dashboard.SubmitRequested{})
	if !ok {
		return OutcomeFailed, ErrSessionClosed
	}
	if state.Form.EmailError != "" {
		return OutcomeInvalid, nil
	}

	reqCtx, release := c.scope(ctx)
	defer release()

	if err := c.api.AddToWaitlist(reqCtx, state.Form.AddRequest()); err != nil {
		if c.Closed() {
			return OutcomeFailed, ErrSessionClosed
		}
		c.logger.Warn("add to waitlist failed", slog.Any("error", err))
		c.ShowNotification(MessageAddFailed, dashboard.NotificationError)
		return OutcomeFailed, nil
	}

	c.logger.Info("customer added to waitlist", slog.String("customer", state.Form.CustomerName))
	c.ShowNotification(MessageCustomerAdded, dashboard.NotificationSuccess)
	c.dispatch(dashboard.FormReset{})
	c.RefreshWaitlist()
	return OutcomeSucceeded, nil
}

// Notify asks the upstream to notify a waiting customer. The id is sent with
// the JSON type it was listed with. Repeated calls send repeated requests.
func (c *Client) Notify(ctx context.Context, customerID string) (Outcome, error) {
	c.touch()
	if c.Closed() {
		return OutcomeFailed, ErrSessionClosed
	}

	var rawID any = customerID
	if entry, ok := waitlist.FindEntry(c.State().Waitlist, customerID); ok && entry.RawID != nil {
		rawID = entry.RawID
	}

	reqCtx, release := c.scope(ctx)
	defer release()

	if err := c.api.NotifyCustomer(reqCtx, waitlist.NotifyRequest{CustomerID: rawID}); err != nil {
		if c.Closed() {
			return OutcomeFailed, ErrSessionClosed
		}
		c.logger.Warn("notify customer failed", slog.String("customerId", customerID), slog.Any("error", err))
		c.ShowNotification(MessageNotifyFailed, dashboard.NotificationError)
		return OutcomeFailed, nil
	}

	c.logger.Info("customer notified", slog.String("customerId", customerID))
	c.ShowNotification(MessageCustomerNotified, dashboard.NotificationSuccess)
	c.RefreshWaitlist()
	return OutcomeSucceeded, nil
}

// ShowNotification replaces the banner and schedules its expiry. The
// previous expiry is stopped, and a stale one that already fired is
// ignored by the reducer because its token no longer matches.
func (c *Client) ShowNotification(message string, kind dashboard.NotificationKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	next, regions := dashboard.Reduce(c.state, dashboard.NotificationShown{Message: message, Kind: kind})
	c.state = next
	token := next.Notification.Token
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
	}
	c.bannerTimer = c.afterFunc(c.bannerTTL, func() {
		c.dispatch(dashboard.NotificationExpired{Token: token})
	})
	c.notifyLocked(next, regions)
}

// Close tears the client down: pending requests are cancelled and their
// results dropped, the banner timer is stopped.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if !c.mounted {
		c.mounted = true
		close(c.ready)
	}
	if c.bannerTimer != nil {
		c.bannerTimer.Stop()
		c.bannerTimer = nil
	}
	c.mu.Unlock()
	c.cancel()
	c.logger.Debug("waitlist client closed")
}

func (c *Client) dispatch(ev dashboard.Event) (dashboard.State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return dashboard.State{}, false
	}
	next, regions := dashboard.Reduce(c.state, ev)
	c.state = next
	c.notifyLocked(next, regions)
	return next, true
}

func (c *Client) notifyLocked(state dashboard.State, regions dashboard.Region) {
	if c.notifier == nil || regions == dashboard.RegionNone {
		return
	}
	c.notifier.StateChanged(c.id, state, regions)
}

// scope derives a request context that ends with the client or with parent,
// whichever comes first.
func (c *Client) scope(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(c.ctx)
	if parent == nil {
		return ctx, cancel
	}
	stop := context.AfterFunc(parent, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
