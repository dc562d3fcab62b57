package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mesaYaWaitlist/internal/modules/dashboard/application/port"
	dashboard "mesaYaWaitlist/internal/modules/dashboard/domain"
	tables "mesaYaWaitlist/internal/modules/tables/domain"
	waitlist "mesaYaWaitlist/internal/modules/waitlist/domain"
)

type fakeAPI struct {
	mu sync.Mutex

	entries     []waitlist.Entry
	tableList   []tables.Table
	waitlistErr error
	tablesErr   error
	addErr      error
	notifyErr   error

	waitlistCalls int
	tablesCalls   int
	added         []waitlist.AddRequest
	notified      []waitlist.NotifyRequest

	// blockWaitlist, when set, holds FetchWaitlist until it is closed or ctx ends.
	blockWaitlist chan struct{}
}

func (f *fakeAPI) FetchWaitlist(ctx context.Context) ([]waitlist.Entry, error) {
	f.mu.Lock()
	f.waitlistCalls++
	block := f.blockWaitlist
	entries, err := f.entries, f.waitlistErr
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return entries, err
}

func (f *fakeAPI) FetchTables(context.Context) ([]tables.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tablesCalls++
	return f.tableList, f.tablesErr
}

func (f *fakeAPI) AddToWaitlist(_ context.Context, req waitlist.AddRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, req)
	return f.addErr
}

func (f *fakeAPI) NotifyCustomer(_ context.Context, req waitlist.NotifyRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, req)
	return f.notifyErr
}

func (f *fakeAPI) counts() (int, int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waitlistCalls, f.tablesCalls, len(f.added), len(f.notified)
}

// manualTimers records scheduled callbacks and fires them on demand.
type manualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

func (m *manualTimers) AfterFunc(_ time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	timer := &manualTimer{fn: fn}
	m.timers = append(m.timers, timer)
	return timer
}

// fire runs the i-th scheduled callback even if it was stopped, which is
// what happens when Stop loses the race against an expiring timer.
func (m *manualTimers) fire(i int) {
	m.mu.Lock()
	timer := m.timers[i]
	m.mu.Unlock()
	timer.fn()
}

func (m *manualTimers) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func newTestClient(api *fakeAPI, timers *manualTimers) *Client {
	return NewClient("session-1", api, ClientOptions{AfterFunc: timers.AfterFunc})
}

func waitReady(t *testing.T, client *Client) {
	t.Helper()
	select {
	case <-client.Mount():
	case <-time.After(2 * time.Second):
		t.Fatal("initial loads did not settle")
	}
}

func TestMountLoadsBothLists(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		entries:   []waitlist.Entry{{ID: "1", CustomerName: "Ana"}},
		tableList: []tables.Table{{ID: "t-1", Status: true}},
	}
	client := newTestClient(api, &manualTimers{})
	waitReady(t, client)

	state := client.State()
	if len(state.Waitlist) != 1 || len(state.Tables) != 1 {
		t.Fatalf("unexpected state: %+v", state)
	}
	if state.LoadingWaitlist || state.LoadingTables {
		t.Fatalf("loading flags must be cleared: %+v", state)
	}

	client.Mount()
	if w, tb, _, _ := api.counts(); w != 1 || tb != 1 {
		t.Fatalf("mount must load once, got waitlist=%d tables=%d", w, tb)
	}
}

func TestSubmitWithInvalidEmailSendsNothing(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	client := newTestClient(api, &manualTimers{})
	waitReady(t, client)

	if err := client.SetForm(dashboard.FormState{CustomerName: "Ana", Email: "not-an-email"}); err != nil {
		t.Fatalf("set form: %v", err)
	}
	outcome, err := client.Submit(context.Background())
	if err != nil || outcome != OutcomeInvalid {
		t.Fatalf("expected invalid outcome, got %v %v", outcome, err)
	}
	if _, _, added, _ := api.counts(); added != 0 {
		t.Fatalf("no request expected, got %d", added)
	}
	if got := client.State().Form.EmailError; got != waitlist.InvalidEmailMessage {
		t.Fatalf("expected inline error, got %q", got)
	}
}

func TestSubmitSuccessResetsFormAndRefetchesOnce(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{entries: []waitlist.Entry{{ID: "1"}}}
	client := newTestClient(api, &manualTimers{})
	waitReady(t, client)

	_ = client.SetForm(dashboard.FormState{CustomerName: "Ana", Email: "a@b.com", TablePreference: "4"})
	outcome, err := client.Submit(context.Background())
	if err != nil || outcome != OutcomeSucceeded {
		t.Fatalf("expected success, got %v %v", outcome, err)
	}

	api.mu.Lock()
	req := api.added[0]
	api.mu.Unlock()
	if req.CustomerID != "Ana" || req.Email != "a@b.com" || req.TablePreference != "4" {
		t.Fatalf("unexpected add request: %+v", req)
	}

	state := client.State()
	if state.Form != (dashboard.FormState{}) {
		t.Fatalf("form must be cleared: %+v", state.Form)
	}
	if state.Notification == nil || state.Notification.Message != MessageCustomerAdded || state.Notification.Kind != dashboard.NotificationSuccess {
		t.Fatalf("unexpected banner: %+v", state.Notification)
	}
	if w, _, _, _ := api.counts(); w != 2 {
		t.Fatalf("expected one extra waitlist fetch, got %d total", w)
	}
}

func TestSubmitFailureKeepsFormAndShowsError(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{addErr: errors.New("boom")}
	client := newTestClient(api, &manualTimers{})
	waitReady(t, client)

	form := dashboard.FormState{CustomerName: "Ana", Email: "a@b.com"}
	_ = client.SetForm(form)
	outcome, err := client.Submit(context.Background())
	if err != nil || outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %v %v", outcome, err)
	}

	state := client.State()
	if state.Form.CustomerName != "Ana" || state.Form.Email != "a@b.com" {
		t.Fatalf("form must be kept: %+v", state.Form)
	}
	if state.Notification == nil || state.Notification.Message != MessageAddFailed || state.Notification.Kind != dashboard.NotificationError {
		t.Fatalf("unexpected banner: %+v", state.Notification)
	}
	if w, _, _, _ := api.counts(); w != 1 {
		t.Fatalf("failed submit must not refetch, got %d fetches", w)
	}
}

func TestTablesFailureShowsBannerAndKeepsList(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{tableList: []tables.Table{{ID: "t-1"}}}
	client := newTestClient(api, &manualTimers{})
	waitReady(t, client)

	api.mu.Lock()
	api.tablesErr = errors.New("down")
	api.mu.Unlock()
	client.RefreshTables()

	state := client.State()
	if len(state.Tables) != 1 || state.Tables[0].ID != "t-1" {
		t.Fatalf("previous tables must be kept: %+v", state.Tables)
	}
	if state.Notification == nil || state.Notification.Message != MessageTablesFailed {
		t.Fatalf("expected tables banner, got %+v", state.Notification)
	}
}

func TestWaitlistFailureIsSilent(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{entries: []waitlist.Entry{{ID: "1"}}}
	client := newTestClient(api, &manualTimers{})
	waitReady(t, client)

	api.mu.Lock()
	api.waitlistErr = errors.New("down")
	api.mu.Unlock()
	client.RefreshWaitlist()

	state := client.State()
	if len(state.Waitlist) != 1 {
		t.Fatalf("previous waitlist must be kept: %+v", state.Waitlist)
	}
	if state.Notification != nil {
		t.Fatalf("waitlist failures must not raise a banner: %+v", state.Notification)
	}
}

func TestBannerClearsWhenTimerFires(t *testing.T) {
	t.Parallel()

	timers := &manualTimers{}
	client := newTestClient(&fakeAPI{}, timers)
	waitReady(t, client)

	client.ShowNotification("X", dashboard.NotificationSuccess)
	if client.State().Notification == nil {
		t.Fatal("banner expected")
	}
	timers.fire(timers.len() - 1)
	if n := client.State().Notification; n != nil {
		t.Fatalf("banner must clear, got %+v", n)
	}
}

func TestStaleTimerDoesNotClearNewerBanner(t *testing.T) {
	t.Parallel()

	timers := &manualTimers{}
	client := newTestClient(&fakeAPI{}, timers)
	waitReady(t, client)

	client.ShowNotification("first", dashboard.NotificationSuccess)
	first := timers.len() - 1
	client.ShowNotification("second", dashboard.NotificationError)

	timers.fire(first)
	n := client.State().Notification
	if n == nil || n.Message != "second" {
		t.Fatalf("stale timer cleared the newer banner: %+v", n)
	}

	timers.fire(timers.len() - 1)
	if n := client.State().Notification; n != nil {
		t.Fatalf("current timer must clear the banner, got %+v", n)
	}
}

func TestCloseDropsLateResults(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	api := &fakeAPI{entries: []waitlist.Entry{{ID: "late"}}, blockWaitlist: block}
	client := newTestClient(api, &manualTimers{})
	ready := client.Mount()

	client.Close()
	close(block)

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("mount did not settle after close")
	}
	if got := client.State().Waitlist; len(got) != 0 {
		t.Fatalf("late result applied after close: %+v", got)
	}
	if _, err := client.Submit(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestCloseBeforeMountReleasesReady(t *testing.T) {
	t.Parallel()

	client := newTestClient(&fakeAPI{}, &manualTimers{})
	client.Close()
	select {
	case <-client.Ready():
	default:
		t.Fatal("ready must be closed")
	}
}

func TestNotifySendsListedIDType(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{entries: []waitlist.Entry{{ID: "7", RawID: float64(7), CustomerName: "Ana"}}}
	client := newTestClient(api, &manualTimers{})
	waitReady(t, client)

	outcome, err := client.Notify(context.Background(), "7")
	if err != nil || outcome != OutcomeSucceeded {
		t.Fatalf("expected success, got %v %v", outcome, err)
	}
	outcome, _ = client.Notify(context.Background(), "unknown")
	if outcome != OutcomeSucceeded {
		t.Fatalf("expected success, got %v", outcome)
	}

	api.mu.Lock()
	notified := append([]waitlist.NotifyRequest(nil), api.notified...)
	api.mu.Unlock()

	if len(notified) != 2 {
		t.Fatalf("expected two requests, got %d", len(notified))
	}
	if id, ok := notified[0].CustomerID.(float64); !ok || id != 7 {
		t.Fatalf("expected numeric id, got %#v", notified[0].CustomerID)
	}
	if id, ok := notified[1].CustomerID.(string); !ok || id != "unknown" {
		t.Fatalf("expected string id, got %#v", notified[1].CustomerID)
	}
	if n := client.State().Notification; n == nil || n.Message != MessageCustomerNotified {
		t.Fatalf("unexpected banner: %+v", n)
	}
}

func TestNotifyTwiceSendsTwoRequests(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{entries: []waitlist.Entry{{ID: "1", RawID: "1"}}}
	client := newTestClient(api, &manualTimers{})
	waitReady(t, client)

	_, _ = client.Notify(context.Background(), "1")
	_, _ = client.Notify(context.Background(), "1")

	if _, _, _, notified := api.counts(); notified != 2 {
		t.Fatalf("expected two notify requests, got %d", notified)
	}
	if w, _, _, _ := api.counts(); w != 3 {
		t.Fatalf("expected a refetch per notify, got %d fetches", w)
	}
}

func TestNotifyFailureShowsError(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{notifyErr: errors.New("boom")}
	client := newTestClient(api, &manualTimers{})
	waitReady(t, client)

	outcome, err := client.Notify(context.Background(), "1")
	if err != nil || outcome != OutcomeFailed {
		t.Fatalf("expected failure, got %v %v", outcome, err)
	}
	if n := client.State().Notification; n == nil || n.Message != MessageNotifyFailed || n.Kind != dashboard.NotificationError {
		t.Fatalf("unexpected banner: %+v", n)
	}
}

func TestNotifierSeesRegions(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen dashboard.Region
	notifier := func(_ string, _ dashboard.State, regions dashboard.Region) {
		mu.Lock()
		seen |= regions
		mu.Unlock()
	}

	client := NewClient("s", &fakeAPI{}, ClientOptions{
		AfterFunc: (&manualTimers{}).AfterFunc,
		Notifier:  port.ViewNotifierFunc(notifier),
	})
	waitReady(t, client)
	client.ShowNotification("hi", dashboard.NotificationSuccess)

	mu.Lock()
	defer mu.Unlock()
	if !seen.Has(dashboard.RegionWaitlist) || !seen.Has(dashboard.RegionTables) || !seen.Has(dashboard.RegionBanner) {
		t.Fatalf("missing regions: %v", seen.Names())
	}
}
