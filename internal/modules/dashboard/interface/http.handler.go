package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"mesaYaWaitlist/internal/modules/dashboard/application/port"
	"mesaYaWaitlist/internal/modules/dashboard/application/usecase"
	dashboard "mesaYaWaitlist/internal/modules/dashboard/domain"
	"mesaYaWaitlist/internal/modules/realtime/infrastructure"
	"mesaYaWaitlist/internal/shared/httputil"
)

const (
	defaultCookieName     = "waitlist_session"
	defaultRenderWait     = 2 * time.Second
	defaultCommandTimeout = 10 * time.Second
)

// Options tunes the front desk handlers. Zero values fall back to defaults.
type Options struct {
	CookieName     string
	RenderWait     time.Duration
	CommandTimeout time.Duration
}

// Handler serves the front desk page, its form fallbacks and the live view.
type Handler struct {
	sessions       *usecase.Sessions
	renderer       *Renderer
	hub            *infrastructure.Hub
	cookieName     string
	renderWait     time.Duration
	commandTimeout time.Duration
	errors         *httputil.ErrorMapper
}

// waitlistForm is the posted add-to-waitlist form. partySize is accepted as
// the legacy name of tablePreference.
type waitlistForm struct {
	CustomerName    string `form:"customerName" json:"customerName"`
	Email           string `form:"email" json:"email"`
	TablePreference string `form:"tablePreference" json:"tablePreference"`
	PartySize       string `form:"partySize" json:"partySize"`
}

func (f waitlistForm) state() dashboard.FormState {
	preference := f.TablePreference
	if strings.TrimSpace(preference) == "" {
		preference = f.PartySize
	}
	return dashboard.FormState{
		CustomerName:    strings.TrimSpace(f.CustomerName),
		Email:           strings.TrimSpace(f.Email),
		TablePreference: strings.TrimSpace(preference),
	}
}

func NewHandler(sessions *usecase.Sessions, renderer *Renderer, hub *infrastructure.Hub, opts Options) *Handler {
	if strings.TrimSpace(opts.CookieName) == "" {
		opts.CookieName = defaultCookieName
	}
	if opts.RenderWait <= 0 {
		opts.RenderWait = defaultRenderWait
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = defaultCommandTimeout
	}
	return &Handler{
		sessions:       sessions,
		renderer:       renderer,
		hub:            hub,
		cookieName:     strings.TrimSpace(opts.CookieName),
		renderWait:     opts.RenderWait,
		commandTimeout: opts.CommandTimeout,
		errors: httputil.NewErrorMapper().
			WithMapping(port.ErrSessionNotFound, http.StatusNotFound, "session not found").
			WithMapping(usecase.ErrSessionClosed, http.StatusConflict, "session closed"),
	}
}

// Register mounts the routes on e. Middlewares guard everything except /healthz.
func (h *Handler) Register(e *echo.Echo, middlewares ...echo.MiddlewareFunc) {
	e.Renderer = h.renderer
	e.GET("/healthz", h.Healthz)

	g := e.Group("", middlewares...)
	g.GET("/", h.Page)
	g.POST("/waitlist", h.SubmitForm)
	g.POST("/notify/:id", h.Notify)
	g.GET("/ws/session", h.View)
}

// Page renders the front desk for the cookie's session, creating one if needed.
func (h *Handler) Page(c echo.Context) error {
	client := h.session(c)
	h.awaitReady(c.Request().Context(), client)
	return c.Render(http.StatusOK, "page", client.State())
}

// SubmitForm is the no-script fallback of the add-to-waitlist form.
func (h *Handler) SubmitForm(c echo.Context) error {
	var form waitlistForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form body").SetInternal(err)
	}

	client := h.session(c)
	h.awaitReady(c.Request().Context(), client)
	if err := client.SetForm(form.state()); err != nil {
		return h.errors.HTTPError(err)
	}

	outcome, err := client.Submit(c.Request().Context())
	if err != nil {
		return h.errors.HTTPError(err)
	}
	slog.Info("waitlist form submitted", slog.String("sessionId", client.ID()), slog.String("outcome", outcome.String()), slog.String("staff", staffSubject(c)))
	if outcome == usecase.OutcomeInvalid {
		return c.Render(http.StatusUnprocessableEntity, "page", client.State())
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// Notify is the no-script fallback of a Notificar button.
func (h *Handler) Notify(c echo.Context) error {
	customerID := strings.TrimSpace(c.Param("id"))
	if customerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing customer id")
	}

	client := h.session(c)
	h.awaitReady(c.Request().Context(), client)
	outcome, err := client.Notify(c.Request().Context(), customerID)
	if err != nil {
		return h.errors.HTTPError(err)
	}
	slog.Info("notify requested", slog.String("sessionId", client.ID()), slog.String("customerId", customerID), slog.String("outcome", outcome.String()), slog.String("staff", staffSubject(c)))
	return c.Redirect(http.StatusSeeOther, "/")
}

// Healthz reports liveness with session and view counts.
func (h *Handler) Healthz(c echo.Context) error {
	views := 0
	if h.hub != nil {
		views = h.hub.Len()
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.sessions.Len(),
		"views":    views,
	})
}

// session returns the cookie's live session or mounts a new one and sets the cookie.
func (h *Handler) session(c echo.Context) *usecase.Client {
	id := ""
	if cookie, err := c.Cookie(h.cookieName); err == nil {
		id = cookie.Value
	}
	client, created := h.sessions.GetOrCreate(id)
	if created {
		c.SetCookie(h.sessionCookie(c, client.ID()))
	}
	return client
}

func (h *Handler) sessionCookie(c echo.Context, id string) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.IsTLS(),
	}
}

// awaitReady gives the initial loads a bounded head start so the first render
// usually shows data instead of "Cargando...".
func (h *Handler) awaitReady(ctx context.Context, client *usecase.Client) {
	timer := time.NewTimer(h.renderWait)
	defer timer.Stop()
	select {
	case <-client.Ready():
	case <-timer.C:
		slog.Debug("rendering before initial loads settled", slog.String("sessionId", client.ID()))
	case <-ctx.Done():
	}
}

func isSessionGone(err error) bool {
	return errors.Is(err, port.ErrSessionNotFound) || errors.Is(err, usecase.ErrSessionClosed)
}
