package transport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"mesaYaWaitlist/internal/modules/dashboard/application/usecase"
	dashboard "mesaYaWaitlist/internal/modules/dashboard/domain"
	"mesaYaWaitlist/internal/modules/realtime/domain"
	"mesaYaWaitlist/internal/modules/realtime/infrastructure"
	"mesaYaWaitlist/internal/shared/normalization"
)

const viewSendBuffer = 32

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inputCommand struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type notifyCommand struct {
	CustomerID any `json:"customerId"`
}

type refreshCommand struct {
	Region string `json:"region"`
}

// View upgrades to a websocket bound to the cookie's session. The view gets
// every region on connect and a fragment for each later change; closing the
// last view of a session unmounts it. A stale cookie is replaced by a fresh session.
func (h *Handler) View(c echo.Context) error {
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	sessionID := ""
	if cookie, err := c.Cookie(h.cookieName); err == nil {
		sessionID = strings.TrimSpace(cookie.Value)
	}

	responseHeader := http.Header{}
	client, err := h.sessions.Attach(sessionID)
	if isSessionGone(err) {
		fresh := h.sessions.Create()
		client, err = h.sessions.Attach(fresh.ID())
		responseHeader.Add("Set-Cookie", h.sessionCookie(c, fresh.ID()).String())
		slog.Info("ws view replaced stale session", slog.String("previous", sessionID), slog.String("sessionId", fresh.ID()))
	}
	if err != nil {
		slog.Warn("ws view attach failed", slog.String("sessionId", sessionID), slog.String("reqId", requestID), slog.Any("error", err))
		return h.errors.HTTPError(err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), responseHeader)
	if err != nil {
		h.sessions.Detach(client.ID())
		slog.Error("ws view upgrade failed", slog.String("sessionId", client.ID()), slog.String("reqId", requestID), slog.Any("error", err))
		return err
	}

	userID := staffSubject(c)
	viewID := uuid.NewString()
	view := infrastructure.NewClient(h.hub, conn, userID, client.ID(), viewID, viewSendBuffer, h.commands(client))
	view.AddCloseHook(func(v *infrastructure.Client) {
		h.sessions.Detach(v.SessionID())
	})
	h.hub.AttachClient(view, []string{domain.TopicDashboardFragment})

	go view.WritePump()
	go view.ReadPump()

	view.SendDomainMessage(&domain.Message{
		Topic:  domain.TopicSystemConnected,
		Entity: domain.SystemEntity,
		Action: domain.ActionConnected,
		Metadata: map[string]string{
			domain.MetaUserID:    userID,
			domain.MetaSessionID: client.ID(),
			domain.MetaViewID:    viewID,
		},
		Data: map[string]any{
			"regions": dashboard.RegionAll.Names(),
		},
		Timestamp: time.Now().UTC(),
	})
	// The snapshot is taken after the view subscribed, so it is never older
	// than a fragment already queued for it.
	state := client.State()
	for _, fragment := range renderFragments(h.renderer, state, dashboard.RegionAll) {
		view.SendDomainMessage(domain.BuildFragmentMessage(client.ID(), fragment, time.Now(), summaryMetadata(state)))
	}

	slog.Info("ws view connected", slog.String("sessionId", client.ID()), slog.String("viewId", viewID), slog.String("userId", userID), slog.String("ip", c.RealIP()), slog.String("reqId", requestID))
	return nil
}

// commands builds the command set of one view bound to its session client.
func (h *Handler) commands(client *usecase.Client) *infrastructure.CommandProcessor {
	processor := infrastructure.NewCommandProcessor(func(_ context.Context, v *infrastructure.Client, cmd infrastructure.Command) {
		slog.Debug("ws view unknown action", slog.String("sessionId", v.SessionID()), slog.String("action", cmd.Action))
		sendCommandError(v, cmd.Action, "unsupported action")
	}, h.commandTimeout)

	processor.Register("input", func(_ context.Context, v *infrastructure.Client, cmd infrastructure.Command) {
		var payload inputCommand
		if err := cmd.Decode(&payload); err != nil {
			sendCommandError(v, "input", "invalid payload")
			return
		}
		field, ok := dashboard.ParseField(payload.Field)
		if !ok {
			sendCommandError(v, "input", "unknown field")
			return
		}
		if err := client.SetField(field, payload.Value); err != nil {
			sendCommandError(v, "input", err.Error())
		}
	})

	processor.Register("submit", func(ctx context.Context, v *infrastructure.Client, cmd infrastructure.Command) {
		if len(cmd.Payload) > 0 {
			var payload waitlistForm
			if err := cmd.Decode(&payload); err != nil {
				sendCommandError(v, "submit", "invalid payload")
				return
			}
			if err := client.SetForm(payload.state()); err != nil {
				sendCommandError(v, "submit", err.Error())
				return
			}
		}
		outcome, err := client.Submit(ctx)
		if err != nil {
			sendCommandError(v, "submit", err.Error())
			return
		}
		slog.Info("ws view submitted", slog.String("sessionId", v.SessionID()), slog.String("outcome", outcome.String()))
	})

	processor.Register("notify", func(ctx context.Context, v *infrastructure.Client, cmd infrastructure.Command) {
		var payload notifyCommand
		if err := cmd.Decode(&payload); err != nil {
			sendCommandError(v, "notify", "invalid payload")
			return
		}
		customerID := normalization.AsIdentifier(payload.CustomerID)
		if customerID == "" {
			sendCommandError(v, "notify", "missing customerId")
			return
		}
		outcome, err := client.Notify(ctx, customerID)
		if err != nil {
			sendCommandError(v, "notify", err.Error())
			return
		}
		slog.Info("ws view notified", slog.String("sessionId", v.SessionID()), slog.String("customerId", customerID), slog.String("outcome", outcome.String()))
	})

	processor.Register("refresh", func(_ context.Context, v *infrastructure.Client, cmd infrastructure.Command) {
		var payload refreshCommand
		if err := cmd.Decode(&payload); err != nil {
			sendCommandError(v, "refresh", "invalid payload")
			return
		}
		region := strings.TrimSpace(payload.Region)
		if region != "" && !normalization.IsValidEntity(region) {
			sendCommandError(v, "refresh", "unknown region")
			return
		}
		entity := normalization.NormalizeEntity(region)
		if entity != normalization.EntityTables {
			client.RefreshWaitlist()
		}
		if entity != normalization.EntityWaitlist {
			client.RefreshTables()
		}
	})

	return processor
}

func sendCommandError(v *infrastructure.Client, action, reason string) {
	msg := domain.BuildErrorMessage(domain.DashboardEntity, action, reason, time.Now())
	msg.Metadata[domain.MetaViewID] = v.ViewID()
	v.SendDomainMessage(msg)
}
