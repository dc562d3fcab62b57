package handler

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"mesaYaWaitlist/internal/modules/dashboard/application/usecase"
	rtport "mesaYaWaitlist/internal/modules/realtime/application/port"
	"mesaYaWaitlist/internal/modules/realtime/domain"
	"mesaYaWaitlist/internal/shared/normalization"
)

// SessionSet is the part of the session registry a refresh needs.
type SessionSet interface {
	Each(fn func(*usecase.Client))
}

// RefreshHandler re-fetches a collection in every live session when a Kafka
// topic reports that it changed elsewhere. Actions can be filtered to avoid
// refreshing on noise.
type RefreshHandler struct {
	entity         string
	kafkaTopic     string
	allowedActions map[string]struct{}
	sessions       SessionSet
}

// NewRefreshHandler binds a Kafka topic to an entity. An empty entity is taken
// from each message instead.
func NewRefreshHandler(entity, kafkaTopic string, allowedActions []string, sessions SessionSet) *RefreshHandler {
	actionSet := make(map[string]struct{}, len(allowedActions))
	for _, a := range allowedActions {
		if v := strings.TrimSpace(strings.ToLower(a)); v != "" {
			actionSet[v] = struct{}{}
		}
	}
	return &RefreshHandler{
		entity:         normalization.NormalizeEntity(entity),
		kafkaTopic:     strings.TrimSpace(kafkaTopic),
		allowedActions: actionSet,
		sessions:       sessions,
	}
}

func (h *RefreshHandler) Topic() string { return h.kafkaTopic }

func (h *RefreshHandler) Handle(ctx context.Context, msg *domain.Message) error {
	if msg == nil {
		return nil
	}
	if len(h.allowedActions) > 0 {
		if _, ok := h.allowedActions[strings.ToLower(strings.TrimSpace(msg.Action))]; !ok {
			slog.Debug("refresh skipped by action filter", slog.String("topic", h.kafkaTopic), slog.String("action", msg.Action))
			return nil
		}
	}

	entity := h.entity
	if entity == "" {
		entity = normalization.NormalizeEntity(msg.Entity)
	}

	var refresh func(*usecase.Client)
	switch entity {
	case normalization.EntityWaitlist:
		refresh = (*usecase.Client).RefreshWaitlist
	case normalization.EntityTables:
		refresh = (*usecase.Client).RefreshTables
	default:
		slog.Debug("refresh ignored unknown entity", slog.String("topic", h.kafkaTopic), slog.String("entity", msg.Entity))
		return nil
	}

	var wg sync.WaitGroup
	count := 0
	h.sessions.Each(func(client *usecase.Client) {
		count++
		wg.Add(1)
		go func() {
			defer wg.Done()
			refresh(client)
		}()
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	slog.Info("sessions refreshed", slog.String("entity", entity), slog.String("action", msg.Action), slog.Int("sessions", count))
	return nil
}

var _ rtport.TopicHandler = (*RefreshHandler)(nil)
