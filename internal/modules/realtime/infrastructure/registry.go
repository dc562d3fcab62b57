package infrastructure

import (
	"context"
	"errors"
	"sort"

	"mesaYaWaitlist/internal/modules/realtime/application/port"
	"mesaYaWaitlist/internal/modules/realtime/domain"
)

// HandlerRegistry routes consumed messages to the handlers of their topic.
type HandlerRegistry struct {
	handlers map[string][]port.TopicHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string][]port.TopicHandler)}
}

func (r *HandlerRegistry) Register(h port.TopicHandler) {
	if h == nil || h.Topic() == "" {
		return
	}
	r.handlers[h.Topic()] = append(r.handlers[h.Topic()], h)
}

// Topics lists the registered topics in a stable order.
func (r *HandlerRegistry) Topics() []string {
	topics := make([]string, 0, len(r.handlers))
	for topic := range r.handlers {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Dispatch hands msg to every handler registered for the topic it was read from.
func (r *HandlerRegistry) Dispatch(ctx context.Context, topic string, msg *domain.Message) error {
	if msg == nil {
		return nil
	}
	var errs []error
	for _, handler := range r.handlers[topic] {
		if err := handler.Handle(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
