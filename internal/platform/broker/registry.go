package broker

import (
	"context"
	"log/slog"
	"sync"

	"mesaYaWaitlist/internal/modules/realtime/domain"
	"mesaYaWaitlist/internal/modules/realtime/infrastructure"
)

// StartKafkaConsumers starts one consumer per registered topic and returns a
// WaitGroup that is done once every consumer has stopped with ctx.
func StartKafkaConsumers(
	ctx context.Context,
	registry *infrastructure.HandlerRegistry,
	brokers []string,
	groupID string,
) *sync.WaitGroup {
	var wg sync.WaitGroup
	if len(brokers) == 0 {
		// No brokers configured; kafka.NewReader must not be called with an empty broker list.
		slog.Info("kafka consumers disabled: no brokers configured")
		return &wg
	}
	for _, topic := range registry.Topics() {
		wg.Add(1)
		go func(tp string) {
			defer wg.Done()
			consumer := NewKafkaConsumer(brokers, groupID, tp)
			slog.Info("kafka consumer started", slog.String("topic", tp), slog.String("group", groupID))
			err := consumer.Consume(ctx, func(source string, msg *domain.Message) error {
				return registry.Dispatch(ctx, source, msg)
			})
			slog.Info("kafka consumer stopped", slog.String("topic", tp), slog.Any("reason", err))
		}(topic)
	}
	return &wg
}
