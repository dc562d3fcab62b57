package port

import (
	"context"

	"mesaYaWaitlist/internal/modules/realtime/domain"
)

// Broadcaster define el contrato para enviar mensajes a los clientes WebSocket.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg *domain.Message)
}

// TopicHandler define la interfaz que deben implementar los handlers registrados por tópico.
type TopicHandler interface {
	Topic() string
	Handle(ctx context.Context, msg *domain.Message) error
}
