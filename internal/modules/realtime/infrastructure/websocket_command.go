package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"mesaYaWaitlist/internal/modules/realtime/domain"
)

type Command struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (c Command) actionKey() string {
	return normalizeAction(c.Action)
}

// Decode unmarshals the payload into v. An empty payload leaves v untouched.
func (c Command) Decode(v any) error {
	if len(c.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(c.Payload, v)
}

type CommandHandler func(ctx context.Context, client *Client, cmd Command)

type CommandProcessor struct {
	handlers map[string]CommandHandler
	fallback CommandHandler
	timeout  time.Duration
}

func NewCommandProcessor(fallback CommandHandler, timeout time.Duration) *CommandProcessor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	processor := &CommandProcessor{
		handlers: make(map[string]CommandHandler),
		fallback: fallback,
		timeout:  timeout,
	}
	processor.Register("ping", processor.handlePing)
	return processor
}

func (p *CommandProcessor) Register(action string, handler CommandHandler) {
	if handler == nil {
		return
	}
	key := normalizeAction(action)
	if key == "" {
		return
	}
	p.handlers[key] = handler
}

// Process runs the handler registered for the command action, or the
// fallback, synchronously and bounded by the processor timeout.
func (p *CommandProcessor) Process(client *Client, cmd Command) {
	if client == nil {
		return
	}

	action := cmd.actionKey()
	if action == "" {
		return
	}

	handler, ok := p.handlers[action]
	if !ok {
		handler = p.fallback
	}
	if handler == nil {
		slog.Debug("ws command ignored", slog.String("sessionId", client.sessionID), slog.String("viewId", client.viewID), slog.String("action", action))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	handler(ctx, client, cmd)
}

func (p *CommandProcessor) handlePing(_ context.Context, client *Client, _ Command) {
	ack := domain.Message{
		Topic:     domain.TopicSystemPong,
		Entity:    domain.SystemEntity,
		Action:    domain.ActionPong,
		Timestamp: time.Now().UTC(),
	}
	client.SendDomainMessage(&ack)
}

func normalizeAction(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}
