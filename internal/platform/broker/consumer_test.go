package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"mesaYaWaitlist/internal/modules/realtime/domain"
	"mesaYaWaitlist/internal/modules/realtime/infrastructure"
)

func TestDecodeMessageStructuredEvent(t *testing.T) {
	msg := decodeMessage(kafka.Message{
		Topic: "mesaya.waitlist.updated",
		Value: []byte(`{"entity":"waitlist","action":"created","resourceId":" 7 ","metadata":{"source":"kiosk"},"data":{"id":7}}`),
	})
	if msg.Entity != "waitlist" || msg.Action != "created" || msg.ResourceID != "7" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Topic != "waitlist.created" {
		t.Fatalf("unexpected topic: %s", msg.Topic)
	}
	if msg.Metadata["source"] != "kiosk" {
		t.Fatalf("unexpected metadata: %v", msg.Metadata)
	}
}

func TestDecodeMessageFallsBackToTopic(t *testing.T) {
	msg := decodeMessage(kafka.Message{Topic: "tables.updated", Value: []byte("refresh please")})
	if msg.Entity != "tables" || msg.Action != "updated" || msg.Topic != "tables.updated" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Data != "refresh please" {
		t.Fatalf("unexpected data: %#v", msg.Data)
	}

	empty := decodeMessage(kafka.Message{Topic: "waitlist", Value: []byte(`{}`)})
	if empty.Entity != "waitlist" || empty.Action != "unknown" {
		t.Fatalf("unexpected message: %+v", empty)
	}
}

type scriptedReader struct {
	messages []kafka.Message
	errs     []error
	cancel   context.CancelFunc
	closed   bool
}

func (r *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return kafka.Message{}, err
	}
	if len(r.messages) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

func TestConsumeStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &scriptedReader{
		messages: []kafka.Message{
			{Topic: "waitlist.updated", Value: []byte(`{"action":"updated"}`)},
			{Topic: "waitlist.updated", Value: []byte(`{"action":"deleted"}`)},
		},
		cancel: cancel,
	}
	consumer := &KafkaConsumer{reader: reader}

	var sources []string
	err := consumer.Consume(ctx, func(topic string, msg *domain.Message) error {
		sources = append(sources, topic+":"+msg.Action)
		return errors.New("handler errors are only logged")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(sources) != 2 || sources[0] != "waitlist.updated:updated" || sources[1] != "waitlist.updated:deleted" {
		t.Fatalf("unexpected handled messages: %v", sources)
	}
	if !reader.closed {
		t.Fatal("reader must be closed")
	}
}

func TestStartKafkaConsumersWithoutBrokers(t *testing.T) {
	wg := StartKafkaConsumers(context.Background(), infrastructure.NewHandlerRegistry(), nil, "group")
	wg.Wait()
}
