package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const eventStreamName = "file-events"

// Event subjects emitted by this service. Downstream consumers (audit,
// notifications) subscribe on their side; this service only publishes.
const (
	SubjectFileUploaded = "files.uploaded"
	SubjectFileShared   = "files.shared"
	SubjectFileAccessed = "files.accessed"
	SubjectFileDeleted  = "files.deleted"
)

// NatsPublisher publishes domain events via JetStream (durable, stored).
type NatsPublisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// ConnectNATS connects, initializes JetStream and ensures the event stream
// exists (idempotent).
func ConnectNATS(url string) (*NatsPublisher, error) {
	opts := []nats.Option{
		nats.Name("vault-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("[NATS] disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Println("[NATS] connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, err
	}

	p := &NatsPublisher{conn: conn, js: js}
	if err := p.ensureStream(); err != nil {
		// Not fatal; publishes will fail loudly until the stream exists.
		log.Printf("[NATS] warning: failed to ensure stream: %v", err)
	}

	log.Println("[NATS] connected and JetStream initialized")
	return p, nil
}

func (p *NatsPublisher) ensureStream() error {
	if _, err := p.js.StreamInfo(eventStreamName); err == nil {
		return nil
	}
	_, err := p.js.AddStream(&nats.StreamConfig{
		Name:     eventStreamName,
		Subjects: []string{"files.*"},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	return err
}

// Publish marshals payload to JSON and publishes it with a MsgId for
// idempotent consumption.
func (p *NatsPublisher) Publish(subject string, payload interface{}) error {
	if p == nil || p.js == nil {
		return fmt.Errorf("jetstream not initialized")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := p.js.Publish(subject, data, nats.MsgId(uuid.New().String())); err != nil {
		log.Printf("[NATS] publish failed subject=%s err=%v", subject, err)
		return err
	}
	return nil
}

func (p *NatsPublisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

// NoopPublisher keeps the service running when NATS is unavailable; events
// are dropped with a log line.
type NoopPublisher struct{}

func (NoopPublisher) Publish(subject string, _ interface{}) error {
	log.Printf("[NATS] event bus unavailable, dropping event %s", subject)
	return nil
}
