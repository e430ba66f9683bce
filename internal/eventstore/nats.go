package eventstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/logfields"
)

// Publisher forwards events to other systems.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Envelope is the wire format of a published event.
type Envelope struct {
	RunID     string            `json:"run_id"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Encode renders event as a JSON envelope.
func Encode(event Event) ([]byte, error) {
	payload := event.Payload()
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	data, err := json.Marshal(Envelope{
		RunID:     event.RunID(),
		Type:      event.Type(),
		Timestamp: event.Timestamp(),
		Payload:   payload,
		Metadata:  event.Metadata(),
	})
	if err != nil {
		return nil, derrors.InternalError("marshal event envelope", err)
	}
	return data, nil
}

// Subject is the subject an event of eventType is published on, for
// example texluacats.manager.runs.stage_completed.
func Subject(prefix, eventType string) string {
	var b strings.Builder
	for i, r := range eventType {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return prefix + "." + strings.ToLower(b.String())
}

// NATSPublisher publishes events on core NATS subjects.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the server at url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("texluacats-manager"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, derrors.FetchFailed(url, err).WithContext("subject", subject)
	}
	slog.Info("NATS publisher connected", logfields.URL(url), slog.String("subject", subject))
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Publish sends the event with the run ID as header.
func (p *NATSPublisher) Publish(_ context.Context, event Event) error {
	data, err := Encode(event)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(Subject(p.subject, event.Type()))
	msg.Header.Set("Run-Id", event.RunID())
	msg.Data = data
	if err := p.conn.PublishMsg(msg); err != nil {
		return derrors.FetchFailed(p.conn.ConnectedUrl(), err).WithContext("subject", msg.Subject)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	err := p.conn.Drain()
	if err != nil {
		p.conn.Close()
	}
	return err
}
