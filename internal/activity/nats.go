package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/MuhammadMagdy7/money-transfer/internal/telemetry"
)

// SubjectPrefix is prepended to the event kind to form the NATS subject.
const SubjectPrefix = "portal.activity."

// NATSPublisher publishes activity events to NATS
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("money-transfer-portal"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

// Subject returns the subject an event of the given kind is published on
func Subject(kind Kind) string {
	return SubjectPrefix + string(kind)
}

// Publish sends one event without waiting for any consumer
func (p *NATSPublisher) Publish(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(Subject(ev.Kind), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Record implements Recorder
func (p *NATSPublisher) Record(ctx context.Context, ev Event) {
	if err := p.Publish(ev); err != nil {
		telemetry.ActivityEventsTotal.WithLabelValues("nats", "error").Inc()
		slog.ErrorContext(ctx, "Failed to publish activity event", "kind", ev.Kind, "error", err)
		return
	}
	telemetry.ActivityEventsTotal.WithLabelValues("nats", "ok").Inc()
}

// Conn returns the underlying NATS connection
func (p *NATSPublisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the NATS connection
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
		p.conn.Close()
	}
}
