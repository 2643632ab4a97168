// Package events fans domain events out to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"hackathon-portal/internal/model"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type Publisher interface {
	Publish(ctx context.Context, event model.Event) error
	Close()
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(ctx context.Context, event model.Event) error { return nil }

func (Noop) Close() {}

// NATSPublisher publishes each event as JSON on <prefix>.<type>.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

func ConnectNATS(url, prefix string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("hackathon-portal"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, event model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.conn.Publish(Subject(p.prefix, event.Type), data)
}

// Close flushes pending messages before disconnecting.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		log.Warn().Err(err).Msg("drain NATS connection")
		p.conn.Close()
	}
}

// Subject builds the NATS subject for an event type. Characters that NATS
// treats as separators or wildcards are replaced.
func Subject(prefix, eventType string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ':
			return '_'
		}
		return r
	}, eventType)
	if prefix == "" {
		return clean
	}
	return strings.TrimSuffix(prefix, ".") + "." + clean
}
