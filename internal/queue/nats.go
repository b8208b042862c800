// internal/queue/nats.go
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"opening-server/internal/config"
	"opening-server/internal/models"
)

// NATS is a Queue backed by a NATS subject, for running submission endpoints
// and pipeline workers as separate processes.
type NATS struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	logger  zerolog.Logger
}

func NewNATS(cfg config.QueueConfig, logger zerolog.Logger) (*NATS, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &NATS{
		conn:    conn,
		subject: cfg.Subject,
		logger:  logger,
	}, nil
}

func (n *NATS) Publish(ctx context.Context, job *models.GenerationInput) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return n.conn.Publish(n.subject, data)
}

func (n *NATS) Consume(ctx context.Context) (<-chan *models.GenerationInput, error) {
	msgs := make(chan *nats.Msg, 64)
	sub, err := n.conn.ChanSubscribe(n.subject, msgs)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", n.subject, err)
	}
	n.sub = sub

	jobs := make(chan *models.GenerationInput)
	go func() {
		defer close(jobs)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var job models.GenerationInput
				if err := json.Unmarshal(msg.Data, &job); err != nil {
					n.logger.Error().Err(err).Msg("discarding malformed job message")
					continue
				}
				select {
				case jobs <- &job:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return jobs, nil
}

func (n *NATS) Close() error {
	if n.sub != nil {
		if err := n.sub.Unsubscribe(); err != nil {
			n.logger.Warn().Err(err).Msg("failed to unsubscribe")
		}
	}
	n.conn.Close()
	return nil
}
