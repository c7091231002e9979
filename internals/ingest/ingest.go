// Package ingest consumes scored stock updates from the broker and applies
// them to the live stock rows.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/portfoligo/api-server/internals/stocks"
	"github.com/portfoligo/api-server/pkg/kvstore"
)

// StocksChannel is the KV channel live stock rows are published on after an
// update.
const StocksChannel = "stocks"

var ErrEmptyMessage = errors.New("empty score update message")

// Channel is the part of *amqp.Channel the consumer uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Consumer struct {
	KV     kvstore.KVStore
	Stocks *stocks.StockService
	log    zerolog.Logger
}

func New(kv kvstore.KVStore, db *gorm.DB, log zerolog.Logger) *Consumer {
	return &Consumer{
		KV:     kv,
		Stocks: stocks.New(db),
		log:    log.With().Str("component", "ingest").Logger(),
	}
}

// decode accepts a single update object or an array of them.
func decode(body []byte) ([]stocks.ScoreUpdate, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrEmptyMessage
	}
	if body[0] == '[' {
		var updates []stocks.ScoreUpdate
		if err := json.Unmarshal(body, &updates); err != nil {
			return nil, fmt.Errorf("error decoding score updates: %w", err)
		}
		return updates, nil
	}
	var u stocks.ScoreUpdate
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("error decoding score update: %w", err)
	}
	return []stocks.ScoreUpdate{u}, nil
}

// Apply writes every update in body to the live stock rows and publishes the
// updated rows. A bad update is logged and skipped; the rest still apply.
func (c *Consumer) Apply(ctx context.Context, body []byte) ([]stocks.Stock, error) {
	updates, err := decode(body)
	if err != nil {
		return nil, err
	}

	applied := make([]stocks.Stock, 0, len(updates))
	var errs []error
	for _, u := range updates {
		s, err := c.Stocks.ApplyUpdate(ctx, u)
		if err != nil {
			c.log.Warn().Err(err).Str("symbol", u.Symbol).Msg("skipping score update")
			errs = append(errs, err)
			continue
		}
		applied = append(applied, s)
	}

	if len(applied) > 0 {
		out, err := json.Marshal(applied)
		if err != nil {
			return applied, err
		}
		if err := c.KV.Publish(StocksChannel, string(out)); err != nil {
			return applied, err
		}
	}
	return applied, errors.Join(errs...)
}

// Run binds an exclusive queue to the fanout exchange and applies deliveries
// until ctx is done or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context, ch Channel, exchange string) error {
	err := ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.Info().Str("exchange", exchange).Str("queue", q.Name).Msg("consuming score updates")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			applied, err := c.Apply(ctx, d.Body)
			if err != nil {
				c.log.Error().Err(err).Int("applied", len(applied)).Msg("score update failed")
				continue
			}
			c.log.Debug().Int("applied", len(applied)).Msg("score update applied")
		}
	}
}

// Dial opens a broker connection and a channel on it.
func Dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	return conn, ch, nil
}
