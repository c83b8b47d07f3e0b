package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nekogravitycat/hall-booking-backend/internal/booking"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RoutingKeys are the booking event kinds the consumer binds.
var RoutingKeys = []string{string(booking.EventCreated), string(booking.EventStatusChanged)}

// Consumer feeds booking events from a durable queue into a handler.
type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   *zap.Logger
}

func NewConsumer(url, exchange, queue string, log *zap.Logger) (*Consumer, error) {
	conn, ch, err := dial(url, exchange)
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = closeAll(conn, ch)
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	for _, rk := range RoutingKeys {
		if err := ch.QueueBind(q.Name, rk, exchange, false, nil); err != nil {
			_ = closeAll(conn, ch)
			return nil, fmt.Errorf("bind %s: %w", rk, err)
		}
	}
	return &Consumer{conn: conn, ch: ch, queue: q.Name, log: log}, nil
}

// Run handles deliveries until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context, handler booking.EventHandler) error {
	deliveries, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.settle(d, handleDelivery(ctx, handler, d.Body, d.Redelivered, c.log))
		}
	}
}

func (c *Consumer) settle(d amqp.Delivery, o outcome) {
	var err error
	switch o {
	case ack:
		err = d.Ack(false)
	case requeue:
		err = d.Nack(false, true)
	case drop:
		err = d.Nack(false, false)
	}
	if err != nil {
		c.log.Warn("settle delivery failed", zap.String("routing_key", d.RoutingKey), zap.Error(err))
	}
}

func (c *Consumer) Close() error {
	return closeAll(c.conn, c.ch)
}

type outcome int

const (
	ack outcome = iota
	requeue
	drop
)

// handleDelivery decodes and handles one message. A failed message is retried
// once through redelivery and then dropped; handlers are idempotent.
func handleDelivery(ctx context.Context, handler booking.EventHandler, body []byte, redelivered bool, log *zap.Logger) outcome {
	var ev booking.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Error("malformed booking event dropped", zap.Error(err))
		return drop
	}

	if err := handler.Handle(ctx, ev); err != nil {
		if redelivered {
			log.Error("booking event failed again, dropping", zap.Stringer("event", ev), zap.Error(err))
			return drop
		}
		log.Warn("booking event failed, requeueing", zap.Stringer("event", ev), zap.Error(err))
		return requeue
	}
	return ack
}
