// Package events publishes order lifecycle events to kafka and consumes them
// to keep inventory and the catalog cache in step with orders.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"os"
	"storefront/internal/entity"
	"strconv"
	"strings"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const (
	Placed    = "placed"
	Status    = "status"
	Cancelled = "cancelled"
)

// Key formats a message key as order.<event>.<orderID>.
func Key(event string, orderID int) string {
	return fmt.Sprintf("order.%s.%d", event, orderID)
}

func ParseKey(key string) (event string, orderID int, err error) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[0] != "order" || parts[1] == "" {
		return "", 0, fmt.Errorf("malformed event key %q", key)
	}
	orderID, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, fmt.Errorf("malformed event key %q: %w", key, err)
	}
	return parts[1], orderID, nil
}

type Publisher interface {
	Publish(ctx context.Context, event string, order *entity.Order) error
}

type Handler interface {
	Handle(ctx context.Context, event string, order *entity.Order) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event string, order *entity.Order) error {
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(Key(event, order.ID)),
		Value: orderJSON,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Key, err)
	}
	return nil
}

// InlinePublisher hands events straight to a handler, for deployments
// without a broker.
type InlinePublisher struct {
	handler Handler
}

func NewInlinePublisher(handler Handler) *InlinePublisher {
	return &InlinePublisher{handler: handler}
}

func (p *InlinePublisher) Publish(ctx context.Context, event string, order *entity.Order) error {
	return p.handler.Handle(ctx, event, order)
}
