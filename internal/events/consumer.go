package events

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/segmentio/kafka-go"
	"io"
	"storefront/internal/entity"
	"time"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Consumer struct {
	reader  messageReader
	handler Handler
	backoff time.Duration
}

func NewConsumer(reader *kafka.Reader, handler Handler) *Consumer {
	return &Consumer{reader: reader, handler: handler, backoff: time.Second}
}

// Run handles order events until ctx is cancelled or the reader is closed.
// An offset is committed only once its message is handled or found to be
// unreadable, so a crash mid-handle redelivers the event.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			logger.Error().Err(err).Msg("Error fetching message")
			if !c.wait(ctx) {
				return nil
			}
			continue
		}

		if !c.processMessage(ctx, msg) {
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error().Err(err).Msgf("Error committing offset %d", msg.Offset)
		}
	}
}

// processMessage reports false when ctx ended before the event was handled.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) bool {
	event, orderID, err := ParseKey(string(msg.Key))
	if err != nil {
		logger.Error().Err(err).Msg("Skipping message")
		return true
	}

	var order entity.Order
	if err := json.Unmarshal(msg.Value, &order); err != nil {
		logger.Error().Err(err).Msgf("Error unmarshalling order %d", orderID)
		return true
	}

	for {
		err := c.handler.Handle(ctx, event, &order)
		if err == nil {
			return true
		}
		logger.Error().Err(err).Msgf("Error handling %s event for order %d", event, orderID)
		if !c.wait(ctx) {
			return false
		}
	}
}

func (c *Consumer) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.backoff):
		return true
	}
}
