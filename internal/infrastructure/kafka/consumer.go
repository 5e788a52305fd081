package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/DRSN-tech/order-backend/internal/cfg"
	"github.com/DRSN-tech/order-backend/internal/usecase"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/jitter"
	"github.com/DRSN-tech/order-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
)

const (
	handleRetryBase = 500 * time.Millisecond
	handleRetryMax  = 30 * time.Second
)

// Consumer читает события в составе consumer group и коммитит offset только после успешной обработки.
type Consumer struct {
	reader  *kafka.Reader
	handler usecase.MessageHandler
	logger  logger.Logger
}

func NewConsumer(cfg *cfg.KafkaCfg, handler usecase.MessageHandler, logger logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: 0, // синхронный commit
	})

	return &Consumer{
		reader:  reader,
		handler: handler,
		logger:  logger,
	}
}

// Run блокируется до отмены ctx.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return e.Wrap(whereami.WhereAmI(), err)
		}

		if !c.handleWithRetry(ctx, toInboundMessage(msg)) {
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Warnf("commit offset %d failed: %v", msg.Offset, err)
		}
	}
}

// handleWithRetry повторяет обработку с экспоненциальной задержкой. false: потребитель останавливается.
func (c *Consumer) handleWithRetry(ctx context.Context, msg *usecase.InboundMessage) bool {
	for attempt := 0; ; attempt++ {
		err := c.handler.Handle(ctx, msg)
		if err == nil {
			return true
		}

		if errors.Is(err, e.ErrUnknownEvent) || errors.Is(err, e.ErrMalformedPayload) {
			c.logger.Warnf("skipping event %s (%s): %v", msg.EventID, msg.EventType, err)
			return true
		}

		delay := jitter.ExponentialBackoff(handleRetryBase, handleRetryMax, attempt, jitter.DefaultJitter)
		c.logger.Warnf("handle event %s failed (attempt %d), retry in %s: %v", msg.EventID, attempt+1, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func toInboundMessage(msg kafka.Message) *usecase.InboundMessage {
	res := &usecase.InboundMessage{
		Key:     string(msg.Key),
		Payload: msg.Value,
	}

	for _, h := range msg.Headers {
		switch h.Key {
		case HeaderEventType:
			res.EventType = usecase.OutboxEventType(h.Value)
		case HeaderEventID:
			res.EventID = string(h.Value)
		}
	}

	return res
}
