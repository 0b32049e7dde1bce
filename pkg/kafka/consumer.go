package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	applogger "StockOracle/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer runs one group reader per registered topic. Handler errors are
// logged and the offset is committed anyway, so a poison message never
// blocks its partition.
type Consumer struct {
	cfg       *ConsumerConfig
	logger    *applogger.Logger
	handlers  map[string]MessageHandler
	newReader func(topic string) MessageReader

	mu      sync.Mutex
	readers []MessageReader
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewConsumer(l *applogger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:  "stockoracle",
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := &Consumer{
		cfg:      cfg,
		logger:   l.Component("kafka-consumer"),
		handlers: make(map[string]MessageHandler),
	}
	c.newReader = c.groupReader
	return c, nil
}

func (c *Consumer) groupReader(topic string) MessageReader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.cfg.Brokers,
		GroupID:     c.cfg.GroupID,
		Topic:       topic,
		MinBytes:    c.cfg.MinBytes,
		MaxBytes:    c.cfg.MaxBytes,
		MaxWait:     c.cfg.MaxWait,
		StartOffset: kafka.LastOffset,
	})
}

// RegisterHandler must be called before Start.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	c.handlers[h.Topic()] = h
}

// Start launches the read loops and returns immediately.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return fmt.Errorf("consumer already started")
	}
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	for topic, h := range c.handlers {
		r := c.newReader(topic)
		c.readers = append(c.readers, r)
		c.wg.Add(1)
		go c.loop(ctx, r, h)
		c.logger.Info("consuming", applogger.String("topic", topic), applogger.String("group", c.cfg.GroupID))
	}
	return nil
}

func (c *Consumer) loop(ctx context.Context, r MessageReader, h MessageHandler) {
	defer c.wg.Done()

	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			c.logger.Warn("fetch message", applogger.String("topic", h.Topic()), applogger.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if err := h.Handle(ctx, msg.Value); err != nil {
			c.logger.Error("handle message",
				applogger.String("topic", msg.Topic),
				applogger.Int("partition", msg.Partition),
				applogger.Int64("offset", msg.Offset),
				applogger.Error(err),
			)
		}

		if err := r.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Warn("commit message", applogger.String("topic", msg.Topic), applogger.Error(err))
		}
	}
}

// Stop cancels the loops, waits for them and closes the readers.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel == nil {
		return nil
	}
	c.cancel()
	c.wg.Wait()

	var errs []error
	for _, r := range c.readers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.readers = nil
	c.cancel = nil
	return errors.Join(errs...)
}
