package repository

import (
	"context"
	"sync"
	"time"

	"StockOracle/internal/domain/models"
	applogger "StockOracle/pkg/logger"
)

// EventPublisher is the slice of the kafka producer the alert feed needs.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaAlertPublisher forwards applied alert changes to a topic keyed by
// ticker, so one partition sees every change of an instrument in order.
// Loads are reads and are not forwarded.
type KafkaAlertPublisher struct {
	pub     EventPublisher
	topic   string
	timeout time.Duration
	l       *applogger.Logger

	mu     sync.Mutex // guards closed and sends on queue
	closed bool
	queue  chan models.AlertEvent
	done   chan struct{}
}

func NewKafkaAlertPublisher(pub EventPublisher, topic string, l *applogger.Logger) *KafkaAlertPublisher {
	p := &KafkaAlertPublisher{
		pub:     pub,
		topic:   topic,
		timeout: 10 * time.Second,
		l:       l.Component("alert_feed"),
		queue:   make(chan models.AlertEvent, 256),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// OnAlert enqueues ev; when the queue is full or the feed is closed the event
// is dropped and logged.
func (p *KafkaAlertPublisher) OnAlert(_ context.Context, ev models.AlertEvent) {
	if ev.Op == models.AlertOpLoad {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.l.Warn("alert feed closed, dropping event", applogger.Ticker(ev.Ticker), applogger.String("op", string(ev.Op)))
		return
	}
	select {
	case p.queue <- ev:
	default:
		p.l.Warn("alert feed queue full, dropping event", applogger.Ticker(ev.Ticker), applogger.String("op", string(ev.Op)))
	}
}

func (p *KafkaAlertPublisher) run() {
	defer close(p.done)
	for ev := range p.queue {
		p.send(ev)
	}
}

func (p *KafkaAlertPublisher) send(ev models.AlertEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.pub.Publish(ctx, p.topic, []byte(ev.Ticker), ev); err != nil {
		p.l.Error("publish alert event failed", applogger.Ticker(ev.Ticker), applogger.String("op", string(ev.Op)), applogger.Error(err))
	}
}

// Close drains queued events. Events arriving afterwards are dropped.
func (p *KafkaAlertPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	<-p.done
	return nil
}
