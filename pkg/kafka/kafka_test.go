package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	applogger "StockOracle/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { return nil }

func TestProducerPublishEncodesJSON(t *testing.T) {
	w := &memWriter{}
	p := NewProducerWithWriter(w, "snappy")

	err := p.Publish(context.Background(), "alerts", []byte("AAPL"), map[string]int{"threshold": 15})
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "alerts", w.msgs[0].Topic)
	assert.Equal(t, []byte("AAPL"), w.msgs[0].Key)
	assert.JSONEq(t, `{"threshold":15}`, string(w.msgs[0].Value))
}

func TestProducerPublishError(t *testing.T) {
	p := NewProducerWithWriter(&memWriter{err: errors.New("broker down")}, "snappy")
	err := p.PublishMessage(context.Background(), "logs", "x")
	assert.ErrorContains(t, err, "broker down")
}

type chanReader struct {
	ch        chan kafka.Message
	mu        sync.Mutex
	committed []int64
	closed    bool
}

func (r *chanReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.ch:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *chanReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type recordingHandler struct {
	mu   sync.Mutex
	seen []string
}

func (h *recordingHandler) Topic() string { return "alerts" }

func (h *recordingHandler) Handle(_ context.Context, b []byte) error {
	var v struct {
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, v.Ticker)
	return nil
}

func TestConsumerCommitsEvenWhenHandlerFails(t *testing.T) {
	c, err := NewConsumer(applogger.Nop(), WithConsumerBrokers([]string{"unused:9092"}))
	require.NoError(t, err)

	reader := &chanReader{ch: make(chan kafka.Message, 3)}
	c.newReader = func(string) MessageReader { return reader }

	h := &recordingHandler{}
	c.RegisterHandler(h)
	require.NoError(t, c.Start(context.Background()))

	reader.ch <- kafka.Message{Topic: "alerts", Offset: 1, Value: []byte(`{"ticker":"AAPL"}`)}
	reader.ch <- kafka.Message{Topic: "alerts", Offset: 2, Value: []byte(`not json`)}
	reader.ch <- kafka.Message{Topic: "alerts", Offset: 3, Value: []byte(`{"ticker":"NVDA"}`)}

	require.Eventually(t, func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return len(reader.committed) == 3
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Stop())
	assert.True(t, reader.closed)
	assert.Equal(t, []string{"AAPL", "NVDA"}, h.seen)
}

func TestConsumerRequiresHandlers(t *testing.T) {
	c, err := NewConsumer(applogger.Nop(), WithConsumerBrokers([]string{"unused:9092"}))
	require.NoError(t, err)
	assert.Error(t, c.Start(context.Background()))
	assert.NoError(t, c.Stop())
}
