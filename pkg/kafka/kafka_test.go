package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"detailbook/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.messages...)
}

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func newTestConsumer(reader *fakeReader, dlq *fakeWriter, handler MessageHandler) *Consumer {
	c := &Consumer{
		reader:     reader,
		topic:      "services.completed",
		groupID:    "customers",
		dlqTopic:   "services.completed.dlq",
		maxRetries: 2,
		handler:    handler,
		log:        logger.Discard(),
	}
	if dlq != nil {
		c.dlqWriter = dlq
	}
	return c
}

func TestMessageBuilder(t *testing.T) {
	msg := NewMessage().
		WithKey("+15551234567").
		WithValue(map[string]int{"count": 2}).
		WithEventType("customer.service_completed").
		WithCorrelationID("").
		Build()

	assert.Equal(t, "+15551234567", msg.Key)
	assert.JSONEq(t, `{"count":2}`, string(msg.Value))
	assert.NotEmpty(t, msg.GetEventID())
	assert.Equal(t, "customer.service_completed", msg.GetEventType())
	assert.Equal(t, SchemaVersionV1, msg.Headers[HeaderSchemaVersion])
	_, hasCorrelation := msg.GetHeader(HeaderCorrelationID)
	assert.False(t, hasCorrelation)
}

func TestMessage_RetryCount(t *testing.T) {
	msg := Message{Headers: map[string]string{}}
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.GetRetryCount())

	msg.Headers[HeaderRetryCount] = "garbage"
	assert.Equal(t, 0, msg.GetRetryCount())
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, ClassifyError(nil))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(NewTransientError("x", nil)))
	assert.Equal(t, ErrorTypePermanent, ClassifyError(NewPermanentError("x", nil)))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(context.DeadlineExceeded))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(errors.New("dial tcp: Connection Refused")))
	assert.Equal(t, ErrorTypePermanent, ClassifyError(errors.New("invalid phone")))

	assert.True(t, ShouldRetry(NewTransientError("x", nil), 0, 3))
	assert.False(t, ShouldRetry(NewTransientError("x", nil), 3, 3))
	assert.False(t, ShouldRetry(NewPermanentError("x", nil), 0, 3))
}

func TestProducer_Publish(t *testing.T) {
	writer := &fakeWriter{}
	p := &Producer{writer: writer, topic: "customers.events", log: logger.Discard()}

	var seenTopic string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		seenTopic = msg.Topic
		return next(ctx, msg)
	})

	require.NoError(t, p.Publish(context.Background(), NewMessage().WithKey("k").WithRawValue([]byte("{}")).Build()))
	assert.Equal(t, "customers.events", seenTopic)
	assert.Len(t, writer.written(), 1)

	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("{}")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k", Value: []byte("{}")}), ErrProducerClosed)
}

func TestProducer_FailedPublishGoesToDLQ(t *testing.T) {
	writer := &fakeWriter{err: errors.New("leader not available")}
	dlq := &fakeWriter{}
	p := &Producer{writer: writer, dlqWriter: dlq, topic: "customers.events", dlqTopic: "customers.events.dlq", log: logger.Discard()}

	msg := NewMessage().WithKey("k").WithRawValue([]byte("{}")).Build()
	err := p.Publish(context.Background(), msg)

	require.Error(t, err)
	require.Len(t, dlq.written(), 1)
	assert.Equal(t, "customers.events", header(dlq.written()[0], HeaderOriginalTopic))
	_, mutated := msg.Headers[HeaderOriginalTopic]
	assert.False(t, mutated)
}

func TestConsumer_CommitsSuccessfulMessages(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{{Key: []byte("a"), Value: []byte("{}")}, {Key: []byte("b"), Value: []byte("{}")}}}
	dlq := &fakeWriter{}
	var handled []string
	c := newTestConsumer(reader, dlq, func(ctx context.Context, msg Message) error {
		handled = append(handled, msg.Key)
		return nil
	})

	err := c.Start(context.Background())
	assert.ErrorIs(t, err, ErrConsumerClosed)
	assert.Equal(t, []string{"a", "b"}, handled)
	assert.Len(t, reader.committed, 2)
	assert.Empty(t, dlq.written())
}

func TestConsumer_PermanentErrorGoesToDLQ(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{{Key: []byte("bad"), Value: []byte("{}")}}}
	dlq := &fakeWriter{}
	attempts := 0
	c := newTestConsumer(reader, dlq, func(ctx context.Context, msg Message) error {
		attempts++
		return NewPermanentError("invalid phone", nil)
	})

	_ = c.Start(context.Background())

	assert.Equal(t, 1, attempts)
	require.Len(t, dlq.written(), 1)
	dead := dlq.written()[0]
	assert.Equal(t, "services.completed", header(dead, HeaderOriginalTopic))
	assert.Equal(t, "customers", header(dead, HeaderDLQGroup))
	assert.Equal(t, "permanent", header(dead, HeaderDLQErrorType))
	assert.Len(t, reader.committed, 1)
}

func TestConsumer_RetriesTransientErrors(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{{Key: []byte("k"), Value: []byte("{}")}}}
	dlq := &fakeWriter{}
	attempts := 0
	c := newTestConsumer(reader, dlq, func(ctx context.Context, msg Message) error {
		attempts++
		if attempts < 2 {
			return NewTransientError("mongo timeout", nil)
		}
		return nil
	})

	_ = c.Start(context.Background())

	assert.Equal(t, 2, attempts)
	assert.Empty(t, dlq.written())
}

func TestConsumer_ExhaustedRetriesGoToDLQ(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{{Key: []byte("k"), Value: []byte("{}")}}}
	dlq := &fakeWriter{}
	attempts := 0
	c := newTestConsumer(reader, dlq, func(ctx context.Context, msg Message) error {
		attempts++
		return NewTransientError("mongo timeout", nil)
	})

	_ = c.Start(context.Background())

	assert.Equal(t, 3, attempts)
	require.Len(t, dlq.written(), 1)
	assert.Equal(t, "2", header(dlq.written()[0], HeaderRetryCount))
}

func TestConsumer_FailedDLQWriteLeavesOffsetUncommitted(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{
		{Key: []byte("bad"), Value: []byte("{}")},
		{Key: []byte("next"), Value: []byte("{}")},
	}}
	dlq := &fakeWriter{err: errors.New("leader not available")}
	var handled []string
	c := newTestConsumer(reader, dlq, func(ctx context.Context, msg Message) error {
		handled = append(handled, msg.Key)
		return NewPermanentError("invalid phone", nil)
	})

	err := c.Start(context.Background())

	require.ErrorIs(t, err, ErrNotDeadLettered)
	assert.Equal(t, []string{"bad"}, handled)
	assert.Empty(t, dlq.written())
	assert.Empty(t, reader.committed)
}

func TestConsumer_NoDLQLeavesOffsetUncommitted(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{{Key: []byte("k"), Value: []byte("{}")}}}
	c := newTestConsumer(reader, nil, func(ctx context.Context, msg Message) error {
		return NewTransientError("mongo timeout", nil)
	})

	err := c.Start(context.Background())

	require.ErrorIs(t, err, ErrNotDeadLettered)
	assert.Empty(t, reader.committed)
}

func TestConsumer_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestConsumer(&fakeReader{}, nil, func(ctx context.Context, msg Message) error { return nil })
	c.reader = blockingReader{}

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

type blockingReader struct{}

func (blockingReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (blockingReader) CommitMessages(context.Context, ...kafka.Message) error { return nil }
func (blockingReader) Close() error                                           { return nil }
