package kafka_middleware

import (
	"context"
	"time"

	"detailbook/pkg/kafka"
	"detailbook/pkg/metrics"
)

func MetricsProducerMiddleware(m *metrics.Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		err := next(ctx, msg)
		m.IncPublished(msg.Topic, outcome(err))
		return err
	}
}

// MetricsConsumerMiddleware counts each handler attempt, so a retried message
// is counted once per try.
func MetricsConsumerMiddleware(m *metrics.Metrics) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		status := outcome(err)
		if err != nil && kafka.ClassifyError(err) == kafka.ErrorTypePermanent {
			status = metrics.StatusDLQ
		}
		m.ObserveConsumed(msg.Topic, status, time.Since(start))
		return err
	}
}

func outcome(err error) string {
	if err != nil {
		return metrics.StatusError
	}
	return metrics.StatusSuccess
}
