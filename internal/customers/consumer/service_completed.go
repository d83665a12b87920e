// Package consumer turns service-completion events into customer history.
package consumer

import (
	"context"
	"net/http"
	"time"

	"detailbook/internal/customers/service"
	"detailbook/pkg/customertype"
	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/kafka"
	"detailbook/pkg/logger"
	"detailbook/pkg/metrics"
	"detailbook/pkg/model"
)

const eventSource = "customers"

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type ServiceCompletedHandler struct {
	service   service.CustomerService
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// NewServiceCompletedHandler builds the handler. publisher may be nil, in
// which case customer events are not announced.
func NewServiceCompletedHandler(svc service.CustomerService, publisher EventPublisher, m *metrics.Metrics, log *logger.Logger) *ServiceCompletedHandler {
	return &ServiceCompletedHandler{
		service:   svc,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

// Handle applies one event. Undecodable payloads and events the service
// rejects as invalid are permanent failures; anything else is retried.
func (h *ServiceCompletedHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event model.ServiceCompleted
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("failed to decode service completion", err)
	}

	if event.EventID == "" {
		event.EventID = msg.GetEventID()
	}

	customer, applied, err := h.service.RecordServiceCompleted(ctx, event)
	if err != nil {
		if appErr := apperrors.AsAppError(err); appErr.StatusCode() < http.StatusInternalServerError {
			return kafka.NewPermanentError("rejected service completion", err)
		}
		return kafka.NewTransientError("failed to record service completion", err)
	}
	if !applied {
		h.log.Info("Skipping redelivered service completion", "event_id", event.EventID, "customer_id", customer.ID)
		return nil
	}

	customerType := customer.Classify(event.CompletedAt)
	h.metrics.IncClassification(customerType)
	h.publish(ctx, msg, customer, customerType, event.CompletedAt)
	return nil
}

// publish never fails the message: the completion is already stored, and a
// redelivery would be skipped as already applied without publishing.
func (h *ServiceCompletedHandler) publish(ctx context.Context, source kafka.Message, c *model.Customer, customerType customertype.Type, completedAt time.Time) {
	if h.publisher == nil {
		return
	}

	out := kafka.NewMessage().
		WithKey(c.Phone).
		WithEventType(model.EventCustomerServiceCompleted).
		WithCorrelationID(source.GetEventID()).
		WithSource(eventSource).
		WithValue(model.CustomerServiceCompleted{
			CustomerID:            c.ID,
			BusinessID:            c.BusinessID,
			Phone:                 c.Phone,
			CompletedServiceCount: c.CompletedServiceCount,
			CustomerType:          customerType,
			CompletedAt:           completedAt.UTC(),
		}).
		Build()

	if err := h.publisher.Publish(ctx, out); err != nil {
		h.log.Warn("Failed to publish customer event",
			"customer_id", c.ID,
			"error", err,
		)
	}
}
