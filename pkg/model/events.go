package model

import (
	"time"

	"detailbook/pkg/customertype"
)

const (
	EventServiceCompleted         = "service.completed"
	EventCustomerServiceCompleted = "customer.service_completed"
	EventProfileCompletionChanged = "profile.completion_changed"
)

// ServiceCompleted is the payload consumed from the services topic. EventID
// falls back to the message's event-id header; it makes redelivery a no-op.
type ServiceCompleted struct {
	EventID       string    `json:"event_id,omitempty" validate:"omitempty,max=128"`
	BusinessID    string    `json:"business_id" validate:"required,mongodb"`
	CustomerPhone string    `json:"customer_phone" validate:"required"`
	CustomerName  string    `json:"customer_name,omitempty"`
	CompletedAt   time.Time `json:"completed_at" validate:"required"`
}

type CustomerServiceCompleted struct {
	CustomerID            string            `json:"customer_id"`
	BusinessID            string            `json:"business_id"`
	Phone                 string            `json:"phone"`
	CompletedServiceCount int               `json:"completed_service_count"`
	CustomerType          customertype.Type `json:"customer_type"`
	CompletedAt           time.Time         `json:"completed_at"`
}

type ProfileCompletionChanged struct {
	ProfileID          string   `json:"profile_id"`
	PreviousPercentage int      `json:"previous_percentage"`
	Percentage         int      `json:"percentage"`
	Complete           bool     `json:"complete"`
	Missing            []string `json:"missing"`
}
