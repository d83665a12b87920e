package model

import (
	"time"

	"detailbook/pkg/customertype"
	"detailbook/pkg/sanitizer"
)

type Customer struct {
	ID                     string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	BusinessID             string     `json:"business_id" bson:"business_id" validate:"required,mongodb"`
	Name                   string     `json:"name,omitempty" bson:"name" validate:"omitempty,max=100"`
	Phone                  string     `json:"phone" bson:"phone" validate:"required,e164"`
	Email                  string     `json:"email,omitempty" bson:"email" validate:"omitempty,email"`
	CompletedServiceCount  int        `json:"completed_service_count" bson:"completed_service_count" validate:"min=0"`
	LastCompletedServiceAt *time.Time `json:"last_completed_service_at,omitempty" bson:"last_completed_service_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" bson:"updated_at"`
	// ProcessedEventIDs holds the most recent completion events applied.
	ProcessedEventIDs []string `json:"-" bson:"processed_event_ids,omitempty"`
}

type CustomerUpdate struct {
	Name  string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

type CustomerView struct {
	Customer
	DisplayPhone string            `json:"display_phone"`
	CustomerType customertype.Type `json:"customer_type"`
}

type Classification struct {
	CustomerType           customertype.Type `json:"customer_type"`
	CompletedServiceCount  int               `json:"completed_service_count"`
	LastCompletedServiceAt *time.Time        `json:"last_completed_service_at,omitempty"`
	Reference              time.Time         `json:"reference"`
}

func (c *Customer) History() customertype.History {
	count := c.CompletedServiceCount
	return customertype.History{
		CompletedServiceCount:  &count,
		LastCompletedServiceAt: c.LastCompletedServiceAt,
	}
}

func (c *Customer) Classify(reference time.Time) customertype.Type {
	return customertype.Classify(c.History(), reference)
}

func (c *Customer) View(reference time.Time) CustomerView {
	return CustomerView{
		Customer:     *c,
		DisplayPhone: sanitizer.FormatPhoneDisplay(c.Phone),
		CustomerType: c.Classify(reference),
	}
}

// RecordCompletion counts one more completed service and keeps the latest
// completion time.
func (c *Customer) RecordCompletion(at time.Time) {
	c.CompletedServiceCount++
	if c.LastCompletedServiceAt == nil || at.After(*c.LastCompletedServiceAt) {
		t := at.UTC()
		c.LastCompletedServiceAt = &t
	}
}
