package model

import (
	"testing"
	"time"

	"detailbook/pkg/customertype"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessProfile_RefreshCompletion(t *testing.T) {
	p := &BusinessProfile{
		Name:        "Shine Mobile Detail",
		Description: "Mobile detailing",
		Services:    []Service{{Name: "Basic Wash", PriceCents: 4900, DurationMin: 60}},
		Address:     "12 Main St",
		City:        "Austin",
		State:       "TX",
		ZipCode:     "78701",
		Email:       "hello@shine.example",
		Phone:       "+15551234567",
	}

	result := p.RefreshCompletion()
	assert.Equal(t, 63, p.CompletionPercentage)
	assert.False(t, p.IsComplete)
	assert.Equal(t, []string{"hours", "images", "socialMedia"}, result.Missing)

	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		p.Hours = append(p.Hours, BusinessHours{Day: day, Open: "08:00", Close: "18:00"})
	}
	p.Images = []string{"https://cdn.example.com/a.jpg"}
	p.TikTok = "shinedetail"

	p.RefreshCompletion()
	assert.Equal(t, 100, p.CompletionPercentage)
	assert.True(t, p.IsComplete)
}

func TestBusinessProfile_ToCompletionProfile(t *testing.T) {
	p := &BusinessProfile{
		Services: []Service{{Name: "Wax"}, {Name: "Polish"}},
		Hours:    []BusinessHours{{Day: "monday", Closed: true}},
	}

	cp := p.ToCompletionProfile()
	assert.Equal(t, []string{"Wax", "Polish"}, cp.Services)
	require.Len(t, cp.Hours, 1)
	assert.True(t, cp.Hours[0].Closed)
}

func TestCustomer_RecordCompletion(t *testing.T) {
	c := &Customer{Phone: "+15551234567"}
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	earlier := first.Add(-48 * time.Hour)

	c.RecordCompletion(first)
	require.NotNil(t, c.LastCompletedServiceAt)
	assert.Equal(t, 1, c.CompletedServiceCount)
	assert.True(t, c.LastCompletedServiceAt.Equal(first))

	c.RecordCompletion(earlier)
	assert.Equal(t, 2, c.CompletedServiceCount)
	assert.True(t, c.LastCompletedServiceAt.Equal(first))
}

func TestCustomer_View(t *testing.T) {
	last := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	c := &Customer{Phone: "+15551234567", CompletedServiceCount: 1, LastCompletedServiceAt: &last}

	before := c.View(last.Add(-time.Minute))
	assert.Equal(t, "(555) 123-4567", before.DisplayPhone)
	assert.Equal(t, customertype.New, before.CustomerType)

	after := c.View(last.Add(time.Minute))
	assert.Equal(t, customertype.Returning, after.CustomerType)
}

func TestCustomer_ClassifyWithoutHistory(t *testing.T) {
	c := &Customer{Phone: "+442071234567"}
	assert.Equal(t, customertype.New, c.Classify(time.Now()))
	assert.Equal(t, "+442071234567", c.View(time.Now()).DisplayPhone)
}
