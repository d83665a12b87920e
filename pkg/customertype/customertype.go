// Package customertype classifies customers as first-time or repeat from
// their service-completion history. Classification never fails: missing or
// malformed history is treated as no history.
package customertype

import (
	"strings"
	"time"
)

type Type string

const (
	New       Type = "new"
	Returning Type = "returning"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type History struct {
	CompletedServiceCount  *int
	LastCompletedServiceAt *time.Time
}

// Classify returns Returning when the history shows a completed service
// strictly before reference. More than one completed service is Returning
// even without a timestamp. A zero reference means now.
func Classify(h History, reference time.Time) Type {
	count := 0
	if h.CompletedServiceCount != nil {
		count = *h.CompletedServiceCount
	}
	if reference.IsZero() {
		reference = time.Now()
	}

	if count <= 0 {
		return New
	}
	if count > 1 {
		return Returning
	}
	if h.LastCompletedServiceAt == nil || h.LastCompletedServiceAt.IsZero() {
		return New
	}
	if h.LastCompletedServiceAt.Before(reference) {
		return Returning
	}
	return New
}

// ClassifyRaw is Classify for string timestamps as they arrive on the wire.
func ClassifyRaw(count *int, lastCompletedAt string, referenceDate string) Type {
	h := History{CompletedServiceCount: count}
	if last, ok := ParseTime(lastCompletedAt); ok {
		h.LastCompletedServiceAt = &last
	}

	reference, _ := ParseTime(referenceDate)
	return Classify(h, reference)
}

func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (t Type) String() string {
	return string(t)
}
