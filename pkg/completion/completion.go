// Package completion scores how ready a detailer's business profile is to be
// shown in search. The rubric is fixed: eight independent checks, each worth
// the same, with no partial credit inside a check.
package completion

import (
	"math"
	"strings"
)

const (
	CheckBusinessName = "businessName"
	CheckDescription  = "description"
	CheckServices     = "services"
	CheckHours        = "hours"
	CheckLocation     = "location"
	CheckImages       = "images"
	CheckContact      = "contact"
	CheckSocialMedia  = "socialMedia"

	TotalChecks = 8

	// DaysPerWeek is the number of business-hours entries a complete profile has.
	DaysPerWeek = 7
)

type Hours struct {
	Day    string
	Open   string
	Close  string
	Closed bool
}

type Profile struct {
	Name        string
	Description string
	Services    []string
	Hours       []Hours

	Address string
	City    string
	State   string
	ZipCode string

	Images []string

	Email string
	Phone string

	Instagram string
	TikTok    string
	Website   string
}

type Checks struct {
	BusinessName bool `json:"businessName"`
	Description  bool `json:"description"`
	Services     bool `json:"services"`
	Hours        bool `json:"hours"`
	Location     bool `json:"location"`
	Images       bool `json:"images"`
	Contact      bool `json:"contact"`
	SocialMedia  bool `json:"socialMedia"`
}

type Result struct {
	Checks     Checks   `json:"checks"`
	Percentage int      `json:"percentage"`
	Complete   bool     `json:"complete"`
	Missing    []string `json:"missing"`
}

func Check(p Profile) Checks {
	return Checks{
		BusinessName: present(p.Name),
		Description:  present(p.Description),
		Services:     len(p.Services) > 0,
		Hours:        len(p.Hours) == DaysPerWeek,
		Location:     present(p.Address) && present(p.City) && present(p.State) && present(p.ZipCode),
		Images:       len(p.Images) > 0,
		Contact:      p.Email != "" && present(p.Phone),
		SocialMedia:  p.Instagram != "" || p.TikTok != "" || p.Website != "",
	}
}

func (c Checks) named() []struct {
	name string
	ok   bool
} {
	return []struct {
		name string
		ok   bool
	}{
		{CheckBusinessName, c.BusinessName},
		{CheckDescription, c.Description},
		{CheckServices, c.Services},
		{CheckHours, c.Hours},
		{CheckLocation, c.Location},
		{CheckImages, c.Images},
		{CheckContact, c.Contact},
		{CheckSocialMedia, c.SocialMedia},
	}
}

func (c Checks) Completed() int {
	n := 0
	for _, check := range c.named() {
		if check.ok {
			n++
		}
	}
	return n
}

// Percentage is round(100 * completed / 8), halves rounded up.
func (c Checks) Percentage() int {
	return int(math.Round(100 * float64(c.Completed()) / TotalChecks))
}

func (c Checks) Complete() bool {
	return c.Completed() == TotalChecks
}

// Missing lists failing checks in rubric order.
func (c Checks) Missing() []string {
	missing := []string{}
	for _, check := range c.named() {
		if !check.ok {
			missing = append(missing, check.name)
		}
	}
	return missing
}

func IsComplete(p Profile) bool {
	return Check(p).Complete()
}

func Percentage(p Profile) int {
	return Check(p).Percentage()
}

func Evaluate(p Profile) Result {
	checks := Check(p)
	return Result{
		Checks:     checks,
		Percentage: checks.Percentage(),
		Complete:   checks.Complete(),
		Missing:    checks.Missing(),
	}
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
