package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func week() []Hours {
	days := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	hours := make([]Hours, 0, len(days))
	for _, d := range days {
		hours = append(hours, Hours{Day: d, Open: "09:00", Close: "17:00", Closed: d == "sunday"})
	}
	return hours
}

func fullProfile() Profile {
	return Profile{
		Name:        "Shine Mobile Detail",
		Description: "Full interior and exterior detailing at your door.",
		Services:    []string{"Basic Wash", "Ceramic Coating"},
		Hours:       week(),
		Address:     "12 Main St",
		City:        "Austin",
		State:       "TX",
		ZipCode:     "78701",
		Images:      []string{"https://cdn.example.com/1.jpg"},
		Email:       "hello@shine.example",
		Phone:       "+15551234567",
		Instagram:   "shinedetail",
	}
}

func TestEvaluate_FullProfile(t *testing.T) {
	result := Evaluate(fullProfile())

	assert.Equal(t, 100, result.Percentage)
	assert.True(t, result.Complete)
	assert.Empty(t, result.Missing)
	assert.True(t, IsComplete(fullProfile()))
}

func TestEvaluate_EmptyProfile(t *testing.T) {
	result := Evaluate(Profile{})

	assert.Equal(t, 0, result.Percentage)
	assert.False(t, result.Complete)
	assert.Equal(t, []string{
		CheckBusinessName, CheckDescription, CheckServices, CheckHours,
		CheckLocation, CheckImages, CheckContact, CheckSocialMedia,
	}, result.Missing)
}

func TestEvaluate_MissingImages(t *testing.T) {
	p := fullProfile()
	p.Images = nil

	result := Evaluate(p)
	assert.Equal(t, 88, result.Percentage)
	assert.False(t, result.Complete)
	assert.Equal(t, []string{CheckImages}, result.Missing)
}

func TestPercentage_Rounding(t *testing.T) {
	tests := []struct {
		completed int
		want      int
	}{
		{0, 0}, {1, 13}, {2, 25}, {3, 38}, {4, 50}, {5, 63}, {6, 75}, {7, 88}, {8, 100},
	}

	for _, tt := range tests {
		c := Checks{}
		flags := []*bool{&c.BusinessName, &c.Description, &c.Services, &c.Hours, &c.Location, &c.Images, &c.Contact, &c.SocialMedia}
		for i := 0; i < tt.completed; i++ {
			*flags[i] = true
		}
		assert.Equal(t, tt.want, c.Percentage(), "completed=%d", tt.completed)
		assert.Equal(t, tt.completed, c.Completed())
	}
}

func TestCheck_Location(t *testing.T) {
	p := fullProfile()
	p.ZipCode = "   "

	checks := Check(p)
	assert.False(t, checks.Location)
	assert.Equal(t, 88, checks.Percentage())
}

func TestCheck_Hours(t *testing.T) {
	p := fullProfile()
	p.Hours = p.Hours[:6]
	assert.False(t, Check(p).Hours)

	p.Hours = append(week(), Hours{Day: "monday"})
	assert.False(t, Check(p).Hours)

	p.Hours = nil
	assert.False(t, Check(p).Hours)
}

func TestCheck_Contact(t *testing.T) {
	p := fullProfile()
	p.Email = ""
	assert.False(t, Check(p).Contact)

	p = fullProfile()
	p.Phone = ""
	assert.False(t, Check(p).Contact)
}

func TestCheck_SocialMedia(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Profile)
		present bool
	}{
		{name: "instagram only", mutate: func(p *Profile) {}, present: true},
		{name: "tiktok only", mutate: func(p *Profile) { p.Instagram = ""; p.TikTok = "shine" }, present: true},
		{name: "website only", mutate: func(p *Profile) { p.Instagram = ""; p.Website = "https://shine.example" }, present: true},
		{name: "none", mutate: func(p *Profile) { p.Instagram = "" }, present: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fullProfile()
			tt.mutate(&p)
			assert.Equal(t, tt.present, Check(p).SocialMedia)
		})
	}
}

func TestCheck_WhitespaceNameFails(t *testing.T) {
	p := fullProfile()
	p.Name = "  \t"
	p.Description = "\n"

	result := Evaluate(p)
	assert.Equal(t, []string{CheckBusinessName, CheckDescription}, result.Missing)
	assert.Equal(t, 75, result.Percentage)
}
