package model

import (
	"time"

	"detailbook/pkg/completion"
)

type Service struct {
	Name        string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	PriceCents  int    `json:"price_cents" bson:"price_cents" validate:"min=0"`
	DurationMin int    `json:"duration_min" bson:"duration_min" validate:"omitempty,min=5,max=1440"`
}

type BusinessHours struct {
	Day    string `json:"day" bson:"day" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	Open   string `json:"open,omitempty" bson:"open" validate:"omitempty,clock"`
	Close  string `json:"close,omitempty" bson:"close" validate:"omitempty,clock"`
	Closed bool   `json:"closed" bson:"closed"`
}

type BusinessProfile struct {
	ID          string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string          `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Description string          `json:"description,omitempty" bson:"description" validate:"omitempty,max=2000"`
	Services    []Service       `json:"services" bson:"services" validate:"omitempty,max=50,dive"`
	Hours       []BusinessHours `json:"business_hours" bson:"business_hours" validate:"omitempty,max=7,unique_days,dive"`

	Address string `json:"address,omitempty" bson:"address" validate:"omitempty,max=200"`
	City    string `json:"city,omitempty" bson:"city" validate:"omitempty,min=2,max=50"`
	CityKey string `json:"-" bson:"city_key"`
	State   string `json:"state,omitempty" bson:"state" validate:"omitempty,max=50"`
	ZipCode string `json:"zip_code,omitempty" bson:"zip_code" validate:"omitempty,max=20"`

	Images []string `json:"images" bson:"images" validate:"omitempty,max=30,dive,url"`

	Email string `json:"email,omitempty" bson:"email" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" bson:"phone" validate:"omitempty,e164"`

	Instagram string `json:"instagram,omitempty" bson:"instagram" validate:"omitempty,max=60"`
	TikTok    string `json:"tiktok,omitempty" bson:"tiktok" validate:"omitempty,max=60"`
	Website   string `json:"website,omitempty" bson:"website" validate:"omitempty,url"`

	TimeZone             string    `json:"time_zone,omitempty" bson:"time_zone" validate:"omitempty,timezone"`
	CompletionPercentage int       `json:"completion_percentage" bson:"completion_percentage"`
	IsComplete           bool      `json:"is_complete" bson:"is_complete"`
	CreatedAt            time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" bson:"updated_at"`
}

type BusinessProfileUpdate struct {
	Name        string           `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Services    *[]Service       `json:"services,omitempty" validate:"omitempty,max=50,dive"`
	Hours       *[]BusinessHours `json:"business_hours,omitempty" validate:"omitempty,max=7,unique_days,dive"`
	Address     *string          `json:"address,omitempty" validate:"omitempty,max=200"`
	City        *string          `json:"city,omitempty" validate:"omitempty,max=50"`
	State       *string          `json:"state,omitempty" validate:"omitempty,max=50"`
	ZipCode     *string          `json:"zip_code,omitempty" validate:"omitempty,max=20"`
	Images      *[]string        `json:"images,omitempty" validate:"omitempty,max=30,dive,url"`
	Email       *string          `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string          `json:"phone,omitempty" validate:"omitempty,e164"`
	Instagram   *string          `json:"instagram,omitempty" validate:"omitempty,max=60"`
	TikTok      *string          `json:"tiktok,omitempty" validate:"omitempty,max=60"`
	Website     *string          `json:"website,omitempty" validate:"omitempty,url"`
	TimeZone    string           `json:"time_zone,omitempty" validate:"omitempty,timezone"`
}

func (p *BusinessProfile) ToCompletionProfile() completion.Profile {
	services := make([]string, 0, len(p.Services))
	for _, s := range p.Services {
		services = append(services, s.Name)
	}
	hours := make([]completion.Hours, 0, len(p.Hours))
	for _, h := range p.Hours {
		hours = append(hours, completion.Hours{Day: h.Day, Open: h.Open, Close: h.Close, Closed: h.Closed})
	}

	return completion.Profile{
		Name:        p.Name,
		Description: p.Description,
		Services:    services,
		Hours:       hours,
		Address:     p.Address,
		City:        p.City,
		State:       p.State,
		ZipCode:     p.ZipCode,
		Images:      p.Images,
		Email:       p.Email,
		Phone:       p.Phone,
		Instagram:   p.Instagram,
		TikTok:      p.TikTok,
		Website:     p.Website,
	}
}

// RefreshCompletion recomputes the stored completion snapshot and returns
// the full result.
func (p *BusinessProfile) RefreshCompletion() completion.Result {
	result := completion.Evaluate(p.ToCompletionProfile())
	p.CompletionPercentage = result.Percentage
	p.IsComplete = result.Complete
	return result
}
