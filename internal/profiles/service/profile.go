package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	profileserrors "detailbook/internal/profiles/errors"
	"detailbook/internal/profiles/repository"
	"detailbook/internal/profiles/validator"
	"detailbook/pkg/completion"
	"detailbook/pkg/config"
	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/kafka"
	"detailbook/pkg/locale"
	"detailbook/pkg/metrics"
	"detailbook/pkg/model"
	"detailbook/pkg/sanitizer"

	"golang.org/x/sync/errgroup"
)

const eventSource = "profiles"

type ProfileService interface {
	Create(ctx context.Context, p *model.BusinessProfile) error
	GetByID(ctx context.Context, id string) (*model.BusinessProfile, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.BusinessProfile, int64, error)
	Update(ctx context.Context, id string, updates *model.BusinessProfileUpdate) (*model.BusinessProfile, error)
	Delete(ctx context.Context, id string) error

	Completion(ctx context.Context, id string) (completion.Result, error)
	Search(ctx context.Context, city string, limit int, offset int64) ([]*model.BusinessProfile, int64, error)
}

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type profileService struct {
	repo      repository.ProfileRepository
	validator *validator.ProfileValidator
	publisher EventPublisher
	metrics   *metrics.Metrics
	cfg       *config.Config
}

// NewProfileService wires the service. publisher may be nil, in which case
// completion changes are not announced.
func NewProfileService(
	repo repository.ProfileRepository,
	validator *validator.ProfileValidator,
	publisher EventPublisher,
	m *metrics.Metrics,
	cfg *config.Config,
) ProfileService {
	return &profileService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		metrics:   m,
		cfg:       cfg,
	}
}

func (s *profileService) Create(ctx context.Context, p *model.BusinessProfile) error {
	if err := s.sanitize(p); err != nil {
		return err
	}
	s.applyDefaults(p)

	if err := s.validate(p); err != nil {
		return err
	}

	p.RefreshCompletion()

	if err := s.repo.Create(ctx, p); err != nil {
		s.cfg.Log.Error("Failed to create business profile",
			"name", p.Name,
			"error", err,
		)
		return apperrors.Internal("Failed to create business profile", err)
	}
	s.metrics.ObserveCompletion(p.CompletionPercentage)

	s.cfg.Log.Info("Business profile created successfully",
		"id", p.ID,
		"name", p.Name,
		"completion_percentage", p.CompletionPercentage,
		"time_zone", p.TimeZone,
	)
	return nil
}

func (s *profileService) GetByID(ctx context.Context, id string) (*model.BusinessProfile, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Business profile ID cannot be empty")
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, "Failed to retrieve business profile")
	}
	return p, nil
}

func (s *profileService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.BusinessProfile, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return s.list(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.Count(ctx) },
		func(ctx context.Context) ([]*model.BusinessProfile, error) { return s.repo.FindAll(ctx, limit, offset) },
	)
}

// Search returns only complete profiles. An empty city searches every city.
func (s *profileService) Search(ctx context.Context, city string, limit int, offset int64) ([]*model.BusinessProfile, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	cityKey := ""
	if strings.TrimSpace(city) != "" {
		cityKey = sanitizer.SanitizeCityKey(city)
		if cityKey == "" {
			return nil, 0, apperrors.InvalidInput("City contains no searchable characters")
		}
	}

	profiles, total, err := s.list(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.CountVisible(ctx, cityKey) },
		func(ctx context.Context) ([]*model.BusinessProfile, error) {
			return s.repo.FindVisible(ctx, cityKey, limit, offset)
		},
	)
	if err != nil {
		return nil, 0, err
	}

	s.cfg.Log.Debug("Business profile search completed",
		"city_key", cityKey,
		"results_count", len(profiles),
		"total", total,
	)
	return profiles, total, nil
}

// list runs the count and the page query concurrently.
func (s *profileService) list(
	ctx context.Context,
	count func(ctx context.Context) (int64, error),
	find func(ctx context.Context) ([]*model.BusinessProfile, error),
) ([]*model.BusinessProfile, int64, error) {
	var (
		total    int64
		profiles []*model.BusinessProfile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if total, err = count(gctx); err != nil {
			s.cfg.Log.Error("Failed to count business profiles", "error", err)
			return apperrors.Internal("Failed to count business profiles", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if profiles, err = find(gctx); err != nil {
			s.cfg.Log.Error("Failed to list business profiles", "error", err)
			return apperrors.Internal("Failed to retrieve business profiles", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	if profiles == nil {
		profiles = []*model.BusinessProfile{}
	}
	return profiles, total, nil
}

func (s *profileService) Update(ctx context.Context, id string, updates *model.BusinessProfileUpdate) (*model.BusinessProfile, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Business profile ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, "Failed to check business profile existence")
	}
	previous := existing.CompletionPercentage

	merged := mergeUpdates(existing, updates)
	if err := s.sanitize(merged); err != nil {
		return nil, err
	}
	// A time zone that was only ever inferred follows the phone.
	if updates.TimeZone == "" && merged.Phone != existing.Phone &&
		existing.TimeZone == locale.InferTimezoneFromPhone(existing.Phone) {
		merged.TimeZone = ""
	}
	s.applyDefaults(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	result := merged.RefreshCompletion()

	if err := s.repo.Update(ctx, id, merged); err != nil {
		return nil, s.translateRepoError(err, id, "Failed to update business profile")
	}
	s.metrics.ObserveCompletion(merged.CompletionPercentage)

	s.cfg.Log.Info("Business profile updated successfully",
		"id", id,
		"completion_percentage", merged.CompletionPercentage,
	)

	if previous != merged.CompletionPercentage {
		s.publishCompletionChanged(ctx, merged, previous, result)
	}
	return merged, nil
}

func (s *profileService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Business profile ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translateRepoError(err, id, "Failed to delete business profile")
	}

	s.cfg.Log.Info("Business profile deleted successfully", "id", id)
	return nil
}

// Completion scores the stored profile as it is now.
func (s *profileService) Completion(ctx context.Context, id string) (completion.Result, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return completion.Result{}, err
	}
	return completion.Evaluate(p.ToCompletionProfile()), nil
}

func (s *profileService) publishCompletionChanged(ctx context.Context, p *model.BusinessProfile, previous int, result completion.Result) {
	if s.publisher == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(p.ID).
		WithEventType(model.EventProfileCompletionChanged).
		WithSource(eventSource).
		WithValue(model.ProfileCompletionChanged{
			ProfileID:          p.ID,
			PreviousPercentage: previous,
			Percentage:         result.Percentage,
			Complete:           result.Complete,
			Missing:            result.Missing,
		}).
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish profile completion change",
			"id", p.ID,
			"error", err,
		)
	}
}

func (s *profileService) validate(p *model.BusinessProfile) error {
	err := s.validator.Validate(p)
	if err == nil {
		return nil
	}

	s.cfg.Log.Warn("Business profile validation failed",
		"name", p.Name,
		"error", err,
	)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Business profile validation failed", verrs.Details())
	}
	return apperrors.Validation("Business profile validation failed", map[string]any{
		"error": err.Error(),
	})
}

func (s *profileService) translateRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, profileserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Business profile", id)
	case errors.Is(err, profileserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid business profile ID format")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}

func (s *profileService) sanitize(p *model.BusinessProfile) error {
	p.Name = sanitizer.NormalizeName(p.Name)
	p.Description = sanitizer.TrimAndNormalize(p.Description)
	p.Address = sanitizer.TrimAndNormalize(p.Address)
	p.City = sanitizer.NormalizeCity(p.City)
	p.CityKey = sanitizer.SanitizeCityKey(p.City)
	p.State = sanitizer.TrimAndNormalize(p.State)
	p.ZipCode = sanitizer.NormalizeZipCode(p.ZipCode)
	p.Email = sanitizer.NormalizeEmail(p.Email)
	if err := s.sanitizeURLs(p); err != nil {
		return err
	}
	p.Instagram = sanitizer.SanitizeHandle(p.Instagram)
	p.TikTok = sanitizer.SanitizeHandle(p.TikTok)
	p.TimeZone = strings.TrimSpace(p.TimeZone)

	for i := range p.Services {
		p.Services[i].Name = sanitizer.NormalizeName(p.Services[i].Name)
	}
	for i := range p.Hours {
		p.Hours[i].Day = sanitizer.NormalizeLabel(p.Hours[i].Day)
		p.Hours[i].Open = strings.TrimSpace(p.Hours[i].Open)
		p.Hours[i].Close = strings.TrimSpace(p.Hours[i].Close)
	}

	if raw := strings.TrimSpace(p.Phone); raw != "" {
		phone := sanitizer.NormalizeToE164(raw, s.cfg.DefaultPhoneCountry)
		if phone == "" {
			s.cfg.Log.Warn("Business profile phone could not be normalized", "name", p.Name)
			return apperrors.Validation("Business profile validation failed", map[string]any{
				"phone": "must be a valid phone number",
			})
		}
		p.Phone = phone
	} else {
		p.Phone = ""
	}
	return nil
}

func (s *profileService) sanitizeURLs(p *model.BusinessProfile) error {
	details := map[string]any{}
	if website := sanitizer.SanitizeURL(p.Website); website == "" && strings.TrimSpace(p.Website) != "" {
		details["website"] = "must be a valid URL"
	} else {
		p.Website = website
	}
	for i, img := range p.Images {
		if strings.TrimSpace(img) != "" && sanitizer.SanitizeURL(img) == "" {
			details[fmt.Sprintf("images[%d]", i)] = "must be a valid URL"
		}
	}
	if len(details) > 0 {
		s.cfg.Log.Warn("Business profile has malformed URLs", "name", p.Name, "fields", len(details))
		return apperrors.Validation("Business profile validation failed", details)
	}
	p.Images = sanitizer.SanitizeURLs(p.Images)
	return nil
}

func (s *profileService) applyDefaults(p *model.BusinessProfile) {
	if p.TimeZone == "" {
		p.TimeZone = locale.InferTimezoneFromPhone(p.Phone)
	}
	if p.Services == nil {
		p.Services = []model.Service{}
	}
	if p.Hours == nil {
		p.Hours = []model.BusinessHours{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
}

func mergeUpdates(existing *model.BusinessProfile, u *model.BusinessProfileUpdate) *model.BusinessProfile {
	merged := *existing
	if u.Name != "" {
		merged.Name = u.Name
	}
	if u.Description != nil {
		merged.Description = *u.Description
	}
	if u.Services != nil {
		merged.Services = *u.Services
	}
	if u.Hours != nil {
		merged.Hours = *u.Hours
	}
	if u.Address != nil {
		merged.Address = *u.Address
	}
	if u.City != nil {
		merged.City = *u.City
	}
	if u.State != nil {
		merged.State = *u.State
	}
	if u.ZipCode != nil {
		merged.ZipCode = *u.ZipCode
	}
	if u.Images != nil {
		merged.Images = *u.Images
	}
	if u.Email != nil {
		merged.Email = *u.Email
	}
	if u.Phone != nil {
		merged.Phone = *u.Phone
	}
	if u.Instagram != nil {
		merged.Instagram = *u.Instagram
	}
	if u.TikTok != nil {
		merged.TikTok = *u.TikTok
	}
	if u.Website != nil {
		merged.Website = *u.Website
	}
	if u.TimeZone != "" {
		merged.TimeZone = u.TimeZone
	}
	return &merged
}
