package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	customerserrors "detailbook/internal/customers/errors"
	"detailbook/internal/customers/repository"
	"detailbook/internal/customers/validator"
	"detailbook/pkg/config"
	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/metrics"
	"detailbook/pkg/model"
	"detailbook/pkg/sanitizer"

	"golang.org/x/sync/errgroup"
)

type CustomerService interface {
	Create(ctx context.Context, c *model.Customer) (model.CustomerView, error)
	GetByID(ctx context.Context, id string) (model.CustomerView, error)
	ListByBusiness(ctx context.Context, businessID string, limit int, offset int64) ([]model.CustomerView, int64, error)
	Lookup(ctx context.Context, businessID, phone string) (model.CustomerView, error)
	Update(ctx context.Context, id string, updates *model.CustomerUpdate) (model.CustomerView, error)
	Delete(ctx context.Context, id string) error

	// Classify reports the customer type as of reference. A zero reference
	// means now.
	Classify(ctx context.Context, id string, reference time.Time) (model.Classification, error)
	RecordCompletion(ctx context.Context, id string, at time.Time) (model.CustomerView, error)
	// RecordServiceCompleted applies a service-completion event, creating the
	// customer on first sight. applied is false when the event id was
	// already recorded.
	RecordServiceCompleted(ctx context.Context, event model.ServiceCompleted) (c *model.Customer, applied bool, err error)
}

type customerService struct {
	repo      repository.CustomerRepository
	validator *validator.CustomerValidator
	metrics   *metrics.Metrics
	cfg       *config.Config
	now       func() time.Time
}

func NewCustomerService(
	repo repository.CustomerRepository,
	validator *validator.CustomerValidator,
	m *metrics.Metrics,
	cfg *config.Config,
) CustomerService {
	return &customerService{
		repo:      repo,
		validator: validator,
		metrics:   m,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *customerService) Create(ctx context.Context, c *model.Customer) (model.CustomerView, error) {
	phone, err := s.normalizePhone(c.Phone)
	if err != nil {
		return model.CustomerView{}, err
	}
	c.Phone = phone
	c.BusinessID = strings.TrimSpace(c.BusinessID)
	c.Name = sanitizer.NormalizeName(c.Name)
	c.Email = sanitizer.NormalizeEmail(c.Email)
	c.CompletedServiceCount = 0
	c.LastCompletedServiceAt = nil

	if err := s.validate(s.validator.Validate(c)); err != nil {
		return model.CustomerView{}, err
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByBusinessAndPhone(txCtx, c.BusinessID, c.Phone)
		if err == nil {
			return apperrors.Conflict(fmt.Sprintf("Customer with this phone already exists (id: %s)", existing.ID))
		}
		if !errors.Is(err, customerserrors.ErrNotFound) {
			return fmt.Errorf("failed to check for duplicates: %w", err)
		}

		return s.repo.Create(txCtx, c)
	})
	if err != nil {
		if errors.Is(err, customerserrors.ErrDuplicate) {
			return model.CustomerView{}, apperrors.Conflict("Customer with this phone already exists")
		}
		if apperrors.IsAppError(err) {
			return model.CustomerView{}, err
		}
		s.cfg.Log.Error("Failed to create customer",
			"business_id", c.BusinessID,
			"error", err,
		)
		return model.CustomerView{}, apperrors.Internal("Failed to create customer", err)
	}

	s.cfg.Log.Info("Customer created successfully",
		"id", c.ID,
		"business_id", c.BusinessID,
	)
	return c.View(s.now()), nil
}

func (s *customerService) GetByID(ctx context.Context, id string) (model.CustomerView, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return model.CustomerView{}, err
	}
	return c.View(s.now()), nil
}

func (s *customerService) ListByBusiness(ctx context.Context, businessID string, limit int, offset int64) ([]model.CustomerView, int64, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return nil, 0, apperrors.InvalidInput("business_id is required")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var (
		total     int64
		customers []*model.Customer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if total, err = s.repo.CountByBusiness(gctx, businessID); err != nil {
			s.cfg.Log.Error("Failed to count customers", "business_id", businessID, "error", err)
			return apperrors.Internal("Failed to count customers", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if customers, err = s.repo.FindByBusiness(gctx, businessID, limit, offset); err != nil {
			s.cfg.Log.Error("Failed to list customers",
				"business_id", businessID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			return apperrors.Internal("Failed to retrieve customers", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	now := s.now()
	views := make([]model.CustomerView, 0, len(customers))
	for _, c := range customers {
		views = append(views, c.View(now))
	}
	return views, total, nil
}

// Lookup normalizes phone the same way writes do, so any dialable spelling
// of a stored number finds it.
func (s *customerService) Lookup(ctx context.Context, businessID, phone string) (model.CustomerView, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return model.CustomerView{}, apperrors.InvalidInput("business_id is required")
	}
	normalized, err := s.normalizePhone(phone)
	if err != nil {
		return model.CustomerView{}, err
	}

	c, err := s.repo.FindByBusinessAndPhone(ctx, businessID, normalized)
	if err != nil {
		if errors.Is(err, customerserrors.ErrNotFound) {
			return model.CustomerView{}, apperrors.NotFound("Customer")
		}
		s.cfg.Log.Error("Failed to look up customer", "business_id", businessID, "error", err)
		return model.CustomerView{}, apperrors.Internal("Failed to look up customer", err)
	}
	return c.View(s.now()), nil
}

func (s *customerService) Update(ctx context.Context, id string, updates *model.CustomerUpdate) (model.CustomerView, error) {
	updates.Name = sanitizer.NormalizeName(updates.Name)
	updates.Email = sanitizer.NormalizeEmail(updates.Email)
	if err := s.validate(s.validator.ValidateUpdate(updates)); err != nil {
		return model.CustomerView{}, err
	}

	c, err := s.find(ctx, id)
	if err != nil {
		return model.CustomerView{}, err
	}
	if updates.Name != "" {
		c.Name = updates.Name
	}
	if updates.Email != "" {
		c.Email = updates.Email
	}

	if err := s.repo.Update(ctx, id, c); err != nil {
		return model.CustomerView{}, s.translateRepoError(err, id, "Failed to update customer")
	}

	s.cfg.Log.Info("Customer updated successfully", "id", id)
	return c.View(s.now()), nil
}

func (s *customerService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Customer ID cannot be empty")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translateRepoError(err, id, "Failed to delete customer")
	}

	s.cfg.Log.Info("Customer deleted successfully", "id", id)
	return nil
}

func (s *customerService) Classify(ctx context.Context, id string, reference time.Time) (model.Classification, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return model.Classification{}, err
	}
	if reference.IsZero() {
		reference = s.now()
	}

	customerType := c.Classify(reference)
	s.metrics.IncClassification(customerType)

	return model.Classification{
		CustomerType:           customerType,
		CompletedServiceCount:  c.CompletedServiceCount,
		LastCompletedServiceAt: c.LastCompletedServiceAt,
		Reference:              reference,
	}, nil
}

func (s *customerService) RecordCompletion(ctx context.Context, id string, at time.Time) (model.CustomerView, error) {
	if id == "" {
		return model.CustomerView{}, apperrors.InvalidInput("Customer ID cannot be empty")
	}
	if at.IsZero() {
		at = s.now()
	}

	c, err := s.repo.RecordCompletion(ctx, id, at)
	if err != nil {
		return model.CustomerView{}, s.translateRepoError(err, id, "Failed to record completed service")
	}

	s.cfg.Log.Info("Completed service recorded",
		"id", id,
		"completed_service_count", c.CompletedServiceCount,
	)
	return c.View(s.now()), nil
}

func (s *customerService) RecordServiceCompleted(ctx context.Context, event model.ServiceCompleted) (*model.Customer, bool, error) {
	if err := s.validate(s.validator.ValidateEvent(&event)); err != nil {
		return nil, false, err
	}
	phone, err := s.normalizePhone(event.CustomerPhone)
	if err != nil {
		return nil, false, err
	}

	c, applied, err := s.repo.UpsertCompletion(ctx,
		strings.TrimSpace(event.BusinessID),
		phone,
		sanitizer.NormalizeName(event.CustomerName),
		strings.TrimSpace(event.EventID),
		event.CompletedAt,
	)
	if err != nil {
		s.cfg.Log.Error("Failed to apply service completion",
			"business_id", event.BusinessID,
			"event_id", event.EventID,
			"error", err,
		)
		return nil, false, apperrors.Internal("Failed to record completed service", err)
	}

	if !applied {
		s.cfg.Log.Info("Service completion already applied",
			"id", c.ID,
			"event_id", event.EventID,
		)
		return c, false, nil
	}
	s.cfg.Log.Info("Service completion applied",
		"id", c.ID,
		"business_id", c.BusinessID,
		"event_id", event.EventID,
		"completed_service_count", c.CompletedServiceCount,
	)
	return c, true, nil
}

func (s *customerService) find(ctx context.Context, id string) (*model.Customer, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Customer ID cannot be empty")
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateRepoError(err, id, "Failed to retrieve customer")
	}
	return c, nil
}

func (s *customerService) normalizePhone(raw string) (string, error) {
	phone := sanitizer.NormalizeToE164(raw, s.cfg.DefaultPhoneCountry)
	if phone == "" {
		return "", apperrors.InvalidInput("Phone number could not be normalized").
			WithDetails(map[string]any{"phone": "must be a dialable phone number"})
	}
	return phone, nil
}

func (s *customerService) validate(err error) error {
	if err == nil {
		return nil
	}
	s.cfg.Log.Warn("Customer validation failed", "error", err)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Customer validation failed", verrs.Details())
	}
	return apperrors.Validation("Customer validation failed", map[string]any{
		"error": err.Error(),
	})
}

func (s *customerService) translateRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, customerserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Customer", id)
	case errors.Is(err, customerserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid customer ID format")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}
