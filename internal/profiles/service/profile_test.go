package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	profileserrors "detailbook/internal/profiles/errors"
	"detailbook/internal/profiles/validator"
	"detailbook/pkg/config"
	apperrors "detailbook/pkg/errors"
	"detailbook/pkg/kafka"
	"detailbook/pkg/logger"
	"detailbook/pkg/metrics"
	"detailbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeProfileRepository struct {
	mu       sync.Mutex
	profiles map[string]*model.BusinessProfile
	order    []string
	countErr error
}

func newFakeRepo() *fakeProfileRepository {
	return &fakeProfileRepository{profiles: map[string]*model.BusinessProfile{}}
}

func (f *fakeProfileRepository) Create(ctx context.Context, p *model.BusinessProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = primitive.NewObjectID().Hex()
	cp := *p
	f.profiles[p.ID] = &cp
	f.order = append(f.order, p.ID)
	return nil
}

func (f *fakeProfileRepository) FindByID(ctx context.Context, id string) (*model.BusinessProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !primitive.IsValidObjectID(id) {
		return nil, profileserrors.ErrInvalidID
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, profileserrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.BusinessProfile, error) {
	return f.filter(func(*model.BusinessProfile) bool { return true }, limit, offset), nil
}

func (f *fakeProfileRepository) Count(ctx context.Context) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return int64(len(f.filter(func(*model.BusinessProfile) bool { return true }, 1000, 0))), nil
}

func (f *fakeProfileRepository) FindVisible(ctx context.Context, cityKey string, limit int, offset int64) ([]*model.BusinessProfile, error) {
	return f.filter(visible(cityKey), limit, offset), nil
}

func (f *fakeProfileRepository) CountVisible(ctx context.Context, cityKey string) (int64, error) {
	return int64(len(f.filter(visible(cityKey), 1000, 0))), nil
}

func visible(cityKey string) func(*model.BusinessProfile) bool {
	return func(p *model.BusinessProfile) bool {
		return p.IsComplete && (cityKey == "" || p.CityKey == cityKey)
	}
}

func (f *fakeProfileRepository) filter(keep func(*model.BusinessProfile) bool, limit int, offset int64) []*model.BusinessProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.BusinessProfile
	for _, id := range f.order {
		if p, ok := f.profiles[id]; ok && keep(p) {
			out = append(out, p)
		}
	}
	if int(offset) >= len(out) {
		return nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeProfileRepository) Update(ctx context.Context, id string, p *model.BusinessProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[id]; !ok {
		return profileserrors.ErrNotFound
	}
	cp := *p
	f.profiles[id] = &cp
	return nil
}

func (f *fakeProfileRepository) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !primitive.IsValidObjectID(id) {
		return profileserrors.ErrInvalidID
	}
	if _, ok := f.profiles[id]; !ok {
		return profileserrors.ErrNotFound
	}
	delete(f.profiles, id)
	return nil
}

type fakePublisher struct {
	messages []kafka.Message
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, msg kafka.Message) error {
	f.messages = append(f.messages, msg)
	return f.err
}

func newTestService(repo *fakeProfileRepository, pub EventPublisher) ProfileService {
	cfg := &config.Config{
		Log:                 logger.Discard(),
		DefaultPhoneCountry: "US",
	}
	return NewProfileService(repo, validator.NewProfileValidator(), pub, metrics.New("test"), cfg)
}

func week() []model.BusinessHours {
	days := []string{"Monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	hours := make([]model.BusinessHours, 0, len(days))
	for _, d := range days {
		if d == "sunday" {
			hours = append(hours, model.BusinessHours{Day: d, Closed: true})
			continue
		}
		hours = append(hours, model.BusinessHours{Day: d, Open: "08:00", Close: "18:00"})
	}
	return hours
}

func completeProfile() *model.BusinessProfile {
	return &model.BusinessProfile{
		Name:        "  Shine   Mobile Detail ",
		Description: "Interior and exterior detailing",
		Services:    []model.Service{{Name: "Full Detail", PriceCents: 19900, DurationMin: 180}},
		Hours:       week(),
		Address:     "12 Main St",
		City:        "San Antonio",
		State:       "TX",
		ZipCode:     "78205",
		Images:      []string{"https://cdn.example.com/a.jpg"},
		Email:       "Hello@Shine.Example",
		Phone:       "(555) 123-4567",
		Instagram:   "@shinedetail",
	}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.StatusCode()
}

func TestCreate_SanitizesAndScores(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	p := completeProfile()
	require.NoError(t, svc.Create(context.Background(), p))

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Shine Mobile Detail", p.Name)
	assert.Equal(t, "+15551234567", p.Phone)
	assert.Equal(t, "hello@shine.example", p.Email)
	assert.Equal(t, "shinedetail", p.Instagram)
	assert.Equal(t, "san_antonio", p.CityKey)
	assert.Equal(t, "monday", p.Hours[0].Day)
	assert.Equal(t, "America/New_York", p.TimeZone)
	assert.Equal(t, 100, p.CompletionPercentage)
	assert.True(t, p.IsComplete)
}

func TestCreate_PartialProfile(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	p := &model.BusinessProfile{Name: "Shine"}
	require.NoError(t, svc.Create(context.Background(), p))

	assert.Equal(t, 13, p.CompletionPercentage)
	assert.False(t, p.IsComplete)
	assert.Equal(t, "UTC", p.TimeZone)
	assert.NotNil(t, p.Services)
}

func TestCreate_UnnormalizablePhone(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	p := completeProfile()
	p.Phone = "call me"

	err := svc.Create(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
	assert.Equal(t, "must be a valid phone number", apperrors.AsAppError(err).Details["phone"])
}

func TestCreate_ValidationFailure(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	p := completeProfile()
	p.Hours = append(p.Hours, model.BusinessHours{Day: "monday", Closed: true})

	err := svc.Create(context.Background(), p)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
}

func TestGetByID_Errors(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	_, err := svc.GetByID(context.Background(), "")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = svc.GetByID(context.Background(), "not-an-id")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = svc.GetByID(context.Background(), primitive.NewObjectID().Hex())
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestUpdate_PublishesCompletionChange(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	p := completeProfile()
	p.Images = nil
	require.NoError(t, svc.Create(context.Background(), p))
	require.Equal(t, 88, p.CompletionPercentage)

	images := []string{"cdn.example.com/b.jpg"}
	updated, err := svc.Update(context.Background(), p.ID, &model.BusinessProfileUpdate{Images: &images})
	require.NoError(t, err)

	assert.Equal(t, 100, updated.CompletionPercentage)
	assert.True(t, updated.IsComplete)
	assert.Equal(t, []string{"https://cdn.example.com/b.jpg"}, updated.Images)

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	assert.Equal(t, p.ID, msg.Key)
	assert.Equal(t, model.EventProfileCompletionChanged, msg.GetEventType())

	var event model.ProfileCompletionChanged
	require.NoError(t, msg.DecodeValue(&event))
	assert.Equal(t, 88, event.PreviousPercentage)
	assert.Equal(t, 100, event.Percentage)
	assert.Empty(t, event.Missing)
}

func TestUpdate_NoEventWhenPercentageUnchanged(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(newFakeRepo(), pub)

	p := completeProfile()
	require.NoError(t, svc.Create(context.Background(), p))

	desc := "Ceramic coatings too"
	_, err := svc.Update(context.Background(), p.ID, &model.BusinessProfileUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Empty(t, pub.messages)
}

func TestUpdate_PublishFailureDoesNotFailUpdate(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(newFakeRepo(), pub)

	p := completeProfile()
	require.NoError(t, svc.Create(context.Background(), p))

	empty := ""
	updated, err := svc.Update(context.Background(), p.ID, &model.BusinessProfileUpdate{Instagram: &empty})
	require.NoError(t, err)
	assert.Equal(t, 88, updated.CompletionPercentage)
	assert.Len(t, pub.messages, 1)
}

func TestUpdate_BadPhone(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	p := completeProfile()
	require.NoError(t, svc.Create(context.Background(), p))

	phone := "12"
	_, err := svc.Update(context.Background(), p.ID, &model.BusinessProfileUpdate{Phone: &phone})
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
}

func TestUpdate_TimeZoneFollowsPhone(t *testing.T) {
	tests := []struct {
		name      string
		createTZ  string
		updateTZ  string
		wantTZ    string
		wantPhone string
	}{
		{name: "inferred zone follows new phone", wantTZ: "America/New_York", wantPhone: "+15551234567"},
		{name: "explicit zone on create is kept", createTZ: "America/Chicago", wantTZ: "America/Chicago", wantPhone: "+15551234567"},
		{name: "explicit zone on update wins", updateTZ: "America/Denver", wantTZ: "America/Denver", wantPhone: "+15551234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newFakeRepo(), nil)

			p := &model.BusinessProfile{Name: "Shine", TimeZone: tt.createTZ}
			require.NoError(t, svc.Create(context.Background(), p))

			phone := "(555) 123-4567"
			updated, err := svc.Update(context.Background(), p.ID, &model.BusinessProfileUpdate{
				Phone:    &phone,
				TimeZone: tt.updateTZ,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPhone, updated.Phone)
			assert.Equal(t, tt.wantTZ, updated.TimeZone)
		})
	}
}

func TestMalformedURLsAreRejected(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *model.BusinessProfile)
		wantKey string
	}{
		{
			name:    "website",
			mutate:  func(p *model.BusinessProfile) { p.Website = "not a url" },
			wantKey: "website",
		},
		{
			name:    "second image",
			mutate:  func(p *model.BusinessProfile) { p.Images = []string{"https://cdn.example.com/a.jpg", "http://"} },
			wantKey: "images[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newFakeRepo(), nil)

			p := completeProfile()
			tt.mutate(p)
			err := svc.Create(context.Background(), p)
			require.Error(t, err)
			assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
			assert.Equal(t, "must be a valid URL", apperrors.AsAppError(err).Details[tt.wantKey])
		})
	}

	t.Run("update", func(t *testing.T) {
		svc := newTestService(newFakeRepo(), nil)
		p := completeProfile()
		require.NoError(t, svc.Create(context.Background(), p))

		website := "https://"
		_, err := svc.Update(context.Background(), p.ID, &model.BusinessProfileUpdate{Website: &website})
		require.Error(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
		assert.Contains(t, apperrors.AsAppError(err).Details, "website")
	})
}

func TestSearch_OnlyCompleteProfiles(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	complete := completeProfile()
	require.NoError(t, svc.Create(context.Background(), complete))

	partial := completeProfile()
	partial.Images = nil
	require.NoError(t, svc.Create(context.Background(), partial))

	other := completeProfile()
	other.City = "Austin"
	require.NoError(t, svc.Create(context.Background(), other))

	results, total, err := svc.Search(context.Background(), " san  antonio", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	assert.Equal(t, complete.ID, results[0].ID)

	_, total, err = svc.Search(context.Background(), "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, _, err = svc.Search(context.Background(), "!!!", 10, 0)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestGetAll_CountFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.countErr = errors.New("mongo unavailable")
	svc := newTestService(repo, nil)

	_, _, err := svc.GetAll(context.Background(), 10, 0)
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
}

func TestGetAll_EmptyIsNotNil(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	profiles, total, err := svc.GetAll(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.NotNil(t, profiles)
	assert.Zero(t, total)
}

func TestCompletion(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	p := &model.BusinessProfile{Name: "Shine", Email: "a@b.example", Phone: "5551234567"}
	require.NoError(t, svc.Create(context.Background(), p))

	result, err := svc.Completion(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, result.Percentage)
	assert.True(t, result.Checks.BusinessName)
	assert.True(t, result.Checks.Contact)
	assert.Contains(t, result.Missing, "location")
}

func TestDelete(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	p := completeProfile()
	require.NoError(t, svc.Create(context.Background(), p))
	require.NoError(t, svc.Delete(context.Background(), p.ID))

	err := svc.Delete(context.Background(), p.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}
