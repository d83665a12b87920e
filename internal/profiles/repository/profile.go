package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	profileserrors "detailbook/internal/profiles/errors"
	"detailbook/pkg/config"
	"detailbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Business_profiles"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *model.BusinessProfile) error
	FindByID(ctx context.Context, id string) (*model.BusinessProfile, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.BusinessProfile, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, profile *model.BusinessProfile) error
	Delete(ctx context.Context, id string) error

	// FindVisible returns complete profiles in a city, the only ones shown
	// in search.
	FindVisible(ctx context.Context, cityKey string, limit int, offset int64) ([]*model.BusinessProfile, error)
	CountVisible(ctx context.Context, cityKey string) (int64, error)
}

type mongoProfileRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoProfileRepository(cfg *config.Config) ProfileRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProfileRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoProfileRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoProfileRepository) Create(ctx context.Context, profile *model.BusinessProfile) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	profile.CreatedAt = now
	profile.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, profile)
	if err != nil {
		return fmt.Errorf("failed to create business profile: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		profile.ID = oid.Hex()
	}
	return nil
}

func (r *mongoProfileRepository) FindByID(ctx context.Context, id string) (*model.BusinessProfile, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", profileserrors.ErrInvalidID, id)
	}

	var profile model.BusinessProfile
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, profileserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find business profile: %w", err)
	}

	return &profile, nil
}

func (r *mongoProfileRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.BusinessProfile, error) {
	return r.find(ctx, bson.M{}, limit, offset)
}

func (r *mongoProfileRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}

func (r *mongoProfileRepository) FindVisible(ctx context.Context, cityKey string, limit int, offset int64) ([]*model.BusinessProfile, error) {
	return r.find(ctx, visibleFilter(cityKey), limit, offset)
}

func (r *mongoProfileRepository) CountVisible(ctx context.Context, cityKey string) (int64, error) {
	return r.count(ctx, visibleFilter(cityKey))
}

func visibleFilter(cityKey string) bson.M {
	filter := bson.M{"is_complete": true}
	if cityKey != "" {
		filter["city_key"] = cityKey
	}
	return filter
}

func (r *mongoProfileRepository) find(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.BusinessProfile, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find business profiles: %w", err)
	}
	defer cursor.Close(ctx)

	profiles := []*model.BusinessProfile{}
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode business profiles: %w", err)
	}

	return profiles, nil
}

func (r *mongoProfileRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count business profiles: %w", err)
	}
	return n, nil
}

func (r *mongoProfileRepository) Update(ctx context.Context, id string, profile *model.BusinessProfile) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", profileserrors.ErrInvalidID, id)
	}

	profile.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"name":                  profile.Name,
			"description":           profile.Description,
			"services":              profile.Services,
			"business_hours":        profile.Hours,
			"address":               profile.Address,
			"city":                  profile.City,
			"city_key":              profile.CityKey,
			"state":                 profile.State,
			"zip_code":              profile.ZipCode,
			"images":                profile.Images,
			"email":                 profile.Email,
			"phone":                 profile.Phone,
			"instagram":             profile.Instagram,
			"tiktok":                profile.TikTok,
			"website":               profile.Website,
			"time_zone":             profile.TimeZone,
			"completion_percentage": profile.CompletionPercentage,
			"is_complete":           profile.IsComplete,
			"updated_at":            profile.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update business profile: %w", err)
	}
	if result.MatchedCount == 0 {
		return profileserrors.ErrNotFound
	}

	return nil
}

func (r *mongoProfileRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", profileserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete business profile: %w", err)
	}
	if result.DeletedCount == 0 {
		return profileserrors.ErrNotFound
	}

	return nil
}
