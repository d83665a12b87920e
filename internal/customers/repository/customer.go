package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	customerserrors "detailbook/internal/customers/errors"
	"detailbook/pkg/config"
	mongotx "detailbook/pkg/db/mongo"
	"detailbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Customers"

	// processedEventsKept bounds processed_event_ids; redeliveries arrive
	// long before that many newer completions for one customer.
	processedEventsKept = 100
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	FindByBusinessAndPhone(ctx context.Context, businessID, phone string) (*model.Customer, error)
	FindByBusiness(ctx context.Context, businessID string, limit int, offset int64) ([]*model.Customer, error)
	CountByBusiness(ctx context.Context, businessID string) (int64, error)
	Update(ctx context.Context, id string, customer *model.Customer) error
	Delete(ctx context.Context, id string) error

	// RecordCompletion increments the completed count of the customer and
	// keeps the later of the stored and given completion times.
	RecordCompletion(ctx context.Context, id string, at time.Time) (*model.Customer, error)
	// UpsertCompletion is RecordCompletion keyed by (business, phone). The
	// customer is created on first completion. A non-empty eventID is applied
	// at most once; a repeat returns the stored customer and applied=false.
	UpsertCompletion(ctx context.Context, businessID, phone, name, eventID string, at time.Time) (c *model.Customer, applied bool, err error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoCustomerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoCustomerRepository(cfg *config.Config, txManager mongotx.TransactionManager) CustomerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCustomerRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  txManager,
	}
}

func (r *mongoCustomerRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoCustomerRepository) Create(ctx context.Context, customer *model.Customer) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	customer.CreatedAt = now
	customer.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, customer)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return customerserrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		customer.ID = oid.Hex()
	}
	return nil
}

func (r *mongoCustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", customerserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *mongoCustomerRepository) FindByBusinessAndPhone(ctx context.Context, businessID, phone string) (*model.Customer, error) {
	return r.findOne(ctx, bson.M{"business_id": businessID, "phone": phone})
}

func (r *mongoCustomerRepository) findOne(ctx context.Context, filter bson.M) (*model.Customer, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var customer model.Customer
	if err := r.collection.FindOne(ctx, filter).Decode(&customer); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, customerserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return &customer, nil
}

func (r *mongoCustomerRepository) FindByBusiness(ctx context.Context, businessID string, limit int, offset int64) ([]*model.Customer, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "last_completed_service_at", Value: -1}, {Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"business_id": businessID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find customers: %w", err)
	}
	defer cursor.Close(ctx)

	customers := []*model.Customer{}
	if err = cursor.All(ctx, &customers); err != nil {
		return nil, fmt.Errorf("failed to decode customers: %w", err)
	}
	return customers, nil
}

func (r *mongoCustomerRepository) CountByBusiness(ctx context.Context, businessID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, bson.M{"business_id": businessID})
	if err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return n, nil
}

func (r *mongoCustomerRepository) Update(ctx context.Context, id string, customer *model.Customer) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", customerserrors.ErrInvalidID, id)
	}

	customer.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"name":       customer.Name,
			"email":      customer.Email,
			"updated_at": customer.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if result.MatchedCount == 0 {
		return customerserrors.ErrNotFound
	}
	return nil
}

func (r *mongoCustomerRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", customerserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if result.DeletedCount == 0 {
		return customerserrors.ErrNotFound
	}
	return nil
}

func (r *mongoCustomerRepository) RecordCompletion(ctx context.Context, id string, at time.Time) (*model.Customer, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", customerserrors.ErrInvalidID, id)
	}

	return r.applyCompletion(ctx, bson.M{"_id": objectID}, completionUpdate(at), false)
}

func (r *mongoCustomerRepository) UpsertCompletion(ctx context.Context, businessID, phone, name, eventID string, at time.Time) (*model.Customer, bool, error) {
	filter := bson.M{"business_id": businessID, "phone": phone}
	update := completionUpdate(at)
	// business_id and phone come from the filter on insert.
	update["$setOnInsert"] = bson.M{
		"name":       name,
		"email":      "",
		"created_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if eventID != "" {
		filter["processed_event_ids"] = bson.M{"$ne": eventID}
		update["$push"] = bson.M{"processed_event_ids": bson.M{
			"$each":  bson.A{eventID},
			"$slice": -processedEventsKept,
		}}
	}

	customer, err := r.applyCompletion(ctx, filter, update, true)
	if err == nil {
		return customer, true, nil
	}
	// The event id excluded the existing document, so the upsert collided
	// with it on the (business_id, phone) unique index.
	if eventID != "" && errors.Is(err, customerserrors.ErrDuplicate) {
		existing, findErr := r.FindByBusinessAndPhone(ctx, businessID, phone)
		if findErr != nil {
			return nil, false, findErr
		}
		if slices.Contains(existing.ProcessedEventIDs, eventID) {
			return existing, false, nil
		}
	}
	return nil, false, err
}

func completionUpdate(at time.Time) bson.M {
	return bson.M{
		"$inc": bson.M{"completed_service_count": 1},
		"$max": bson.M{"last_completed_service_at": at.UTC().Truncate(time.Millisecond)},
		"$set": bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	}
}

func (r *mongoCustomerRepository) applyCompletion(ctx context.Context, filter, update bson.M, upsert bool) (*model.Customer, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetUpsert(upsert)

	var customer model.Customer
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&customer); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, customerserrors.ErrNotFound
		}
		if mongotx.IsDuplicateKey(err) {
			return nil, customerserrors.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to record completed service: %w", err)
	}
	return &customer, nil
}

func (r *mongoCustomerRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
