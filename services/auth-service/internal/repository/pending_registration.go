package repository

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/shared/clock"
)

// PendingRegistrationRepository stores signups awaiting code confirmation,
// keyed by normalized email.
type PendingRegistrationRepository interface {
	// Put stores the registration, replacing any prior one for the same email.
	// overwritten reports whether a still-live registration was replaced.
	Put(ctx context.Context, registration *model.PendingRegistration) (overwritten bool, err error)
	// Get returns the live registration for email or ErrPendingRegistrationNotFound.
	Get(ctx context.Context, email string) (*model.PendingRegistration, error)
	// Consume deletes the live registration for email.
	Consume(ctx context.Context, email string) error
}

const pendingRegistrationCollection = "pending_registrations"

type pendingRegistrationMongoRepository struct {
	db    *mongo.Database
	clock clock.Clock
}

// NewPendingRegistrationMongoRepository creates a MongoDB repository for pending
// registrations. Expired documents are removed by a TTL index.
func NewPendingRegistrationMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
	clk clock.Clock,
) PendingRegistrationRepository {
	collection := db.Collection(pendingRegistrationCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create pending registration indexes")
	}

	return &pendingRegistrationMongoRepository{db: db, clock: clk}
}

func (r *pendingRegistrationMongoRepository) Put(
	ctx context.Context,
	registration *model.PendingRegistration,
) (bool, error) {
	registration.ID = bson.ObjectID{}
	registration.Email = model.NormalizeEmail(registration.Email)

	now := r.clock.Now()
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = now
	}

	opts := options.FindOneAndReplace().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var prior model.PendingRegistration
	replace := func() error {
		return r.db.Collection(pendingRegistrationCollection).FindOneAndReplace(
			ctx,
			bson.M{"email": registration.Email},
			registration,
			opts,
		).Decode(&prior)
	}

	err := replace()
	// Two concurrent upserts for a new email race on the unique index; the
	// loser retries as a plain replace.
	if err != nil && mongo.IsDuplicateKeyError(err) {
		err = replace()
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}

	return prior.ExpiresAt.After(now), nil
}

func (r *pendingRegistrationMongoRepository) Get(
	ctx context.Context,
	email string,
) (*model.PendingRegistration, error) {
	var registration model.PendingRegistration
	err := r.db.Collection(pendingRegistrationCollection).FindOne(ctx, bson.M{
		"email":      model.NormalizeEmail(email),
		"expires_at": bson.M{"$gt": r.clock.Now()},
	}).Decode(&registration)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPendingRegistrationNotFound
		}
		return nil, err
	}

	return &registration, nil
}

func (r *pendingRegistrationMongoRepository) Consume(ctx context.Context, email string) error {
	result, err := r.db.Collection(pendingRegistrationCollection).DeleteOne(ctx, bson.M{
		"email":      model.NormalizeEmail(email),
		"expires_at": bson.M{"$gt": r.clock.Now()},
	})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrPendingRegistrationNotFound
	}

	return nil
}
