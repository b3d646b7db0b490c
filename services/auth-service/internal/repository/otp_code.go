package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/tezrent-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/tezrent-api/shared/clock"
	"github.com/vasapolrittideah/tezrent-api/shared/security"
)

// OTPCodeRepository is the one-time code ledger.
type OTPCodeRepository interface {
	// Issue generates a new code for (email, purpose), invalidating any prior
	// unconsumed code for the pair, and returns the plain code for delivery.
	Issue(ctx context.Context, email string, purpose model.OTPPurpose, policy IssuePolicy) (string, *model.OTPCode, error)

	// Verify consumes the code if it is the live code for (email, purpose).
	// It fails with ErrCodeInvalid, ErrCodeAlreadyUsed or ErrCodeExpired.
	// At most one concurrent caller succeeds for the same code.
	Verify(ctx context.Context, email string, purpose model.OTPPurpose, code string) (*model.OTPCode, error)

	// Latest returns the most recently issued record for (email, purpose).
	Latest(ctx context.Context, email string, purpose model.OTPPurpose) (*model.OTPCode, error)
}

// IssuePolicy carries the per-purpose issuance settings.
type IssuePolicy struct {
	TTL time.Duration
}

func (p IssuePolicy) check(purpose model.OTPPurpose) error {
	if !purpose.Valid() {
		return ErrInvalidPurpose
	}
	if p.TTL <= 0 {
		return ErrInvalidIssuePolicy
	}

	return nil
}

const otpCodeCollection = "otp_codes"

type otpCodeMongoRepository struct {
	db        *mongo.Database
	clock     clock.Clock
	generator security.CodeGenerator
}

// NewOTPCodeMongoRepository creates a MongoDB backed ledger. Records are purged
// by a TTL index once retention has passed after their expiry.
func NewOTPCodeMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
	clk clock.Clock,
	generator security.CodeGenerator,
	retention time.Duration,
) OTPCodeRepository {
	collection := db.Collection(otpCodeCollection)

	indexes := []mongo.IndexModel{
		{
			// At most one unconsumed code per (email, purpose).
			Keys: bson.D{{Key: "email", Value: 1}, {Key: "purpose", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"consumed": false}).
				SetName("live_code_per_email_purpose"),
		},
		{
			Keys: bson.D{
				{Key: "email", Value: 1},
				{Key: "purpose", Value: 1},
				{Key: "code_hash", Value: 1},
				{Key: "issued_at", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention.Seconds())), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create otp code indexes")
	}

	return &otpCodeMongoRepository{
		db:        db,
		clock:     clk,
		generator: generator,
	}
}

func (r *otpCodeMongoRepository) Issue(
	ctx context.Context,
	email string,
	purpose model.OTPPurpose,
	policy IssuePolicy,
) (string, *model.OTPCode, error) {
	if err := policy.check(purpose); err != nil {
		return "", nil, err
	}

	code, err := r.generator.Generate()
	if err != nil {
		return "", nil, err
	}

	now := r.clock.Now()
	collection := r.db.Collection(otpCodeCollection)

	// Supersede the previous live code. The partial unique index makes the
	// insert below fail if another issuer slipped a live code in meanwhile.
	_, err = collection.UpdateMany(ctx,
		bson.M{
			"email":    email,
			"purpose":  purpose,
			"consumed": false,
		},
		bson.M{
			"$set": bson.M{
				"consumed":    true,
				"superseded":  true,
				"consumed_at": now,
			},
		},
	)
	if err != nil {
		return "", nil, err
	}

	record := &model.OTPCode{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  security.HashSecret(code),
		IssuedAt:  now,
		ExpiresAt: now.Add(policy.TTL),
	}

	result, err := collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", nil, ErrIssueConflict
		}
		return "", nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		record.ID = objectID
	}

	return code, record, nil
}

func (r *otpCodeMongoRepository) Verify(
	ctx context.Context,
	email string,
	purpose model.OTPPurpose,
	code string,
) (*model.OTPCode, error) {
	if !purpose.Valid() {
		return nil, ErrInvalidPurpose
	}

	now := r.clock.Now()
	codeHash := security.HashSecret(code)

	filter := bson.M{
		"email":      email,
		"purpose":    purpose,
		"code_hash":  codeHash,
		"consumed":   false,
		"expires_at": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"consumed":    true,
			"consumed_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "issued_at", Value: -1}}).
		SetReturnDocument(options.After)

	var record model.OTPCode
	err := r.db.Collection(otpCodeCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&record)
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	return nil, r.classifyRejection(ctx, email, purpose, codeHash, now)
}

// classifyRejection explains why the conditional consume matched nothing by
// inspecting the most recent record for the triple. Consumed wins over expired.
func (r *otpCodeMongoRepository) classifyRejection(
	ctx context.Context,
	email string,
	purpose model.OTPPurpose,
	codeHash string,
	now time.Time,
) error {
	var record model.OTPCode
	err := r.db.Collection(otpCodeCollection).FindOne(ctx,
		bson.M{"email": email, "purpose": purpose, "code_hash": codeHash},
		options.FindOne().SetSort(bson.D{{Key: "issued_at", Value: -1}}),
	).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrCodeInvalid
		}
		return err
	}

	switch {
	case record.Consumed:
		return ErrCodeAlreadyUsed
	case record.IsExpired(now):
		return ErrCodeExpired
	default:
		// A fresh code with the same digits was issued after our attempt.
		return ErrCodeInvalid
	}
}

func (r *otpCodeMongoRepository) Latest(
	ctx context.Context,
	email string,
	purpose model.OTPPurpose,
) (*model.OTPCode, error) {
	var record model.OTPCode
	err := r.db.Collection(otpCodeCollection).FindOne(ctx,
		bson.M{"email": email, "purpose": purpose},
		options.FindOne().SetSort(bson.D{{Key: "issued_at", Value: -1}}),
	).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOTPCodeNotFound
		}
		return nil, err
	}

	return &record, nil
}
