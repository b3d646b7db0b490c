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
)

// SessionRepository defines the interface for session-related database operations.
type SessionRepository interface {
	// CreateSession stores a session. A zero ID is assigned before insert so
	// callers may also pre-allocate one to embed in tokens.
	CreateSession(ctx context.Context, session *model.Session) (*model.Session, error)
	GetSession(ctx context.Context, id string) (*model.Session, error)
	// RotateRefreshToken replaces the refresh token only if currentHash still
	// matches, so a refresh token can be exchanged once.
	RotateRefreshToken(ctx context.Context, id string, currentHash string, params RotateRefreshTokenParams) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// RotateRefreshTokenParams defines the parameters for rotating session tokens.
type RotateRefreshTokenParams struct {
	RefreshTokenHash      string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
}

const sessionCollection = "sessions"

type sessionMongoRepository struct {
	db *mongo.Database
}

func NewSessionMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) SessionRepository {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{
			Keys:    bson.D{{Key: "refresh_token_expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	_, err := db.Collection(sessionCollection).Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session indexes")
	}

	return &sessionMongoRepository{db: db}
}

func (r *sessionMongoRepository) CreateSession(ctx context.Context, session *model.Session) (*model.Session, error) {
	now := time.Now().UTC()
	if session.ID.IsZero() {
		session.ID = bson.NewObjectID()
	}
	session.CreatedAt = now
	session.UpdatedAt = now

	if _, err := r.db.Collection(sessionCollection).InsertOne(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (r *sessionMongoRepository) GetSession(ctx context.Context, id string) (*model.Session, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	var session model.Session
	err = r.db.Collection(sessionCollection).FindOne(ctx, bson.M{"_id": objectID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return &session, nil
}

func (r *sessionMongoRepository) RotateRefreshToken(
	ctx context.Context,
	id string,
	currentHash string,
	params RotateRefreshTokenParams,
) (*model.Session, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	var session model.Session
	err = r.db.Collection(sessionCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "refresh_token_hash": currentHash},
		bson.M{"$set": bson.M{
			"refresh_token_hash":       params.RefreshTokenHash,
			"access_token_expires_at":  params.AccessTokenExpiresAt,
			"refresh_token_expires_at": params.RefreshTokenExpiresAt,
			"updated_at":               time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return &session, nil
}

func (r *sessionMongoRepository) DeleteSession(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrSessionNotFound
	}

	result, err := r.db.Collection(sessionCollection).DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrSessionNotFound
	}

	return nil
}
