package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

const refreshTokenCollection = "refresh_tokens"

// MongoRefreshTokenRepository is the refresh-token ledger. Rows are inserted
// on login and mutated only by revocation; validity filtering happens in the
// query so expired rows never reach the digest-compare loop.
type MongoRefreshTokenRepository struct {
	coll *mongo.Collection
}

func NewRefreshTokenRepository(db *mongo.Database) *MongoRefreshTokenRepository {
	return &MongoRefreshTokenRepository{coll: db.Collection(refreshTokenCollection)}
}

type mongoRefreshToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    int64              `bson:"user_id"`
	TokenHash string             `bson:"token_hash"`
	ExpiresAt int64              `bson:"expires_at"`
	IsRevoked bool               `bson:"is_revoked"`
	CreatedAt int64              `bson:"created_at"`
}

func (r *MongoRefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	doc := mongoRefreshToken{
		UserID:    t.UserID,
		TokenHash: t.TokenHash,
		ExpiresAt: t.ExpiresAt.Unix(),
		IsRevoked: t.IsRevoked,
		CreatedAt: t.CreatedAt.Unix(),
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ID = oid.Hex()
	}
	return nil
}

func (r *MongoRefreshTokenRepository) FindValid(ctx context.Context, userID int64) ([]domain.RefreshToken, error) {
	filter := bson.M{
		"user_id":    userID,
		"is_revoked": false,
		"expires_at": bson.M{"$gt": time.Now().UTC().Unix()},
	}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find refresh tokens: %w", err)
	}
	defer cur.Close(ctx)

	var records []domain.RefreshToken
	for cur.Next(ctx) {
		var mt mongoRefreshToken
		if err := cur.Decode(&mt); err != nil {
			return nil, fmt.Errorf("decode refresh token: %w", err)
		}
		records = append(records, domain.RefreshToken{
			ID:        mt.ID.Hex(),
			UserID:    mt.UserID,
			TokenHash: mt.TokenHash,
			ExpiresAt: unixToTime(mt.ExpiresAt),
			IsRevoked: mt.IsRevoked,
			CreatedAt: unixToTime(mt.CreatedAt),
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate refresh tokens: %w", err)
	}
	return records, nil
}

// DeleteExpired removes rows that can never validate again (revoked or past
// expiry). Purely a housekeeping operation: FindValid already filters these
// out, so correctness never depends on it running.
func (r *MongoRefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	filter := bson.M{"$or": []bson.M{
		{"is_revoked": true},
		{"expires_at": bson.M{"$lte": time.Now().UTC().Unix()}},
	}}
	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoRefreshTokenRepository) RevokeAll(ctx context.Context, userID int64) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"is_revoked": true}},
	)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}
