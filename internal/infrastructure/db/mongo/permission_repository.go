package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

const grantCollection = "user_permissions"

// MongoPermissionRepository stores one document per grant, mirroring the
// many-to-many user/permission association.
type MongoPermissionRepository struct {
	coll *mongo.Collection
}

func NewPermissionRepository(db *mongo.Database) *MongoPermissionRepository {
	return &MongoPermissionRepository{coll: db.Collection(grantCollection)}
}

type mongoGrant struct {
	UserID int64  `bson:"user_id"`
	Code   string `bson:"code"`
}

func (r *MongoPermissionRepository) GrantedCodes(ctx context.Context, userID int64) ([]string, error) {
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("find grants: %w", err)
	}
	defer cur.Close(ctx)

	var codes []string
	for cur.Next(ctx) {
		var g mongoGrant
		if err := cur.Decode(&g); err != nil {
			return nil, fmt.Errorf("decode grant: %w", err)
		}
		codes = append(codes, g.Code)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate grants: %w", err)
	}
	return codes, nil
}

// ReplaceGrants swaps the user's grant set. The set must already satisfy
// domain.ValidateGrantSet; it is re-checked here as a last line of defence
// against writers bypassing the rule.
func (r *MongoPermissionRepository) ReplaceGrants(ctx context.Context, userID int64, codes []string) error {
	if err := domain.ValidateGrantSet(codes); err != nil {
		return err
	}

	if _, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("clear grants: %w", err)
	}
	if len(codes) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(codes))
	for _, code := range codes {
		docs = append(docs, mongoGrant{UserID: userID, Code: code})
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert grants: %w", err)
	}
	return nil
}
