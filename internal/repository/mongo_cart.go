package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
)

// MongoCartRepository implements CartRepository on the carts collection,
// one document per user keyed by user id.
type MongoCartRepository struct {
	coll *mongo.Collection
}

func (r *MongoCartRepository) Get(ctx context.Context, userID string) (*models.Cart, error) {
	var c models.Cart
	if err := r.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&c); err != nil {
		if isNoDocuments(err) {
			return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
		}
		return nil, fmt.Errorf("find cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return &c, nil
}

func (r *MongoCartRepository) Save(ctx context.Context, c *models.Cart) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.UserID}, c, opts); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
