package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
)

// MongoProductRepository implements ProductRepository on the products collection.
type MongoProductRepository struct {
	coll *mongo.Collection
}

func (r *MongoProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}

	products := make([]models.Product, 0)
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if isNoDocuments(err) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	return &p, nil
}

func (r *MongoProductRepository) Create(ctx context.Context, p *models.Product) error {
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// DecrementStock is a single conditional $inc, so two orders racing for the
// last unit cannot both succeed.
func (r *MongoProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	filter := bson.M{"_id": id, "stock": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("decrement stock of %s: %w", id, err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count product %s: %w", id, err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return ErrInsufficientStock
}
