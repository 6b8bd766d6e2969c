package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
)

// MongoOrderRepository implements OrderRepository on the orders collection.
type MongoOrderRepository struct {
	coll *mongo.Collection
}

func (r *MongoOrderRepository) Create(ctx context.Context, o *models.Order) error {
	if _, err := r.coll.InsertOne(ctx, o); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *MongoOrderRepository) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": orderID}).Decode(&o); err != nil {
		if isNoDocuments(err) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order %s: %w", orderID, err)
	}
	return &o, nil
}

func (r *MongoOrderRepository) List(ctx context.Context, f models.OrderFilter) ([]models.Order, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	page, limit := normalizePage(f)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find orders: %w", err)
	}

	orders := make([]models.Order, 0, limit)
	if err := cur.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("decode orders: %w", err)
	}
	return orders, total, nil
}

func (r *MongoOrderRepository) UpdateStatus(ctx context.Context, c StatusChange) (*models.Order, error) {
	set := bson.M{"status": c.To, "updatedAt": c.At}
	if c.PaymentID != nil {
		set["paymentId"] = *c.PaymentID
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": c.OrderID, "status": c.From}

	var o models.Order
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&o)
	if err == nil {
		return &o, nil
	}
	if !isNoDocuments(err) {
		return nil, fmt.Errorf("update order %s: %w", c.OrderID, err)
	}

	if _, err := r.GetByID(ctx, c.OrderID); err != nil {
		return nil, err
	}
	return nil, ErrStatusConflict
}
