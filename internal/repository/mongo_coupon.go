package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
)

// MongoCouponRepository implements CouponRepository on the coupons collection.
type MongoCouponRepository struct {
	coll *mongo.Collection
}

func (r *MongoCouponRepository) Create(ctx context.Context, c *models.Coupon) error {
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateCoupon
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

func (r *MongoCouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.coll.FindOne(ctx, bson.M{"code": code}).Decode(&c); err != nil {
		if isNoDocuments(err) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	return &c, nil
}

func (r *MongoCouponRepository) List(ctx context.Context) ([]models.Coupon, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find coupons: %w", err)
	}

	coupons := make([]models.Coupon, 0)
	if err := cur.All(ctx, &coupons); err != nil {
		return nil, fmt.Errorf("decode coupons: %w", err)
	}
	return coupons, nil
}

func (r *MongoCouponRepository) ListCodes(ctx context.Context) ([]string, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetProjection(bson.M{"code": 1}))
	if err != nil {
		return nil, fmt.Errorf("find coupon codes: %w", err)
	}
	defer cur.Close(ctx)

	var codes []string
	for cur.Next(ctx) {
		var row struct {
			Code string `bson:"code"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode coupon code: %w", err)
		}
		codes = append(codes, row.Code)
	}
	return codes, cur.Err()
}

func (r *MongoCouponRepository) SetActive(ctx context.Context, code string, active bool) (*models.Coupon, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var c models.Coupon
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"code": code}, bson.M{"$set": bson.M{"isActive": active}}, opts).Decode(&c)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("update coupon: %w", err)
	}
	return &c, nil
}

func (r *MongoCouponRepository) Delete(ctx context.Context, code string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"code": code})
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrCouponNotFound
	}
	return nil
}

// IncrementUsage only matches while usageCount is below maxUses, so
// concurrent checkouts cannot redeem past the limit.
func (r *MongoCouponRepository) IncrementUsage(ctx context.Context, code string) error {
	filter := bson.M{
		"code": code,
		"$or": bson.A{
			bson.M{"maxUses": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$usageCount", "$maxUses"}}},
		},
	}

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"usageCount": 1}})
	if err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"code": code})
	if err != nil {
		return fmt.Errorf("count coupon: %w", err)
	}
	if n == 0 {
		return ErrCouponNotFound
	}
	return ErrCouponExhausted
}
