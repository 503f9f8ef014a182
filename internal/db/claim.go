package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/claims-portal/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoClaimCollection implements ClaimCollection for MongoDB.
type MongoClaimCollection struct {
	Collection *mongo.Collection
}

// ParseID converts a hex claim id into an ObjectID.
func ParseID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return objectID, nil
}

// FindClaims returns all claims in natural order.
func (c *MongoClaimCollection) FindClaims(ctx context.Context) ([]models.Claim, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	cursor, err := c.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	claims := []models.Claim{}
	if err := cursor.All(ctx, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// FindClaimByID finds a claim by its ID.
func (c *MongoClaimCollection) FindClaimByID(ctx context.Context, id string) (*models.Claim, error) {
	objectID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	if c.Collection == nil {
		return nil, errNilCollection
	}

	var claim models.Claim
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&claim)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return &claim, nil
}

// SaveClaim writes the full claim back, guarded on the payment status the
// caller loaded.
func (c *MongoClaimCollection) SaveClaim(ctx context.Context, claim *models.Claim, expect models.PaymentStatus) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if claim.ID.IsZero() {
		return fmt.Errorf("%w: claim has no id", ErrInvalidID)
	}

	claim.UpdatedAt = time.Now().UTC()
	filter := paymentStatusFilter(expect)
	filter["_id"] = claim.ID

	result, err := c.Collection.ReplaceOne(ctx, filter, claim)
	if err != nil {
		return err
	}
	if result.MatchedCount == 1 {
		return nil
	}

	n, err := c.Collection.CountDocuments(ctx, bson.M{"_id": claim.ID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrClaimNotFound
	}
	return ErrConflict
}

// InsertClaim validates and inserts a new claim, assigning an id if needed.
func (c *MongoClaimCollection) InsertClaim(ctx context.Context, claim *models.Claim) error {
	if c.Collection == nil {
		return errNilCollection
	}
	now := time.Now().UTC()
	claim.ApplyDefaults(now)
	if err := claim.Validate(); err != nil {
		return fmt.Errorf("invalid claim: %w", err)
	}
	if claim.ID.IsZero() {
		claim.ID = primitive.NewObjectID()
	}
	claim.CreatedAt = now
	claim.UpdatedAt = now

	if _, err := c.Collection.InsertOne(ctx, claim); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateClaimNumber, claim.ClaimNumber)
		}
		return err
	}
	return nil
}

// DeleteAll deletes every claim and reports how many were removed.
func (c *MongoClaimCollection) DeleteAll(ctx context.Context) (int64, error) {
	if c.Collection == nil {
		return 0, errNilCollection
	}
	result, err := c.Collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// paymentStatusFilter matches the stored payment status. Documents written
// without one count as not_submitted.
func paymentStatusFilter(s models.PaymentStatus) bson.M {
	if s == "" || s == models.PaymentNotSubmitted {
		return bson.M{"payment.status": bson.M{"$in": bson.A{string(models.PaymentNotSubmitted), "", nil}}}
	}
	return bson.M{"payment.status": string(s)}
}
