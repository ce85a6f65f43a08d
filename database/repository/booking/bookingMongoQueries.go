package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookwell/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListActiveBySlotKey returns active bookings on a capacity key for one date.
func (r *MongoBookingRepo) ListActiveBySlotKey(ctx context.Context, slotKey, date string) ([]models.Booking, error) {
	filter := bson.M{"slotKey": slotKey, "date": date, "status": activeStatusFilter()}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startMinute", Value: 1}}))
}

// ListActiveByProvider returns active bookings held by a provider on one date.
func (r *MongoBookingRepo) ListActiveByProvider(ctx context.Context, providerID, date string) ([]models.Booking, error) {
	filter := bson.M{"providerId": providerID, "date": date, "status": activeStatusFilter()}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startMinute", Value: 1}}))
}

// FindCustomerActiveAt returns the customer's active booking at an exact time.
func (r *MongoBookingRepo) FindCustomerActiveAt(ctx context.Context, customerID, date string, hour, minute int) (*models.Booking, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"customerId": customerID,
		"date":       date,
		"hour":       hour,
		"minute":     minute,
		"status":     activeStatusFilter(),
	}
	var booking models.Booking
	if err := r.coll.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error checking customer bookings: %w", err)
	}
	return &booking, nil
}

// List returns one page of bookings matching filter, newest first.
func (r *MongoBookingRepo) List(ctx context.Context, f BookingFilter) ([]models.Booking, int64, error) {
	filter := listFilter(f)
	skip, limit := pagination(f.Page, f.Size)

	countCtx, cancel := withTimeout(ctx, 5*time.Second)
	total, err := r.coll.CountDocuments(countCtx, filter)
	cancel()
	if err != nil {
		return nil, 0, fmt.Errorf("error counting bookings: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "startMinute", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	bookings, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// FindUnassignedShopRequests returns pending shop-based bookings held by the owner.
func (r *MongoBookingRepo) FindUnassignedShopRequests(ctx context.Context, createdBefore time.Time, limit int) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, unassignedShopFilter(createdBefore), opts)
}

// FindStale returns bookings in one of statuses created before cutoff, oldest first.
func (r *MongoBookingRepo) FindStale(ctx context.Context, statuses []models.BookingStatus, createdBefore time.Time, limit int) ([]models.Booking, error) {
	filter := bson.M{
		"status":    bson.M{"$in": statuses},
		"createdAt": bson.M{"$lt": createdBefore},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

// ProviderRatingSummary aggregates ratings of a provider's completed bookings.
func (r *MongoBookingRepo) ProviderRatingSummary(ctx context.Context, providerID string) (models.RatingSummary, error) {
	return r.ratingSummary(ctx, bson.M{"providerId": providerID})
}

// ShopRatingSummary aggregates ratings of a shop's completed bookings.
func (r *MongoBookingRepo) ShopRatingSummary(ctx context.Context, shopID string) (models.RatingSummary, error) {
	return r.ratingSummary(ctx, bson.M{"shopId": shopID})
}

func (r *MongoBookingRepo) ratingSummary(ctx context.Context, match bson.M) (models.RatingSummary, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	match["status"] = models.StatusCompleted
	match["rating"] = bson.M{"$gt": 0}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.RatingSummary{}, fmt.Errorf("error aggregating ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var summary models.RatingSummary
	if cursor.Next(ctx) {
		if err := cursor.Decode(&summary); err != nil {
			return models.RatingSummary{}, fmt.Errorf("error decoding rating summary: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return models.RatingSummary{}, fmt.Errorf("cursor error: %w", err)
	}
	return summary, nil
}

func (r *MongoBookingRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Booking, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	for cursor.Next(ctx) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return bookings, nil
}
