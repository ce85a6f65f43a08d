package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"bookwell/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll   *mongo.Collection
	ledger *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo() BookingRepository {
	db := database.DB()
	repo := &MongoBookingRepo{
		coll:   db.Collection("bookings"),
		ledger: db.Collection("schedule_ledgers"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create booking indexes: %v\n", err)
	}
	return repo
}

// withTimeout bounds a single repository call.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := withTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "publicId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_public_id")},
		{Keys: bson.D{{Key: "slotKey", Value: 1}, {Key: "date", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("slot_date_status")},
		{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "date", Value: 1}, {Key: "hour", Value: 1}, {Key: "minute", Value: 1}}, Options: options.Index().SetName("customer_time")},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}, Options: options.Index().SetName("status_created")},
		{Keys: bson.D{{Key: "providerId", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("provider_status")},
		{Keys: bson.D{{Key: "shopId", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("shop_status")},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
