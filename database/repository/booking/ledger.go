package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LockSchedule bumps the ledger document of a capacity key and date. Two
// transactions that both touch the same ledger document conflict on commit,
// so the loser is retried and observes the winner's booking.
func (r *MongoBookingRepo) LockSchedule(ctx context.Context, slotKey, date string) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": ledgerID(slotKey, date)}
	update := bson.M{
		"$inc": bson.M{"version": 1},
		"$set": bson.M{"slotKey": slotKey, "date": date, "updatedAt": time.Now()},
	}
	if _, err := r.ledger.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to lock schedule %s on %s: %w", slotKey, date, err)
	}
	return nil
}
