package recordsRepo

import (
	"context"
	"fmt"
	"time"

	"bookwell/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Create inserts a new notification record and returns its ID.
func (r *mongoRecordRepo) Create(ctx context.Context, record *models.Notification) (string, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return record.ID, nil
		}
		return "", fmt.Errorf("failed to store notification: %w", err)
	}
	return record.ID, nil
}

// MarkSent flags a record as pushed to the recipient's device.
func (r *mongoRecordRepo) MarkSent(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{"sent": true, "updatedAt": time.Now()}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return fmt.Errorf("failed to mark notification %s sent: %w", id, err)
	}
	return nil
}

// ListByRecipient fetches the most recent notifications of a recipient.
func (r *mongoRecordRepo) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{"recipientId": recipientID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.Notification
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
