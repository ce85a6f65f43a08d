package recordsRepo

import (
	"context"
	"fmt"
	"time"

	"bookwell/database"
	"bookwell/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRecordRepository stores the in-app copy of delivered notifications.
type NotificationRecordRepository interface {
	// Create stores a record. Storing an id twice keeps the first copy.
	Create(ctx context.Context, record *models.Notification) (string, error)
	MarkSent(ctx context.Context, id string) error
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]models.Notification, error)
}

type mongoRecordRepo struct {
	coll *mongo.Collection
}

// NewMongoRecordRepo returns a new NotificationRecordRepository instance using MongoDB.
func NewMongoRecordRepo() NotificationRecordRepository {
	repo := &mongoRecordRepo{
		coll: database.DB().Collection("notifications"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create notification indexes: %v\n", err)
	}
	return repo
}

func (r *mongoRecordRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "recipientId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}
