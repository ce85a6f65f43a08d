package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// MongoTxRunner runs units of work inside multi-document transactions.
type MongoTxRunner struct {
	Client *mongo.Client
}

// NewMongoTxRunner uses the global client.
func NewMongoTxRunner() *MongoTxRunner {
	return &MongoTxRunner{Client: MongoClient}
}

// WithTransaction executes fn in a transaction. The context passed to fn
// carries the session; repositories must use it for their operations to
// join the transaction. Transient failures such as write conflicts rerun
// fn from the start, so fn must not keep state between attempts.
func (r *MongoTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := r.Client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOpts)
	return err
}
