package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor runs a unit of work all-or-nothing. Repositories called with the
// ctx handed to fn take part in the transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MongoTransactor uses client sessions, which need a replica set or sharded
// cluster on the server side.
type MongoTransactor struct {
	client *mongo.Client
}

func NewTransactor(db *mongo.Database) *MongoTransactor {
	return &MongoTransactor{client: db.Client()}
}

func (t *MongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
