package repository

import (
	"context"

	"fuel-tracker/internal/models"
	"fuel-tracker/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SecurityQuestionRepository struct {
	collection *mongo.Collection
}

func NewSecurityQuestionRepository(db *mongo.Database) *SecurityQuestionRepository {
	return &SecurityQuestionRepository{
		collection: db.Collection(database.SecurityQuestionsCollection),
	}
}

// FindByUser returns the user's questions in the order they were created.
func (r *SecurityQuestionRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]*models.SecurityQuestion, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.SecurityQuestion](ctx, cursor)
}

// ReplaceForUser deletes the user's questions and inserts the given ones. Run
// it inside a transaction to make the swap atomic.
func (r *SecurityQuestionRepository) ReplaceForUser(ctx context.Context, userID primitive.ObjectID, questions []*models.SecurityQuestion) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return err
	}
	if len(questions) == 0 {
		return nil
	}

	docs := make([]interface{}, len(questions))
	for i, q := range questions {
		q.UserID = userID
		if q.ID.IsZero() {
			q.ID = primitive.NewObjectID()
		}
		docs[i] = q
	}

	_, err := r.collection.InsertMany(ctx, docs)
	return err
}
