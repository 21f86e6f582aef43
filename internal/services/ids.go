package services

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func parseID(kind, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid %s id", ErrValidation, kind)
	}
	return id, nil
}

// parseScope parses an optional vehicle id. An empty string selects all of
// the user's vehicles.
func parseScope(vehicleID string) (*primitive.ObjectID, error) {
	if vehicleID == "" {
		return nil, nil
	}
	id, err := parseID("vehicle", vehicleID)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
