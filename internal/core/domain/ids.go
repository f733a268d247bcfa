package domain

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseID parses a hex ObjectID coming from a request. what names the
// entity in the validation message, e.g. "product".
func ParseID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, Validation("Invalid %s id", what)
	}
	return id, nil
}

// ParseOptionalID is ParseID for fields that may be left empty.
func ParseOptionalID(hex, what string) (primitive.ObjectID, error) {
	if strings.TrimSpace(hex) == "" {
		return primitive.NilObjectID, nil
	}
	return ParseID(hex, what)
}
