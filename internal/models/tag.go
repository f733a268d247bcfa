package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Tag struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// TagOption is the shape select inputs on the admin dashboard consume.
type TagOption struct {
	Value primitive.ObjectID `json:"value"`
	Label string             `json:"label"`
}
