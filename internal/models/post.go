package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	Caption   string             `bson:"caption" json:"caption"`
	Media     string             `bson:"media" json:"media"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
