package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
)

type FriendRequest struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SenderID   primitive.ObjectID `bson:"sender_id" json:"sender"`
	ReceiverID primitive.ObjectID `bson:"receiver_id" json:"receiver"`
	Status     string             `bson:"status" json:"status"` // "pending" or "accepted"; declined requests are deleted
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}

// IncomingRequest is a pending request with the sender resolved for display.
type IncomingRequest struct {
	ID         primitive.ObjectID `json:"_id"`
	Sender     PublicUser         `json:"sender"`
	ReceiverID primitive.ObjectID `json:"receiver"`
	Status     string             `json:"status"`
	CreatedAt  time.Time          `json:"createdAt"`
}
