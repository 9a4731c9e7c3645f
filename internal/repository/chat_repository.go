package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/social_network/internal/models"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChatRepository struct {
	collection *mongo.Collection
}

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{collection: db.Collection("messages")}
}

// SendMessage stores msg with a server-assigned timestamp.
func (r *ChatRepository) SendMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	msg.Timestamp = time.Now().UTC()
	result, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to store message")
	}
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, apperrors.Internal(fmt.Errorf("unexpected id type %T", result.InsertedID), "failed to cast inserted ID")
	}
	msg.ID = id
	return msg, nil
}

// GetChat returns the conversation between two users in both directions, oldest first.
func (r *ChatRepository) GetChat(ctx context.Context, userID, friendID primitive.ObjectID) ([]models.Message, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender_id": userID, "receiver_id": friendID},
			{"sender_id": friendID, "receiver_id": userID},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load chat history")
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	for cursor.Next(ctx) {
		var msg models.Message
		if err := cursor.Decode(&msg); err != nil {
			return nil, apperrors.Internal(err, "failed to decode message")
		}
		messages = append(messages, msg)
	}
	if err := cursor.Err(); err != nil {
		return nil, apperrors.Internal(err, "failed to iterate messages")
	}
	return messages, nil
}
