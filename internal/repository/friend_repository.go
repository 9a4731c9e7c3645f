package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/social_network/internal/models"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FriendRepository struct {
	collection *mongo.Collection
}

func NewFriendRepository(db *mongo.Database) *FriendRepository {
	return &FriendRepository{
		collection: db.Collection("friend_requests"),
	}
}

// CreateRequest inserts a pending request. The partial unique index on
// (sender_id, receiver_id, status=pending) rejects a concurrent duplicate.
func (r *FriendRepository) CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	req.CreatedAt = time.Now()
	req.Status = models.RequestPending

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.Wrap(err, apperrors.KindConflict, MsgRequestSent)
		}
		return nil, apperrors.Internal(err, "failed to send friend request")
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, apperrors.Internal(fmt.Errorf("unexpected id type %T", result.InsertedID), "failed to cast inserted ID")
	}
	req.ID = insertedID

	return req, nil
}

func (r *FriendRepository) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		return nil, notFoundOr(err, MsgRequestNotFound, "failed to find friend request")
	}
	return &request, nil
}

func (r *FriendRepository) FindPendingRequest(ctx context.Context, senderID, receiverID primitive.ObjectID) (*models.FriendRequest, error) {
	var request models.FriendRequest
	filter := bson.M{"sender_id": senderID, "receiver_id": receiverID, "status": models.RequestPending}
	if err := r.collection.FindOne(ctx, filter).Decode(&request); err != nil {
		return nil, notFoundOr(err, MsgRequestNotFound, "failed to find friend request")
	}
	return &request, nil
}

// GetRequestsByReceiver returns pending requests addressed to receiverID, oldest first.
func (r *FriendRepository) GetRequestsByReceiver(ctx context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error) {
	filter := bson.M{"receiver_id": receiverID, "status": models.RequestPending}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *FriendRepository) GetAcceptedRequests(ctx context.Context) ([]models.FriendRequest, error) {
	return r.find(ctx, bson.M{"status": models.RequestAccepted})
}

func (r *FriendRepository) HasAcceptedRequest(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, betweenFilter(a, b, models.RequestAccepted), options.Count().SetLimit(1))
	if err != nil {
		return false, apperrors.Internal(err, "failed to count friend requests")
	}
	return n > 0, nil
}

// MarkAccepted moves a pending request to accepted. The status is part of the filter,
// so of two concurrent accepts only one matches.
func (r *FriendRepository) MarkAccepted(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.RequestPending},
		bson.M{"$set": bson.M{"status": models.RequestAccepted}},
	)
	if err != nil {
		return apperrors.Internal(err, "failed to update request status")
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetRequestByID(ctx, id); err != nil {
			return err
		}
		return apperrors.Conflict(MsgAlreadyAccepted)
	}
	return nil
}

func (r *FriendRepository) DeleteRequest(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Internal(err, "failed to delete friend request")
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound(MsgRequestNotFound)
	}
	return nil
}

// DeleteAcceptedBetween drops the accepted request(s) linking a and b once they are no longer friends.
func (r *FriendRepository) DeleteAcceptedBetween(ctx context.Context, a, b primitive.ObjectID) error {
	res, err := r.collection.DeleteMany(ctx, betweenFilter(a, b, models.RequestAccepted))
	if err != nil {
		return apperrors.Internal(err, "failed to delete accepted requests")
	}
	logrus.WithFields(logrus.Fields{
		"userA":   a.Hex(),
		"userB":   b.Hex(),
		"deleted": res.DeletedCount,
	}).Debug("Accepted friend requests removed")
	return nil
}

func (r *FriendRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.FriendRequest, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to find friend requests")
	}
	defer cursor.Close(ctx)

	requests := []models.FriendRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, apperrors.Internal(err, "failed to decode friend requests")
	}
	return requests, nil
}

func betweenFilter(a, b primitive.ObjectID, status string) bson.M {
	return bson.M{
		"$or": []bson.M{
			{"sender_id": a, "receiver_id": b},
			{"sender_id": b, "receiver_id": a},
		},
		"status": status,
	}
}
