package services

import (
	"context"

	"github.com/Dias221467/social_network/internal/models"
	"github.com/Dias221467/social_network/internal/repository"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendService handles business logic for managing friendships.
type FriendService struct {
	friendRepo repository.FriendStore
	userRepo   repository.UserStore
}

// NewFriendService creates a new FriendService.
func NewFriendService(friendRepo repository.FriendStore, userRepo repository.UserStore) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
	}
}

// SendFriendRequest creates a pending request from senderID to receiverID.
// A pending request in the opposite direction does not prevent it.
func (s *FriendService) SendFriendRequest(ctx context.Context, senderID, receiverID primitive.ObjectID) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, apperrors.Conflict("Cannot send friend request to yourself")
	}

	if _, err := s.userRepo.GetUserByID(ctx, receiverID); err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.NotFound("Receiver not found")
		}
		return nil, err
	}

	sender, err := s.userRepo.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender.HasFriend(receiverID) {
		return nil, apperrors.Conflict("Already friends")
	}

	if _, err := s.friendRepo.FindPendingRequest(ctx, senderID, receiverID); err == nil {
		return nil, apperrors.Conflict(repository.MsgRequestSent)
	} else if !apperrors.Is(err, apperrors.KindNotFound) {
		return nil, err
	}

	request, err := s.friendRepo.CreateRequest(ctx, &models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"requestID": request.ID.Hex(),
		"sender":    senderID.Hex(),
		"receiver":  receiverID.Hex(),
	}).Info("Friend request sent")
	return request, nil
}

// GetPendingRequests fetches pending requests addressed to receiverID with each sender resolved.
func (s *FriendService) GetPendingRequests(ctx context.Context, receiverID primitive.ObjectID) ([]models.IncomingRequest, error) {
	requests, err := s.friendRepo.GetRequestsByReceiver(ctx, receiverID)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]primitive.ObjectID, 0, len(requests))
	for _, req := range requests {
		senderIDs = append(senderIDs, req.SenderID)
	}
	senders, err := s.userRepo.GetUsersByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(senders))
	for _, u := range senders {
		byID[u.ID] = u
	}

	incoming := make([]models.IncomingRequest, 0, len(requests))
	for _, req := range requests {
		sender, ok := byID[req.SenderID]
		if !ok {
			continue
		}
		incoming = append(incoming, models.IncomingRequest{
			ID:         req.ID,
			Sender:     sender.Public(false),
			ReceiverID: req.ReceiverID,
			Status:     req.Status,
			CreatedAt:  req.CreatedAt,
		})
	}
	return incoming, nil
}

// AcceptRequest lets the receiver accept a pending request and links both users.
func (s *FriendService) AcceptRequest(ctx context.Context, requestID, actingUserID primitive.ObjectID) error {
	request, err := s.friendRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request.ReceiverID != actingUserID {
		return apperrors.Forbidden("Unauthorized")
	}
	if request.Status == models.RequestAccepted {
		return apperrors.Conflict(repository.MsgAlreadyAccepted)
	}

	if err := s.friendRepo.MarkAccepted(ctx, requestID); err != nil {
		return err
	}
	if err := s.userRepo.AddFriendEdge(ctx, request.SenderID, request.ReceiverID); err != nil {
		logrus.WithFields(logrus.Fields{
			"requestID": requestID.Hex(),
			"error":     err,
		}).Error("Request accepted but friend edge not fully written")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"requestID": requestID.Hex(),
		"sender":    request.SenderID.Hex(),
		"receiver":  request.ReceiverID.Hex(),
	}).Info("Friend request accepted")
	return nil
}

// DeclineRequest lets the receiver delete a request.
func (s *FriendService) DeclineRequest(ctx context.Context, requestID, actingUserID primitive.ObjectID) error {
	request, err := s.friendRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request.ReceiverID != actingUserID {
		return apperrors.Forbidden("Unauthorized")
	}
	if err := s.friendRepo.DeleteRequest(ctx, requestID); err != nil {
		return err
	}

	logrus.WithField("requestID", requestID.Hex()).Info("Friend request declined")
	return nil
}

// GetFriends returns the public view of every friend of userID.
func (s *FriendService) GetFriends(ctx context.Context, userID primitive.ObjectID) ([]models.PublicUser, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Friends) == 0 {
		return []models.PublicUser{}, nil
	}

	users, err := s.userRepo.GetUsersByIDs(ctx, user.Friends)
	if err != nil {
		return nil, err
	}

	friends := make([]models.PublicUser, 0, len(users))
	for i := range users {
		friends = append(friends, users[i].Public(false))
	}
	return friends, nil
}

// RemoveFriend removes the edge between userID and friendID on both sides and
// forgets the accepted request that created it.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HasFriend(friendID) {
		return apperrors.Conflict("Not friends")
	}
	if _, err := s.userRepo.GetUserByID(ctx, friendID); err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return apperrors.NotFound("Friend not found")
		}
		return err
	}

	if err := s.friendRepo.DeleteAcceptedBetween(ctx, userID, friendID); err != nil {
		return err
	}
	if err := s.userRepo.RemoveFriendEdge(ctx, userID, friendID); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"userID":   userID.Hex(),
		"friendID": friendID.Hex(),
	}).Info("Friend removed")
	return nil
}
