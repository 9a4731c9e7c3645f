package services

import (
	"context"

	"github.com/Dias221467/social_network/internal/models"
	"github.com/Dias221467/social_network/internal/repository"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/Dias221467/social_network/pkg/sanitizer"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessagePublisher pushes a stored message to live connections.
type MessagePublisher interface {
	PublishMessage(msg models.Message)
}

type ChatService struct {
	repo      repository.MessageStore
	userRepo  repository.UserStore
	publisher MessagePublisher
}

func NewChatService(repo repository.MessageStore, userRepo repository.UserStore) *ChatService {
	return &ChatService{repo: repo, userRepo: userRepo}
}

// SetPublisher attaches the real-time fan-out. Without one, messages are only stored.
func (s *ChatService) SetPublisher(p MessagePublisher) {
	s.publisher = p
}

// SendMessage stores a message from senderID to receiverID and publishes it.
// The receiver's friend set is read on every call.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID primitive.ObjectID, content string) (*models.Message, error) {
	content = sanitizer.Text(content)
	if content == "" {
		return nil, apperrors.Validation(`"content" is not allowed to be empty`)
	}
	if err := checkLength("content", content); err != nil {
		return nil, err
	}

	receiver, err := s.userRepo.GetUserByID(ctx, receiverID)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.NotFound("Receiver not found")
		}
		return nil, err
	}
	if !receiver.HasFriend(senderID) {
		return nil, apperrors.Conflict("Not friends")
	}

	msg, err := s.repo.SendMessage(ctx, &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to store message")
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.PublishMessage(*msg)
	}
	return msg, nil
}

// GetChat returns every message exchanged between userID and friendID, oldest first.
func (s *ChatService) GetChat(ctx context.Context, userID, friendID primitive.ObjectID) ([]models.Message, error) {
	return s.repo.GetChat(ctx, userID, friendID)
}
