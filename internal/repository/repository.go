package repository

import (
	"context"
	"errors"

	"github.com/Dias221467/social_network/internal/models"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SearchLimit caps the number of users returned by a search.
const SearchLimit = 10

// UserStore persists identities and their friend and post references.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	SearchUsers(ctx context.Context, query string, excludeID primitive.ObjectID, limit int) ([]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error)
	AppendPost(ctx context.Context, userID, postID primitive.ObjectID) error

	// AddFriendEdge and RemoveFriendEdge update both users' friend sets.
	AddFriendEdge(ctx context.Context, a, b primitive.ObjectID) error
	RemoveFriendEdge(ctx context.Context, a, b primitive.ObjectID) error

	// AddFriend and PullFriend touch one side only; used to repair asymmetric edges.
	AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) error
	PullFriend(ctx context.Context, userID, friendID primitive.ObjectID) error
}

// FriendStore persists friend requests.
type FriendStore interface {
	CreateRequest(ctx context.Context, req *models.FriendRequest) (*models.FriendRequest, error)
	GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.FriendRequest, error)
	FindPendingRequest(ctx context.Context, senderID, receiverID primitive.ObjectID) (*models.FriendRequest, error)
	GetRequestsByReceiver(ctx context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error)
	GetAcceptedRequests(ctx context.Context) ([]models.FriendRequest, error)
	HasAcceptedRequest(ctx context.Context, a, b primitive.ObjectID) (bool, error)
	MarkAccepted(ctx context.Context, id primitive.ObjectID) error
	DeleteRequest(ctx context.Context, id primitive.ObjectID) error
	DeleteAcceptedBetween(ctx context.Context, a, b primitive.ObjectID) error
}

// MessageStore persists direct messages.
type MessageStore interface {
	SendMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetChat(ctx context.Context, userID, friendID primitive.ObjectID) ([]models.Message, error)
}

// PostStore persists photo posts.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
}

var (
	_ UserStore    = (*UserRepository)(nil)
	_ FriendStore  = (*FriendRepository)(nil)
	_ MessageStore = (*ChatRepository)(nil)
	_ PostStore    = (*PostRepository)(nil)
)

// Client-facing messages shared by every store implementation.
const (
	MsgUserNotFound    = "User not found"
	MsgRequestNotFound = "Friend request not found"
	MsgPostNotFound    = "Post not found"
	MsgUserExists      = "User already exists"
	MsgRequestSent     = "Friend request already sent"
	MsgAlreadyAccepted = "Request already accepted"
)

// notFoundOr translates mongo.ErrNoDocuments into a NotFound error and anything else into Internal.
func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.NotFound(notFound)
	}
	return apperrors.Internal(err, internal)
}
