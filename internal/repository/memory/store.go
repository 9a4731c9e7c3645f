// Package memory is an in-process implementation of the repository stores.
// It enforces the same uniqueness rules as the MongoDB indexes and is used by
// tests and by STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dias221467/social_network/internal/models"
	"github.com/Dias221467/social_network/internal/repository"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ repository.UserStore    = (*Store)(nil)
	_ repository.FriendStore  = (*Store)(nil)
	_ repository.MessageStore = (*Store)(nil)
	_ repository.PostStore    = (*Store)(nil)
)

// Fault lets tests fail a single-side friend write. op is "add" or "pull".
type Fault func(op string, userID, friendID primitive.ObjectID) error

type Store struct {
	mu       sync.RWMutex
	users    map[primitive.ObjectID]*models.User
	requests map[primitive.ObjectID]*models.FriendRequest
	messages []models.Message
	posts    map[primitive.ObjectID]*models.Post
	fault    Fault
}

func NewStore() *Store {
	return &Store{
		users:    make(map[primitive.ObjectID]*models.User),
		requests: make(map[primitive.ObjectID]*models.FriendRequest),
		posts:    make(map[primitive.ObjectID]*models.Post),
	}
}

// SetFault installs f; nil removes it.
func (s *Store) SetFault(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// Users

func (s *Store) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, apperrors.Conflict(repository.MsgUserExists)
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Friends == nil {
		user.Friends = []primitive.ObjectID{}
	}
	if user.Posts == nil {
		user.Posts = []primitive.ObjectID{}
	}
	s.users[user.ID] = cloneUser(user)
	return user, nil
}

func (s *Store) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound(repository.MsgUserNotFound)
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, apperrors.NotFound(repository.MsgUserNotFound)
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, *cloneUser(u))
		}
	}
	return users, nil
}

func (s *Store) GetAllUsers(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID.Hex() < users[j].ID.Hex() })
	return users, nil
}

func (s *Store) SearchUsers(_ context.Context, query string, excludeID primitive.ObjectID, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var matches []models.User
	for _, u := range s.users {
		if u.ID == excludeID {
			continue
		}
		if strings.Contains(strings.ToLower(u.FirstName), q) ||
			strings.Contains(strings.ToLower(u.LastName), q) ||
			strings.Contains(strings.ToLower(u.Email), q) {
			matches = append(matches, *cloneUser(u))
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID.Hex() < matches[j].ID.Hex() })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []models.User{}
	}
	return matches, nil
}

func (s *Store) UpdateProfile(_ context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound(repository.MsgUserNotFound)
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	if update.ProfilePicture != nil {
		u.ProfilePicture = *update.ProfilePicture
	}
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

func (s *Store) AppendPost(_ context.Context, userID, postID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return apperrors.NotFound(repository.MsgUserNotFound)
	}
	u.Posts = append(u.Posts, postID)
	return nil
}

func (s *Store) AddFriend(_ context.Context, userID, friendID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injected("add", userID, friendID); err != nil {
		return err
	}
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	if !u.HasFriend(friendID) {
		u.Friends = append(u.Friends, friendID)
	}
	return nil
}

func (s *Store) PullFriend(_ context.Context, userID, friendID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.injected("pull", userID, friendID); err != nil {
		return err
	}
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	kept := u.Friends[:0]
	for _, f := range u.Friends {
		if f != friendID {
			kept = append(kept, f)
		}
	}
	u.Friends = kept
	return nil
}

// AddFriendEdge and RemoveFriendEdge follow the non-transactional Mongo path,
// including the single retry of the second side.
func (s *Store) AddFriendEdge(ctx context.Context, a, b primitive.ObjectID) error {
	return repository.WriteEdgeSides(ctx, "add", a, b, s.AddFriend)
}

func (s *Store) RemoveFriendEdge(ctx context.Context, a, b primitive.ObjectID) error {
	return repository.WriteEdgeSides(ctx, "remove", a, b, s.PullFriend)
}

func (s *Store) injected(op string, userID, friendID primitive.ObjectID) error {
	if s.fault == nil {
		return nil
	}
	return s.fault(op, userID, friendID)
}

// Friend requests

func (s *Store) CreateRequest(_ context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.requests {
		if r.Status == models.RequestPending && r.SenderID == req.SenderID && r.ReceiverID == req.ReceiverID {
			return nil, apperrors.Conflict(repository.MsgRequestSent)
		}
	}
	req.ID = primitive.NewObjectID()
	req.Status = models.RequestPending
	req.CreatedAt = time.Now()
	stored := *req
	s.requests[req.ID] = &stored
	return req, nil
}

func (s *Store) GetRequestByID(_ context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, apperrors.NotFound(repository.MsgRequestNotFound)
	}
	out := *r
	return &out, nil
}

func (s *Store) FindPendingRequest(_ context.Context, senderID, receiverID primitive.ObjectID) (*models.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.requests {
		if r.Status == models.RequestPending && r.SenderID == senderID && r.ReceiverID == receiverID {
			out := *r
			return &out, nil
		}
	}
	return nil, apperrors.NotFound(repository.MsgRequestNotFound)
}

func (s *Store) GetRequestsByReceiver(_ context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error) {
	return s.filterRequests(func(r *models.FriendRequest) bool {
		return r.ReceiverID == receiverID && r.Status == models.RequestPending
	}), nil
}

func (s *Store) GetAcceptedRequests(_ context.Context) ([]models.FriendRequest, error) {
	return s.filterRequests(func(r *models.FriendRequest) bool {
		return r.Status == models.RequestAccepted
	}), nil
}

func (s *Store) HasAcceptedRequest(_ context.Context, a, b primitive.ObjectID) (bool, error) {
	found := s.filterRequests(func(r *models.FriendRequest) bool {
		return r.Status == models.RequestAccepted && between(r, a, b)
	})
	return len(found) > 0, nil
}

func (s *Store) MarkAccepted(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return apperrors.NotFound(repository.MsgRequestNotFound)
	}
	if r.Status != models.RequestPending {
		return apperrors.Conflict(repository.MsgAlreadyAccepted)
	}
	r.Status = models.RequestAccepted
	return nil
}

func (s *Store) DeleteRequest(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[id]; !ok {
		return apperrors.NotFound(repository.MsgRequestNotFound)
	}
	delete(s.requests, id)
	return nil
}

func (s *Store) DeleteAcceptedBetween(_ context.Context, a, b primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.requests {
		if r.Status == models.RequestAccepted && between(r, a, b) {
			delete(s.requests, id)
		}
	}
	return nil
}

func (s *Store) filterRequests(keep func(r *models.FriendRequest) bool) []models.FriendRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.FriendRequest{}
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out
}

func between(r *models.FriendRequest, a, b primitive.ObjectID) bool {
	return (r.SenderID == a && r.ReceiverID == b) || (r.SenderID == b && r.ReceiverID == a)
}

// Messages

func (s *Store) SendMessage(_ context.Context, msg *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = primitive.NewObjectID()
	msg.Timestamp = time.Now().UTC()
	s.messages = append(s.messages, *msg)
	return msg, nil
}

func (s *Store) GetChat(_ context.Context, userID, friendID primitive.ObjectID) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Message{}
	for _, m := range s.messages {
		if (m.SenderID == userID && m.ReceiverID == friendID) || (m.SenderID == friendID && m.ReceiverID == userID) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID.Hex() < out[j].ID.Hex()
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Posts

func (s *Store) CreatePost(_ context.Context, post *models.Post) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	stored := *post
	s.posts[post.ID] = &stored
	return post, nil
}

func (s *Store) GetPostByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, apperrors.NotFound(repository.MsgPostNotFound)
	}
	out := *p
	return &out, nil
}

func cloneUser(u *models.User) *models.User {
	out := *u
	out.Friends = append([]primitive.ObjectID{}, u.Friends...)
	out.Posts = append([]primitive.ObjectID{}, u.Posts...)
	return &out
}
