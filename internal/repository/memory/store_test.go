package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Dias221467/social_network/internal/models"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), &models.User{FirstName: "Test", LastName: "User", Email: email})
	require.NoError(t, err)
	return u
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := NewStore()
	newUser(t, s, "a@example.com")

	_, err := s.CreateUser(context.Background(), &models.User{Email: "a@example.com"})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

func TestGetUserByID_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := newUser(t, s, "a@example.com")
	b := newUser(t, s, "b@example.com")
	require.NoError(t, s.AddFriend(ctx, a.ID, b.ID))

	got, err := s.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	got.Friends[0] = primitive.NewObjectID()

	again, err := s.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{b.ID}, again.Friends)
}

func TestSearchUsers(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	me := newUser(t, s, "me-alice@example.com")
	for i := 0; i < 12; i++ {
		newUser(t, s, fmt.Sprintf("alice%d@example.com", i))
	}
	newUser(t, s, "bob@example.com")

	users, err := s.SearchUsers(ctx, "ALICE", me.ID, 10)
	require.NoError(t, err)
	assert.Len(t, users, 10)
	for _, u := range users {
		assert.NotEqual(t, me.ID, u.ID)
	}

	none, err := s.SearchUsers(ctx, "nobody", me.ID, 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFriendEdges(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := newUser(t, s, "a@example.com")
	b := newUser(t, s, "b@example.com")

	require.NoError(t, s.AddFriendEdge(ctx, a.ID, b.ID))
	require.NoError(t, s.AddFriendEdge(ctx, a.ID, b.ID))

	ua, _ := s.GetUserByID(ctx, a.ID)
	ub, _ := s.GetUserByID(ctx, b.ID)
	assert.Equal(t, []primitive.ObjectID{b.ID}, ua.Friends, "adding twice keeps set semantics")
	assert.Equal(t, []primitive.ObjectID{a.ID}, ub.Friends)

	require.NoError(t, s.RemoveFriendEdge(ctx, b.ID, a.ID))
	ua, _ = s.GetUserByID(ctx, a.ID)
	ub, _ = s.GetUserByID(ctx, b.ID)
	assert.Empty(t, ua.Friends)
	assert.Empty(t, ub.Friends)
}

func TestFault(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := newUser(t, s, "a@example.com")
	b := newUser(t, s, "b@example.com")

	s.SetFault(func(op string, userID, _ primitive.ObjectID) error {
		if op == "add" && userID == b.ID {
			return apperrors.Internal(nil, "write failed")
		}
		return nil
	})
	err := s.AddFriendEdge(ctx, a.ID, b.ID)
	require.Error(t, err)

	ua, _ := s.GetUserByID(ctx, a.ID)
	ub, _ := s.GetUserByID(ctx, b.ID)
	assert.True(t, ua.HasFriend(b.ID))
	assert.False(t, ub.HasFriend(a.ID))
}

func TestFriendEdge_SecondSideRetriedOnce(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := newUser(t, s, "a@example.com")
	b := newUser(t, s, "b@example.com")

	var calls int
	s.SetFault(func(op string, userID, _ primitive.ObjectID) error {
		if userID != b.ID {
			return nil
		}
		calls++
		if calls == 1 {
			return apperrors.Internal(nil, "write failed")
		}
		return nil
	})
	require.NoError(t, s.AddFriendEdge(ctx, a.ID, b.ID))
	assert.Equal(t, 2, calls)

	ub, _ := s.GetUserByID(ctx, b.ID)
	assert.True(t, ub.HasFriend(a.ID))

	calls = 0
	require.NoError(t, s.RemoveFriendEdge(ctx, a.ID, b.ID))
	assert.Equal(t, 2, calls)

	ua, _ := s.GetUserByID(ctx, a.ID)
	ub, _ = s.GetUserByID(ctx, b.ID)
	assert.False(t, ua.HasFriend(b.ID))
	assert.False(t, ub.HasFriend(a.ID))
}

func TestRequests_PendingUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	req, err := s.CreateRequest(ctx, &models.FriendRequest{SenderID: a, ReceiverID: b})
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)

	_, err = s.CreateRequest(ctx, &models.FriendRequest{SenderID: a, ReceiverID: b})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	_, err = s.CreateRequest(ctx, &models.FriendRequest{SenderID: b, ReceiverID: a})
	assert.NoError(t, err, "reverse direction is independent")

	require.NoError(t, s.MarkAccepted(ctx, req.ID))
	err = s.MarkAccepted(ctx, req.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	_, err = s.CreateRequest(ctx, &models.FriendRequest{SenderID: a, ReceiverID: b})
	assert.NoError(t, err, "only pending requests are unique")

	ok, err := s.HasAcceptedRequest(ctx, b, a)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.DeleteAcceptedBetween(ctx, b, a))
	ok, err = s.HasAcceptedRequest(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, ok)

	pending, err := s.GetRequestsByReceiver(ctx, b)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRequests_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	id := primitive.NewObjectID()

	_, err := s.GetRequestByID(ctx, id)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.True(t, apperrors.Is(s.MarkAccepted(ctx, id), apperrors.KindNotFound))
	assert.True(t, apperrors.Is(s.DeleteRequest(ctx, id), apperrors.KindNotFound))
}

func TestGetChat_OrderAndScope(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()

	for i := 0; i < 3; i++ {
		_, err := s.SendMessage(ctx, &models.Message{SenderID: a, ReceiverID: b, Content: fmt.Sprint("ab", i)})
		require.NoError(t, err)
		_, err = s.SendMessage(ctx, &models.Message{SenderID: b, ReceiverID: a, Content: fmt.Sprint("ba", i)})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}
	_, err := s.SendMessage(ctx, &models.Message{SenderID: a, ReceiverID: c, Content: "other"})
	require.NoError(t, err)

	chat, err := s.GetChat(ctx, b, a)
	require.NoError(t, err)
	require.Len(t, chat, 6)
	for i := 1; i < len(chat); i++ {
		assert.False(t, chat[i].Timestamp.Before(chat[i-1].Timestamp))
	}
	assert.Equal(t, "ab0", chat[0].Content)
}

func TestPosts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	u := newUser(t, s, "a@example.com")

	post, err := s.CreatePost(ctx, &models.Post{UserID: u.ID, Caption: "hi", Media: "/uploads/x.png"})
	require.NoError(t, err)
	require.NoError(t, s.AppendPost(ctx, u.ID, post.ID))

	got, err := s.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Caption)

	owner, _ := s.GetUserByID(ctx, u.ID)
	assert.Equal(t, []primitive.ObjectID{post.ID}, owner.Posts)

	_, err = s.GetPostByID(ctx, primitive.NewObjectID())
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}
