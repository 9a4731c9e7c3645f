package services

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/Dias221467/social_network/internal/models"
	"github.com/Dias221467/social_network/internal/repository/memory"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/stretchr/testify/require"
)

type fakeBlobs struct {
	mu    sync.Mutex
	saved []string
	err   error
}

func (f *fakeBlobs) Save(_ context.Context, filename string, content io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(content); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, filename)
	return "/uploads/" + filename, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []models.Message
}

func (p *recordingPublisher) PublishMessage(msg models.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

type fixture struct {
	store   *memory.Store
	blobs   *fakeBlobs
	users   *UserService
	friends *FriendService
	chat    *ChatService
	posts   *PostService
}

func newFixture() *fixture {
	store := memory.NewStore()
	blobs := &fakeBlobs{}
	return &fixture{
		store:   store,
		blobs:   blobs,
		users:   NewUserService(store, blobs),
		friends: NewFriendService(store, store),
		chat:    NewChatService(store, store),
		posts:   NewPostService(store, store, blobs),
	}
}

func (f *fixture) signup(t *testing.T, first, email string) *models.User {
	t.Helper()
	u, err := f.users.RegisterUser(context.Background(), SignupInput{
		FirstName: first,
		LastName:  "Tester",
		Email:     email,
		Password:  "password123",
	})
	require.NoError(t, err)
	return u
}

// befriend runs the full request and accept flow.
func (f *fixture) befriend(t *testing.T, a, b *models.User) {
	t.Helper()
	ctx := context.Background()
	req, err := f.friends.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, f.friends.AcceptRequest(ctx, req.ID, b.ID))
}

func requireKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperrors.KindOf(err), "error: %v", err)
}
