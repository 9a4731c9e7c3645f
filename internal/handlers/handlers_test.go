package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dias221467/social_network/internal/hub"
	"github.com/Dias221467/social_network/internal/repository/memory"
	"github.com/Dias221467/social_network/internal/services"
	"github.com/Dias221467/social_network/internal/storage"
	"github.com/Dias221467/social_network/pkg/jwt"
	"github.com/Dias221467/social_network/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testServer struct {
	*httptest.Server
	hub    *hub.Hub
	tokens *jwt.Provider
}

func newTestServer(t *testing.T, mode string) *testServer {
	t.Helper()
	store := memory.NewStore()
	blobs, err := storage.NewLocalStore(t.TempDir(), "/uploads", 1<<20)
	require.NoError(t, err)

	tokens := jwt.NewProvider(testSecret, time.Hour)
	chatHub := hub.NewHub(mode, 16)

	userService := services.NewUserService(store, blobs)
	friendService := services.NewFriendService(store, store)
	chatService := services.NewChatService(store, store)
	chatService.SetPublisher(chatHub)
	postService := services.NewPostService(store, store, blobs)

	router := NewRouter(RouterDeps{
		Users:     NewUserHandler(userService, tokens, 1<<20),
		Friends:   NewFriendHandler(friendService),
		Chat:      NewChatHandler(chatService),
		Posts:     NewPostHandler(postService, 1<<20),
		WS:        NewWSChatHandler(chatService, chatHub, tokens, "*"),
		Verifier:  tokens,
		Limiter:   middleware.NewRateLimiter(1000, time.Minute),
		UploadDir: blobs.Dir(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, hub: chatHub, tokens: tokens}
}

// do sends a JSON request and decodes the JSON response into out when out is non-nil.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type account struct {
	ID    string
	Token string
}

func (s *testServer) register(t *testing.T, first, email string) account {
	t.Helper()
	var msg map[string]string
	status := s.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"fName": first, "lName": "Tester", "email": email, "password": "password123",
	}, &msg)
	require.Equal(t, http.StatusCreated, status, msg["message"])

	var login map[string]string
	status = s.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": email, "password": "password123",
	}, &login)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, login["token"])

	var me struct {
		ID string `json:"_id"`
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/user", login["token"], nil, &me))
	return account{ID: me.ID, Token: login["token"]}
}

func (s *testServer) befriend(t *testing.T, a, b account) {
	t.Helper()
	var sent struct {
		Request struct {
			ID string `json:"_id"`
		} `json:"request"`
	}
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/friend-request", a.Token,
		map[string]string{"receiverId": b.ID}, &sent))
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/friend-request/"+sent.Request.ID+"/accept", b.Token, nil, nil))
}

func TestSignupAndLogin(t *testing.T) {
	srv := newTestServer(t, hub.ModeParticipants)
	srv.register(t, "Alice", "alice@example.com")

	var msg map[string]string
	status := srv.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"fName": "Alice", "lName": "Again", "email": "alice@example.com", "password": "password123",
	}, &msg)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User already exists", msg["message"])

	status = srv.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"fName": "Short", "lName": "Pw", "email": "short@example.com", "password": "short",
	}, &msg)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, msg["message"], "password")

	status = srv.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	}, &msg)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid credentials", msg["message"])
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t, hub.ModeParticipants)

	var msg map[string]string
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodGet, "/api/friends", "", nil, &msg))
	assert.Equal(t, "No token provided", msg["message"])

	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, "/api/friends", "garbage", nil, &msg))
	assert.Equal(t, "Invalid token", msg["message"])
}

func TestFriendFlow(t *testing.T) {
	srv := newTestServer(t, hub.ModeParticipants)
	alice := srv.register(t, "Alice", "alice@example.com")
	bob := srv.register(t, "Bob", "bob@example.com")

	var msg map[string]string
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/api/friend-request", alice.Token,
		map[string]string{"receiverId": alice.ID}, &msg))
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/api/friend-request", alice.Token,
		map[string]string{"receiverId": "not-an-id"}, &msg))
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodPost, "/api/friend-request", alice.Token,
		map[string]string{"receiverId": "0123456789abcdef01234567"}, &msg))

	var sent struct {
		Request struct {
			ID string `json:"_id"`
		} `json:"request"`
	}
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/friend-request", alice.Token,
		map[string]string{"receiverId": bob.ID}, &sent))

	var incoming []struct {
		ID     string `json:"_id"`
		Sender struct {
			ID        string `json:"_id"`
			FirstName string `json:"fName"`
		} `json:"sender"`
	}
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/friend-requests/incoming", bob.Token, nil, &incoming))
	require.Len(t, incoming, 1)
	assert.Equal(t, alice.ID, incoming[0].Sender.ID)
	assert.Equal(t, "Alice", incoming[0].Sender.FirstName)

	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodPut, "/api/friend-request/"+sent.Request.ID+"/accept", alice.Token, nil, &msg))
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPut, "/api/friend-request/"+sent.Request.ID+"/accept", bob.Token, nil, &msg))
	assert.Equal(t, "Friend request accepted", msg["message"])
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPut, "/api/friend-request/"+sent.Request.ID+"/accept", bob.Token, nil, &msg))

	var friends []struct {
		ID string `json:"_id"`
	}
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/friends", alice.Token, nil, &friends))
	require.Len(t, friends, 1)
	assert.Equal(t, bob.ID, friends[0].ID)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/friends", bob.Token, nil, &friends))
	require.Len(t, friends, 1)
	assert.Equal(t, alice.ID, friends[0].ID)

	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/api/friends/remove", alice.Token, map[string]string{}, &msg))
	assert.Equal(t, "Friend ID required", msg["message"])
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/friends/remove", alice.Token,
		map[string]string{"friendId": bob.ID}, &msg))
	assert.Equal(t, "Friend removed", msg["message"])
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/api/friends/remove", alice.Token,
		map[string]string{"friendId": bob.ID}, &msg))

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/friends", bob.Token, nil, &friends))
	assert.Empty(t, friends)
}

func TestDeclineFriendRequest(t *testing.T) {
	srv := newTestServer(t, hub.ModeParticipants)
	alice := srv.register(t, "Alice", "alice@example.com")
	bob := srv.register(t, "Bob", "bob@example.com")

	var sent struct {
		Request struct {
			ID string `json:"_id"`
		} `json:"request"`
	}
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/friend-request", alice.Token,
		map[string]string{"receiverId": bob.ID}, &sent))

	var msg map[string]string
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodDelete, "/api/friend-request/"+sent.Request.ID+"/decline", alice.Token, nil, &msg))
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, "/api/friend-request/"+sent.Request.ID+"/decline", bob.Token, nil, &msg))
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodDelete, "/api/friend-request/"+sent.Request.ID+"/decline", bob.Token, nil, &msg))
}

func TestMessages(t *testing.T) {
	srv := newTestServer(t, hub.ModeParticipants)
	alice := srv.register(t, "Alice", "alice@example.com")
	bob := srv.register(t, "Bob", "bob@example.com")

	var msg map[string]string
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/api/message", alice.Token,
		map[string]string{"receiverId": bob.ID, "content": "hi"}, &msg))
	assert.Equal(t, "Not friends", msg["message"])

	srv.befriend(t, alice, bob)

	var created struct {
		Message string `json:"message"`
		Data    struct {
			ID      string `json:"_id"`
			Sender  string `json:"sender"`
			Content string `json:"content"`
		} `json:"data"`
	}
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/message", alice.Token,
		map[string]string{"receiverId": bob.ID, "content": "hello bob"}, &created))
	assert.Equal(t, "Message sent", created.Message)
	assert.Equal(t, alice.ID, created.Data.Sender)
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/api/message", bob.Token,
		map[string]string{"receiverId": alice.ID, "content": "hello alice"}, nil))

	var history []struct {
		Content   string    `json:"content"`
		Timestamp time.Time `json:"timeStamp"`
	}
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/message/"+bob.ID, alice.Token, nil, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "hello bob", history[0].Content)
	assert.Equal(t, "hello alice", history[1].Content)
}

func TestSearchAndProfile(t *testing.T) {
	srv := newTestServer(t, hub.ModeParticipants)
	alice := srv.register(t, "Alice", "alice@example.com")
	bob := srv.register(t, "Bob", "bob@example.com")

	var msg map[string]string
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/api/users/search", alice.Token, nil, &msg))
	assert.Equal(t, "Query required", msg["message"])

	var results []map[string]interface{}
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/users/search?query=bob", alice.Token, nil, &results))
	require.Len(t, results, 1)
	assert.Equal(t, bob.ID, results[0]["_id"])

	var profile map[string]interface{}
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/users/"+bob.ID, alice.Token, nil, &profile))
	assert.Equal(t, "Bob", profile["fName"])
	assert.NotContains(t, profile, "email")
	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/users/0123456789abcdef01234567", alice.Token, nil, nil))
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/api/users/xyz", alice.Token, nil, nil))

	var updated struct {
		Message string `json:"message"`
		User    struct {
			Bio string `json:"bio"`
		} `json:"user"`
	}
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPut, "/api/profile", alice.Token, map[string]string{"bio": "hi there"}, &updated))
	assert.Equal(t, "Profile updated", updated.Message)
	assert.Equal(t, "hi there", updated.User.Bio)

	var me map[string]interface{}
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/profile", alice.Token, nil, &me))
	assert.Equal(t, "hi there", me["bio"])
	assert.NotContains(t, me, "password")
	assert.NotContains(t, me, "hashed_password")
}

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func (s *testServer) upload(t *testing.T, method, path, token string, body *bytes.Buffer, contentType string, out interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestCreatePost(t *testing.T) {
	srv := newTestServer(t, hub.ModeParticipants)
	alice := srv.register(t, "Alice", "alice@example.com")

	body, ct := multipartBody(t, map[string]string{"caption": "first"}, "", "", nil)
	var msg map[string]string
	assert.Equal(t, http.StatusBadRequest, srv.upload(t, http.MethodPost, "/api/posts", alice.Token, body, ct, &msg))
	assert.Equal(t, "Photo required", msg["message"])

	body, ct = multipartBody(t, map[string]string{"caption": "first"}, "media", "notes.txt", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, srv.upload(t, http.MethodPost, "/api/posts", alice.Token, body, ct, &msg))

	var created struct {
		Message string `json:"message"`
		Post    struct {
			ID      string `json:"_id"`
			Caption string `json:"caption"`
			Media   string `json:"media"`
		} `json:"post"`
	}
	body, ct = multipartBody(t, map[string]string{"caption": "first"}, "media", "pic.png", pngHeader)
	require.Equal(t, http.StatusCreated, srv.upload(t, http.MethodPost, "/api/posts", alice.Token, body, ct, &created))
	assert.Equal(t, "Post created", created.Message)
	assert.Equal(t, "first", created.Post.Caption)

	resp, err := srv.Client().Get(srv.URL + created.Post.Media)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "uploaded media is served")

	resp, err = srv.Client().Get(srv.URL + "/uploads/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "upload directory is not listed")

	var post map[string]interface{}
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/api/posts/"+created.Post.ID, alice.Token, nil, &post))
	assert.Equal(t, "first", post["caption"])
}

func TestUpdateProfilePicture(t *testing.T) {
	srv := newTestServer(t, hub.ModeParticipants)
	alice := srv.register(t, "Alice", "alice@example.com")

	body, ct := multipartBody(t, map[string]string{"bio": "with picture"}, "profilePicture", "me.png", pngHeader)
	var updated struct {
		User struct {
			Bio            string `json:"bio"`
			ProfilePicture string `json:"profilePicture"`
		} `json:"user"`
	}
	require.Equal(t, http.StatusOK, srv.upload(t, http.MethodPut, "/api/profile", alice.Token, body, ct, &updated))
	assert.Equal(t, "with picture", updated.User.Bio)
	assert.NotEqual(t, "/uploads/default.png", updated.User.ProfilePicture)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, hub.ModeParticipants)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
