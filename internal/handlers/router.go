package handlers

import (
	"net/http"
	"strings"

	"github.com/Dias221467/social_network/pkg/metrics"
	"github.com/Dias221467/social_network/pkg/middleware"
	"github.com/gorilla/mux"
)

// RouterDeps bundles everything NewRouter mounts.
type RouterDeps struct {
	Users     *UserHandler
	Friends   *FriendHandler
	Chat      *ChatHandler
	Posts     *PostHandler
	WS        *WSChatHandler
	Verifier  middleware.TokenVerifier
	Limiter   *middleware.RateLimiter
	UploadDir string
}

// NewRouter registers the REST API under /api, the chat socket at /ws and the
// operational endpoints.
func NewRouter(d RouterDeps) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.MetricsMiddleware)

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusOK, "ok")
	}).Methods(http.MethodGet)
	router.HandleFunc("/ws", d.WS.ServeWS)
	router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", uploadsHandler(d.UploadDir)))

	api := router.PathPrefix("/api").Subrouter()
	if d.Limiter != nil {
		api.Use(d.Limiter.Handler)
	}

	// Public routes
	api.HandleFunc("/signup", d.Users.SignupHandler).Methods(http.MethodPost)
	api.HandleFunc("/login", d.Users.LoginHandler).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.AuthMiddleware(d.Verifier))

	// User routes
	protected.HandleFunc("/user", d.Users.GetMeHandler).Methods(http.MethodGet)
	protected.HandleFunc("/profile", d.Users.GetMeHandler).Methods(http.MethodGet)
	protected.HandleFunc("/profile", d.Users.UpdateProfileHandler).Methods(http.MethodPut)
	protected.HandleFunc("/users/search", d.Users.SearchUsersHandler).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id}", d.Users.GetUserHandler).Methods(http.MethodGet)

	// Friend routes
	protected.HandleFunc("/friend-request", d.Friends.SendFriendRequestHandler).Methods(http.MethodPost)
	protected.HandleFunc("/friend-requests/incoming", d.Friends.GetIncomingRequestsHandler).Methods(http.MethodGet)
	protected.HandleFunc("/friend-request/{id}/accept", d.Friends.AcceptFriendRequestHandler).Methods(http.MethodPut)
	protected.HandleFunc("/friend-request/{id}/decline", d.Friends.DeclineFriendRequestHandler).Methods(http.MethodDelete)
	protected.HandleFunc("/friends", d.Friends.GetFriendsHandler).Methods(http.MethodGet)
	protected.HandleFunc("/friends/remove", d.Friends.RemoveFriendHandler).Methods(http.MethodPost)

	// Chat routes
	protected.HandleFunc("/message", d.Chat.SendMessageHandler).Methods(http.MethodPost)
	protected.HandleFunc("/message/{friendId}", d.Chat.GetChatHistoryHandler).Methods(http.MethodGet)

	// Post routes
	protected.HandleFunc("/posts", d.Posts.CreatePostHandler).Methods(http.MethodPost)
	protected.HandleFunc("/posts/{id}", d.Posts.GetPostHandler).Methods(http.MethodGet)

	return router
}

// uploadsHandler serves stored files but never a directory listing.
func uploadsHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
