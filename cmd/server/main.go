package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dias221467/social_network/internal/config"
	"github.com/Dias221467/social_network/internal/database"
	"github.com/Dias221467/social_network/internal/handlers"
	"github.com/Dias221467/social_network/internal/hub"
	"github.com/Dias221467/social_network/internal/jobs"
	"github.com/Dias221467/social_network/internal/repository"
	"github.com/Dias221467/social_network/internal/repository/memory"
	"github.com/Dias221467/social_network/internal/scheduler"
	"github.com/Dias221467/social_network/internal/services"
	"github.com/Dias221467/social_network/internal/storage"
	"github.com/Dias221467/social_network/pkg/jwt"
	"github.com/Dias221467/social_network/pkg/logger"
	"github.com/Dias221467/social_network/pkg/middleware"
	"github.com/rs/cors"
)

type stores struct {
	users    repository.UserStore
	requests repository.FriendStore
	messages repository.MessageStore
	posts    repository.PostStore
	close    func()
}

func openStores(cfg *config.Config) (*stores, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Log.Warn("Using in-memory storage, data is lost on restart")
		mem := memory.NewStore()
		return &stores{users: mem, requests: mem, messages: mem, posts: mem, close: func() {}}, nil
	}

	db, err := database.ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	return &stores{
		users:    repository.NewUserRepository(db, cfg.MongoTransactions),
		requests: repository.NewFriendRepository(db),
		messages: repository.NewChatRepository(db),
		posts:    repository.NewPostRepository(db),
		close:    func() { database.Disconnect(db) },
	}, nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.Fatalf("Configuration error: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	st, err := openStores(cfg)
	if err != nil {
		logger.Log.Fatalf("Database connection error: %v", err)
	}
	defer st.close()

	maxUploadBytes := cfg.MaxUploadMB << 20
	blobs, err := storage.NewLocalStore(cfg.UploadDir, "/uploads", maxUploadBytes)
	if err != nil {
		logger.Log.Fatalf("Upload directory error: %v", err)
	}

	tokens := jwt.NewProvider(cfg.JWTSecret, cfg.TokenExpiry)
	chatHub := hub.NewHub(cfg.ChatDeliveryMode, 64)

	// --- Services ---
	userService := services.NewUserService(st.users, blobs)
	friendService := services.NewFriendService(st.requests, st.users)
	chatService := services.NewChatService(st.messages, st.users)
	chatService.SetPublisher(chatHub)
	postService := services.NewPostService(st.posts, st.users, blobs)

	// --- Background jobs ---
	reconciler := jobs.NewFriendReconciler(st.users, st.requests)
	cronRunner, err := scheduler.StartReconcileCron(cfg.ReconcileSchedule, reconciler)
	if err != nil {
		logger.Log.Fatalf("Invalid RECONCILE_SCHEDULE: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	limiter.StartCleanup(ctx, cfg.RateLimitWindow)

	router := handlers.NewRouter(handlers.RouterDeps{
		Users:     handlers.NewUserHandler(userService, tokens, maxUploadBytes),
		Friends:   handlers.NewFriendHandler(friendService),
		Chat:      handlers.NewChatHandler(chatService),
		Posts:     handlers.NewPostHandler(postService, maxUploadBytes),
		WS:        handlers.NewWSChatHandler(chatService, chatHub, tokens, cfg.CORSOrigin),
		Verifier:  tokens,
		Limiter:   limiter,
		UploadDir: blobs.Dir(),
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Graceful shutdown failed")
	}
	<-cronRunner.Stop().Done()
}
