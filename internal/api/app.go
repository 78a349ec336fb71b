package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/pratikx150/chat-app/internal/auth"
	"github.com/pratikx150/chat-app/internal/blob"
	"github.com/pratikx150/chat-app/internal/config"
	"github.com/pratikx150/chat-app/internal/database"
	"github.com/pratikx150/chat-app/internal/server"
)

type ChatApp struct {
	log            *log.Logger
	db             database.ChatRepository
	mux            *http.Server
	cs             *server.ChatServer
	auth           *auth.Authenticator
	blobs          blob.Store
	allowedOrigins []string
}

func NewChatApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, db database.ChatRepository,
	authn *auth.Authenticator, blobs blob.Store, cfg *config.Config) *ChatApp {
	s := &ChatApp{
		log:            logger,
		db:             db,
		cs:             cs,
		auth:           authn,
		blobs:          blobs,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("POST /api/register", s.register)
	mux.HandleFunc("POST /api/login", s.login)
	mux.Handle("POST /api/logout", s.authMiddleware(s.logout))
	mux.HandleFunc("GET /api/messages", s.getMessages)
	mux.Handle("POST /api/messages", s.authMiddleware(s.postMessage))
	mux.HandleFunc("GET /api/status", s.getStatus)
	mux.Handle("POST /api/status", s.authMiddleware(s.postStatus))
	mux.HandleFunc("GET /api/users", s.getUsers)
	mux.Handle("POST /api/users", s.authMiddleware(s.postUsers))
	mux.HandleFunc("GET /api/timer", s.getTimer)
	mux.Handle("POST /api/timer", s.authMiddleware(s.postTimer))
	mux.Handle("POST /api/upload", s.authMiddleware(s.upload))
	mux.HandleFunc("GET /api/notifications", s.getNotifications)
	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("GET /ws", s.serveWs)
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *ChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *ChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
