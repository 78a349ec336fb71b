package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pratikx150/chat-app/internal/server"
	"github.com/pratikx150/chat-app/internal/types"
)

const closeWriteTimeout = 5 * time.Second

// serveWs upgrades the connection and authenticates the credential passed
// as a query parameter. An unauthenticated connection is closed with
// policy violation (1008) and never reaches the registry.
func (s *ChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	username, err := s.auth.VerifyToken(r.URL.Query().Get("token"))
	if err != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"),
			time.Now().Add(closeWriteTimeout),
		)
		conn.Close()
		return
	}

	if err := s.db.SetOnline(username, true); err != nil {
		s.log.Println("set online flag:", err)
	}

	client := server.NewClient(types.User{Username: username}, conn, s.cs, s.log)

	s.cs.RegisterClient(client)
	go client.Write()
	go client.Read()
}
