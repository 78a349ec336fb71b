package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lib/pq"
	"github.com/pratikx150/chat-app/internal/auth"
	"github.com/pratikx150/chat-app/internal/database"
	"github.com/pratikx150/chat-app/internal/server"
	"github.com/pratikx150/chat-app/internal/types"
)

const maxUploadSize = 10 << 20

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type PostMessageRequest struct {
	Content string            `json:"content"`
	Kind    types.MessageKind `json:"kind"`
	ReplyTo int               `json:"reply_to"`
}

type StatusActionRequest struct {
	Action string `json:"action"`
}

type StatusResponse struct {
	Online []string `json:"online"`
	Typing []string `json:"typing"`
}

type UserActionRequest struct {
	Action string `json:"action"`
	Theme  string `json:"theme"`
}

type TimerActionRequest struct {
	Action   string `json:"action"`
	Name     string `json:"name"`
	Duration int    `json:"duration"`
}

func (s *ChatApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *ChatApp) register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Username == "" || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.CreateUser(database.CreateUserParams{
		Username:     req.Username,
		PasswordHash: pwdHash,
	}); err != nil {
		var errResp *ApiError
		if isUniqueViolation(err) {
			errResp = NewConflictError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"message": "registered successfully"})
}

func (s *ChatApp) login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Username == "" || req.Password == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.db.GetUserByUsername(req.Username)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			// indistinguishable from a bad password on purpose
			errResp = NewUnauthorizedError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !s.auth.VerifyPassword(dbUser.PasswordHash, req.Password) {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	token, err := s.auth.CreateToken(dbUser.Username, auth.DefaultTokenExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, LoginResponse{
		Token:    token,
		Username: dbUser.Username,
	})
}

func (s *ChatApp) logout(w http.ResponseWriter, r *http.Request) {
	username, ok := Username(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.SetOnline(username, false); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *ChatApp) getMessages(w http.ResponseWriter, _ *http.Request) {
	dbMessages, err := s.db.ListMessages()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	messages := make([]types.Message, 0, len(dbMessages))
	for _, m := range dbMessages {
		messages = append(messages, types.Message{
			Id:         m.Id,
			Username:   m.Username,
			Kind:       types.MessageKind(m.Kind),
			Content:    m.Content,
			Attachment: m.Attachment,
			ReplyTo:    m.ReplyTo,
			Timestamp:  m.CreatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, messages)
}

func (s *ChatApp) postMessage(w http.ResponseWriter, r *http.Request) {
	username, ok := Username(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var clientMsg server.ClientMessage

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		defer file.Close()

		obj, err := s.blobs.Put(header.Filename, file)
		if err != nil {
			s.log.Println("store attachment:", err)
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		clientMsg = server.ClientMessage{
			Type:       server.TypeMessage,
			Kind:       types.MessageKind(r.FormValue("kind")),
			Attachment: obj.URL,
		}
	} else {
		var req PostMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		clientMsg = server.ClientMessage{
			Type:    server.TypeMessage,
			Content: req.Content,
			Kind:    req.Kind,
			ReplyTo: req.ReplyTo,
		}
	}

	msg, err := s.cs.Ingest(&clientMsg, username)
	if err != nil {
		var errResp *ApiError
		switch {
		case errors.Is(err, server.ErrValidation):
			errResp = NewBadRequestError()
		case errors.Is(err, server.ErrTimeout):
			errResp = NewGatewayTimeoutError()
		default:
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, msg)
}

func (s *ChatApp) getStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJson(w, http.StatusOK, StatusResponse{
		Online: s.cs.OnlineUsers(),
		Typing: s.cs.TypingUsers(),
	})
}

func (s *ChatApp) postStatus(w http.ResponseWriter, r *http.Request) {
	username, ok := Username(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req StatusActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	switch req.Action {
	case "update_active":
		if err := s.db.UpdateLastActive(username); err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	case "start_typing":
		s.cs.StartTyping(username)
	case "stop_typing":
		s.cs.StopTyping(username)
	default:
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *ChatApp) getUsers(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("action") {
	case "online":
		usernames, err := s.db.ListOnlineUsers()
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		if usernames == nil {
			usernames = []string{}
		}
		s.writeJson(w, http.StatusOK, usernames)
	case "self":
		username, err := s.identityFromRequest(r)
		if err != nil {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		dbUser, err := s.db.GetUserByUsername(username)
		if err != nil {
			var errResp *ApiError
			if errors.Is(err, sql.ErrNoRows) {
				errResp = NewNotFoundError()
			} else {
				errResp = NewInternalServerError(err)
			}
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		s.writeJson(w, http.StatusOK, types.User{
			Id:         dbUser.Id,
			Username:   dbUser.Username,
			Theme:      dbUser.Theme,
			IsOnline:   dbUser.IsOnline,
			LastActive: dbUser.LastActive,
			CreatedAt:  dbUser.CreatedAt,
		})
	default:
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
	}
}

func (s *ChatApp) postUsers(w http.ResponseWriter, r *http.Request) {
	username, ok := Username(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req UserActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Action != "updateTheme" || req.Theme == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.UpdateTheme(username, req.Theme); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *ChatApp) getTimer(w http.ResponseWriter, _ *http.Request) {
	dbTimer, err := s.db.GetActiveTimer()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeJson(w, http.StatusOK, (*types.Timer)(nil))
			return
		}
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.Timer{
		Id:        dbTimer.Id,
		Name:      dbTimer.Name,
		Duration:  dbTimer.Duration,
		Username:  dbTimer.Username,
		IsActive:  dbTimer.IsActive,
		StartedAt: dbTimer.StartedAt,
	})
}

func (s *ChatApp) postTimer(w http.ResponseWriter, r *http.Request) {
	username, ok := Username(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req TimerActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	switch req.Action {
	case "create":
		if req.Name == "" || req.Duration <= 0 {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		dbTimer, err := s.db.CreateTimer(database.CreateTimerParams{
			Name:     req.Name,
			Duration: req.Duration,
			Username: username,
		})
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		s.writeJson(w, http.StatusCreated, types.Timer{
			Id:        dbTimer.Id,
			Name:      dbTimer.Name,
			Duration:  dbTimer.Duration,
			Username:  dbTimer.Username,
			IsActive:  dbTimer.IsActive,
			StartedAt: dbTimer.StartedAt,
		})
	case "stop":
		if err := s.db.StopTimers(username); err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		s.writeJson(w, http.StatusOK, map[string]string{"status": "success"})
	default:
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
	}
}

func (s *ChatApp) upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := Username(r.Context()); !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}
	defer file.Close()

	obj, err := s.blobs.Put(header.Filename, file)
	if err != nil {
		s.log.Println("store blob:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, obj)
}

func (s *ChatApp) getNotifications(w http.ResponseWriter, _ *http.Request) {
	dbNotifications, err := s.db.ListActiveNotifications()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	notifications := make([]types.Notification, 0, len(dbNotifications))
	for _, n := range dbNotifications {
		notifications = append(notifications, types.Notification{
			Id:        n.Id,
			Content:   n.Content,
			IsActive:  n.IsActive,
			CreatedAt: n.CreatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, notifications)
}

func (s *ChatApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("health check:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
