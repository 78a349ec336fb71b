package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pratikx150/chat-app/internal/auth"
	"github.com/pratikx150/chat-app/internal/database"
	"github.com/pratikx150/chat-app/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type wsPayload struct {
	Type    string   `json:"type"`
	Users   []string `json:"users"`
	Message *struct {
		Username string `json:"username"`
		Kind     string `json:"kind"`
		Content  string `json:"content"`
	} `json:"message"`
	Error string `json:"error"`
}

// readPayload reads frames until one of the given type arrives.
func readPayload(t *testing.T, conn *websocket.Conn, msgType string) wsPayload {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	conn.SetReadDeadline(deadline)
	for {
		var payload wsPayload
		if err := conn.ReadJSON(&payload); err != nil {
			t.Fatalf("failed to read %q frame: %v", msgType, err)
		}
		if payload.Type == msgType {
			return payload
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %q frame", msgType)
		}
	}
}

func dialWs(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if token != "" {
		wsURL += "?token=" + token
	}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial %s: %v", wsURL, err)
	}
	return conn, resp
}

func Test_serveWs_unauthorized(t *testing.T) {
	tcases := []struct {
		name  string
		token string
	}{
		{
			name:  "missing token",
			token: "",
		},
		{
			name:  "garbage token",
			token: "not-a-jwt",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockChatRepository{}
			defer mockRepo.AssertExpectations(t)

			su := &stats.MockStatsUpdater{}
			cs := newTestServer(t, mockRepo, su)
			go cs.Run()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				assert.NoError(t, cs.Shutdown(ctx))
			}()

			app := newTestApp(t, mockRepo, cs, nil)
			srv := httptest.NewServer(http.HandlerFunc(app.serveWs))
			defer srv.Close()

			conn, resp := dialWs(t, srv, tc.token)
			assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode, "expected upgrade to succeed before authentication")
			defer conn.Close()

			// the server closes the connection with a policy violation
			conn.SetReadDeadline(time.Now().Add(3 * time.Second))
			_, _, err := conn.ReadMessage()
			closeErr, ok := err.(*websocket.CloseError)
			assert.Truef(t, ok, "expected a close error, got %v", err)
			assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code, "expected close code 1008")
			assert.Equal(t, "unauthorized", closeErr.Text)

			assert.Empty(t, cs.OnlineUsers(), "expected unauthenticated connection to never reach the registry")
		})
	}
}

func Test_serveWs_chatSession(t *testing.T) {
	mockRepo := &database.MockChatRepository{}
	defer mockRepo.AssertExpectations(t)
	mockRepo.On("SetOnline", "alice", true).Return(nil).Once()
	mockRepo.On("SetOnline", "bob", true).Return(nil).Once()
	mockRepo.On("CreateMessage", mock.MatchedBy(func(m database.Message) bool {
		return m.Username == "alice" && m.Kind == "text" && m.Content == "hello bob"
	})).Return(database.Message{
		Id:        1,
		Username:  "alice",
		Kind:      "text",
		Content:   "hello bob",
		CreatedAt: time.Now().UTC(),
	}, nil).Once()

	su := &stats.MockStatsUpdater{}
	su.On("Incr", mock.Anything)
	su.On("Decr", mock.Anything).Maybe()

	cs := newTestServer(t, mockRepo, su)
	go cs.Run()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, cs.Shutdown(ctx))
	}()

	app := newTestApp(t, mockRepo, cs, nil)
	srv := httptest.NewServer(http.HandlerFunc(app.serveWs))
	defer srv.Close()

	authn := newTestAuthenticator(t)
	aliceToken, err := authn.CreateToken("alice", auth.DefaultTokenExpiration)
	assert.NoError(t, err, "failed to create token for alice")
	bobToken, err := authn.CreateToken("bob", auth.DefaultTokenExpiration)
	assert.NoError(t, err, "failed to create token for bob")

	aliceConn, _ := dialWs(t, srv, aliceToken)
	defer aliceConn.Close()

	payload := readPayload(t, aliceConn, "online")
	assert.Equal(t, []string{"alice"}, payload.Users, "expected alice announced online")

	bobConn, _ := dialWs(t, srv, bobToken)
	defer bobConn.Close()

	// both sides observe the updated online set
	payload = readPayload(t, aliceConn, "online")
	assert.Equal(t, []string{"alice", "bob"}, payload.Users)
	payload = readPayload(t, bobConn, "online")
	assert.Equal(t, []string{"alice", "bob"}, payload.Users)

	// typing indicator from alice is delivered to bob
	err = aliceConn.WriteJSON(map[string]any{"type": "typing", "active": true})
	assert.NoError(t, err, "failed to send typing frame")
	payload = readPayload(t, bobConn, "typing")
	assert.Equal(t, []string{"alice"}, payload.Users, "expected alice in the typing set")

	// a chat message is persisted and fanned out to everyone
	err = aliceConn.WriteJSON(map[string]any{"type": "message", "content": "hello bob"})
	assert.NoError(t, err, "failed to send chat frame")

	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		payload = readPayload(t, conn, "message")
		assert.NotNil(t, payload.Message, "expected chat event payload")
		assert.Equal(t, "alice", payload.Message.Username)
		assert.Equal(t, "hello bob", payload.Message.Content)
	}
}

func Test_serveWs_invalidFrame(t *testing.T) {
	mockRepo := &database.MockChatRepository{}
	defer mockRepo.AssertExpectations(t)
	mockRepo.On("SetOnline", "alice", true).Return(nil).Once()

	su := &stats.MockStatsUpdater{}
	su.On("Incr", mock.Anything)
	su.On("Decr", mock.Anything).Maybe()

	cs := newTestServer(t, mockRepo, su)
	go cs.Run()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, cs.Shutdown(ctx))
	}()

	app := newTestApp(t, mockRepo, cs, nil)
	srv := httptest.NewServer(http.HandlerFunc(app.serveWs))
	defer srv.Close()

	token, err := newTestAuthenticator(t).CreateToken("alice", auth.DefaultTokenExpiration)
	assert.NoError(t, err, "failed to create token")

	conn, _ := dialWs(t, srv, token)
	defer conn.Close()

	err = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	assert.NoError(t, err, "failed to send malformed frame")

	payload := readPayload(t, conn, "error")
	assert.Equal(t, "invalid message format", payload.Error, "expected malformed frames to be rejected")

	assert.Equal(t, []string{"alice"}, cs.OnlineUsers(), "expected connection to survive a malformed frame")
}
