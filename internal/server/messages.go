package server

import (
	"time"

	"github.com/pratikx150/chat-app/internal/types"
)

// Inbound message types.
const (
	TypeJoin    = "join"
	TypeMessage = "message"
	TypeTyping  = "typing"
	TypeLogout  = "logout"
)

// Outbound message types.
const (
	TypeOnline = "online"
	TypeError  = "error"
)

// ClientMessage is the tagged union a client sends over the websocket.
// Any client-claimed timestamp is ignored; the server assigns the
// canonical timestamp at ingest.
type ClientMessage struct {
	Type       string            `json:"type"`
	Content    string            `json:"content,omitempty"`
	Kind       types.MessageKind `json:"kind,omitempty"`
	Attachment string            `json:"attachment,omitempty"`
	ReplyTo    int               `json:"reply_to,omitempty"`
	Active     bool              `json:"active,omitempty"`
	Timestamp  time.Time         `json:"timestamp,omitempty"`

	client *Client
}

// ServerMessage is the tagged union broadcast to connected clients. It
// exists only in transit and is never persisted.
type ServerMessage struct {
	Type      string         `json:"type"`
	Users     []string       `json:"users,omitempty"`
	Message   *types.Message `json:"message,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`

	// SkipClient is excluded from delivery when set.
	SkipClient *Client `json:"-"`
}

func OnlineUpdate(users []string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeOnline,
		Users:     users,
		Timestamp: Now(),
	}
}

func TypingUpdate(users []string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeTyping,
		Users:     users,
		Timestamp: Now(),
	}
}

func ChatEvent(msg *types.Message) *ServerMessage {
	return &ServerMessage{
		Type:      TypeMessage,
		Message:   msg,
		Timestamp: Now(),
	}
}

func ErrInvalidMessage() *ServerMessage {
	return &ServerMessage{
		Type:      TypeError,
		Error:     "invalid message format",
		Timestamp: Now(),
	}
}

func ErrMessageNotSent() *ServerMessage {
	return &ServerMessage{
		Type:      TypeError,
		Error:     "message could not be saved",
		Timestamp: Now(),
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
