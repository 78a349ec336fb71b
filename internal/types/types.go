package types

import (
	"time"
)

type User struct {
	Id         int       `json:"id"`
	Username   string    `json:"username"`
	Password   string    `json:"-"`
	Theme      string    `json:"theme,omitempty"`
	IsOnline   bool      `json:"is_online"`
	LastActive time.Time `json:"last_active,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// MessageKind enumerates the payload categories a chat event may carry.
type MessageKind string

const (
	KindText    MessageKind = "text"
	KindImage   MessageKind = "image"
	KindAudio   MessageKind = "audio"
	KindFile    MessageKind = "file"
	KindSticker MessageKind = "sticker"
)

func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindAudio, KindFile, KindSticker:
		return true
	}
	return false
}

// Message is an immutable chat event. Timestamp is assigned by the server
// at ingest and is the canonical ordering for history replay.
type Message struct {
	Id         int         `json:"id"`
	Username   string      `json:"username"`
	Kind       MessageKind `json:"kind"`
	Content    string      `json:"content"`
	Attachment string      `json:"attachment,omitempty"`
	ReplyTo    int         `json:"reply_to,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

type Timer struct {
	Id        int       `json:"id"`
	Name      string    `json:"name"`
	Duration  int       `json:"duration"`
	Username  string    `json:"username"`
	IsActive  bool      `json:"is_active"`
	StartedAt time.Time `json:"started_at"`
}

type Notification struct {
	Id        int       `json:"id"`
	Content   string    `json:"content"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
