package database

import "time"

type User struct {
	Id           int
	Username     string
	PasswordHash string
	Theme        string
	IsOnline     bool
	LastActive   time.Time
	CreatedAt    time.Time
}

type Message struct {
	Id         int
	Username   string
	Kind       string
	Content    string
	Attachment string
	ReplyTo    int
	CreatedAt  time.Time
}

type Timer struct {
	Id        int
	Name      string
	Duration  int
	Username  string
	IsActive  bool
	StartedAt time.Time
}

type Notification struct {
	Id        int
	Content   string
	IsActive  bool
	CreatedAt time.Time
}

type CreateUserParams struct {
	Username     string
	PasswordHash string
}

type CreateTimerParams struct {
	Name     string
	Duration int
	Username string
}
