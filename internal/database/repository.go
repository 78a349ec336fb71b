package database

// ChatRepository is the persistence boundary for the chat service. The
// server core treats it as an opaque external store.
type ChatRepository interface {
	Ping() error
	CreateUser(params CreateUserParams) (User, error)
	GetUserByUsername(username string) (User, error)
	SetOnline(username string, online bool) error
	UpdateLastActive(username string) error
	UpdateTheme(username, theme string) error
	ListOnlineUsers() ([]string, error)
	CreateMessage(msg Message) (Message, error)
	ListMessages() ([]Message, error)
	CreateTimer(params CreateTimerParams) (Timer, error)
	StopTimers(username string) error
	GetActiveTimer() (Timer, error)
	ListActiveNotifications() ([]Notification, error)
}
