package database

import (
	"time"
)

func (db *PgChatRepository) CreateUser(params CreateUserParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO users (username, password_hash, created_at) "+
			"VALUES ($1, $2, $3) RETURNING id, username, password_hash, created_at",
		params.Username,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
	)

	return u, err
}

func (db *PgChatRepository) GetUserByUsername(username string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, password_hash, theme, is_online, last_active, created_at "+
			"FROM users WHERE username = $1 LIMIT 1",
		username,
	)

	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.PasswordHash,
		&u.Theme,
		&u.IsOnline,
		&u.LastActive,
		&u.CreatedAt,
	)

	return u, err
}

func (db *PgChatRepository) SetOnline(username string, online bool) error {
	_, err := db.conn.Exec(
		"UPDATE users SET is_online = $2, last_active = $3 WHERE username = $1",
		username,
		online,
		time.Now().UTC(),
	)

	return err
}

func (db *PgChatRepository) UpdateLastActive(username string) error {
	_, err := db.conn.Exec(
		"UPDATE users SET last_active = $2 WHERE username = $1",
		username,
		time.Now().UTC(),
	)

	return err
}

func (db *PgChatRepository) UpdateTheme(username, theme string) error {
	_, err := db.conn.Exec(
		"UPDATE users SET theme = $2 WHERE username = $1",
		username,
		theme,
	)

	return err
}

func (db *PgChatRepository) ListOnlineUsers() ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT username FROM users WHERE is_online = true ORDER BY username",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, err
		}
		usernames = append(usernames, username)
	}

	return usernames, rows.Err()
}

func (db *PgChatRepository) CreateMessage(msg Message) (Message, error) {
	res := db.conn.QueryRow(
		"INSERT INTO messages (username, kind, content, attachment_url, reply_to, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) "+
			"RETURNING id, username, kind, content, attachment_url, reply_to, created_at",
		msg.Username,
		msg.Kind,
		msg.Content,
		msg.Attachment,
		msg.ReplyTo,
		msg.CreatedAt,
	)

	var m Message
	err := res.Scan(
		&m.Id,
		&m.Username,
		&m.Kind,
		&m.Content,
		&m.Attachment,
		&m.ReplyTo,
		&m.CreatedAt,
	)

	return m, err
}

func (db *PgChatRepository) ListMessages() ([]Message, error) {
	rows, err := db.conn.Query(
		"SELECT id, username, kind, content, attachment_url, reply_to, created_at " +
			"FROM messages ORDER BY created_at ASC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.Id,
			&m.Username,
			&m.Kind,
			&m.Content,
			&m.Attachment,
			&m.ReplyTo,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (db *PgChatRepository) CreateTimer(params CreateTimerParams) (Timer, error) {
	res := db.conn.QueryRow(
		"INSERT INTO timers (name, duration_seconds, username, is_active, started_at) "+
			"VALUES ($1, $2, $3, true, $4) "+
			"RETURNING id, name, duration_seconds, username, is_active, started_at",
		params.Name,
		params.Duration,
		params.Username,
		time.Now().UTC(),
	)

	var t Timer
	err := res.Scan(
		&t.Id,
		&t.Name,
		&t.Duration,
		&t.Username,
		&t.IsActive,
		&t.StartedAt,
	)

	return t, err
}

func (db *PgChatRepository) StopTimers(username string) error {
	_, err := db.conn.Exec(
		"UPDATE timers SET is_active = false WHERE username = $1",
		username,
	)

	return err
}

func (db *PgChatRepository) GetActiveTimer() (Timer, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, duration_seconds, username, is_active, started_at " +
			"FROM timers WHERE is_active = true ORDER BY started_at DESC LIMIT 1",
	)

	var t Timer
	err := row.Scan(
		&t.Id,
		&t.Name,
		&t.Duration,
		&t.Username,
		&t.IsActive,
		&t.StartedAt,
	)

	return t, err
}

func (db *PgChatRepository) ListActiveNotifications() ([]Notification, error) {
	rows, err := db.conn.Query(
		"SELECT id, content, is_active, created_at " +
			"FROM notifications WHERE is_active = true ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.Id,
			&n.Content,
			&n.IsActive,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}
