package server

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pratikx150/chat-app/internal/database"
	"github.com/pratikx150/chat-app/internal/stats"
	"github.com/pratikx150/chat-app/internal/types"
)

const (
	// sweepInterval drives the periodic typing-indicator expiry.
	sweepInterval = time.Second
	// ingestTimeout bounds the persistence call during message ingest.
	ingestTimeout = 5 * time.Second
)

// ChatServer owns the connection registry and fans events out to every
// registered connection. It is constructed once per process and passed by
// reference to the components that need it.
type ChatServer struct {
	log      *log.Logger
	db       database.ChatRepository
	stats    stats.StatsProvider
	presence *presenceTracker

	clientsLock sync.Mutex
	clients     map[*Client]struct{}
	userMap     map[string]map[*Client]struct{}

	RegisterChan   chan *Client
	deRegisterChan chan *Client
	stop           chan struct{}
	done           chan struct{}
}

func NewChatServer(logger *log.Logger, db database.ChatRepository, sp stats.StatsProvider) (*ChatServer, error) {
	cs := &ChatServer{
		log:            logger,
		db:             db,
		stats:          sp,
		presence:       newPresenceTracker(typingWindow),
		clients:        make(map[*Client]struct{}),
		userMap:        make(map[string]map[*Client]struct{}),
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	sp.RegisterMetric("NumActiveClients")
	sp.RegisterMetric("NumOnlineUsers")
	sp.RegisterMetric("NumMessagesIngested")
	sp.RegisterMetric("NumFailedDeliveries")

	return cs, nil
}

func (cs *ChatServer) Run() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-cs.RegisterChan:
			cs.log.Printf("adding connection from %q", client.user.Username)
			if cs.addClient(client) {
				cs.Broadcast(OnlineUpdate(cs.OnlineUsers()))
			}
		case client := <-cs.deRegisterChan:
			cs.log.Printf("removing connection from %q", client.user.Username)
			if cs.removeClient(client) {
				changed := false
				if !cs.isOnline(client.user.Username) {
					changed = cs.presence.clearTyping(client.user.Username)
				}
				cs.Broadcast(OnlineUpdate(cs.OnlineUsers()))
				if changed {
					cs.Broadcast(TypingUpdate(cs.presence.typingUsers()))
				}
			}
		case <-ticker.C:
			if expired := cs.presence.sweepExpired(time.Now()); len(expired) > 0 {
				cs.log.Printf("typing indicators expired for %v", expired)
				cs.Broadcast(TypingUpdate(cs.presence.typingUsers()))
			}
		case <-cs.stop:
			cs.log.Println("stopping all connections")
			cs.clientsLock.Lock()
			for c := range cs.clients {
				c.closeConn()
				c.stopClient()
			}
			cs.clientsLock.Unlock()

			close(cs.done)
			return
		}
	}
}

// RegisterClient hands an authenticated connection to the registry. The
// client's identity must already be verified; connections that fail
// authentication never reach the registry.
func (cs *ChatServer) RegisterClient(c *Client) {
	select {
	case cs.RegisterChan <- c:
	case <-cs.done:
	}
}

func (cs *ChatServer) DeRegisterClient(c *Client) {
	select {
	case cs.deRegisterChan <- c:
	case <-cs.done:
	}
}

func (cs *ChatServer) addClient(c *Client) bool {
	if c.user.Username == "" {
		cs.log.Println("rejecting connection with empty identity")
		c.closeConn()
		return false
	}

	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	cs.clients[c] = struct{}{}
	cs.stats.Incr("NumActiveClients")

	if cs.userMap[c.user.Username] == nil {
		cs.userMap[c.user.Username] = make(map[*Client]struct{})
		cs.stats.Incr("NumOnlineUsers")
	}
	cs.userMap[c.user.Username][c] = struct{}{}

	return true
}

// removeClient drops a connection from the registry. It is idempotent;
// removing an absent client reports false and has no other effect.
func (cs *ChatServer) removeClient(c *Client) bool {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	if _, ok := cs.clients[c]; !ok {
		return false
	}

	delete(cs.clients, c)
	cs.stats.Decr("NumActiveClients")

	if userClients, ok := cs.userMap[c.user.Username]; ok {
		delete(userClients, c)
		if len(userClients) == 0 {
			delete(cs.userMap, c.user.Username)
			cs.stats.Decr("NumOnlineUsers")
		}
	}

	return true
}

// OnlineUsers returns the sorted set of identities with at least one
// registered connection. A user with several connections appears once.
func (cs *ChatServer) OnlineUsers() []string {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	users := make([]string, 0, len(cs.userMap))
	for username := range cs.userMap {
		users = append(users, username)
	}

	sort.Strings(users)
	return users
}

func (cs *ChatServer) isOnline(username string) bool {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	return cs.userMap[username] != nil
}

// Broadcast best-effort delivers msg to every registered connection and
// returns the delivery count. A connection that cannot accept the message
// is treated as disconnected and dropped from the registry; one broken
// transport never prevents delivery to the others.
func (cs *ChatServer) Broadcast(msg *ServerMessage) int {
	cs.clientsLock.Lock()
	var delivered int
	var failed []*Client
	for c := range cs.clients {
		if c == msg.SkipClient {
			continue
		}
		if c.queueMessage(msg) {
			delivered++
		} else {
			failed = append(failed, c)
		}
	}
	cs.clientsLock.Unlock()

	for _, c := range failed {
		cs.log.Printf("dropping unresponsive connection from %q", c.user.Username)
		cs.stats.Incr("NumFailedDeliveries")
		c.closeConn()
		cs.removeClient(c)
		c.stopClient()
	}

	if len(failed) > 0 {
		cs.Broadcast(OnlineUpdate(cs.OnlineUsers()))
	}

	return delivered
}

// StartTyping records a typing indicator and announces the typing set if
// it changed. Refreshing an existing indicator is not re-announced.
func (cs *ChatServer) StartTyping(username string) {
	if cs.presence.markTyping(username) {
		cs.Broadcast(TypingUpdate(cs.presence.typingUsers()))
	}
}

func (cs *ChatServer) StopTyping(username string) {
	if cs.presence.clearTyping(username) {
		cs.Broadcast(TypingUpdate(cs.presence.typingUsers()))
	}
}

func (cs *ChatServer) TypingUsers() []string {
	return cs.presence.typingUsers()
}

// Ingest validates and persists an inbound chat event, then broadcasts
// the persisted record to all registered connections. On a storage
// failure nothing is broadcast; only the sender sees the error.
func (cs *ChatServer) Ingest(cm *ClientMessage, username string) (*types.Message, error) {
	dbMsg, err := buildMessage(cm, username)
	if err != nil {
		return nil, err
	}

	type createResult struct {
		msg database.Message
		err error
	}

	resCh := make(chan createResult, 1)
	go func() {
		m, err := cs.db.CreateMessage(dbMsg)
		resCh <- createResult{msg: m, err: err}
	}()

	select {
	case res := <-resCh:
		if res.err != nil {
			cs.log.Println("create message:", res.err)
			return nil, ErrStorage
		}

		msg := &types.Message{
			Id:         res.msg.Id,
			Username:   res.msg.Username,
			Kind:       types.MessageKind(res.msg.Kind),
			Content:    res.msg.Content,
			Attachment: res.msg.Attachment,
			ReplyTo:    res.msg.ReplyTo,
			Timestamp:  res.msg.CreatedAt,
		}

		cs.stats.Incr("NumMessagesIngested")
		cs.Broadcast(ChatEvent(msg))
		return msg, nil
	case <-time.After(ingestTimeout):
		cs.log.Printf("message ingest for %q timed out", username)
		return nil, ErrTimeout
	}
}

// buildMessage validates a raw client event and stamps it with server
// time, which is the canonical ordering for history replay. A text
// payload takes precedence over an attachment when both are present.
func buildMessage(cm *ClientMessage, username string) (database.Message, error) {
	content := strings.TrimSpace(cm.Content)
	attachment := cm.Attachment
	kind := cm.Kind

	switch {
	case content != "":
		kind = types.KindText
		attachment = ""
	case attachment != "":
		if !kind.Valid() || kind == types.KindText {
			kind = types.KindFile
		}
	default:
		return database.Message{}, fmt.Errorf("%w: either content or an attachment is required", ErrValidation)
	}

	return database.Message{
		Username:   username,
		Kind:       string(kind),
		Content:    content,
		Attachment: attachment,
		ReplyTo:    cm.ReplyTo,
		CreatedAt:  Now(),
	}, nil
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.log.Println("received shutdown signal")
	close(cs.stop)

	select {
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
