package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"focusroom-backend/internal/models"
	"focusroom-backend/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// RoomStore resolves room identifiers for join checks.
type RoomStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error)
}

// ChatStore persists room messages before they are fanned out.
type ChatStore interface {
	Append(ctx context.Context, m *models.ChatMessage) error
}

// Hub owns one WebSocket connection set per room. Chat messages and member
// counts travel through a Redis pub/sub channel per room, so every room
// occupant — the sender included — observes the same stream regardless of
// which instance its socket landed on. Timer state is connection-local and
// is sent directly to the owning socket only.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[uuid.UUID]map[*client]struct{}
	cancelFuncs map[uuid.UUID]context.CancelFunc

	redisClient *redis.Client
	presence    *Presence
	roomStore   RoomStore
	chatStore   ChatStore
	sessions    session.SessionStore
	profiles    session.ProfileStore
	jwtSecret   []byte
}

func NewHub(
	redisClient *redis.Client,
	presence *Presence,
	roomStore RoomStore,
	chatStore ChatStore,
	sessions session.SessionStore,
	profiles session.ProfileStore,
	jwtSecret string,
) *Hub {
	return &Hub{
		rooms:       make(map[uuid.UUID]map[*client]struct{}),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		redisClient: redisClient,
		presence:    presence,
		roomStore:   roomStore,
		chatStore:   chatStore,
		sessions:    sessions,
		profiles:    profiles,
		jwtSecret:   []byte(jwtSecret),
	}
}

type client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	userID  uuid.UUID
	roomID  uuid.UUID
	member  string
	manager *session.Manager
	cancel  context.CancelFunc
}

type clientCommand struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// HandleRoomSocket upgrades /rooms/{id}/ws. Authentication uses a token
// query param because browsers cannot set headers on WebSocket dials.
func (h *Hub) HandleRoomSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid room ID", http.StatusBadRequest)
		return
	}

	room, err := h.roomStore.GetByID(r.Context(), roomID)
	if err != nil || !room.IsActive {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	count, err := h.presence.Count(r.Context(), roomID)
	if err == nil && room.MaxParticipants > 0 && count >= int64(room.MaxParticipants) {
		http.Error(w, "Room is full", http.StatusConflict)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 64),
		userID: userID,
		roomID: roomID,
		member: userID.String() + ":" + uuid.NewString(),
		cancel: cancel,
	}
	c.manager = session.NewManager(h.sessions, h.profiles, userID, room.Name,
		session.WithStateFunc(c.sendTimerState),
		session.WithCompleteFunc(c.sendProfile),
		session.WithErrorFunc(c.sendSessionError),
	)

	h.register(ctx, c)

	go c.manager.Run(ctx)
	go c.writePump(ctx)
	go c.readPump(ctx)
}

func (h *Hub) authenticate(r *http.Request) (uuid.UUID, bool) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return uuid.Nil, false
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, false
	}

	userIDStr, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func (h *Hub) register(ctx context.Context, c *client) {
	h.mu.Lock()
	if h.rooms[c.roomID] == nil {
		h.rooms[c.roomID] = make(map[*client]struct{})
	}
	h.rooms[c.roomID][c] = struct{}{}

	// First local connection for this room: subscribe to its channel.
	if len(h.rooms[c.roomID]) == 1 {
		subCtx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[c.roomID] = cancel
		go h.subscribeRoom(subCtx, c.roomID)
	}
	h.mu.Unlock()

	count, err := h.presence.Join(ctx, c.roomID, c.member)
	if err != nil {
		log.Printf("presence join failed for room %s: %v", c.roomID, err)
	} else {
		h.publishMemberCount(ctx, c.roomID, count)
	}

	log.Printf("Room socket connected: user %s room %s", c.userID, c.roomID)
}

func (h *Hub) unregister(c *client) {
	c.cancel()
	c.conn.Close()

	h.mu.Lock()
	if conns, ok := h.rooms[c.roomID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.rooms, c.roomID)
			if cancel, ok := h.cancelFuncs[c.roomID]; ok {
				cancel()
				delete(h.cancelFuncs, c.roomID)
			}
		}
	}
	h.mu.Unlock()

	ctx, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()

	// Leaving the room always cancels the countdown; a session that already
	// completed stays completed.
	c.manager.Leave(ctx)

	count, err := h.presence.Leave(ctx, c.roomID, c.member)
	if err != nil {
		log.Printf("presence leave failed for room %s: %v", c.roomID, err)
	} else {
		h.publishMemberCount(ctx, c.roomID, count)
	}

	log.Printf("Room socket disconnected: user %s room %s", c.userID, c.roomID)
}

func roomChannel(roomID uuid.UUID) string {
	return "room:" + roomID.String()
}

func (h *Hub) subscribeRoom(ctx context.Context, roomID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, roomChannel(roomID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(roomID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(roomID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[roomID] {
		select {
		case c.send <- data:
		default:
			// Slow consumer; drop rather than stall the room.
		}
	}
}

func (h *Hub) publish(ctx context.Context, roomID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := h.redisClient.Publish(ctx, roomChannel(roomID), data).Err(); err != nil {
		log.Printf("publish to room %s failed: %v", roomID, err)
	}
}

func (h *Hub) publishMemberCount(ctx context.Context, roomID uuid.UUID, count int64) {
	h.publish(ctx, roomID, models.WSMessage{
		Type:    models.WSTypeMemberCount,
		Payload: models.MemberCountPayload{RoomID: roomID, Count: count},
	})
}

// PublishChatMessage persists the message and fans it out to the room.
// Every subscriber receives it, the sender included; the sender reconciles
// its optimistic local echo by client token.
func (h *Hub) PublishChatMessage(ctx context.Context, m *models.ChatMessage) error {
	if err := h.chatStore.Append(ctx, m); err != nil {
		return err
	}
	h.publish(ctx, m.RoomID, models.WSMessage{Type: models.WSTypeChatMessage, Payload: m})
	return nil
}

func (c *client) readPump(ctx context.Context) {
	defer c.hub.unregister(c)

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		hbCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		c.hub.presence.Heartbeat(hbCtx, c.roomID, c.member)
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd clientCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}

		switch cmd.Type {
		case "start_session":
			// The client sends this when the camera is first enabled.
			if _, err := c.manager.Start(ctx); err != nil {
				c.sendSessionError(err)
			}
		case "chat":
			var req models.SendMessageRequest
			if err := json.Unmarshal(cmd.Payload, &req); err != nil {
				continue
			}
			req.Text = strings.TrimSpace(req.Text)
			if req.Text == "" || req.ClientToken == "" {
				continue
			}
			msg := &models.ChatMessage{
				RoomID:      c.roomID,
				UserID:      c.userID,
				ClientToken: req.ClientToken,
				Text:        req.Text,
			}
			if err := c.hub.PublishChatMessage(ctx, msg); err != nil {
				c.sendSessionError(err)
			}
		case "leave_room":
			return
		}
	}
}

func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) sendJSON(msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *client) sendTimerState(state session.State) {
	c.sendJSON(models.WSMessage{
		Type: models.WSTypeTimerState,
		Payload: models.TimerStatePayload{
			Phase:            string(state.Phase),
			RemainingSeconds: state.RemainingSeconds,
			SessionID:        state.SessionID,
		},
	})
}

func (c *client) sendProfile(p *models.Profile) {
	c.sendJSON(models.WSMessage{Type: models.WSTypeProfile, Payload: p})
}

func (c *client) sendSessionError(err error) {
	c.sendJSON(models.WSMessage{
		Type:    models.WSTypeSessionError,
		Payload: models.SessionErrorPayload{Code: "SESSION_ERROR", Message: err.Error()},
	})
}
