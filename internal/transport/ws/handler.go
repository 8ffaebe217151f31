package ws

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"quizroom-service/internal/game"
)

// Handler upgrades HTTP requests to websockets and bridges them to the game
// coordinator: inbound tagged messages become coordinator calls, and the
// coordinator's outbound events are delivered through the Send method.
type Handler struct {
	coordinator *game.Coordinator
	upgrader    websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id   string
	send chan outboundMessage
	done chan struct{}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type joinPayload struct {
	Username string `json:"username"`
	RoomCode string `json:"roomCode"`
}

type kickPayload struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

type submitPayload struct {
	RoomCode string `json:"roomCode"`
	Answer   int    `json:"answer"`
}

// NewHandler builds a handler with no coordinator attached; call
// SetCoordinator before serving. The handler is the coordinator's Sender, so
// the two are wired in two steps.
func NewHandler() *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// SetCoordinator attaches the coordinator after construction.
func (h *Handler) SetCoordinator(coordinator *game.Coordinator) {
	h.coordinator = coordinator
}

// Send implements game.Sender. Events for connections that are gone or
// saturated are dropped; the game moves on without them. The send channel is
// never closed, so a Send racing a teardown enqueues into a channel nobody
// reads anymore instead of panicking.
func (h *Handler) Send(connID, event string, payload any) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- outboundMessage{Type: event, Payload: payload}:
	case <-c.done:
	default:
		log.Printf("dropping %s for slow connection %s", event, connID)
	}
}

// ServeWS handles one client connection for its whole lifetime.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c := &client{
		id:   newConnID(),
		send: make(chan outboundMessage, 32),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-c.send:
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-c.done:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, c, inbound)
	}

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	close(c.done)
	<-writerDone

	h.coordinator.Disconnect(c.id)
}

// dispatch validates the payload shape for each inbound event and forwards it
// to the coordinator. Malformed payloads never reach the game core.
func (h *Handler) dispatch(r *http.Request, c *client, inbound inboundMessage) {
	switch inbound.Type {
	case "host:createRoom":
		var quizID string
		if err := json.Unmarshal(inbound.Payload, &quizID); err != nil {
			h.sendInvalid(c, inbound.Type)
			return
		}
		h.coordinator.CreateRoom(r.Context(), c.id, quizID)
	case "player:checkRoom":
		var code string
		if err := json.Unmarshal(inbound.Payload, &code); err != nil {
			h.sendInvalid(c, inbound.Type)
			return
		}
		h.coordinator.CheckRoom(c.id, code)
	case "player:join":
		var payload joinPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Username == "" {
			h.sendInvalid(c, inbound.Type)
			return
		}
		h.coordinator.Join(c.id, payload.Username, payload.RoomCode)
	case "host:kickPlayer":
		var payload kickPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendInvalid(c, inbound.Type)
			return
		}
		h.coordinator.KickPlayer(c.id, payload.RoomCode, payload.PlayerID)
	case "host:startGame":
		var code string
		if err := json.Unmarshal(inbound.Payload, &code); err != nil {
			h.sendInvalid(c, inbound.Type)
			return
		}
		h.coordinator.StartGame(c.id, code)
	case "player:submitAnswer":
		var payload submitPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Answer < 0 || payload.Answer > 3 {
			h.sendInvalid(c, inbound.Type)
			return
		}
		h.coordinator.SubmitAnswer(c.id, payload.RoomCode, payload.Answer)
	case "host:showResults":
		var code string
		if err := json.Unmarshal(inbound.Payload, &code); err != nil {
			h.sendInvalid(c, inbound.Type)
			return
		}
		h.coordinator.ShowResults(c.id, code)
	case "host:nextQuestion":
		var code string
		if err := json.Unmarshal(inbound.Payload, &code); err != nil {
			h.sendInvalid(c, inbound.Type)
			return
		}
		h.coordinator.NextQuestion(c.id, code)
	default:
		h.Send(c.id, game.EventError, game.ErrorPayload{Message: "unsupported message type"})
	}
}

func (h *Handler) sendInvalid(c *client, eventType string) {
	h.Send(c.id, game.EventError, game.ErrorPayload{Message: "invalid " + eventType + " payload"})
}

func newConnID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
