package ws

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"quizroom-service/internal/domain"
	"quizroom-service/internal/game"
	"quizroom-service/internal/infra/memory"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.ResultStore) {
	t.Helper()
	results := memory.NewResultStore()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)

	handler := NewHandler()
	coordinator := game.NewCoordinator(quizRepo, results, handler, game.Config{
		StartCountdown: -1,
	})
	handler.SetCoordinator(coordinator)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, results
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": msgType, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readNext(t *testing.T, conn *websocket.Conn, expect string) map[string]any {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json (expecting %s): %v", expect, err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (payload %v)", expect, msg.Type, msg.Payload)
	}
	return msg.Payload
}

func TestFullGameOverWebsocket(t *testing.T) {
	server, results := newTestServer(t)

	host := dial(t, server)
	send(t, host, "host:createRoom", "quiz-1")
	created := readNext(t, host, "host:roomCreated")
	code, _ := created["roomCode"].(string)
	if len(code) != 6 {
		t.Fatalf("expected 6-digit room code, got %q", code)
	}

	player := dial(t, server)
	send(t, player, "player:checkRoom", code)
	readNext(t, player, "player:roomValid")

	send(t, player, "player:join", map[string]any{"username": "Alice", "roomCode": code})
	joined := readNext(t, player, "player:joined")
	quizInfo, _ := joined["quiz"].(map[string]any)
	if quizInfo["title"] != "Capitals" {
		t.Fatalf("unexpected joined payload %v", joined)
	}
	hostJoined := readNext(t, host, "host:playerJoined")
	if hostJoined["username"] != "Alice" {
		t.Fatalf("unexpected host:playerJoined payload %v", hostJoined)
	}

	send(t, host, "host:startGame", code)
	readNext(t, host, "game:starting")
	readNext(t, player, "game:starting")

	question := readNext(t, player, "game:question")
	if _, leaked := question["solution"]; leaked {
		t.Fatalf("solution leaked to player: %v", question)
	}
	hostQuestion := readNext(t, host, "host:question")
	if hostQuestion["solution"].(float64) != 2 {
		t.Fatalf("host must receive the solution, got %v", hostQuestion)
	}

	send(t, player, "player:submitAnswer", map[string]any{"roomCode": code, "answer": 2})
	answer := readNext(t, player, "player:answerResult")
	if answer["correct"] != true {
		t.Fatalf("expected correct answer, got %v", answer)
	}
	readNext(t, host, "host:playerAnswered")

	// Single player answered: results fire immediately.
	readNext(t, host, "host:questionResults")
	roomResults := readNext(t, player, "game:questionResults")
	if roomResults["totalAnswers"].(float64) != 1 {
		t.Fatalf("unexpected results %v", roomResults)
	}

	send(t, host, "host:nextQuestion", code)
	end := readNext(t, player, "game:end")
	leaderboard, _ := end["leaderboard"].([]any)
	if len(leaderboard) != 1 {
		t.Fatalf("unexpected final leaderboard %v", end)
	}
	readNext(t, host, "game:end")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(results.Results()) == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if saved := results.Results(); len(saved) != 1 || saved[0].QuizID != "quiz-1" {
		t.Fatalf("expected a persisted result for quiz-1, got %+v", saved)
	}
}

func TestInvalidPayloadRejected(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server)

	send(t, conn, "player:submitAnswer", map[string]any{"roomCode": "123456", "answer": 9})
	payload := readNext(t, conn, "error")
	if payload["message"] == "" {
		t.Fatalf("expected an error message, got %v", payload)
	}

	send(t, conn, "bogus:event", nil)
	payload = readNext(t, conn, "error")
	if payload["message"] != "unsupported message type" {
		t.Fatalf("unexpected error %v", payload)
	}
}

func TestHostDisconnectNotifiesRoom(t *testing.T) {
	server, _ := newTestServer(t)

	host := dial(t, server)
	send(t, host, "host:createRoom", "quiz-1")
	created := readNext(t, host, "host:roomCreated")
	code := created["roomCode"].(string)

	player := dial(t, server)
	send(t, player, "player:join", map[string]any{"username": "Bob", "roomCode": code})
	readNext(t, player, "player:joined")
	readNext(t, host, "host:playerJoined")

	host.Close()
	readNext(t, player, "game:hostLeft")
}

// Coordinator timers and other connections' read loops call Send while a
// departing connection runs its teardown. Replaying that interleaving must
// never panic the handler.
func TestSendDuringTeardownDoesNotPanic(t *testing.T) {
	h := NewHandler()

	for i := 0; i < 200; i++ {
		c := &client{
			id:   newConnID(),
			send: make(chan outboundMessage, 1),
			done: make(chan struct{}),
		}
		h.mu.Lock()
		h.clients[c.id] = c
		h.mu.Unlock()

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					h.Send(c.id, game.EventGameQuestion, nil)
				}
			}()
		}

		h.mu.Lock()
		delete(h.clients, c.id)
		h.mu.Unlock()
		close(c.done)
		wg.Wait()
	}
}

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:      "quiz-1",
			Title:   "Capitals",
			Subject: "Geography",
			Questions: []domain.Question{
				{Prompt: "Capital of France?", Answers: []string{"Berlin", "Madrid", "Paris", "Rome"}, Solution: 2, Time: 10},
			},
		},
	}
}
