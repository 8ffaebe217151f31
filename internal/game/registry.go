package game

import (
	"math/rand"
	"strconv"
	"time"

	"quizroom-service/internal/domain"
)

// Registry maps room codes to live sessions. A code maps to at most one
// session at a time; codes are released when the session is deleted.
//
// Like Session, the Registry relies on the Coordinator for serialization.
type Registry struct {
	rnd      *rand.Rand
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions: make(map[string]*Session),
	}
}

// Create registers a new lobby session under a fresh 6-digit room code.
func (r *Registry) Create(quiz domain.Quiz, hostID string, now func() time.Time) *Session {
	code := r.freshCode()
	session := newSession(code, quiz, hostID, now)
	r.sessions[code] = session
	return session
}

func (r *Registry) Get(code string) (*Session, bool) {
	session, ok := r.sessions[code]
	return session, ok
}

func (r *Registry) Delete(code string) {
	delete(r.sessions, code)
}

func (r *Registry) Len() int {
	return len(r.sessions)
}

// FindByConn locates the session a connection belongs to, as host or player.
// The scan collects before reporting so callers may mutate the registry with
// the result in hand.
func (r *Registry) FindByConn(connID string) (*Session, bool, bool) {
	var found *Session
	var isHost bool
	for _, session := range r.sessions {
		if session.HostID() == connID {
			found, isHost = session, true
			break
		}
		if _, ok := session.Player(connID); ok {
			found = session
			break
		}
	}
	return found, isHost, found != nil
}

func (r *Registry) freshCode() string {
	for {
		code := strconv.Itoa(100000 + r.rnd.Intn(900000))
		if _, taken := r.sessions[code]; !taken {
			return code
		}
	}
}
