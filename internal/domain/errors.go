package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room code does not resolve to a live session.
	ErrRoomNotFound = errors.New("room not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrGameStarted is returned when a player tries to join a session that left the lobby.
	ErrGameStarted = errors.New("game already started")
	// ErrUsernameTaken is returned when a join collides with an existing username in the room.
	ErrUsernameTaken = errors.New("username already taken")
)
