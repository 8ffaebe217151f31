package domain

import "time"

// Question models an MCQ question with exactly four options. Solution is the
// index of the correct option (0-3). Time is how long the question stays open
// for answers, in whole seconds; Cooldown is an optional preview period that
// clients render before showing the options. The server does not gate
// submissions on it.
type Question struct {
	Prompt   string   `json:"prompt"`
	Answers  []string `json:"answers"`
	Solution int      `json:"solution"`
	Image    string   `json:"image,omitempty"`
	Time     int      `json:"time"`
	Cooldown int      `json:"cooldown,omitempty"`
}

// Quiz is an ordered collection of questions. It is owned by the quiz store
// and read-only to the game core once a session starts.
type Quiz struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	Title     string     `json:"title"`
	Subject   string     `json:"subject"`
	Questions []Question `json:"questions"`
}

// Player is a connected participant. ID is the transport-assigned connection
// identifier; Username is unique within a room (case-sensitive).
type Player struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// AnswerRecord is created exactly once per (question, player) pair. Elapsed is
// measured in seconds from question-open to submission.
type AnswerRecord struct {
	PlayerID string  `json:"playerId"`
	Answer   int     `json:"answer"`
	Correct  bool    `json:"correct"`
	Points   int     `json:"points"`
	Elapsed  float64 `json:"time"`
}

// LeaderboardEntry is a snapshot-friendly view of a player's standing.
type LeaderboardEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// GameResult is the record appended to the result store when a game ends.
type GameResult struct {
	ID        string             `json:"id"`
	QuizID    string             `json:"quizId"`
	QuizTitle string             `json:"quizTitle"`
	CreatedAt time.Time          `json:"createdAt"`
	Players   []LeaderboardEntry `json:"players"`
}
