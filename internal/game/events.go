package game

import "quizroom-service/internal/domain"

// Outbound event names. Each event carries exactly one payload shape and is
// addressed to a single audience: the session host, one player, or the room.
const (
	EventError               = "error"
	EventHostRoomCreated     = "host:roomCreated"
	EventPlayerRoomValid     = "player:roomValid"
	EventPlayerJoined        = "player:joined"
	EventHostPlayerJoined    = "host:playerJoined"
	EventHostPlayerKicked    = "host:playerKicked"
	EventPlayerKicked        = "player:kicked"
	EventGameStarting        = "game:starting"
	EventGameQuestion        = "game:question"
	EventHostQuestion        = "host:question"
	EventHostPlayerAnswered  = "host:playerAnswered"
	EventPlayerAnswerResult  = "player:answerResult"
	EventHostQuestionResults = "host:questionResults"
	EventGameQuestionResults = "game:questionResults"
	EventGameEnd             = "game:end"
	EventGameHostLeft        = "game:hostLeft"
	EventHostPlayerLeft      = "host:playerLeft"
)

// Sender delivers one outbound event to one connection. The coordinator knows
// room membership, so this is the only primitive the transport has to provide.
type Sender interface {
	Send(connID, event string, payload any)
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type RoomCodePayload struct {
	RoomCode string `json:"roomCode"`
}

type QuizInfo struct {
	Title   string `json:"title"`
	Subject string `json:"subject"`
}

type JoinedPayload struct {
	RoomCode string   `json:"roomCode"`
	Quiz     QuizInfo `json:"quiz"`
}

type PlayerRefPayload struct {
	PlayerID string `json:"playerId"`
}

type StartingPayload struct {
	Countdown int `json:"countdown"`
}

// QuestionPayload is broadcast as game:question; the host:question variant
// additionally carries the solution.
type QuestionPayload struct {
	QuestionIndex  int      `json:"questionIndex"`
	TotalQuestions int      `json:"totalQuestions"`
	Question       string   `json:"question"`
	Answers        []string `json:"answers"`
	Image          string   `json:"image,omitempty"`
	Time           int      `json:"time"`
	Cooldown       int      `json:"cooldown,omitempty"`
	Solution       *int     `json:"solution,omitempty"`
}

type PlayerAnsweredPayload struct {
	PlayerID     string `json:"playerId"`
	AnswersCount int    `json:"answersCount"`
	PlayersCount int    `json:"playersCount"`
}

type AnswerResultPayload struct {
	Correct bool    `json:"correct"`
	Points  int     `json:"points"`
	Time    float64 `json:"time"`
}

// QuestionResults is the per-question summary broadcast to the room.
type QuestionResults struct {
	Solution     int                       `json:"solution"`
	AnswerCounts [4]int                    `json:"answerCounts"`
	TotalAnswers int                       `json:"totalAnswers"`
	CorrectCount int                       `json:"correctCount"`
	Leaderboard  []domain.LeaderboardEntry `json:"leaderboard"`
}

// HostQuestionResults extends the room summary with host-only detail.
type HostQuestionResults struct {
	QuestionResults
	AvgResponseTime float64        `json:"avgResponseTime"`
	FastestCorrect  *FastestAnswer `json:"fastestCorrect"`
}

type FastestAnswer struct {
	PlayerID string  `json:"playerId"`
	Username string  `json:"username"`
	Time     float64 `json:"time"`
}

type EndPayload struct {
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}
