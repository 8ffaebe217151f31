package game

import (
	"sort"
	"time"

	"quizroom-service/internal/domain"
)

// Phase is the position of a session in its per-question state machine.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseQuestionOpen
	PhaseShowingResults
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "LOBBY"
	case PhaseQuestionOpen:
		return "QUESTION_OPEN"
	case PhaseShowingResults:
		return "SHOWING_RESULTS"
	case PhaseEnded:
		return "ENDED"
	}
	return "UNKNOWN"
}

// leaderboardLimit caps leaderboard snapshots sent over the wire.
const leaderboardLimit = 10

// Session owns one quiz's live play-through: roster, current question,
// per-question answer ledger, scores and phase.
//
// Session is not safe for concurrent use on its own; the Coordinator
// serializes all access, including timer callbacks.
type Session struct {
	code   string
	quiz   domain.Quiz
	hostID string
	now    func() time.Time

	phase    Phase
	starting bool
	players  []*domain.Player
	current  int
	answers  map[string]domain.AnswerRecord
	openedAt time.Time

	startTimer    *time.Timer
	questionTimer *time.Timer
	evictTimer    *time.Timer
}

func newSession(code string, quiz domain.Quiz, hostID string, now func() time.Time) *Session {
	return &Session{
		code:    code,
		quiz:    quiz,
		hostID:  hostID,
		now:     now,
		phase:   PhaseLobby,
		current: -1,
		answers: make(map[string]domain.AnswerRecord),
	}
}

func (s *Session) Code() string      { return s.code }
func (s *Session) Quiz() domain.Quiz { return s.quiz }
func (s *Session) HostID() string    { return s.hostID }
func (s *Session) Phase() Phase      { return s.phase }

// CurrentIndex is the 0-based index of the current question, -1 before play begins.
func (s *Session) CurrentIndex() int { return s.current }

func (s *Session) PlayerCount() int { return len(s.players) }

func (s *Session) AnswerCount() int { return len(s.answers) }

func (s *Session) Player(id string) (domain.Player, bool) {
	for _, p := range s.players {
		if p.ID == id {
			return *p, true
		}
	}
	return domain.Player{}, false
}

// AddPlayer registers a player in the lobby. Usernames are unique within a
// room, compared case-sensitively.
func (s *Session) AddPlayer(id, username string) (domain.Player, error) {
	if s.phase != PhaseLobby {
		return domain.Player{}, domain.ErrGameStarted
	}
	for _, p := range s.players {
		if p.Username == username {
			return domain.Player{}, domain.ErrUsernameTaken
		}
	}
	player := &domain.Player{ID: id, Username: username}
	s.players = append(s.players, player)
	return *player, nil
}

// RemovePlayer drops a player from the roster. Answer records already counted
// toward scores and aggregates stay as they are.
func (s *Session) RemovePlayer(id string) (domain.Player, bool) {
	for i, p := range s.players {
		if p.ID == id {
			s.players = append(s.players[:i], s.players[i+1:]...)
			return *p, true
		}
	}
	return domain.Player{}, false
}

// OpenQuestion advances the session to the given question and opens it for
// answers. The previous question's answer ledger is discarded.
func (s *Session) OpenQuestion(index int) domain.Question {
	s.current = index
	s.phase = PhaseQuestionOpen
	s.answers = make(map[string]domain.AnswerRecord)
	s.openedAt = s.now()
	return s.quiz.Questions[index]
}

func (s *Session) CurrentQuestion() domain.Question {
	return s.quiz.Questions[s.current]
}

// Submit records an answer for the current question. The first submission per
// player wins; duplicates, unknown players, out-of-range options and
// submissions outside QUESTION_OPEN are rejected.
func (s *Session) Submit(playerID string, answer int) (domain.AnswerRecord, bool) {
	if s.phase != PhaseQuestionOpen {
		return domain.AnswerRecord{}, false
	}
	player, ok := s.playerRef(playerID)
	if !ok {
		return domain.AnswerRecord{}, false
	}
	if _, dup := s.answers[playerID]; dup {
		return domain.AnswerRecord{}, false
	}
	question := s.CurrentQuestion()
	if answer < 0 || answer >= len(question.Answers) {
		return domain.AnswerRecord{}, false
	}

	elapsed := s.now().Sub(s.openedAt).Seconds()
	correct := answer == question.Solution
	record := domain.AnswerRecord{
		PlayerID: playerID,
		Answer:   answer,
		Correct:  correct,
		Points:   Score(correct, elapsed, float64(question.Time)),
		Elapsed:  elapsed,
	}
	s.answers[playerID] = record
	player.Score += record.Points
	return record, true
}

// AllAnswered reports whether every current player holds an answer record for
// the current question. Empty rooms rely on the question timer instead.
func (s *Session) AllAnswered() bool {
	return len(s.players) > 0 && len(s.answers) >= len(s.players)
}

// CloseQuestion moves the session to SHOWING_RESULTS and aggregates the
// current question's ledger.
func (s *Session) CloseQuestion() (QuestionResults, HostQuestionResults) {
	s.phase = PhaseShowingResults
	question := s.CurrentQuestion()

	results := QuestionResults{
		Solution:     question.Solution,
		TotalAnswers: len(s.answers),
	}
	var elapsedSum float64
	var fastest *FastestAnswer
	for _, record := range s.answers {
		if record.Answer >= 0 && record.Answer < len(results.AnswerCounts) {
			results.AnswerCounts[record.Answer]++
		}
		elapsedSum += record.Elapsed
		if record.Correct {
			results.CorrectCount++
			if fastest == nil || record.Elapsed < fastest.Time {
				username := ""
				if p, ok := s.Player(record.PlayerID); ok {
					username = p.Username
				}
				fastest = &FastestAnswer{PlayerID: record.PlayerID, Username: username, Time: record.Elapsed}
			}
		}
	}
	results.Leaderboard = s.Leaderboard()

	host := HostQuestionResults{QuestionResults: results, FastestCorrect: fastest}
	if results.TotalAnswers > 0 {
		host.AvgResponseTime = elapsedSum / float64(results.TotalAnswers)
	}
	return results, host
}

// HasMoreQuestions reports whether a question follows the current one.
func (s *Session) HasMoreQuestions() bool {
	return s.current+1 < len(s.quiz.Questions)
}

// End moves the session to its terminal phase.
func (s *Session) End() {
	s.phase = PhaseEnded
}

// Leaderboard returns the distribution snapshot: players sorted by score
// descending, ties broken by join order, capped to the top 10.
func (s *Session) Leaderboard() []domain.LeaderboardEntry {
	entries := s.FinalStandings()
	if len(entries) > leaderboardLimit {
		entries = entries[:leaderboardLimit]
	}
	return entries
}

// FinalStandings returns the full ordered standings, uncapped. Used for the
// persisted result record.
func (s *Session) FinalStandings() []domain.LeaderboardEntry {
	ordered := make([]*domain.Player, len(s.players))
	copy(ordered, s.players)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})
	entries := make([]domain.LeaderboardEntry, 0, len(ordered))
	for _, p := range ordered {
		entries = append(entries, domain.LeaderboardEntry{Username: p.Username, Score: p.Score})
	}
	return entries
}

func (s *Session) playerRef(id string) (*domain.Player, bool) {
	for _, p := range s.players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func (s *Session) stopTimers() {
	if s.startTimer != nil {
		s.startTimer.Stop()
	}
	if s.questionTimer != nil {
		s.questionTimer.Stop()
	}
	if s.evictTimer != nil {
		s.evictTimer.Stop()
	}
}
