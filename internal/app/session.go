package app

import (
	"math"
	"sync"
	"time"

	"compquiz-service/internal/domain"
)

// SessionState is the lifecycle position of a quiz session.
type SessionState int

const (
	StateNotStarted SessionState = iota
	StateRunning
	StateAnsweredPendingAdvance
	StateCompleted
	StateSubmitted
)

func (s SessionState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateAnsweredPendingAdvance:
		return "answered_pending_advance"
	case StateCompleted:
		return "completed"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Feedback is the outcome of answering the current question.
type Feedback struct {
	Index   int  `json:"index"`
	Correct bool `json:"correct"`
	Score   int  `json:"score"`
}

// Result is the final outcome of a completed session.
type Result struct {
	Score   int `json:"score"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
	Seconds int `json:"seconds"`
}

// Session drives one participant's quiz attempt. Transitions are strictly
// sequential; a mutex serializes them so concurrent callers (answer handler
// vs timer tick) cannot interleave mid-transition.
//
// The session owns exactly one timer handle: a 1 Hz ticker goroutine started
// on Start and stopped on completion or Close. Elapsed seconds keep counting
// while answer feedback is displayed; this models a timed exam, not
// per-question timing. Abandoning before completion discards all state.
type Session struct {
	mu        sync.Mutex
	state     SessionState
	questions []domain.Question
	index     int
	score     int
	seconds   int
	submitted bool
	stopTimer chan struct{}
}

// NewSession builds a session over an already-filtered, ordered question list.
func NewSession(questions []domain.Question) *Session {
	return &Session{questions: questions}
}

// Start moves NotStarted to Running and launches the elapsed-time ticker.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateNotStarted {
		return domain.ErrSessionAlreadyStarted
	}
	s.state = StateRunning
	stop := make(chan struct{})
	s.stopTimer = stop
	go s.runTimer(stop)
	return nil
}

func (s *Session) runTimer(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick advances the clock by one second while the session is active.
func (s *Session) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning || s.state == StateAnsweredPendingAdvance {
		s.seconds++
	}
}

// Answer records the participant's selection for the current question.
// Input is disabled while feedback is pending: answering in any state other
// than Running is a no-op returning ErrNotAcceptingAnswers and never changes
// the score. An out-of-range index is an invariant violation and fails loudly.
func (s *Session) Answer(index int) (Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return Feedback{}, domain.ErrNotAcceptingAnswers
	}
	question := s.questions[s.index]
	if index < 0 || index >= len(question.Answers) {
		return Feedback{}, domain.ErrAnswerIndexOutOfRange
	}
	correct := question.Answers[index].Correct
	if correct {
		s.score++
	}
	s.state = StateAnsweredPendingAdvance
	return Feedback{Index: index, Correct: correct, Score: s.score}, nil
}

// Advance leaves the feedback state: on to the next question, or into
// Completed after the last one. Completion freezes the elapsed clock and
// releases the timer handle.
func (s *Session) Advance() (completed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnsweredPendingAdvance {
		return false, domain.ErrNotPendingAdvance
	}
	if s.index+1 < len(s.questions) {
		s.index++
		s.state = StateRunning
		return false, nil
	}
	s.state = StateCompleted
	s.releaseTimerLocked()
	return true, nil
}

// BeginSubmit claims the single submission attempt for this session. It
// returns true exactly once per completed session; repeated completion
// triggers (re-renders, duplicate advance calls) get false and must not call
// the submission adapter.
func (s *Session) BeginSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCompleted || s.submitted {
		return false
	}
	s.submitted = true
	return true
}

// FinishSubmit records the outcome of the claimed submission attempt. On
// failure the claim is rolled back so the caller can retry; the session stays
// Completed and unsubmitted, and no success is ever signalled before the
// store confirmed the write.
func (s *Session) FinishSubmit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.submitted = false
		return
	}
	if s.state == StateCompleted {
		s.state = StateSubmitted
	}
}

// Close tears the session down, releasing the timer handle. Safe to call in
// any state and more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseTimerLocked()
}

func (s *Session) releaseTimerLocked() {
	if s.stopTimer != nil {
		close(s.stopTimer)
		s.stopTimer = nil
	}
}

// TimerActive reports whether the ticker goroutine is still owned by the
// session. False after completion and after Close.
func (s *Session) TimerActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopTimer != nil
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the question under answer and its zero-based index; ok is
// false once the session has completed.
func (s *Session) Current() (question domain.Question, index int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted || s.state == StateSubmitted || len(s.questions) == 0 {
		return domain.Question{}, 0, false
	}
	return s.questions[s.index], s.index, true
}

// Total returns the number of questions in the session.
func (s *Session) Total() int {
	return len(s.questions)
}

// Score returns the running score.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Seconds returns the elapsed seconds, frozen once completed.
func (s *Session) Seconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seconds
}

// Submitted reports whether the final score has been durably persisted.
func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateSubmitted
}

// Result snapshots the session outcome. Percent is integer rounding of
// score/total*100.
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.questions)
	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(s.score) / float64(total) * 100))
	}
	return Result{Score: s.score, Total: total, Percent: percent, Seconds: s.seconds}
}
