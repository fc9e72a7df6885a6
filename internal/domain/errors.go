package domain

import "errors"

var (
	// ErrUnresolved is returned when a route identifier matches neither a
	// competition nor an individual enrollment.
	ErrUnresolved = errors.New("competition could not be resolved")
	// ErrCompetitionNotFound indicates a direct competition lookup missed.
	ErrCompetitionNotFound = errors.New("competition not found")
	// ErrCompetitionClosed indicates the competition is not open for quizzes.
	ErrCompetitionClosed = errors.New("competition is not opened")
	// ErrNotEnrolled is returned when a participant has no enrollment in the
	// resolved competition.
	ErrNotEnrolled = errors.New("participant not enrolled")
	// ErrEnrollmentNotFound indicates an enrollment lookup missed.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrNoContent is returned when the question pool for a subject and track
	// is empty; quiz start must stay disabled.
	ErrNoContent = errors.New("no questions for subject and track")
	// ErrSubjectsExhausted signals the participant has completed every
	// available subject in this competition.
	ErrSubjectsExhausted = errors.New("all subjects completed")
	// ErrSubjectOwned is returned when a second teacher tries to author
	// questions for a subject that already has an author.
	ErrSubjectOwned = errors.New("subject already has an authoring teacher")
	// ErrVersionConflict is returned by mark stores when a write carries a
	// stale version token.
	ErrVersionConflict = errors.New("mark record version conflict")
	// ErrAnswerIndexOutOfRange is an invariant violation: the selected answer
	// index does not exist on the current question.
	ErrAnswerIndexOutOfRange = errors.New("answer index out of range")
	// ErrSessionAlreadyStarted is returned by a second start of one session.
	ErrSessionAlreadyStarted = errors.New("session already started")
	// ErrNotAcceptingAnswers is returned when an answer arrives while input
	// is disabled (feedback pending, completed, or not started).
	ErrNotAcceptingAnswers = errors.New("session not accepting answers")
	// ErrNotPendingAdvance is returned when an advance is requested outside
	// the feedback state.
	ErrNotPendingAdvance = errors.New("session has no pending advance")
	// ErrNotCompleted is returned when a result is requested for a session
	// that has not finished its last question.
	ErrNotCompleted = errors.New("session not completed")
	// ErrInvalidQuestion indicates a question record failed validation at the
	// persistence boundary.
	ErrInvalidQuestion = errors.New("invalid question record")
)
