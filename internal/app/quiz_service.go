package app

import (
	"context"

	"compquiz-service/internal/domain"
)

// QuizService contains the competition quiz use cases: resolving route ids,
// listing available subjects, running interactive sessions, and persisting
// results.
type QuizService struct {
	resolver  *Resolver
	pool      *Pool
	submitter *Submitter
}

func NewQuizService(resolver *Resolver, pool *Pool, submitter *Submitter) *QuizService {
	return &QuizService{resolver: resolver, pool: pool, submitter: submitter}
}

// QuizRun binds one live session to the competition and placement it belongs
// to, so completion knows where the result goes.
type QuizRun struct {
	Session       *Session
	Competition   domain.Competition
	Placement     Placement
	ParticipantID string
	Subject       string
}

// Resolve maps a route identifier (competition id or individual enrollment
// id) to a competition.
func (s *QuizService) Resolve(ctx context.Context, routeID string) (domain.Competition, error) {
	return s.resolver.Resolve(ctx, routeID)
}

// AvailableSubjects lists the subjects an individual participant can still
// take. ErrSubjectsExhausted marks the "all subjects completed" terminal
// state.
func (s *QuizService) AvailableSubjects(ctx context.Context, routeID, participantID string) ([]string, error) {
	comp, err := s.resolver.Resolve(ctx, routeID)
	if err != nil {
		return nil, err
	}
	subjects, err := s.pool.AvailableSubjects(ctx, participantID, comp.ID, domain.TrackIndividual)
	if err != nil {
		return nil, err
	}
	if len(subjects) == 0 {
		return nil, domain.ErrSubjectsExhausted
	}
	return subjects, nil
}

// StartQuiz resolves the participant's placement, builds the question list,
// and starts a session. For the team track the subject comes from the team
// record; the chosen subject parameter only applies to the individual track
// (and to a team leader without an assigned subject). An empty question pool
// keeps quiz start disabled via ErrNoContent.
func (s *QuizService) StartQuiz(ctx context.Context, routeID, participantID, chosenSubject string) (*QuizRun, error) {
	comp, err := s.resolver.Resolve(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if !comp.IsOpened {
		return nil, domain.ErrCompetitionClosed
	}

	placement, err := s.resolver.Place(ctx, comp.ID, participantID)
	if err != nil {
		return nil, err
	}

	subject := placement.Subject
	if subject == "" {
		subject = chosenSubject
	}
	if subject == "" {
		return nil, domain.ErrNoContent
	}

	questions, err := s.pool.QuestionsFor(ctx, subject, placement.Track)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoContent
	}

	session := NewSession(questions)
	if err := session.Start(); err != nil {
		return nil, err
	}
	return &QuizRun{
		Session:       session,
		Competition:   comp,
		Placement:     placement,
		ParticipantID: participantID,
		Subject:       subject,
	}, nil
}

// Complete performs the Completed -> Submitted transition: exactly one
// submission attempt per completed session, routed by track. Repeated calls
// after a successful submission are idempotent and report the final result
// again without touching the store. On persistence failure the session stays
// Completed and unsubmitted; the caller may call Complete again to retry.
// A session that has not finished its last question cannot be completed:
// callers get ErrNotCompleted, never a partial result.
func (s *QuizService) Complete(ctx context.Context, run *QuizRun) (Result, error) {
	if state := run.Session.State(); state != StateCompleted && state != StateSubmitted {
		return Result{}, domain.ErrNotCompleted
	}
	result := run.Session.Result()
	if !run.Session.BeginSubmit() {
		return result, nil
	}

	var err error
	switch run.Placement.Track {
	case domain.TrackTeam:
		err = s.submitter.SubmitTeam(ctx, run.Competition.ID, run.Placement.ReservationID, run.ParticipantID, run.Subject, result.Score, result.Seconds)
	case domain.TrackIndividual:
		err = s.submitter.SubmitIndividual(ctx, run.Competition.ID, run.ParticipantID, run.Subject, result.Score, result.Seconds)
	}
	run.Session.FinishSubmit(err)
	if err != nil {
		return result, err
	}
	return result, nil
}
