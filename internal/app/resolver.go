package app

import (
	"context"
	"errors"

	"compquiz-service/internal/domain"
)

// CompetitionStore loads competition metadata (from cache/backing store).
type CompetitionStore interface {
	GetCompetition(ctx context.Context, id string) (domain.Competition, error)
}

// EnrollmentStore resolves who is registered where.
type EnrollmentStore interface {
	// GetIndividualEnrollment looks up an individual enrollment by its own id.
	GetIndividualEnrollment(ctx context.Context, enrollmentID string) (domain.IndividualEnrollment, error)
	// FindIndividualEnrollment looks up an individual enrollment by the
	// participant's anonymous id and competition.
	FindIndividualEnrollment(ctx context.Context, anonID, competitionID string) (domain.IndividualEnrollment, error)
	// FindTeamEnrollment returns the reservation in which the participant is
	// leader or listed member, if any.
	FindTeamEnrollment(ctx context.Context, competitionID, userID string) (domain.TeamEnrollment, error)
}

// Placement describes how a participant enters a competition.
type Placement struct {
	Track domain.Track
	// Subject is the member's assigned subject for the team track; empty for
	// the individual track, where the subject is chosen interactively.
	Subject string
	// ReservationID is set for the team track.
	ReservationID string
	// EnrollmentID is set for the individual track.
	EnrollmentID string
}

// Resolver maps route identifiers to competitions and participants to their
// track within a competition. Pure lookups, no side effects.
type Resolver struct {
	competitions CompetitionStore
	enrollments  EnrollmentStore
}

func NewResolver(competitions CompetitionStore, enrollments EnrollmentStore) *Resolver {
	return &Resolver{competitions: competitions, enrollments: enrollments}
}

// Resolve turns a route identifier into a competition. The id may name a
// competition directly or an individual enrollment that references one.
// Neither matching yields ErrUnresolved; callers treat that as a loading or
// empty state, never a crash.
func (r *Resolver) Resolve(ctx context.Context, routeID string) (domain.Competition, error) {
	comp, err := r.competitions.GetCompetition(ctx, routeID)
	if err == nil {
		return comp, nil
	}
	if !errors.Is(err, domain.ErrCompetitionNotFound) {
		return domain.Competition{}, err
	}

	enr, err := r.enrollments.GetIndividualEnrollment(ctx, routeID)
	if err != nil {
		if errors.Is(err, domain.ErrEnrollmentNotFound) {
			return domain.Competition{}, domain.ErrUnresolved
		}
		return domain.Competition{}, err
	}
	comp, err = r.competitions.GetCompetition(ctx, enr.CompetitionID)
	if err != nil {
		if errors.Is(err, domain.ErrCompetitionNotFound) {
			return domain.Competition{}, domain.ErrUnresolved
		}
		return domain.Competition{}, err
	}
	return comp, nil
}

// Place determines the participant's track within a competition. A team
// reservation (as leader or member) wins over an individual enrollment; a
// participant with neither gets ErrNotEnrolled.
func (r *Resolver) Place(ctx context.Context, competitionID, participantID string) (Placement, error) {
	team, err := r.enrollments.FindTeamEnrollment(ctx, competitionID, participantID)
	if err == nil {
		placement := Placement{Track: domain.TrackTeam, ReservationID: team.ID}
		for _, m := range team.Members {
			if m.UserID == participantID {
				placement.Subject = m.Subject
				break
			}
		}
		return placement, nil
	}
	if !errors.Is(err, domain.ErrEnrollmentNotFound) {
		return Placement{}, err
	}

	indiv, err := r.enrollments.FindIndividualEnrollment(ctx, participantID, competitionID)
	if err != nil {
		if errors.Is(err, domain.ErrEnrollmentNotFound) {
			return Placement{}, domain.ErrNotEnrolled
		}
		return Placement{}, err
	}
	return Placement{Track: domain.TrackIndividual, EnrollmentID: indiv.ID}, nil
}
