package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"compquiz-service/internal/domain"
)

// MarkStore persists mark records with optimistic concurrency: a Put must
// carry the version the caller read, and fails with ErrVersionConflict when
// the record moved on since. A record that does not exist yet reads back as a
// zero-value record with version 0; a Put at version 0 creates it.
type MarkStore interface {
	GetTeamMarks(ctx context.Context, reservationID string) (domain.TeamMarkRecord, error)
	PutTeamMarks(ctx context.Context, record domain.TeamMarkRecord) error
	GetIndividualMarks(ctx context.Context, anonID, competitionID string) (domain.IndividualMarkRecord, error)
	PutIndividualMarks(ctx context.Context, record domain.IndividualMarkRecord) error
}

// EventPublisher emits domain events after durable writes. A nil publisher
// disables events.
type EventPublisher interface {
	MarkSubmitted(ctx context.Context, event domain.MarkSubmittedEvent) error
}

// Submitter persists a completed session's outcome exactly once per
// (participant, subject, competition): any prior mark for the same pair is
// replaced, never duplicated. Version conflicts from concurrent submissions
// against the same record are resolved by re-reading and re-merging, so two
// members submitting different subjects on one reservation both survive.
type Submitter struct {
	marks   MarkStore
	events  EventPublisher
	retries int
	now     func() time.Time
}

const defaultSubmitRetries = 3

func NewSubmitter(marks MarkStore, events EventPublisher) *Submitter {
	return &Submitter{marks: marks, events: events, retries: defaultSubmitRetries, now: time.Now}
}

// SubmitTeam merges one member's mark into the reservation's mark record.
func (s *Submitter) SubmitTeam(ctx context.Context, competitionID, reservationID, userID, subject string, marks, seconds int) error {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		record, err := s.marks.GetTeamMarks(ctx, reservationID)
		if err != nil {
			return fmt.Errorf("read team marks: %w", err)
		}

		merged := make([]domain.TeamMark, 0, len(record.Marks)+1)
		for _, m := range record.Marks {
			if m.UserID == userID && m.Subject == subject {
				continue
			}
			merged = append(merged, m)
		}
		merged = append(merged, domain.TeamMark{UserID: userID, Subject: subject, Marks: marks, Seconds: seconds})

		record.ReservationID = reservationID
		record.Marks = merged
		if err := s.marks.PutTeamMarks(ctx, record); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return fmt.Errorf("write team marks: %w", err)
		}

		s.publish(ctx, domain.MarkSubmittedEvent{
			CompetitionID: competitionID,
			Track:         domain.TrackTeam,
			UserID:        userID,
			Subject:       subject,
			Marks:         marks,
			Seconds:       seconds,
			SubmittedAt:   s.now().Unix(),
		})
		return nil
	}
	return fmt.Errorf("write team marks after %d retries: %w", s.retries, lastErr)
}

// SubmitIndividual merges a subject mark into the participant's record for
// the competition.
func (s *Submitter) SubmitIndividual(ctx context.Context, competitionID, anonID, subject string, marks, seconds int) error {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		record, err := s.marks.GetIndividualMarks(ctx, anonID, competitionID)
		if err != nil {
			return fmt.Errorf("read individual marks: %w", err)
		}

		merged := make([]domain.SubjectMark, 0, len(record.Marks)+1)
		for _, m := range record.Marks {
			if m.Subject == subject {
				continue
			}
			merged = append(merged, m)
		}
		merged = append(merged, domain.SubjectMark{Subject: subject, Marks: marks, Seconds: seconds})

		record.AnonID = anonID
		record.CompetitionID = competitionID
		record.Marks = merged
		if err := s.marks.PutIndividualMarks(ctx, record); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return fmt.Errorf("write individual marks: %w", err)
		}

		s.publish(ctx, domain.MarkSubmittedEvent{
			CompetitionID: competitionID,
			Track:         domain.TrackIndividual,
			UserID:        anonID,
			Subject:       subject,
			Marks:         marks,
			Seconds:       seconds,
			SubmittedAt:   s.now().Unix(),
		})
		return nil
	}
	return fmt.Errorf("write individual marks after %d retries: %w", s.retries, lastErr)
}

// publish is best-effort: the mark is already durable, so a broker outage
// must not fail the submission.
func (s *Submitter) publish(ctx context.Context, event domain.MarkSubmittedEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.MarkSubmitted(ctx, event); err != nil {
		log.Printf("publish mark.submitted for %s/%s: %v", event.CompetitionID, event.Subject, err)
	}
}
