package memory

import (
	"context"
	"sync"

	"compquiz-service/internal/domain"
)

// MarkStore is an in-memory implementation of app.MarkStore with the same
// compare-and-swap semantics the Postgres store has: a Put must carry the
// version it read, absent records read back at version 0.
type MarkStore struct {
	mu         sync.Mutex
	team       map[string]domain.TeamMarkRecord
	individual map[individualKey]domain.IndividualMarkRecord
}

type individualKey struct {
	anonID        string
	competitionID string
}

func NewMarkStore() *MarkStore {
	return &MarkStore{
		team:       make(map[string]domain.TeamMarkRecord),
		individual: make(map[individualKey]domain.IndividualMarkRecord),
	}
}

func (s *MarkStore) GetTeamMarks(_ context.Context, reservationID string) (domain.TeamMarkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.team[reservationID]; ok {
		return cloneTeam(record), nil
	}
	return domain.TeamMarkRecord{ReservationID: reservationID}, nil
}

func (s *MarkStore) PutTeamMarks(_ context.Context, record domain.TeamMarkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.team[record.ReservationID]
	if exists && current.Version != record.Version {
		return domain.ErrVersionConflict
	}
	if !exists && record.Version != 0 {
		return domain.ErrVersionConflict
	}
	record.Version++
	s.team[record.ReservationID] = cloneTeam(record)
	return nil
}

func (s *MarkStore) GetIndividualMarks(_ context.Context, anonID, competitionID string) (domain.IndividualMarkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := individualKey{anonID: anonID, competitionID: competitionID}
	if record, ok := s.individual[key]; ok {
		return cloneIndividual(record), nil
	}
	return domain.IndividualMarkRecord{AnonID: anonID, CompetitionID: competitionID}, nil
}

func (s *MarkStore) PutIndividualMarks(_ context.Context, record domain.IndividualMarkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := individualKey{anonID: record.AnonID, competitionID: record.CompetitionID}
	current, exists := s.individual[key]
	if exists && current.Version != record.Version {
		return domain.ErrVersionConflict
	}
	if !exists && record.Version != 0 {
		return domain.ErrVersionConflict
	}
	record.Version++
	s.individual[key] = cloneIndividual(record)
	return nil
}

func cloneTeam(record domain.TeamMarkRecord) domain.TeamMarkRecord {
	record.Marks = append([]domain.TeamMark(nil), record.Marks...)
	return record
}

func cloneIndividual(record domain.IndividualMarkRecord) domain.IndividualMarkRecord {
	record.Marks = append([]domain.SubjectMark(nil), record.Marks...)
	return record
}
