package memory

import (
	"context"
	"sync"

	"compquiz-service/internal/domain"
)

// EnrollmentStore is an in-memory implementation of app.EnrollmentStore.
type EnrollmentStore struct {
	mu         sync.RWMutex
	team       []domain.TeamEnrollment
	individual []domain.IndividualEnrollment
}

func NewEnrollmentStore() *EnrollmentStore {
	return &EnrollmentStore{}
}

func (s *EnrollmentStore) AddTeam(enr domain.TeamEnrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.team = append(s.team, enr)
}

func (s *EnrollmentStore) AddIndividual(enr domain.IndividualEnrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.individual = append(s.individual, enr)
}

func (s *EnrollmentStore) GetIndividualEnrollment(_ context.Context, enrollmentID string) (domain.IndividualEnrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, enr := range s.individual {
		if enr.ID == enrollmentID {
			return enr, nil
		}
	}
	return domain.IndividualEnrollment{}, domain.ErrEnrollmentNotFound
}

func (s *EnrollmentStore) FindIndividualEnrollment(_ context.Context, anonID, competitionID string) (domain.IndividualEnrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, enr := range s.individual {
		if enr.AnonID == anonID && enr.CompetitionID == competitionID {
			return enr, nil
		}
	}
	return domain.IndividualEnrollment{}, domain.ErrEnrollmentNotFound
}

func (s *EnrollmentStore) FindTeamEnrollment(_ context.Context, competitionID, userID string) (domain.TeamEnrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, enr := range s.team {
		if enr.CompetitionID != competitionID {
			continue
		}
		if enr.LeaderID == userID {
			return enr, nil
		}
		for _, m := range enr.Members {
			if m.UserID == userID {
				return enr, nil
			}
		}
	}
	return domain.TeamEnrollment{}, domain.ErrEnrollmentNotFound
}
