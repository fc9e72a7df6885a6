package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"compquiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// MarkStore persists mark records as versioned JSONB rows. The version
// column carries the optimistic-concurrency token: updates only land when
// the row still holds the version the caller read, so concurrent
// submissions against one record cannot silently overwrite each other.
type MarkStore struct {
	pool *pgxpool.Pool
}

func NewMarkStore(pool *pgxpool.Pool) *MarkStore {
	return &MarkStore{pool: pool}
}

func (s *MarkStore) GetTeamMarks(ctx context.Context, reservationID string) (domain.TeamMarkRecord, error) {
	var raw []byte
	var version int64
	err := s.pool.QueryRow(ctx,
		`SELECT version, data FROM team_marks WHERE reservation_id=$1`, reservationID).Scan(&version, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TeamMarkRecord{ReservationID: reservationID}, nil
	}
	if err != nil {
		return domain.TeamMarkRecord{}, fmt.Errorf("load team marks: %w", err)
	}

	var marks []domain.TeamMark
	if err := json.Unmarshal(raw, &marks); err != nil {
		return domain.TeamMarkRecord{}, fmt.Errorf("unmarshal team marks: %w", err)
	}
	return domain.TeamMarkRecord{ReservationID: reservationID, Version: version, Marks: marks}, nil
}

func (s *MarkStore) PutTeamMarks(ctx context.Context, record domain.TeamMarkRecord) error {
	raw, err := json.Marshal(record.Marks)
	if err != nil {
		return fmt.Errorf("marshal team marks: %w", err)
	}

	if record.Version == 0 {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO team_marks (reservation_id, version, data) VALUES ($1, 1, $2)
			 ON CONFLICT (reservation_id) DO NOTHING`, record.ReservationID, raw)
		if err != nil {
			return fmt.Errorf("insert team marks: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrVersionConflict
		}
		return nil
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE team_marks SET version=version+1, data=$3
		 WHERE reservation_id=$1 AND version=$2`, record.ReservationID, record.Version, raw)
	if err != nil {
		return fmt.Errorf("update team marks: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

func (s *MarkStore) GetIndividualMarks(ctx context.Context, anonID, competitionID string) (domain.IndividualMarkRecord, error) {
	var raw []byte
	var version int64
	err := s.pool.QueryRow(ctx,
		`SELECT version, data FROM individual_marks WHERE anon_id=$1 AND competition_id=$2`,
		anonID, competitionID).Scan(&version, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.IndividualMarkRecord{AnonID: anonID, CompetitionID: competitionID}, nil
	}
	if err != nil {
		return domain.IndividualMarkRecord{}, fmt.Errorf("load individual marks: %w", err)
	}

	var marks []domain.SubjectMark
	if err := json.Unmarshal(raw, &marks); err != nil {
		return domain.IndividualMarkRecord{}, fmt.Errorf("unmarshal individual marks: %w", err)
	}
	return domain.IndividualMarkRecord{AnonID: anonID, CompetitionID: competitionID, Version: version, Marks: marks}, nil
}

func (s *MarkStore) PutIndividualMarks(ctx context.Context, record domain.IndividualMarkRecord) error {
	raw, err := json.Marshal(record.Marks)
	if err != nil {
		return fmt.Errorf("marshal individual marks: %w", err)
	}

	if record.Version == 0 {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO individual_marks (anon_id, competition_id, version, data) VALUES ($1, $2, 1, $3)
			 ON CONFLICT (anon_id, competition_id) DO NOTHING`, record.AnonID, record.CompetitionID, raw)
		if err != nil {
			return fmt.Errorf("insert individual marks: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrVersionConflict
		}
		return nil
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE individual_marks SET version=version+1, data=$4
		 WHERE anon_id=$1 AND competition_id=$2 AND version=$3`,
		record.AnonID, record.CompetitionID, record.Version, raw)
	if err != nil {
		return fmt.Errorf("update individual marks: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}
