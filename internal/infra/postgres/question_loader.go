package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"compquiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader reads authored question groups from Postgres. Rows are
// JSONB per group; malformed groups are rejected here so they never reach a
// running session.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) QuestionGroups(ctx context.Context, subject string) ([]domain.QuestionGroup, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT data FROM question_groups WHERE subject=$1 ORDER BY id`, subject)
	if err != nil {
		return nil, fmt.Errorf("load question groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.QuestionGroup
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question group: %w", err)
		}
		var group domain.QuestionGroup
		if err := json.Unmarshal(raw, &group); err != nil {
			return nil, fmt.Errorf("unmarshal question group: %w", err)
		}
		if err := domain.ValidateGroup(group); err != nil {
			return nil, fmt.Errorf("question group for %q: %w", subject, err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question groups: %w", err)
	}
	return groups, nil
}

func (l *QuestionLoader) Subjects(ctx context.Context) ([]string, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT subject FROM question_groups GROUP BY subject ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("load subjects: %w", err)
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var subject string
		if err := rows.Scan(&subject); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}
	return subjects, nil
}
