package app

import (
	"context"

	"compquiz-service/internal/domain"
)

// QuestionSource provides the authored question bank. Implementations may be
// backed by memory, Postgres, or a Redis cache in front of either.
type QuestionSource interface {
	// QuestionGroups returns every authored group for a subject, in insertion
	// order of the underlying collection.
	QuestionGroups(ctx context.Context, subject string) ([]domain.QuestionGroup, error)
	// Subjects lists all subjects with at least one authored group, in
	// insertion order.
	Subjects(ctx context.Context) ([]string, error)
}

// MarkReader is the read side of the mark store the pool needs to filter out
// subjects the participant already completed.
type MarkReader interface {
	GetIndividualMarks(ctx context.Context, anonID, competitionID string) (domain.IndividualMarkRecord, error)
}

// Pool produces the ordered question list for a subject and track, and the
// set of subjects still available to an individual participant.
//
// Subject pairing is a business rule: completing one subject of a pair blocks
// its alternate. Pairs are configuration data, not hard-coded conditionals.
type Pool struct {
	source QuestionSource
	marks  MarkReader
	paired map[string]string
}

func NewPool(source QuestionSource, marks MarkReader, subjectPairs [][]string) *Pool {
	paired := make(map[string]string)
	for _, pair := range subjectPairs {
		if len(pair) != 2 {
			continue
		}
		paired[pair[0]] = pair[1]
		paired[pair[1]] = pair[0]
	}
	return &Pool{source: source, marks: marks, paired: paired}
}

// QuestionsFor flattens every authored group for the subject and keeps only
// entries tagged with the requested track. Insertion order of the underlying
// collection is preserved. An empty result is a valid outcome; callers decide
// whether that disables quiz start.
func (p *Pool) QuestionsFor(ctx context.Context, subject string, track domain.Track) ([]domain.Question, error) {
	groups, err := p.source.QuestionGroups(ctx, subject)
	if err != nil {
		return nil, err
	}
	var questions []domain.Question
	for _, g := range groups {
		for _, q := range g.Questions {
			if q.Track == track {
				questions = append(questions, q)
			}
		}
	}
	return questions, nil
}

// AvailableSubjects computes the subjects an individual participant can still
// take in a competition: subjects with at least one question for the track,
// minus subjects already completed, minus the paired alternates of completed
// subjects. An empty result means every subject is done; callers surface the
// terminal "all subjects completed" state via ErrSubjectsExhausted.
func (p *Pool) AvailableSubjects(ctx context.Context, anonID, competitionID string, track domain.Track) ([]string, error) {
	subjects, err := p.source.Subjects(ctx)
	if err != nil {
		return nil, err
	}

	record, err := p.marks.GetIndividualMarks(ctx, anonID, competitionID)
	if err != nil {
		return nil, err
	}
	blocked := make(map[string]bool, len(record.Marks))
	for _, m := range record.Marks {
		blocked[m.Subject] = true
		if alt, ok := p.paired[m.Subject]; ok {
			blocked[alt] = true
		}
	}

	var available []string
	for _, subject := range subjects {
		if blocked[subject] {
			continue
		}
		questions, err := p.QuestionsFor(ctx, subject, track)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			continue
		}
		available = append(available, subject)
	}
	return available, nil
}
