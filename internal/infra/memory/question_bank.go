package memory

import (
	"context"
	"sync"

	"compquiz-service/internal/domain"
)

// QuestionBank is an in-memory implementation of app.QuestionSource that also
// covers the authoring side. Groups keep insertion order; a subject belongs
// to its first authoring teacher and later writers for the same subject are
// rejected.
type QuestionBank struct {
	mu      sync.RWMutex
	groups  []domain.QuestionGroup
	authors map[string]string
}

func NewQuestionBank() *QuestionBank {
	return &QuestionBank{authors: make(map[string]string)}
}

// AddGroup validates and stores an authored question group. The first writer
// for a subject owns it; the same author may append further groups.
func (b *QuestionBank) AddGroup(group domain.QuestionGroup) error {
	if err := domain.ValidateGroup(group); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if owner, ok := b.authors[group.Subject]; ok && owner != group.AuthorID {
		return domain.ErrSubjectOwned
	}
	b.authors[group.Subject] = group.AuthorID
	b.groups = append(b.groups, group)
	return nil
}

func (b *QuestionBank) QuestionGroups(_ context.Context, subject string) ([]domain.QuestionGroup, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var matched []domain.QuestionGroup
	for _, g := range b.groups {
		if g.Subject == subject {
			matched = append(matched, g)
		}
	}
	return matched, nil
}

func (b *QuestionBank) Subjects(_ context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	seen := make(map[string]bool, len(b.groups))
	var subjects []string
	for _, g := range b.groups {
		if seen[g.Subject] {
			continue
		}
		seen[g.Subject] = true
		subjects = append(subjects, g.Subject)
	}
	return subjects, nil
}
