package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"compquiz-service/internal/domain"
	"compquiz-service/internal/infra/memory"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []domain.MarkSubmittedEvent
}

func (p *capturingPublisher) MarkSubmitted(_ context.Context, event domain.MarkSubmittedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func TestSubmitTeamReplacesNotDuplicates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMarkStore()
	submitter := NewSubmitter(store, nil)

	if err := submitter.SubmitTeam(ctx, "comp-2", "res-1", "u1", "Physics", 4, 120); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := submitter.SubmitTeam(ctx, "comp-2", "res-1", "u2", "Chemistry", 3, 90); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	// u1 resubmits Physics with a new score.
	if err := submitter.SubmitTeam(ctx, "comp-2", "res-1", "u1", "Physics", 5, 100); err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	record, err := store.GetTeamMarks(ctx, "res-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(record.Marks) != 2 {
		t.Fatalf("expected 2 marks, got %d: %+v", len(record.Marks), record.Marks)
	}
	var physics []domain.TeamMark
	for _, m := range record.Marks {
		if m.UserID == "u1" && m.Subject == "Physics" {
			physics = append(physics, m)
		}
	}
	if len(physics) != 1 || physics[0].Marks != 5 || physics[0].Seconds != 100 {
		t.Fatalf("expected single Physics mark with 5 points, got %+v", physics)
	}
	// The other member's entry is untouched.
	found := false
	for _, m := range record.Marks {
		if m.UserID == "u2" && m.Subject == "Chemistry" && m.Marks == 3 {
			found = true
		}
	}
	if !found {
		t.Fatalf("u2 Chemistry mark lost: %+v", record.Marks)
	}
}

func TestSubmitIndividualReplacesNotDuplicates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMarkStore()
	submitter := NewSubmitter(store, nil)

	if err := submitter.SubmitIndividual(ctx, "comp-1", "anon-1", "Chemistry", 2, 80); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := submitter.SubmitIndividual(ctx, "comp-1", "anon-1", "Chemistry", 4, 70); err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	record, err := store.GetIndividualMarks(ctx, "anon-1", "comp-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(record.Marks) != 1 {
		t.Fatalf("expected exactly one Chemistry mark, got %+v", record.Marks)
	}
	if record.Marks[0].Marks != 4 || record.Marks[0].Seconds != 70 {
		t.Fatalf("expected most recent mark, got %+v", record.Marks[0])
	}
}

func TestConcurrentTeamSubmissionsBothSurvive(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMarkStore()
	submitter := NewSubmitter(store, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = submitter.SubmitTeam(ctx, "comp-2", "res-1", "u1", "Physics", 4, 110)
	}()
	go func() {
		defer wg.Done()
		errs[1] = submitter.SubmitTeam(ctx, "comp-2", "res-1", "u2", "Chemistry", 3, 95)
	}()
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	record, err := store.GetTeamMarks(ctx, "res-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(record.Marks) != 2 {
		t.Fatalf("lost update under concurrent submission: %+v", record.Marks)
	}
}

// conflictOnceStore forces a version conflict on the first write to prove
// the submitter re-reads and re-merges.
type conflictOnceStore struct {
	*memory.MarkStore
	mu       sync.Mutex
	conflict bool
}

func (s *conflictOnceStore) PutTeamMarks(ctx context.Context, record domain.TeamMarkRecord) error {
	s.mu.Lock()
	first := !s.conflict
	s.conflict = true
	s.mu.Unlock()
	if first {
		return domain.ErrVersionConflict
	}
	return s.MarkStore.PutTeamMarks(ctx, record)
}

func TestSubmitTeamRetriesOnVersionConflict(t *testing.T) {
	ctx := context.Background()
	store := &conflictOnceStore{MarkStore: memory.NewMarkStore()}
	submitter := NewSubmitter(store, nil)

	if err := submitter.SubmitTeam(ctx, "comp-2", "res-1", "u1", "Physics", 4, 120); err != nil {
		t.Fatalf("submit: %v", err)
	}
	record, err := store.GetTeamMarks(ctx, "res-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(record.Marks) != 1 {
		t.Fatalf("expected mark after retry, got %+v", record.Marks)
	}
}

type failingStore struct {
	*memory.MarkStore
}

func (s *failingStore) PutIndividualMarks(context.Context, domain.IndividualMarkRecord) error {
	return errors.New("storage unavailable")
}

func TestSubmitIndividualSurfacesStoreFailure(t *testing.T) {
	ctx := context.Background()
	submitter := NewSubmitter(&failingStore{MarkStore: memory.NewMarkStore()}, nil)

	if err := submitter.SubmitIndividual(ctx, "comp-1", "anon-1", "Biology", 2, 60); err == nil {
		t.Fatalf("expected error from failing store")
	}
}

func TestSubmitPublishesEvent(t *testing.T) {
	ctx := context.Background()
	publisher := &capturingPublisher{}
	submitter := NewSubmitter(memory.NewMarkStore(), publisher)

	if err := submitter.SubmitIndividual(ctx, "comp-1", "anon-1", "Biology", 2, 60); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected one event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Track != domain.TrackIndividual || event.Subject != "Biology" || event.Marks != 2 {
		t.Fatalf("unexpected event %+v", event)
	}
}
