package memory

import (
	"context"
	"errors"
	"testing"

	"compquiz-service/internal/domain"
)

func TestMarkStoreVersioning(t *testing.T) {
	ctx := context.Background()
	store := NewMarkStore()

	record, err := store.GetTeamMarks(ctx, "res-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Version != 0 || len(record.Marks) != 0 {
		t.Fatalf("expected empty record at version 0, got %+v", record)
	}

	record.Marks = []domain.TeamMark{{UserID: "u1", Subject: "Physics", Marks: 4, Seconds: 100}}
	if err := store.PutTeamMarks(ctx, record); err != nil {
		t.Fatalf("put: %v", err)
	}

	stored, err := store.GetTeamMarks(ctx, "res-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Version != 1 {
		t.Fatalf("expected version 1 after create, got %d", stored.Version)
	}

	// A writer holding the stale version must be rejected.
	if err := store.PutTeamMarks(ctx, record); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	stored.Marks = append(stored.Marks, domain.TeamMark{UserID: "u2", Subject: "Biology", Marks: 3, Seconds: 80})
	if err := store.PutTeamMarks(ctx, stored); err != nil {
		t.Fatalf("put with fresh version: %v", err)
	}

	final, _ := store.GetTeamMarks(ctx, "res-1")
	if final.Version != 2 || len(final.Marks) != 2 {
		t.Fatalf("expected version 2 with 2 marks, got %+v", final)
	}
}

func TestMarkStoreIndividualVersioning(t *testing.T) {
	ctx := context.Background()
	store := NewMarkStore()

	record, err := store.GetIndividualMarks(ctx, "anon-1", "comp-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	record.Marks = []domain.SubjectMark{{Subject: "Biology", Marks: 2, Seconds: 50}}
	if err := store.PutIndividualMarks(ctx, record); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Creating again at version 0 is a conflict, not an overwrite.
	fresh := domain.IndividualMarkRecord{AnonID: "anon-1", CompetitionID: "comp-1",
		Marks: []domain.SubjectMark{{Subject: "ICT", Marks: 1, Seconds: 30}}}
	if err := store.PutIndividualMarks(ctx, fresh); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	stored, _ := store.GetIndividualMarks(ctx, "anon-1", "comp-1")
	if len(stored.Marks) != 1 || stored.Marks[0].Subject != "Biology" {
		t.Fatalf("record overwritten: %+v", stored.Marks)
	}
}

func TestMarkStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMarkStore()

	record, _ := store.GetTeamMarks(ctx, "res-1")
	record.Marks = []domain.TeamMark{{UserID: "u1", Subject: "Physics", Marks: 4}}
	if err := store.PutTeamMarks(ctx, record); err != nil {
		t.Fatalf("put: %v", err)
	}

	first, _ := store.GetTeamMarks(ctx, "res-1")
	first.Marks[0].Marks = 99

	second, _ := store.GetTeamMarks(ctx, "res-1")
	if second.Marks[0].Marks != 4 {
		t.Fatalf("store leaked internal slice: %+v", second.Marks)
	}
}
