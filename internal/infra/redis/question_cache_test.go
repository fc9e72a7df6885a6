package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"compquiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingSource struct {
	mu         sync.Mutex
	groupCalls int
	groups     []domain.QuestionGroup
}

func (s *countingSource) QuestionGroups(_ context.Context, subject string) ([]domain.QuestionGroup, error) {
	s.mu.Lock()
	s.groupCalls++
	s.mu.Unlock()
	var matched []domain.QuestionGroup
	for _, g := range s.groups {
		if g.Subject == subject {
			matched = append(matched, g)
		}
	}
	return matched, nil
}

func (s *countingSource) Subjects(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var subjects []string
	for _, g := range s.groups {
		if !seen[g.Subject] {
			seen[g.Subject] = true
			subjects = append(subjects, g.Subject)
		}
	}
	return subjects, nil
}

func sampleGroups() []domain.QuestionGroup {
	return []domain.QuestionGroup{
		{
			Subject:  "Biology",
			AuthorID: "t1",
			Questions: []domain.Question{
				{
					Subject: "Biology",
					Track:   domain.TrackIndividual,
					Prompt:  "Which organelle produces ATP?",
					Answers: []domain.Answer{{Text: "Nucleus"}, {Text: "Mitochondrion", Correct: true}},
				},
			},
		},
	}
}

func TestQuestionCacheCachesGroups(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	source := &countingSource{groups: sampleGroups()}
	cache := NewQuestionCache(client, source, time.Minute)

	groups, err := cache.QuestionGroups(context.Background(), "Biology")
	if err != nil {
		t.Fatalf("groups: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Questions) != 1 {
		t.Fatalf("unexpected groups %+v", groups)
	}
	if source.groupCalls != 1 {
		t.Fatalf("expected source hit once, got %d", source.groupCalls)
	}

	// Second read must come from Redis.
	if _, err := cache.QuestionGroups(context.Background(), "Biology"); err != nil {
		t.Fatalf("groups 2: %v", err)
	}
	if source.groupCalls != 1 {
		t.Fatalf("expected cache hit, source calls %d", source.groupCalls)
	}
	if !mr.Exists("qbank:subject:Biology") {
		t.Fatalf("expected redis key for subject")
	}
}

func TestQuestionCacheConcurrentRefills(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	groups := sampleGroups()
	groups = append(groups, domain.QuestionGroup{
		Subject:  "Physics",
		AuthorID: "t2",
		Questions: []domain.Question{
			{
				Subject: "Physics",
				Track:   domain.TrackTeam,
				Prompt:  "SI unit of force?",
				Answers: []domain.Answer{{Text: "Newton", Correct: true}, {Text: "Joule"}},
			},
		},
	})
	source := &countingSource{groups: groups}
	cache := NewQuestionCache(client, source, time.Minute)

	// Different subjects refill in parallel; run with -race.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		subject := "Biology"
		if i%2 == 1 {
			subject = "Physics"
		}
		wg.Add(1)
		go func(subject string) {
			defer wg.Done()
			if _, err := cache.QuestionGroups(context.Background(), subject); err != nil {
				t.Errorf("groups %s: %v", subject, err)
			}
		}(subject)
	}
	wg.Wait()

	if !mr.Exists("qbank:subject:Biology") || !mr.Exists("qbank:subject:Physics") {
		t.Fatalf("expected both subjects cached")
	}
}

func TestQuestionCacheSubjects(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	source := &countingSource{groups: sampleGroups()}
	cache := NewQuestionCache(client, source, time.Minute)

	subjects, err := cache.Subjects(context.Background())
	if err != nil {
		t.Fatalf("subjects: %v", err)
	}
	if len(subjects) != 1 || subjects[0] != "Biology" {
		t.Fatalf("expected [Biology], got %v", subjects)
	}
	if !mr.Exists("qbank:subjects") {
		t.Fatalf("expected subjects key cached")
	}
}

func TestQuestionCacheExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	source := &countingSource{groups: sampleGroups()}
	cache := NewQuestionCache(client, source, time.Minute)

	if _, err := cache.QuestionGroups(context.Background(), "Biology"); err != nil {
		t.Fatalf("groups: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := cache.QuestionGroups(context.Background(), "Biology"); err != nil {
		t.Fatalf("groups after expiry: %v", err)
	}
	if source.groupCalls != 2 {
		t.Fatalf("expected source reload after TTL, got %d calls", source.groupCalls)
	}
}
