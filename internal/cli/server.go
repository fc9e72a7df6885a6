package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"compquiz-service/internal/app"
	"compquiz-service/internal/config"
	"compquiz-service/internal/domain"
	"compquiz-service/internal/infra/memory"
	pginfra "compquiz-service/internal/infra/postgres"
	"compquiz-service/internal/infra/rabbit"
	redisinfra "compquiz-service/internal/infra/redis"
	transport "compquiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the competition quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	// Competitions and enrollments are owned by the surrounding platform;
	// this service reads a seeded projection of them.
	competitions := memory.NewCompetitionStore(sampleCompetitions())
	enrollments := sampleEnrollments()

	var questions app.QuestionSource = sampleQuestionBank()
	if pool != nil {
		questions = pginfra.NewQuestionLoader(pool)
	}
	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	if redisClient != nil {
		questions = redisinfra.NewQuestionCache(redisClient, questions, cacheTTL)
	}

	var marks app.MarkStore = memory.NewMarkStore()
	if pool != nil {
		marks = pginfra.NewMarkStore(pool)
	}

	var anonIDs transport.AnonIDProvider = memory.NewAnonIDStore()
	if redisClient != nil {
		anonIDs = redisinfra.NewAnonIDStore(redisClient)
	}

	var events app.EventPublisher
	if cfg.Rabbit.URL != "" {
		publisher, err := rabbit.NewPublisher(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
		if err != nil {
			return err
		}
		defer publisher.Close()
		events = publisher
	}

	resolver := app.NewResolver(competitions, enrollments)
	quizPool := app.NewPool(questions, marks, cfg.Quiz.SubjectPairs)
	submitter := app.NewSubmitter(marks, events)
	service := app.NewQuizService(resolver, quizPool, submitter)

	feedbackDelay := config.TTLDuration(cfg.Quiz.FeedbackDelay, 1500*time.Millisecond)
	advanceDelay := config.TTLDuration(cfg.Quiz.AdvanceDelay, 300*time.Millisecond)
	wsHandler := transport.NewWSHandler(service, anonIDs, feedbackDelay, advanceDelay)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting compquiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleCompetitions provides a minimal event listing; swap for the platform
// projection in production.
func sampleCompetitions() []domain.Competition {
	return []domain.Competition{
		{
			ID:       "comp-1",
			Name:     "Intra-School Science Quiz",
			IsTeam:   false,
			StartsAt: time.Now().Add(-time.Hour),
			EndsAt:   time.Now().Add(24 * time.Hour),
			IsOpened: true,
		},
		{
			ID:       "comp-2",
			Name:     "Inter-School Championship",
			IsTeam:   true,
			StartsAt: time.Now().Add(-time.Hour),
			EndsAt:   time.Now().Add(24 * time.Hour),
			IsOpened: true,
		},
	}
}

func sampleEnrollments() *memory.EnrollmentStore {
	store := memory.NewEnrollmentStore()
	store.AddTeam(domain.TeamEnrollment{
		ID:            "res-1",
		CompetitionID: "comp-2",
		LeaderID:      "leader-1",
		Members: []domain.TeamMember{
			{UserID: "u1", Subject: "Physics"},
			{UserID: "u2", Subject: "Chemistry"},
			{UserID: "u3", Subject: "Biology"},
		},
	})
	return store
}

func sampleQuestionBank() *memory.QuestionBank {
	bank := memory.NewQuestionBank()
	groups := []domain.QuestionGroup{
		{
			Subject:  "Biology",
			AuthorID: "teacher-bio",
			Questions: []domain.Question{
				{
					Subject: "Biology",
					Track:   domain.TrackIndividual,
					Prompt:  "Which organelle produces ATP?",
					Answers: []domain.Answer{
						{Text: "Nucleus"},
						{Text: "Mitochondrion", Correct: true},
						{Text: "Ribosome"},
					},
				},
				{
					Subject: "Biology",
					Track:   domain.TrackTeam,
					Prompt:  "What molecule carries genetic information?",
					Answers: []domain.Answer{
						{Text: "DNA", Correct: true},
						{Text: "ATP"},
						{Text: "Glucose"},
					},
				},
			},
		},
		{
			Subject:  "Physics",
			AuthorID: "teacher-phy",
			Questions: []domain.Question{
				{
					Subject: "Physics",
					Track:   domain.TrackTeam,
					Prompt:  "What is the SI unit of force?",
					Answers: []domain.Answer{
						{Text: "Joule"},
						{Text: "Newton", Correct: true},
						{Text: "Watt"},
					},
				},
			},
		},
	}
	for _, g := range groups {
		if err := bank.AddGroup(g); err != nil {
			log.Printf("seed question bank: %v", err)
		}
	}
	return bank
}
