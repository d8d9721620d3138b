package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sprint-quiz-service/internal/app"
	"sprint-quiz-service/internal/config"
	"sprint-quiz-service/internal/domain"
	"sprint-quiz-service/internal/infra/memory"
	pginfra "sprint-quiz-service/internal/infra/postgres"
	redisinfra "sprint-quiz-service/internal/infra/redis"
	"sprint-quiz-service/internal/schedule"
	transport "sprint-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	var loader memory.BankLoader = memory.NewStaticBankLoader(sampleBanks())
	if pool != nil {
		loader = pginfra.NewBankLoader(pool)
	}

	bankTTL := config.Duration(cfg.Quiz.TTL, 10*time.Minute)
	var banks app.BankRepository
	if redisClient != nil {
		banks = redisinfra.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		banks = memory.NewBankRepository(loader, bankTTL)
	}

	var results app.ResultStore = memory.NewResultStore()
	if pool != nil {
		results = pginfra.NewResultStore(pool)
	} else if redisClient != nil {
		results = redisinfra.NewResultStore(redisClient)
	}

	engine := app.NewEngine(banks, results, app.Config{
		BankID:       cfg.Quiz.Bank,
		Duration:     config.Duration(cfg.Quiz.Duration, 3*time.Minute),
		Passphrase:   cfg.Quiz.Passphrase,
		Affiliations: cfg.Quiz.Affiliations,
	})
	wsHandler := transport.NewWSHandler(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	if len(cfg.Schedule) > 0 {
		windows := make([]schedule.Window, 0, len(cfg.Schedule))
		for _, row := range cfg.Schedule {
			window, err := schedule.ParseWindow(row.Start, row.End, row.Label)
			if err != nil {
				return err
			}
			windows = append(windows, window)
		}
		mux.Handle("/schedule", transport.NewScheduleHandler(schedule.New(windows)))
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
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

// sampleBanks provides a minimal bank for runs without a database; swap in
// the Postgres loader for real deployments.
func sampleBanks() map[string]domain.ProblemBank {
	return map[string]domain.ProblemBank{
		"bank-1": {
			ID: "bank-1",
			Problems: []domain.Problem{
				{
					ID:          "p1",
					Prompt:      "sqrt(16) = ?",
					Choices:     []string{"2", "4", "8"},
					Answer:      "4",
					Explanation: "4 * 4 = 16",
				},
				{
					ID:          "p2",
					Prompt:      "sqrt(81) = ?",
					Choices:     []string{"9", "8", "7"},
					Answer:      "9",
					Explanation: "9 * 9 = 81",
				},
				{
					ID:          "p3",
					Prompt:      "sqrt(144) = ?",
					Choices:     []string{"14", "12", "16"},
					Answer:      "12",
					Explanation: "12 * 12 = 144",
				},
			},
		},
	}
}
