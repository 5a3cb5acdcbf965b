package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pint-quiz-service/internal/app"
	"pint-quiz-service/internal/config"
	"pint-quiz-service/internal/events"
	"pint-quiz-service/internal/infra/memory"
	pgstore "pint-quiz-service/internal/infra/postgres"
	infraredis "pint-quiz-service/internal/infra/redis"
	"pint-quiz-service/internal/logging"
)

// runtime holds the wired service and the resources it owns.
type runtime struct {
	cfg        config.Config
	logger     *zap.Logger
	service    *app.GradingService
	pgQuizzes  *pgstore.QuizLoader
	redisCache *infraredis.QuizRepository
	closers    []func()
}

func loadRuntime(ctx context.Context, configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.IsProduction(), cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return newRuntime(ctx, cfg, logger)
}

// newRuntime picks a backend per concern: Postgres for quizzes and
// submissions when a URL is set, Redis for caching and attempt counters when
// an address is set, Kafka for events when brokers are listed. Everything
// else falls back to memory, with graded events logged in process.
func newRuntime(ctx context.Context, cfg config.Config, logger *zap.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, logger: logger}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var loader memory.QuizLoader
	deps := app.Dependencies{Logger: logger}
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		rt.pgQuizzes = pgstore.NewQuizLoader(pool)
		loader = rt.pgQuizzes

		db := openBun(cfg.Postgres.URL)
		rt.closers = append(rt.closers, func() { _ = db.Close() })
		store := pgstore.NewSubmissionStore(db, logger)
		deps.Submissions, deps.Attempts = store, store
	case cfg.Quiz.File != "":
		static, err := memory.LoadQuizFile(cfg.Quiz.File)
		if err != nil {
			rt.Close()
			return nil, err
		}
		loader = static
		store := memory.NewSubmissionStore()
		deps.Submissions, deps.Attempts = store, store
		if redisClient != nil {
			deps.Attempts = infraredis.NewAttemptCounter(redisClient)
		}
	default:
		rt.Close()
		return nil, fmt.Errorf("no quiz source configured: set postgres.url or quiz.file")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		rt.redisCache = infraredis.NewQuizRepository(redisClient, loader, quizTTL, logger)
		deps.Quizzes = rt.redisCache
		deps.Gradebooks = infraredis.NewGradebookStore(redisClient, redisTTL)
	} else {
		deps.Quizzes = memory.NewQuizRepository(loader, quizTTL)
		deps.Gradebooks = memory.NewGradebookStore()
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = pub.Close() })
		deps.Events = pub
	} else {
		pub, channel := events.NewInProcessPublisher(logger)
		messages, err := channel.Subscribe(ctx, events.DefaultTopic)
		if err != nil {
			rt.Close()
			return nil, err
		}
		go events.LogGraded(messages, logger)
		rt.closers = append(rt.closers, func() { _ = pub.Close() })
		deps.Events = pub
	}

	rt.service = app.NewGradingService(deps)
	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
	_ = rt.logger.Sync()
}
