package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/quran-audio-quiz/internal/client"
	"github.com/aliskhannn/quran-audio-quiz/internal/config"
	"github.com/aliskhannn/quran-audio-quiz/internal/delivery/httpapi"
	"github.com/aliskhannn/quran-audio-quiz/internal/delivery/telegram"
	"github.com/aliskhannn/quran-audio-quiz/internal/domain/entities"
	"github.com/aliskhannn/quran-audio-quiz/internal/infra/postgres"
	pgrepo "github.com/aliskhannn/quran-audio-quiz/internal/infra/postgres/repository"
	"github.com/aliskhannn/quran-audio-quiz/internal/infra/rediscache"
	"github.com/aliskhannn/quran-audio-quiz/internal/logger"
	"github.com/aliskhannn/quran-audio-quiz/internal/metrics"
	"github.com/aliskhannn/quran-audio-quiz/internal/offline"
	"github.com/aliskhannn/quran-audio-quiz/internal/repository"
	"github.com/aliskhannn/quran-audio-quiz/internal/service"
	"github.com/aliskhannn/quran-audio-quiz/internal/storage"
)

const (
	originFetchTimeout   = 15 * time.Second
	sessionSweepInterval = time.Minute
)

func main() {
	// A missing .env is fine, the environment may already be set.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil && !errors.Is(err, context.Canceled) {
		lg.Fatal("server stopped with error", zap.Error(err))
	}

	lg.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	// Initialize repositories and clients.
	surahRepo, err := repository.NewSurahRepository(cfg.Data.SurahsPath)
	if err != nil {
		return err
	}
	reciterRepo, err := repository.NewReciterRepository(cfg.Data.RecitersPath)
	if err != nil {
		return err
	}
	quranAPI := client.NewAlQuranAPI(cfg.QuranAPI.BaseURL, cfg.QuranAPI.Timeout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	quizService, err := service.NewQuizService(
		ctx,
		surahRepo,
		reciterRepo,
		quranAPI,
		service.NewQuestionSelector(),
		m,
		lg.Named("quiz"),
		service.QuizOptions{
			Policy:      entities.ExhaustionPolicy(cfg.Quiz.ExhaustionPolicy),
			TextEdition: cfg.Quiz.TextEdition,
		},
	)
	if err != nil {
		return err
	}
	quizStorage := storage.NewQuizStorage()

	cacheStorage, closeStorage, err := newCacheStorage(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeStorage()

	controller, err := offline.NewController(
		cacheStorage,
		&http.Client{Timeout: originFetchTimeout},
		m,
		lg.Named("offline"),
		offline.Options{
			CacheName:    cfg.Offline.CacheName,
			Version:      cfg.Offline.Version,
			App:          cfg.Offline.App,
			OriginURL:    cfg.Offline.OriginURL,
			Precache:     cfg.Offline.Precache,
			FallbackBody: cfg.Offline.FallbackBody,
		},
	)
	if err != nil {
		return err
	}

	handler := httpapi.NewHandler(quizService, quizStorage, surahRepo, reciterRepo, controller, m, reg, lg.Named("http"))
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Server(cfg.HTTP.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Until activation the controller passes requests straight to the origin.
		if err := controller.Install(gctx); err != nil {
			lg.Error("offline cache install failed", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		sweepSessions(gctx, quizStorage, cfg.Quiz.SessionTTL, lg)
		return nil
	})

	g.Go(func() error {
		lg.Info("http server started", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.TelegramAPIToken != "" {
		bot, err := newBot(cfg.TelegramAPIToken, cfg.Env != "production", lg)
		if err != nil {
			return err
		}
		tg := telegram.NewHandler(bot, lg.Named("telegram"), quizService, quizStorage, reciterRepo)
		g.Go(func() error {
			defer bot.StopReceivingUpdates()
			return tg.Run(gctx)
		})
	} else {
		lg.Info("TELEGRAM_API_TOKEN not set, telegram bot disabled")
	}

	return g.Wait()
}

// sweepSessions drops quiz sessions idle for longer than ttl until ctx is done.
func sweepSessions(ctx context.Context, st *storage.QuizStorage, ttl time.Duration, lg *zap.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(ttl); n > 0 {
				lg.Info("idle quiz sessions removed", zap.Int("count", n), zap.Int("remaining", st.Len()))
			}
		}
	}
}

// newCacheStorage builds the configured offline cache backend and its cleanup function.
func newCacheStorage(ctx context.Context, cfg *config.Config, lg *zap.Logger) (offline.CacheStorage, func(), error) {
	switch cfg.Offline.Backend {
	case config.BackendPostgres:
		dsn, err := cfg.DB.DSN()
		if err != nil {
			return nil, nil, err
		}

		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}

		repo := pgrepo.NewCacheStoreRepository(pool, postgres.NewTransactor(pool))
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}

		lg.Info("offline cache backed by postgres")
		return repo, pool.Close, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}

		lg.Info("offline cache backed by redis", zap.String("addr", cfg.Redis.Addr))
		return rediscache.NewCacheStore(rdb, ""), func() { _ = rdb.Close() }, nil

	default:
		lg.Info("offline cache kept in memory")
		return offline.NewMemoryStorage(), func() {}, nil
	}
}

func newBot(token string, debug bool, lg *zap.Logger) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	// Set commands.
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "quiz", Description: "Start a quiz: /quiz 1:1 2:5 [audio] [reciter] [attempts]"},
		{Command: "next", Description: "Next question"},
		{Command: "skip", Description: "Skip the current question"},
		{Command: "reveal", Description: "Show the answer"},
		{Command: "stop", Description: "Finish the quiz"},
		{Command: "reciters", Description: "List reciters"},
	}

	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	bot.Debug = debug
	lg.Info("telegram authorized", zap.String("account", bot.Self.UserName))

	return bot, nil
}
