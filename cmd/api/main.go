package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/charismabi/handson/internal/auth"
	"github.com/charismabi/handson/internal/authapi"
	"github.com/charismabi/handson/internal/clipping"
	"github.com/charismabi/handson/internal/company"
	"github.com/charismabi/handson/internal/config"
	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/files"
	internalhttp "github.com/charismabi/handson/internal/http"
	"github.com/charismabi/handson/internal/manager"
	"github.com/charismabi/handson/internal/monitor"
	"github.com/charismabi/handson/internal/provision"
	"github.com/charismabi/handson/internal/register"
	"github.com/charismabi/handson/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poolCfg := db.PoolConfig{MaxConns: cfg.DBMaxConns, MaxConnLifetime: 30 * time.Minute}
	handsOn, err := db.NewPool(ctx, cfg.HandsOnDSN, poolCfg)
	if err != nil {
		return fmt.Errorf("db hands-on: %w", err)
	}
	defer handsOn.Close()

	clippingDB, err := db.NewPool(ctx, cfg.ClippingDSN, poolCfg)
	if err != nil {
		return fmt.Errorf("db clipping: %w", err)
	}
	defer clippingDB.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	var archive storage.Uploader
	if cfg.ExportArchive {
		if archive, err = storage.New(cfg.Storage); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}

	accounts, err := authapi.New(cfg.AuthAPIURL)
	if err != nil {
		return fmt.Errorf("authapi: %w", err)
	}

	logger := log.Logger
	provisionRepo := provision.NewRepository(handsOn)
	companyRepo := company.NewRepository(handsOn)
	clippingRepo := clipping.NewRepository(clippingDB)
	pending := register.NewRedisPendingStore(redisClient)
	notifier := monitor.New(cfg.SlackWebhookURL, logger.With().Str("component", "monitor").Logger())

	provisionService := provision.NewService(provisionRepo, logger.With().Str("component", "provision").Logger())
	registerService := register.NewService(register.NewRepository(handsOn), clippingRepo, pending, notifier,
		logger.With().Str("component", "register").Logger())
	companyService := company.NewService(companyRepo, provisionRepo, logger.With().Str("component", "company").Logger())
	clippingService := clipping.NewService(clippingRepo, companyRepo, redisClient, logger.With().Str("component", "clipping").Logger())
	fileService := files.NewService(provisionRepo, files.NewRepository(handsOn), clippingRepo, clippingDB, archive,
		logger.With().Str("component", "files").Logger())

	scheduler := cron.New()
	reconciler := register.NewReconciler(clippingRepo, pending, logger.With().Str("component", "reconciler").Logger())
	if _, err := reconciler.Schedule(ctx, scheduler, cfg.ReconcileSchedule); err != nil {
		return fmt.Errorf("reconciler: %w", err)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	handler := internalhttp.NewRouter(cfg, internalhttp.Deps{
		Provision: provisionService,
		Registers: registerService,
		Companies: companyService,
		Clipping:  clippingService,
		Files:     fileService,
		Manager:   manager.New(handsOn, logger.With().Str("component", "manager").Logger()),
		Accounts:  accounts,
		Tokens:    auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL),
		Checks: map[string]func(context.Context) error{
			"handson":  handsOn.Ping,
			"clipping": clippingDB.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("encerrando...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
}
