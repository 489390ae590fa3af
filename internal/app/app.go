package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/templui/tutordesk/internal/config"
	"github.com/templui/tutordesk/internal/db"
	"github.com/templui/tutordesk/internal/markdown"
	"github.com/templui/tutordesk/internal/repository"
	"github.com/templui/tutordesk/internal/service"
	"github.com/templui/tutordesk/internal/storage"
)

type App struct {
	Cfg          *config.Config
	DB           *sqlx.DB      // sqlite and pgx drivers only
	Redis        *redis.Client // redis driver only
	Repository   repository.StateRepository
	Store        *service.GoalStore
	Feedback     *service.Feedback
	AuthService  *service.AuthService
	EmailService *service.EmailService
	Markdown     *markdown.Parser
	Scheduler    *service.SchedulerService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Cfg: cfg}

	repo, err := a.newStateRepository(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Repository = repo

	// Services
	a.EmailService = service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)

	// Nil interfaces switch email off for completions and digests
	var completionMailer service.CompletionMailer
	if cfg.EmailEnabled() {
		completionMailer = a.EmailService
	}
	a.Feedback = service.NewFeedback(completionMailer, cfg.NotifyEmail)

	a.Store = service.NewGoalStore(ctx, repo,
		service.WithFeedback(a.Feedback),
		service.WithDefaultSound(cfg.DefaultSoundEnabled),
	)
	a.AuthService = service.NewAuthService(cfg.APITokenSecret, cfg.APITokenExpiry)
	a.Markdown = markdown.NewParser()

	return a, nil
}

// newStateRepository opens the backend selected by STORE_DRIVER.
func (a *App) newStateRepository(ctx context.Context) (repository.StateRepository, error) {
	cfg := a.Cfg
	ns := cfg.StoreNamespace

	switch cfg.StoreDriver {
	case config.DriverSQLite, config.DriverPgx:
		database, err := db.Init(cfg.StoreDriver, cfg.DBConnection)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = database

		err = db.RunMigrations(ctx, database.DB, cfg.StoreDriver)
		if err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repository.NewSQLStateRepository(database, ns), nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		a.Redis = client

		err := client.Ping(ctx).Err()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		slog.Info("redis connected", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return repository.NewRedisStateRepository(client, ns), nil

	case config.DriverS3:
		store, err := storage.NewS3Storage(ctx, storage.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return repository.NewObjectStateRepository(store, ns), nil

	case config.DriverFile:
		store, err := storage.NewLocalStorage(cfg.StoreDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return repository.NewObjectStateRepository(store, ns), nil

	case config.DriverMemory:
		slog.Warn("memory store driver selected, goals are lost on restart")
		return repository.NewMemoryStateRepository(), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// StartScheduler runs the resume sweep and the daily digest in the background.
func (a *App) StartScheduler() error {
	if !a.Cfg.SchedulerEnabled {
		slog.Info("scheduler disabled")
		return nil
	}

	var digestMailer service.DigestMailer
	if a.Cfg.EmailEnabled() {
		digestMailer = a.EmailService
	}

	scheduler := service.NewSchedulerService(time.Local)
	jobs := service.NewGoalJobs(a.Store, a.Feedback, digestMailer, a.Cfg.NotifyEmail)
	err := jobs.Register(scheduler, a.Cfg.ResumeSweepInterval, a.Cfg.DigestTime)
	if err != nil {
		return err
	}

	// Catch up on suspensions that ended while we were down
	jobs.ResumeSweep(context.Background())

	scheduler.Start()
	a.Scheduler = scheduler
	return nil
}

func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Feedback != nil {
		a.Feedback.Wait()
	}

	var errs []error
	if a.DB != nil {
		errs = append(errs, db.Close(a.DB))
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}
