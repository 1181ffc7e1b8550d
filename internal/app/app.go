package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/archive"
	"github.com/Freeeeeet/school_scheduler/internal/calendar"
	"github.com/Freeeeeet/school_scheduler/internal/config"
	"github.com/Freeeeeet/school_scheduler/internal/controller/httpapi"
	"github.com/Freeeeeet/school_scheduler/internal/lock"
	"github.com/Freeeeeet/school_scheduler/internal/metrics"
	"github.com/Freeeeeet/school_scheduler/internal/notify"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
	"github.com/Freeeeeet/school_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// App собранный процесс: хранилище, сервисы, HTTP сервер и фоновые задачи
type App struct {
	cfg       *config.Config
	store     *Store
	server    *http.Server
	scheduler *Scheduler
	logger    *zap.Logger
}

// New собирает зависимости; при ошибке открытые ресурсы закрываются
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (a *App, err error) {
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err != nil {
			_ = store.Close()
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	sched := cfg.Scheduling
	var guard lock.Guard
	if store.Pool != nil {
		guard = lock.NewPostgres(store.Pool, sched.LockTimeout, m.ObserveLock, logger)
	} else {
		guard = lock.NewLocal(sched.LockTimeout, m.ObserveLock)
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return nil, err
	}
	archiver, err := newArchiver(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	cal := calendar.NewLog(logger)

	templates := repository.NewTemplateRepository(store.Templates)
	instances := repository.NewInstanceRepository(store.Instances, sched.Location)
	bookings := repository.NewBookingRepository(store.Bookings)

	now := time.Now
	schedulingService := service.NewSchedulingService(templates, instances, guard, m, sched, now, logger)
	cleanupService := service.NewCleanupService(instances, archiver, guard, m, sched, now, logger)
	bookingService := service.NewBookingService(
		instances, bookings, guard, cal, notifier, schedulingService, cleanupService, m, sched, now, logger,
	)
	absenceService := service.NewAbsenceService(instances, guard, sched, now, logger)
	queryService := service.NewQueryService(templates, instances, bookings, sched, now)

	if err := seedTemplates(ctx, cfg.TemplatesFile, schedulingService); err != nil {
		return nil, err
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := httpapi.NewHandler(
		schedulingService, cleanupService, bookingService, absenceService, queryService, sched.Location,
	)
	router := httpapi.NewRouter(handler, cfg.JWTSecret, m.Handler(), logger)

	return &App{
		cfg:   cfg,
		store: store,
		server: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		scheduler: NewScheduler(schedulingService, cleanupService, sched.GenerateEvery, sched.CleanupEvery, logger),
		logger:    logger,
	}, nil
}

// Run запускает HTTP сервер и фоновые задачи; возвращается после отмены ctx
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return a.scheduler.Run(ctx)
	})

	return g.Wait()
}

// Close освобождает хранилище
func (a *App) Close() error {
	return a.store.Close()
}

func newNotifier(cfg *config.Config, logger *zap.Logger) (notify.Notifier, error) {
	if cfg.TelegramToken == "" {
		logger.Info("Telegram token not set, notifications go to the log")
		return notify.NewLog(logger), nil
	}

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	logger.Info("Telegram notifications enabled", zap.Int("chats", len(cfg.TelegramChats)))
	return notify.NewTelegram(b, cfg.TelegramChats, logger), nil
}

func newArchiver(ctx context.Context, cfg *config.Config, logger *zap.Logger) (archive.Archiver, error) {
	if !cfg.Archive.Enabled() {
		return archive.Nop{}, nil
	}

	s3, err := archive.NewS3(ctx, archive.S3Config{
		Bucket:          cfg.Archive.Bucket,
		Region:          cfg.Archive.Region,
		Endpoint:        cfg.Archive.Endpoint,
		PathStyle:       cfg.Archive.PathStyle,
		AccessKeyID:     cfg.Archive.AccessKeyID,
		SecretAccessKey: cfg.Archive.SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create archive client: %w", err)
	}
	logger.Info("Archiving pruned rows to S3", zap.String("bucket", cfg.Archive.Bucket))
	return s3, nil
}

func seedTemplates(ctx context.Context, path string, s *service.SchedulingService) error {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open templates file: %w", err)
	}
	defer f.Close()

	if _, err := s.SeedTemplates(ctx, f); err != nil {
		return fmt.Errorf("seed templates from %s: %w", path, err)
	}
	return nil
}
