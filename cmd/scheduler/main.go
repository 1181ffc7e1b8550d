package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/app"
	"github.com/Freeeeeet/school_scheduler/internal/config"
	"github.com/Freeeeeet/school_scheduler/internal/controller/httpapi"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// scheduler token -id ... -name ... -role ...: выпуск токена для вызова API
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := issueToken(cfg, os.Args[2:]); err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		return
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting school scheduler",
		zap.String("store", cfg.StoreDriver),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("timezone", cfg.Scheduling.Location.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("Failed to close store", zap.Error(err))
		}
	}()

	if err := a.Run(ctx); err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
		return
	}
	logger.Info("School scheduler stopped")
}

func issueToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	id := fs.String("id", "", "user id (email or login)")
	name := fs.String("name", "", "teacher name as written in the schedule")
	role := fs.String("role", string(model.RoleTeacher), "admin, coordinator or teacher")
	ttl := fs.Duration("ttl", 30*24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" && *name == "" {
		return fmt.Errorf("either -id or -name is required")
	}

	requester := model.Requester{ID: *id, Name: *name, Role: model.ParseRole(*role)}
	token, err := httpapi.SignToken(cfg.JWTSecret, requester, *ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
