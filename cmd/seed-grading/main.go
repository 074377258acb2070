package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-grading-api/internal/grading"
	"github.com/noah-isme/sma-grading-api/internal/repository"
	"github.com/noah-isme/sma-grading-api/internal/seed"
	"github.com/noah-isme/sma-grading-api/pkg/config"
	"github.com/noah-isme/sma-grading-api/pkg/database"
	"github.com/noah-isme/sma-grading-api/pkg/logger"
)

func main() {
	var (
		only    string
		migrate bool
		dryRun  bool
		timeout time.Duration
	)
	flag.StringVar(&only, "only", "", "Comma separated grading system codes to seed (default: all)")
	flag.BoolVar(&migrate, "migrate", true, "Create grading tables when missing")
	flag.BoolVar(&dryRun, "dry-run", false, "Validate the reference scales without touching the database")
	flag.DurationVar(&timeout, "timeout", time.Minute, "Overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	catalog, err := seed.Load()
	if err != nil {
		logr.Fatal("failed to load reference grading scales", zap.Error(err))
	}

	selected := catalog.All()
	if only != "" {
		selected = nil
		for _, code := range strings.Split(only, ",") {
			system, err := catalog.FindByCode(strings.TrimSpace(code))
			if err != nil {
				logr.Fatal("unknown grading system code", zap.String("code", code))
			}
			selected = append(selected, system)
		}
	}

	failed := false
	for _, system := range selected {
		report := grading.ValidateBands(system)
		for _, issue := range report.Issues {
			logr.Warn("reference scale band issue",
				zap.String("code", system.Code), zap.String("kind", string(issue.Kind)), zap.String("message", issue.Message))
		}
		if report.HasOverlaps() {
			failed = true
		}
	}
	if failed {
		logr.Fatal("reference scales contain overlapping bands")
	}
	if dryRun {
		logr.Sugar().Infow("dry run complete", "systems", len(selected))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	if migrate {
		if err := repository.EnsureSchema(ctx, db); err != nil {
			logr.Fatal("failed to create schema", zap.Error(err))
		}
	}

	repo := repository.NewGradingSystemRepository(db)
	for _, system := range selected {
		if err := repo.UpsertSeed(ctx, system); err != nil {
			logr.Fatal("failed to seed grading system", zap.String("code", system.Code), zap.Error(err))
		}
		logr.Info("grading system seeded", zap.String("code", system.Code), zap.Int("bands", len(system.GradeScales)))
	}
	logr.Sugar().Infow("seeding complete", "systems", len(selected))
}
