// Command maintenance runs one maintenance job and exits. Scheduling is left
// to the host (cron, Cloud Scheduler):
//
//	maintenance -job retention
//	maintenance -job count-data
//	maintenance -job backup
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/config"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/database"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/drive"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/jobs"
	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/quiz"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/logger"
)

func main() {
	job := flag.String("job", "", "job to run: "+strings.Join(jobs.Names(), "|"))
	timeout := flag.Duration("timeout", 15*time.Minute, "overall deadline")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))
	if *job == "" {
		fmt.Fprintf(os.Stderr, "usage: maintenance -job %s\n", strings.Join(jobs.Names(), "|"))
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	backends, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to open backends: %v", err)
	}

	opts := []jobs.Option{
		jobs.WithRetentionMonths(cfg.Backup.RetentionMonths),
		jobs.WithBackupEndpoint(cfg.Backup.Endpoint, &http.Client{Timeout: cfg.Backup.Timeout}),
	}
	if cfg.Backup.DriveCredentials != "" {
		files, err := drive.New(ctx, cfg.Backup.DriveCredentials)
		if err != nil {
			logger.Fatalf("failed to create Drive client: %v", err)
		}
		opts = append(opts, jobs.WithDrive(files))
	}

	runner := jobs.New(quiz.New(backends.Store, backends.Files, backends.Users), opts...)
	runErr := runner.Run(ctx, *job)
	if err := backends.Close(context.Background()); err != nil {
		logger.Warnf("closing backends: %v", err)
	}
	if runErr != nil {
		logger.Errorf("%s: %v", *job, runErr)
		os.Exit(1)
	}
}
