package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"datajoin/internal/common/logging"
	"datajoin/internal/config"
	"datajoin/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logging.Error("Invalid configuration", err)
		os.Exit(1)
	}

	logging.InitGlobalLogger()
	defer logging.MustSync()

	spec, err := pipeline.LoadSpec(cfg.JobFile)
	if err != nil {
		logging.Error("Failed to load job spec", err, logging.String("job_file", cfg.JobFile))
		os.Exit(1)
	}

	p, err := pipeline.FromSpec(spec, pipeline.Options{Workers: cfg.WorkerCount})
	if err != nil {
		logging.Error("Failed to build pipeline", err, logging.String("job", spec.Name))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := p.Run(ctx)
	if err != nil {
		logging.Error("Pipeline run failed", err, logging.String("job", spec.Name))
		logging.MustSync()
		os.Exit(1)
	}

	logging.Info("Done",
		logging.String("run_id", result.RunID),
		logging.Int("rows", result.Rows),
		logging.Any("outputs", result.Outputs),
	)
}
