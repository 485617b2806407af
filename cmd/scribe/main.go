// Command scribe runs the recording and transcription pipeline service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/skillsenselab/scribe/internal/api"
	"github.com/skillsenselab/scribe/internal/config"
	"github.com/skillsenselab/scribe/internal/device"
	"github.com/skillsenselab/scribe/internal/format"
	"github.com/skillsenselab/scribe/internal/logger"
	"github.com/skillsenselab/scribe/internal/observability"
	"github.com/skillsenselab/scribe/internal/queue"
	"github.com/skillsenselab/scribe/internal/recorder"
	"github.com/skillsenselab/scribe/internal/server"
	"github.com/skillsenselab/scribe/internal/server/endpoint"
	"github.com/skillsenselab/scribe/internal/store"
	"github.com/skillsenselab/scribe/internal/transcriber"
	"github.com/skillsenselab/scribe/internal/version"
)

const serviceName = "scribe"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config.Config
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Logging)
	log := logger.New(&cfg.Logging, serviceName)
	logger.SetGlobalLogger(log)

	log.Info("Starting scribe", map[string]interface{}{
		"version": version.Version,
		"commit":  version.Commit,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := observability.Init(ctx, serviceName, cfg.Observability)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	if providers != nil {
		defer func() {
			if err := providers.Shutdown(context.Background()); err != nil {
				log.Warn("Observability shutdown failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}()
	}
	metrics, err := observability.NewPipeline()
	if err != nil {
		return fmt.Errorf("init pipeline metrics: %w", err)
	}

	st, err := store.New(cfg.Storage.OutputDir, log)
	if err != nil {
		return fmt.Errorf("init artifact store: %w", err)
	}

	devices := device.NewPortAudioRegistry()
	rec := recorder.New(recorder.NewPortAudioCapture(), st, cfg.Audio, log, metrics)
	norm := format.New(cfg.Formats, log)
	provider := transcriber.NewWhisperProvider(cfg.Transcription, log)
	disp := transcriber.NewDispatcher(provider, st, cfg.Transcription, log, metrics)
	q := queue.New(st, norm, disp, log, metrics)

	srv := server.New(cfg.Server, log)
	srv.ApplyDefaults(serviceName, healthChecker(provider))
	api.New(devices, rec, norm, disp, q, st, log).Register(srv.GinEngine())

	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("Shutdown signal received")

	// Flush an in-flight recording before the server goes away so the
	// captured audio is not lost.
	if rec.Status().State == recorder.StateRecording {
		if result, err := rec.Stop(context.Background()); err == nil {
			log.Info("Flushed in-flight recording", map[string]interface{}{
				logger.FieldPath: result.Path,
			})
		}
	}

	return srv.Stop(context.Background())
}

func healthChecker(provider transcriber.Provider) endpoint.HealthChecker {
	return func(ctx context.Context) []endpoint.ComponentHealth {
		engine := endpoint.ComponentHealth{
			Name:   provider.Name(),
			Status: endpoint.StatusHealthy,
		}
		if !provider.IsAvailable(ctx) {
			engine.Status = endpoint.StatusDegraded
			engine.Message = "transcription engine is unreachable"
		}
		return []endpoint.ComponentHealth{engine}
	}
}
