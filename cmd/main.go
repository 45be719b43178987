package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"

	"cutboard/pkg/app"
	"cutboard/pkg/config"
	"cutboard/pkg/inference"
	"cutboard/pkg/logging"
	"cutboard/pkg/queue"
	"cutboard/pkg/server"
	"cutboard/pkg/templates"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer done()

	opts := config.FromEnv()
	logger, logFile := logging.Setup(logging.Options{Level: opts.LogLevel, Format: opts.LogFormat, File: opts.LogFile}, os.Stderr)
	defer logFile.Close()

	creds, err := config.CredentialsFor(opts.Credentials)
	if err != nil {
		log.Fatal("credentials", "error", err)
	}
	cfg, err := config.Open(opts.ConfigDir, creds)
	if err != nil {
		log.Fatal("config", "error", err)
	}
	tmpl, err := templates.Open(opts.ConfigDir)
	if err != nil {
		log.Fatal("templates", "error", err)
	}
	log.Info("loaded settings", "dir", opts.ConfigDir, "templates", len(tmpl.Names()), "credentials", opts.Credentials)
	for _, name := range config.KeyNames {
		if !cfg.HasKey(name) {
			log.Warn("api key not configured; dependent endpoints answer 412 until it is set", "key", name)
		}
	}

	loop := app.NewLoop(nil, 64)
	go loop.Run(ctx)

	q := queue.New(opts.QueueSize, opts.Workers)
	q.Start(ctx)

	backends := &server.KeyedBackends{Config: cfg, Provider: opts.TextProvider, TextModel: opts.TextModel}
	srv := server.NewServer(ctx, loop, q, tmpl, cfg, backends)
	srv.Pacing = opts.Pacing
	if opts.ImageModel != "" {
		if srv.ImageModel, err = inference.ParseImageModel(opts.ImageModel); err != nil {
			log.Warn("ignoring image model", "error", err, "using", inference.DefaultImageModel)
			srv.ImageModel = inference.DefaultImageModel
		}
	}
	srv.Echo.Logger.SetLevel(logging.EchoLevel(logger.GetLevel()))

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "error", err)
		}
		q.Stop()
		<-loop.Done()
		close(finishedShutDown)
	}()

	if err := srv.Start(":" + opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "error", err)
		done()
	}
	<-finishedShutDown
}
