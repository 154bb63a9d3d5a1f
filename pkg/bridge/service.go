// Package bridge serves the REST surface that forwards requests to a Telegram
// user-account client.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"tgbridge/pkg/config"
	"tgbridge/pkg/staging"
	"tgbridge/pkg/telegram"

	"github.com/go-co-op/gocron/v2"
	"github.com/go-playground/validator/v10"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 5 * time.Second
	probeJobName      = "telegram-ping"
)

// Service owns the HTTP server and the shared client it forwards to.
type Service struct {
	cfg      *config.Config
	log      *slog.Logger
	client   telegram.Client
	uploads  *staging.Area
	validate *validator.Validate
	handler  http.Handler

	reachable atomic.Bool
}

// NewService wires a client into a ready-to-run service.
func NewService(cfg *config.Config, client telegram.Client, uploads *staging.Area, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if client == nil {
		return nil, errors.New("telegram client is required")
	}
	if uploads == nil {
		return nil, errors.New("upload staging area is required")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		cfg:      cfg,
		log:      log.With("component", "bridge.service"),
		client:   client,
		uploads:  uploads,
		validate: newValidator(),
	}
	s.reachable.Store(client.Connected())
	s.handler = s.routes(log.With("component", "bridge.http"))

	return s, nil
}

// Handler returns the router with all middleware applied.
func (s *Service) Handler() http.Handler {
	return s.handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	scheduler, err := s.startProbe(ctx)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				s.log.Warn("Failed to stop connection probe", "error", err)
			}
		}()
	}

	addr := s.cfg.Server.Address()
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("Bridge server started", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("start bridge server: %w", err)
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown bridge server: %w", err)
	}
	s.log.Info("Bridge server stopped")

	return nil
}

// startProbe schedules a periodic ping of the client. It returns nil when the
// probe is disabled.
func (s *Service) startProbe(ctx context.Context) (gocron.Scheduler, error) {
	interval := time.Duration(s.cfg.Server.ProbeIntervalSeconds) * time.Second
	if interval <= 0 {
		return nil, nil
	}

	probeLog := s.log.With("component", "bridge.probe")
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(probeLog),
	)
	if err != nil {
		return nil, fmt.Errorf("create probe scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			pingCtx, cancel := context.WithTimeout(ctx, interval)
			defer cancel()
			s.probe(pingCtx, probeLog)
		}),
		gocron.WithName(probeJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("schedule connection probe: %w", err)
	}

	scheduler.Start()
	probeLog.Debug("Connection probe scheduled", "interval", interval)
	return scheduler, nil
}

// probe pings the client once and logs when reachability changes.
func (s *Service) probe(ctx context.Context, log *slog.Logger) {
	err := s.client.Ping(ctx)
	ok := err == nil
	if previous := s.reachable.Swap(ok); previous == ok {
		return
	}

	if ok {
		log.Info("Telegram connection restored")
		return
	}
	log.Warn("Telegram connection lost", "kind", telegram.KindOf(err), "error", err)
}
