// Command coherence-notifier consumes entity mutation events from Redis
// Pub/Sub and deletes the cache keys they make stale.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	coherence "github.com/huykn/cache-coherence"
	"github.com/huykn/cache-coherence/cache"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "coherence-notifier").Logger()

	s, err := loadSettings(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if s.Notifier.DebugMode {
		level = zerolog.DebugLevel
	}
	log = log.Level(level)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cfg := s.Notifier
	cfg.Logger = cache.NewZerologLogger(log)
	cfg.EnableMetrics = true
	cfg.Registerer = registry
	cfg.OnError = func(err error) {
		log.Debug().Err(err).Msg("invalidation error")
	}

	n, err := coherence.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start notifier")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	}))
	srv := &http.Server{
		Addr:              s.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", s.MetricsAddr).Msg("metrics server stopped")
		}
	}()

	info := coherence.GetVersionInfo()
	log.Info().
		Str("version", info.Version).
		Str("pod", n.PodID()).
		Str("entity", cfg.EntityType).
		Str("metrics", s.MetricsAddr).
		Msg("coherence notifier running")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server shutdown")
	}
	if err := n.Close(); err != nil {
		log.Error().Err(err).Msg("notifier close")
	}

	st := n.Stats().Subscriber
	log.Info().
		Int64("events", st.Events).
		Int64("keysDeleted", st.KeysDeleted).
		Int64("deleteErrors", st.DeleteErrors).
		Msg("stopped")
}
