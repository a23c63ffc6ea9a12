package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gyaneshwarpardhi/notifyflow/internal/api"
	"github.com/gyaneshwarpardhi/notifyflow/internal/config"
	"github.com/gyaneshwarpardhi/notifyflow/internal/consumer"
	"github.com/gyaneshwarpardhi/notifyflow/internal/dispatch"
	"github.com/gyaneshwarpardhi/notifyflow/internal/engine"
	"github.com/gyaneshwarpardhi/notifyflow/internal/maintenance"
	"github.com/gyaneshwarpardhi/notifyflow/internal/preference"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/notifyflow.yaml", "Path to notifyflow YAML config")
	flag.Parse()

	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Store ────────────────────────────────────────────────────────────────
	var rdb *redis.Client
	if cfg.Store.RedisAddr != "" {
		rdb = newRedis(ctx, cfg.Store.RedisAddr)
		defer rdb.Close()
	}
	st, err := buildStore(ctx, cfg.Store, rdb)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	// ── Channels ─────────────────────────────────────────────────────────────
	channels := buildChannels(ctx, cfg.Channels, rdb)
	slog.Info("channels registered", "channels", channels.Channels())

	// ── Engine ───────────────────────────────────────────────────────────────
	reg := cfg.Registry()
	slog.Info("template registry built", "templates", reg.Len())
	warnUnrouted(reg, channels)

	d := dispatch.New(channels, st, dispatch.Config{
		ChannelTimeout: cfg.Engine.ChannelTimeout(),
		Directory:      dispatch.StaticDirectory(cfg.Directory),
	})
	eng := engine.New(ctx, reg, d, st, preference.Filter{WrapQuietHours: cfg.Preferences.WrapQuietHours}, cfg.Engine)

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		newReg := newCfg.Registry()
		eng.SwapRegistry(newReg)
		warnUnrouted(newReg, channels)
		eng.SetFilter(preference.Filter{WrapQuietHours: newCfg.Preferences.WrapQuietHours})
		slog.Info("templates hot-reloaded", "templates", newReg.Len())
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── Event sources ────────────────────────────────────────────────────────
	srcCtx, stopSources := context.WithCancel(ctx)
	var sources sync.WaitGroup
	if cfg.Kafka.Enabled {
		kc, err := consumer.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, eng)
		if err != nil {
			slog.Error("failed to create kafka consumer", "err", err)
			os.Exit(1)
		}
		sources.Add(1)
		go func() {
			defer sources.Done()
			defer kc.Close()
			if err := kc.Run(srcCtx); err != nil {
				slog.Error("kafka consumer stopped", "err", err)
			}
		}()
	}
	var nc *consumer.NATS
	if cfg.NATS.Enabled {
		nc, err = consumer.NewNATS(cfg.NATS.URL, cfg.NATS.Subject, cfg.NATS.Queue, eng)
		if err != nil {
			slog.Error("failed to subscribe to nats", "err", err)
			os.Exit(1)
		}
	}

	// ── Retention job ────────────────────────────────────────────────────────
	pruner, err := maintenance.NewPruner(st, cfg.Store.Retention(), cfg.Store.PruneSchedule)
	if err != nil {
		slog.Error("failed to schedule retention job", "err", err)
		os.Exit(1)
	}
	pruner.Start()

	// ── HTTP server ──────────────────────────────────────────────────────────
	handler := api.New(eng, st, loader)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)

	stopSources()
	sources.Wait()
	if nc != nil {
		if err := nc.Close(); err != nil {
			slog.Warn("nats drain failed", "err", err)
		}
	}

	eng.Shutdown() // drain queued events
	pruner.Stop()
	cancel()
	slog.Info("goodbye")
}
