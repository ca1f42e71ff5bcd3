package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohammed-shakir/cs-wkt/internal/cache"
	"github.com/mohammed-shakir/cs-wkt/internal/cache/redisstore"
	"github.com/mohammed-shakir/cs-wkt/internal/core/config"
	"github.com/mohammed-shakir/cs-wkt/internal/core/health"
	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
	"github.com/mohammed-shakir/cs-wkt/internal/core/observability"
	"github.com/mohammed-shakir/cs-wkt/internal/core/server"
	"github.com/mohammed-shakir/cs-wkt/internal/dictionary"
	"github.com/mohammed-shakir/cs-wkt/internal/invalidation/kafkaconsumer"
	"github.com/mohammed-shakir/cs-wkt/internal/logger"
	"github.com/mohammed-shakir/cs-wkt/internal/metrics"
	"github.com/mohammed-shakir/cs-wkt/internal/namemap"
	"github.com/mohammed-shakir/cs-wkt/internal/service"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: "cswkt-server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting cswkt server",
		"addr", cfg.Addr,
		"version", Version,
		"default_flavor", cfg.DefaultFlavor,
		"cache", cfg.Cache.Enabled,
		"redis", cfg.Cache.RedisEnabled,
		"invalidation", cfg.Invalidation.Enabled)

	defaultFlavor, err := model.ParseFlavor(cfg.DefaultFlavor)
	if err != nil {
		appLog.Error("invalid DEFAULT_FLAVOR", "err", err)
		return 1
	}

	dict, err := loadDictionary(cfg.DictionaryPath)
	if err != nil {
		appLog.Error("dictionary load failed", "path", cfg.DictionaryPath, "err", err)
		return 1
	}
	names := namemap.NewRegistry(cfg.NameMapPath)
	// Build eagerly so a broken table shows up at startup, not on first request.
	if m, err := names.Get(); err != nil {
		appLog.Error("name map load failed", "path", cfg.NameMapPath, "err", err)
	} else {
		observability.SetNameMapEntries(m.Len())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]health.Check{}

	var tiered *cache.Tiered
	if cfg.Cache.Enabled {
		var store cache.Store
		if cfg.Cache.RedisEnabled {
			rc, err := redisstore.New(ctx, cfg.Cache.RedisAddr,
				redisstore.WithPoolSize(cfg.Cache.RedisPool),
				redisstore.WithMinIdleConns(cfg.Cache.RedisMinIdle),
				redisstore.WithDialTimeout(2*cfg.Cache.RedisTimeout),
				redisstore.WithReadTimeout(cfg.Cache.RedisTimeout),
				redisstore.WithWriteTimeout(cfg.Cache.RedisTimeout),
			)
			if err != nil {
				appLog.Error("redis unavailable", "addr", cfg.Cache.RedisAddr, "err", err)
				return 1
			}
			defer func() { _ = rc.Close() }()
			store = rc
			checks["redis"] = rc.Ping
		}
		tiered, err = cache.New(store, cache.Options{
			LRUSize:   cfg.Cache.LRUSize,
			OpTimeout: cfg.Cache.OpTimeout,
			Logger:    appLog,
		})
		if err != nil {
			appLog.Error("cache init failed", "err", err)
			return 1
		}
		if err := tiered.Sync(ctx); err != nil {
			appLog.Warn("initial cache generation sync failed", "err", err)
		}
		go tiered.RunSync(ctx, cfg.Cache.GenSync)
	}

	tr := service.New(names, dict, tiered, appLog, service.Options{
		DefaultFlavor:     defaultFlavor,
		AllowSubstitution: cfg.AllowSubstitution,
		TTL:               cfg.Cache.TTLFor,
	})
	checks["namemap"] = tr.Ready

	var consumer *kafkaconsumer.Consumer
	if cfg.Invalidation.Enabled {
		if tiered == nil {
			appLog.Warn("invalidation enabled without a cache; events update the dictionary only")
			t, err := cache.New(nil, cache.Options{LRUSize: 1})
			if err != nil {
				appLog.Error("cache init failed", "err", err)
				return 1
			}
			tiered = t
		}
		consumerLog := zl.With().Str("component", "kafka_consumer").Logger()
		consumer = kafkaconsumer.New(
			kafkaconsumer.FromConfig(cfg.Invalidation),
			appLog,
			tiered,
			kafkaconsumer.WithDictionary(dict),
			kafkaconsumer.WithNameMap(names),
			kafkaconsumer.WithZerolog(&consumerLog),
		)
		checks["kafka"] = health.ConsumerCheck(consumer)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("invalidation consumer stopped", "err", err)
			}
		}()
	}

	if cfg.Metrics.Enabled {
		p := metrics.Init(metrics.Config{
			Enabled: true,
			Addr:    cfg.Metrics.Addr,
			Path:    cfg.Metrics.Path,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		observability.Init(p.Registerer(), true)
		if srv := p.Server(); srv != nil {
			go func() {
				appLog.Info("metrics listen", "addr", cfg.Metrics.Addr, "path", cfg.Metrics.Path)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					appLog.Error("metrics server exited", "err", err)
				}
			}()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}
	}

	deps := server.Deps{Translator: tr, Checks: checks}
	if consumer != nil {
		deps.Consumer = consumer
	}
	if err := server.Run(ctx, cfg, appLog, deps); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

func loadDictionary(path string) (*dictionary.Store, error) {
	if path == "" {
		return dictionary.Default()
	}
	return dictionary.LoadFile(path)
}
