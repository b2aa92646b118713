package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/spf13/viper"
	"github.com/vgccalc/vgccalc/internal/cache"
	"github.com/vgccalc/vgccalc/internal/config"
	"github.com/vgccalc/vgccalc/internal/dex"
	"github.com/vgccalc/vgccalc/internal/dispatcher"
	"github.com/vgccalc/vgccalc/internal/fetcher"
	"github.com/vgccalc/vgccalc/internal/handlers"
	"github.com/vgccalc/vgccalc/internal/influx"
	"github.com/vgccalc/vgccalc/internal/logging"
	"github.com/vgccalc/vgccalc/internal/monitor"
	intOtel "github.com/vgccalc/vgccalc/internal/otel"
	"github.com/vgccalc/vgccalc/internal/server"
	"github.com/vgccalc/vgccalc/internal/storage"
	"github.com/vgccalc/vgccalc/pkg/core"
)

// app owns every long-lived component of one run.
type app struct {
	sessionStart time.Time
	serverCfg    config.ServerConfig
	storageType  string

	logManager *logging.SlogManager
	logger     *slog.Logger
	logFile    *os.File
	gelf       *gelf.Writer
	otel       *intOtel.Provider
	influx     *influx.Manager

	storage    storage.Backend
	dexCache   *cache.DexCache
	fetcher    *fetcher.Client
	monitor    *monitor.Service
	dispatcher *dispatcher.Dispatcher
	server     *server.Server
}

type appOptions struct {
	// AsyncRefresh allows refresh tools to be queued. One-shot commands
	// turn it off so they print the real result.
	AsyncRefresh bool
}

// newApp builds the app from the loaded config. On error, whatever was
// already opened is closed.
func newApp(ctx context.Context, opts appOptions) (a *app, err error) {
	a = &app{
		sessionStart: time.Now(),
		serverCfg:    config.GetServerConfig(),
		storageType:  config.GetStorageConfig().Type,
		logManager:   logging.NewSlogManager(),
	}
	defer func() {
		if err != nil {
			a.close()
			a = nil
		}
	}()

	a.setupLogging()

	storageCfg := config.GetStorageConfig()
	a.storage, err = createStorageBackend(storageCfg, a.logManager)
	if err != nil {
		return a, err
	}
	if err = a.storage.Init(); err != nil {
		a.logger.Error("Failed to initialize storage backend", "error", err)
		return a, fmt.Errorf("failed to initialize %s storage: %w", storageCfg.Type, err)
	}

	a.dexCache = cache.NewDexCache()
	resolver := dex.NewResolver(a.storage, a.dexCache, a.logger)
	seeded, err := resolver.EnsureSeeded()
	if err != nil {
		return a, fmt.Errorf("failed to seed pokedex: %w", err)
	}
	if seeded {
		a.logger.Info("Pokedex seeded from embedded data")
	}

	a.fetcher = fetcher.New(config.GetFetchConfig(), a.logger)
	a.setupInflux(ctx)

	a.monitor = monitor.NewService(monitor.Dependencies{
		Storage:     a.storage,
		StorageType: a.storageType,
		LogManager:  a.logManager,
		DexCache:    a.dexCache,
		Version:     Version,
		StatusFile:  viper.GetString("monitor.statusFile"),
		Interval:    viper.GetDuration("monitor.interval"),
		Breakers:    a.fetcher.States,
	})

	a.dispatcher, err = dispatcher.New(a.logger)
	if err != nil {
		return a, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	a.dispatcher.SetConcurrency(a.serverCfg.BatchConcurrency)
	a.dispatcher.SetTimeout(a.serverCfg.Timeout)
	a.dispatcher.Observe(a.monitor.Observe)
	a.dispatcher.Observe(func(rec core.CallRecord) {
		if err := a.storage.RecordCall(rec); err != nil {
			a.logger.Warn("Failed to record call", "tool", rec.Tool, "error", err)
		}
	})
	if a.otel != nil {
		cm, err := a.otel.CallMetrics()
		if err != nil {
			a.logger.Warn("Failed to create call metrics", "error", err)
		} else {
			a.dispatcher.Observe(cm.Observe)
		}
	}
	if a.influx != nil {
		a.dispatcher.Observe(func(rec core.CallRecord) {
			if err := a.influx.RecordCall(rec); err != nil {
				a.logger.Debug("Failed to write call point", "error", err)
			}
		})
	}

	elo := viper.GetInt("elo")
	handlers.NewService(handlers.Dependencies{
		Resolver:      resolver,
		Storage:       a.storage,
		Fetcher:       a.fetcher,
		Monitor:       a.monitor,
		LogManager:    a.logManager,
		DefaultFormat: viper.GetString("format"),
		DefaultElo:    &elo,
	}).Register(a.dispatcher, handlers.Options{
		AsyncRefresh: opts.AsyncRefresh && viper.GetBool("server.asyncRefresh"),
		QueueSize:    viper.GetInt("server.queueSize"),
	})
	a.logger.Info("Tools registered", "count", len(a.dispatcher.Tools()))

	a.server = server.New(a.dispatcher, a.serverCfg, a.logger)
	return a, nil
}

// setupLogging opens the session log file, then the optional GELF and OTel
// outputs, and installs them all. Failures fall back to the console.
func (a *app) setupLogging() {
	level := viper.GetString("logLevel")
	a.logManager.Setup(logging.Options{Level: level})
	a.logger = a.logManager.Logger()

	var fileWriter io.Writer
	if logsDir := viper.GetString("logsDir"); logsDir != "" {
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			a.logger.Error("Failed to create logs directory", "path", logsDir, "error", err)
		} else {
			path := logging.LogFilePath(logsDir, appName, a.sessionStart)
			if _, err := os.Stat(path); err == nil {
				_ = os.Rename(path, path+".old")
			}
			f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
			if err != nil {
				a.logger.Error("Failed to create/open log file", "path", path, "error", err)
			} else {
				a.logFile = f
				fileWriter = f
			}
		}
	}

	var graylog io.Writer
	if gc := config.GetGraylogConfig(); gc.Enabled {
		w, err := logging.NewGelfWriter(gc.Address, appName)
		if err != nil {
			a.logger.Error("Failed to connect to Graylog", "address", gc.Address, "error", err)
		} else {
			a.gelf = w
			graylog = w
		}
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		p, err := intOtel.New(intOtel.ConfigFrom(otelCfg, fileWriter, Version))
		if err != nil {
			a.logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			a.otel = p
		}
	}

	opts := logging.Options{
		File:        fileWriter,
		Level:       level,
		Graylog:     graylog,
		ServiceName: otelCfg.ServiceName,
		Context: func() []slog.Attr {
			return []slog.Attr{slog.String("storage", a.storageType)}
		},
	}
	if a.otel != nil {
		opts.Provider = a.otel.LoggerProvider()
	}
	a.logManager.Setup(opts)
	a.logger = a.logManager.Logger()
	if a.logFile != nil {
		a.logger.Info("Logging to file", "path", a.logFile.Name())
	}
}

// setupInflux connects the metrics sink and reports fetches to it. A
// disabled sink leaves a.influx nil.
func (a *app) setupInflux(ctx context.Context) {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return
	}
	backup := filepath.Join(viper.GetString("logsDir"), fmt.Sprintf("%s_influx_%s.lp.gz", appName, a.sessionStart.Format("20060102_150405")))
	m := influx.NewManager(cfg, a.logger, backup)
	if err := m.Connect(ctx); err != nil {
		a.logger.Error("Failed to set up InfluxDB", "error", err)
		return
	}
	a.influx = m
	a.fetcher.SetObserver(func(service string, ok bool, d time.Duration) {
		if err := m.WritePoint(influx.FetchPoint(service, ok, d, time.Now())); err != nil {
			a.logger.Debug("Failed to write fetch point", "error", err)
		}
	})
}

// close shuts components down in dependency order: queued calls finish
// before storage closes, and logs flush last.
func (a *app) close() {
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.monitor != nil {
		a.monitor.Stop()
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Error("Failed to close storage", "error", err)
		}
	}
	if a.influx != nil {
		if err := a.influx.Close(); err != nil {
			a.logger.Error("Failed to close InfluxDB", "error", err)
		}
	}
	if a.logger != nil {
		a.logger.Info("Shutdown complete", "uptime", time.Since(a.sessionStart).Round(time.Millisecond).String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.logManager.Flush(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", err)
	}
	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to shut down OTel: %v\n", err)
		}
	}
	if a.gelf != nil {
		_ = a.gelf.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
