package daemon

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/matheus3301/wppmcp/internal/bridge"
	"github.com/matheus3301/wppmcp/internal/config"
	"github.com/matheus3301/wppmcp/internal/logging"
	"github.com/matheus3301/wppmcp/internal/paths"
	"github.com/matheus3301/wppmcp/internal/query"
	"github.com/matheus3301/wppmcp/internal/roster"
	"github.com/matheus3301/wppmcp/internal/store"
	"github.com/matheus3301/wppmcp/internal/tools"
)

// Params holds the resolved configuration passed to the fx module.
type Params struct {
	Config  *config.Config
	Version string
	LockDir string // optional override for testing; empty = use default
}

// Module returns the fx module for the server, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Options(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Module("wppmcp",
			fx.Supply(p),
			fx.Provide(
				provideLogger,
				provideStore,
				provideRoster,
				provideQueryService,
				provideBridge,
				provideTools,
				NewHTTPServer,
			),
			fx.Invoke(registerLifecycle),
		),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(p.Config.LogFile, p.Config.LogLevel, p.Config.Transport)
}

func provideStore(lc fx.Lifecycle, p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := p.Config.MessagesDB
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	lc.Append(fx.StopHook(db.Close))
	return db, nil
}

func provideRoster(lc fx.Lifecycle, p Params, logger *zap.Logger) (*roster.Roster, error) {
	r, err := roster.Open(p.Config.WhatsAppDB)
	if err != nil {
		return nil, err
	}
	logger.Info("roster opened", zap.String("path", p.Config.WhatsAppDB))
	lc.Append(fx.StopHook(r.Close))
	return r, nil
}

func provideQueryService(db *store.DB, r *roster.Roster, logger *zap.Logger) *query.Service {
	return query.NewService(db, r, logger.Named("query"))
}

func provideBridge(p Params, logger *zap.Logger) *bridge.Client {
	logger.Info("bridge configured",
		zap.String("url", p.Config.BridgeURL),
		zap.Bool("api_key", p.Config.APIKey != ""))
	return bridge.New(p.Config.BridgeOptions(), logger.Named("bridge"))
}

func provideTools(p Params, q *query.Service, b *bridge.Client, logger *zap.Logger) *tools.Server {
	return tools.NewServer(q, b, logger.Named("tools"), p.Version)
}

func registerLifecycle(lc fx.Lifecycle, sd fx.Shutdowner, p Params, ts *tools.Server, hs *HTTPServer, logger *zap.Logger) {
	if p.Config.Transport == config.TransportHTTP {
		lockDir := p.LockDir
		if lockDir == "" {
			lockDir = paths.LockDir()
		}
		lc.Append(fx.Hook{
			OnStart: func(_ context.Context) error {
				if err := hs.Start(lockDir, func(err error) {
					logger.Error("http server error", zap.Error(err))
					_ = sd.Shutdown(fx.ExitCode(1))
				}); err != nil {
					return err
				}
				logger.Info("wppmcp serving", zap.String("addr", hs.Addr()))
				return nil
			},
			OnStop: func(ctx context.Context) error {
				hs.Stop(ctx)
				logger.Info("wppmcp stopped")
				return nil
			},
		})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				err := ts.RunStdio(ctx)
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("stdio session ended", zap.Error(err))
					_ = sd.Shutdown(fx.ExitCode(1))
					return
				}
				logger.Info("stdio client disconnected")
				_ = sd.Shutdown()
			}()
			logger.Info("wppmcp serving on stdio", zap.Int("tools", len(ts.ToolNames())))
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			logger.Info("wppmcp stopped")
			return nil
		},
	})
}
