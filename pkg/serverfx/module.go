package serverfx

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/joeydtaylor/tokenfactory/pkg/bundlefx"
	"github.com/joeydtaylor/tokenfactory/pkg/config"
	"github.com/joeydtaylor/tokenfactory/pkg/core"
	"github.com/joeydtaylor/tokenfactory/pkg/devissuer"
	"github.com/joeydtaylor/tokenfactory/pkg/holder"
	"github.com/joeydtaylor/tokenfactory/pkg/hook"
	"github.com/joeydtaylor/tokenfactory/pkg/middleware/logger"
	"github.com/joeydtaylor/tokenfactory/pkg/provider"
	"github.com/joeydtaylor/tokenfactory/pkg/schema"
	"github.com/joeydtaylor/tokenfactory/pkg/transport/httpx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ---------- Options ----------

type Config struct {
	Service       string // for logs only
	ConfigEnv     string // TOKENFACTORY_CONFIG
	DefaultConfig string // tokenfactory.toml
	ListenEnv     string // SERVER_LISTEN_ADDRESS
	DefaultListen string
	TLSCertEnv    string // SSL_SERVER_CERTIFICATE
	TLSKeyEnv     string // SSL_SERVER_KEY
}

type Option func(*Config)

func WithService(s string) Option          { return func(c *Config) { c.Service = s } }
func WithConfigEnv(k string) Option        { return func(c *Config) { c.ConfigEnv = k } }
func WithDefaultConfig(path string) Option { return func(c *Config) { c.DefaultConfig = path } }
func WithListenEnv(k string) Option        { return func(c *Config) { c.ListenEnv = k } }
func WithTLSCertKeyEnv(cert, key string) Option {
	return func(c *Config) { c.TLSCertEnv, c.TLSKeyEnv = cert, key }
}

func defaultConfig() Config {
	return Config{
		Service:       "tokenfactory",
		ConfigEnv:     config.EnvConfigPath,
		DefaultConfig: config.DefaultPath,
		ListenEnv:     "SERVER_LISTEN_ADDRESS",
		DefaultListen: ":4000",
		TLSCertEnv:    "SSL_SERVER_CERTIFICATE",
		TLSKeyEnv:     "SSL_SERVER_KEY",
	}
}

// App is what a service contributes: the generation schema and, optionally, a way
// to read the raw token out of the response for expiry logging.
type App[T any] struct {
	Schema   *schema.Generation[T]
	RawToken func(T) string
}

// Module returns a complete Fx option set for a service whose token response type is T.
func Module[T any](app App[T], opts ...Option) fx.Option {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return fx.Options(
		bundlefx.Module,
		fx.Supply(cfg),
		fx.Supply(app),

		fx.Provide(provideSettings),
		fx.Provide(provideURLSource),
		fx.Provide(fx.Annotate(provideExchanger, fx.As(new(httpx.Exchanger)))),
		fx.Provide(httpx.NewChi),

		fx.Provide(holder.New[T]),
		fx.Provide(provideProvider[T]),
		fx.Provide(provideHook[T]),

		fx.Provide(fx.Annotate(
			provideRouter[T],
			fx.ParamTags(``, ``, ``, ``, `name:"metrics"`, ``, ``, ``),
			fx.ResultTags(`name:"app"`),
		)),

		fx.Invoke(registerHooks),
	)
}

// ---------- Providers ----------

func provideSettings(cfg Config, zl *zap.Logger) (config.Settings, error) {
	path := envOr(cfg.ConfigEnv, cfg.DefaultConfig)
	s, err := config.LoadOptional(path)
	if err != nil {
		zl.Error("settings load failed", zap.Error(err), zap.String("path", path))
		return config.Settings{}, err
	}
	return s, nil
}

// provideURLSource prefers the environment, then the settings file, both read per call.
func provideURLSource(cfg Config) config.URLSource {
	return config.FirstOf(
		config.EnvURL{},
		config.FileURL{Path: envOr(cfg.ConfigEnv, cfg.DefaultConfig)},
	)
}

func provideExchanger(s config.Settings) *httpx.Client {
	return httpx.NewClient(
		httpx.NewHTTPClient(s.Token.Timeout()),
		httpx.WithRateLimit(s.Token.RateLimitRPS, s.Token.RateBurst),
	)
}

func provideProvider[T any](urls config.URLSource, ex httpx.Exchanger, zl *zap.Logger) *provider.Provider[T] {
	return provider.New[T](urls, ex, zl)
}

func provideHook[T any](app App[T], p *provider.Provider[T], slot *holder.Slot[T], zl *zap.Logger) *hook.Hook[T] {
	var opts []hook.Option[T]
	if app.RawToken != nil {
		opts = append(opts, hook.WithRawToken(app.RawToken))
	}
	return hook.New[T](p, app.Schema, slot, zl, opts...)
}

// ---------- Router ----------

func provideRouter[T any](
	s config.Settings,
	h *hook.Hook[T],
	slot *holder.Slot[T],
	lm *logger.Middleware,
	/* name:"metrics" */ m http.Handler,
	r httpx.Router,
	cfg Config,
	zl *zap.Logger,
) http.Handler {
	d := core.BuildDeps{
		LogMW:   lm,
		Metrics: m,
		Router:  r,
		Status:  slot,
		Refresh: h.Middleware(),
		Token:   core.SnapshotHandler(slot),
	}
	if s.DevIssuer.Enabled {
		zl.Warn("dev token issuer enabled", zap.String("service", cfg.Service), zap.String("path", s.DevIssuer.Path))
		d.DevIssuer = devissuer.New(s.DevIssuer.Secret, time.Duration(s.DevIssuer.TTLSeconds)*time.Second)
		d.DevIssuerPath = s.DevIssuer.Path
	}
	return core.BuildRouter(s, d)
}

// ---------- Lifecycle ----------

type serverDeps struct {
	fx.In
	Cfg      Config
	Settings config.Settings
	Logger   *zap.Logger
	App      http.Handler `name:"app"`
}

func registerHooks(lc fx.Lifecycle, d serverDeps) {
	addr := envOr(d.Cfg.ListenEnv, orDefault(d.Settings.Server.Listen, d.Cfg.DefaultListen))
	cert := envOr(d.Cfg.TLSCertEnv, d.Settings.Server.TLSCert)
	key := envOr(d.Cfg.TLSKeyEnv, d.Settings.Server.TLSKey)

	srv := &http.Server{
		Addr:         addr,
		Handler:      d.App,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		TLSConfig:    &tls.Config{MinVersion: tls.VersionTLS13, MaxVersion: tls.VersionTLS13},
	}
	useTLS := fileExists(cert) && fileExists(key)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if useTLS {
				d.Logger.Info("server starting (TLS)",
					zap.String("service", d.Cfg.Service),
					zap.String("addr", addr),
					zap.String("cert", cert),
				)
				go func() {
					if err := srv.ListenAndServeTLS(cert, key); err != nil && !errors.Is(err, http.ErrServerClosed) {
						d.Logger.Fatal("server failed", zap.Error(err))
					}
				}()
			} else {
				d.Logger.Info("server starting (PLAINTEXT)",
					zap.String("service", d.Cfg.Service),
					zap.String("addr", addr),
				)
				go func() {
					srv.TLSConfig = nil
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						d.Logger.Fatal("server failed", zap.Error(err))
					}
				}()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Logger.Info("server stopping", zap.String("service", d.Cfg.Service))
			return srv.Shutdown(ctx)
		},
	})
}

// ---------- tiny helpers ----------

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
