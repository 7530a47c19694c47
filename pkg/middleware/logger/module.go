package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(ProvideLoggerMiddleware),
	fx.Provide(ProvideLogger),
	fx.Invoke(syncOnStop),
)

func syncOnStop(lc fx.Lifecycle, l *zap.Logger) {
	lc.Append(fx.StopHook(func() { _ = l.Sync() }))
}
