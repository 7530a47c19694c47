package logger

import "go.uber.org/zap"

func ProvideLoggerMiddleware() *Middleware { return &Middleware{} }

// ProvideLogger is the application logger; provider and hook failures land here.
func ProvideLogger() *zap.Logger { return NewLog("system.log") }
