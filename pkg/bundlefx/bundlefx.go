// bundlefx/bundlefx.go
package bundlefx

import (
	"github.com/joeydtaylor/tokenfactory/pkg/middleware/logger"
	"github.com/joeydtaylor/tokenfactory/pkg/middleware/metrics"
	"go.uber.org/fx"
)

// Module provides the system logger, the access-log middleware and the named
// "metrics" handler.
var Module = fx.Options(
	logger.Module,
	metrics.Module,
)
