package metrics

import "go.uber.org/fx"

// Module provides the /metrics handler under the name "metrics".
var Module = fx.Options(
	fx.Provide(fx.Annotate(ProvideMetrics, fx.ResultTags(`name:"metrics"`))),
)
