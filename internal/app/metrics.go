package app

import (
	"log"
	"net/http"

	"csvdataset/internal/config"
	"csvdataset/internal/metrics"
	"csvdataset/internal/metrics/datadog"
	"csvdataset/internal/metrics/prompush"
)

// SetupMetrics installs the backend selected by cfg. The returned handler
// serves the Prometheus registry and is nil for other backends. The returned
// function flushes and releases the backend; it is never nil.
//
// A backend that fails to start is logged and metrics stay disabled.
func SetupMetrics(cfg config.Metrics, job string, logger *log.Logger) (http.Handler, func()) {
	if logger == nil {
		logger = log.Default()
	}
	flush := func() {
		if err := metrics.Flush(); err != nil {
			logger.Printf("metrics: flush error: %v", err)
		}
	}

	switch cfg.Backend {
	case "prometheus":
		b, err := prompush.NewBackend(job, cfg.PushgatewayURL)
		if err != nil {
			logger.Printf("metrics: failed to init prometheus backend: %v; using nop", err)
			return nil, func() {}
		}
		metrics.SetBackend(b)
		logger.Printf("metrics: backend=prometheus job=%s pushgateway=%q", job, cfg.PushgatewayURL)
		return b.Handler(), flush

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.DatadogAddr,
			Namespace:  cfg.Namespace,
			GlobalTags: cfg.Tags,
		})
		if err != nil {
			logger.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return nil, func() {}
		}
		metrics.SetBackend(b)
		logger.Printf("metrics: backend=datadog addr=%s", cfg.DatadogAddr)
		return nil, func() {
			flush()
			if err := b.Close(); err != nil {
				logger.Printf("metrics: close error: %v", err)
			}
		}

	case "", "none":
		return nil, func() {}

	default:
		logger.Printf("metrics: unknown backend %q; metrics disabled", cfg.Backend)
		return nil, func() {}
	}
}
