package adapter

import (
	"time"

	"github.com/hupe1980/contexa/internal/metrics"
	"github.com/hupe1980/contexa/logging"
)

// ObserveRun records the outcome of a vendor run on logger and m.
func ObserveRun(logger logging.Logger, m *metrics.Collector, vendor, model string, start time.Time, err error) {
	d := time.Since(start)
	m.ObserveRun(vendor, d, err)

	if sl, ok := logger.(*logging.StructuredLogger); ok {
		sl.LogVendorCall(vendor, model, d, err)
		return
	}
	if err != nil {
		logger.Error("adapter.run.failed", "vendor", vendor, "model", model, "error", err.Error())
		return
	}
	logger.Debug("adapter.run", "vendor", vendor, "model", model, "duration_ms", d.Milliseconds())
}
