package embedding

import (
	"time"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Usage totals the embedding calls recorded by Metrics.
type Usage struct {
	Calls    int64
	Texts    int64
	Errors   int64
	Duration time.Duration
}

// UsageFrom sums the embedding instruments in rm across models and
// operations. Other scopes are ignored.
func UsageFrom(rm metricdata.ResourceMetrics) Usage {
	var u Usage
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != InstrumentationName {
			continue
		}
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Histogram[float64]:
				if m.Name != metricDuration {
					continue
				}
				var seconds float64
				for _, dp := range data.DataPoints {
					u.Calls += int64(dp.Count)
					seconds += dp.Sum
				}
				u.Duration = time.Duration(seconds * float64(time.Second))
			case metricdata.Histogram[int64]:
				if m.Name != metricBatchSize {
					continue
				}
				for _, dp := range data.DataPoints {
					u.Texts += dp.Sum
				}
			case metricdata.Sum[int64]:
				if m.Name != metricErrors {
					continue
				}
				for _, dp := range data.DataPoints {
					u.Errors += dp.Value
				}
			}
		}
	}
	return u
}
