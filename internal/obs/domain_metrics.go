package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartMutationsTotal counts calculator mutations by action and whether they changed state.
	CartMutationsTotal *prometheus.CounterVec
	// CartLines reports the current number of distinct cart lines.
	CartLines prometheus.Gauge
	// CalculationsTotal counts summary calculations requested by the user.
	CalculationsTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers calculator Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of calculator mutations by action and result.",
		}, []string{"action", "result"})
		CartLines = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cart_lines",
			Help:      "Number of distinct lines in the cart.",
		})
		CalculationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Number of summary calculations requested.",
		})

		CartMutationsTotal = registerOrReuse(reg, CartMutationsTotal)
		CartLines = registerOrReuse(reg, CartLines)
		CalculationsTotal = registerOrReuse(reg, CalculationsTotal)
	})
}

// RecordCartMutation increments the mutation counter when domain metrics are registered.
func RecordCartMutation(action string, applied bool) {
	if CartMutationsTotal == nil {
		return
	}
	result := "noop"
	if applied {
		result = "applied"
	}
	CartMutationsTotal.WithLabelValues(action, result).Inc()
}

// SetCartLines updates the cart line gauge when domain metrics are registered.
func SetCartLines(n int) {
	if CartLines == nil {
		return
	}
	CartLines.Set(float64(n))
}

// RecordCalculation increments the calculation counter when domain metrics are registered.
func RecordCalculation() {
	if CalculationsTotal == nil {
		return
	}
	CalculationsTotal.Inc()
}
