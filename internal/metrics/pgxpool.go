package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPgxPoolMetrics exposes pgx connection pool statistics as Prometheus
// gauges labelled with the pool name.
func RegisterPgxPoolMetrics(reg prometheus.Registerer, name string, pool *pgxpool.Pool) {
	gauges := []struct {
		name  string
		help  string
		value func(*pgxpool.Stat) float64
	}{
		{"acquired_conns", "Number of currently acquired connections in the pool", func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }},
		{"max_conns", "Maximum number of connections in the pool", func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }},
		{"total_conns", "Total number of connections in the pool", func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }},
		{"idle_conns", "Number of idle connections in the pool", func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }},
	}

	for _, g := range gauges {
		value := g.value
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "grantdesk_pgxpool_" + g.name,
			Help:        g.help,
			ConstLabels: prometheus.Labels{"pool": name},
		}, func() float64 {
			return value(pool.Stat())
		}))
	}
}
