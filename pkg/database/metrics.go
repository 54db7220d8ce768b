package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	poolAcquiredConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_acquired_connections",
			Help: "Number of currently acquired connections",
		},
		[]string{"service"},
	)

	poolIdleConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_idle_connections",
			Help: "Number of currently idle connections",
		},
		[]string{"service"},
	)

	poolTotalConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_total_connections",
			Help: "Total number of connections in the pool",
		},
		[]string{"service"},
	)
)

// RegisterPoolMetrics starts a sampler goroutine that exports pgxpool
// statistics as Prometheus gauges every 15 seconds. It runs for the life of
// the process.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) {
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			stats := pool.Stat()
			poolAcquiredConns.WithLabelValues(service).Set(float64(stats.AcquiredConns()))
			poolIdleConns.WithLabelValues(service).Set(float64(stats.IdleConns()))
			poolTotalConns.WithLabelValues(service).Set(float64(stats.TotalConns()))
		}
	}()
}
