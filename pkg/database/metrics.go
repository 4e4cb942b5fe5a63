package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func poolDesc(name, help, store string) *prometheus.Desc {
	return prometheus.NewDesc(name, help, nil, prometheus.Labels{"store": store})
}

// poolSnapshot is the common subset of pgxpool and go-redis pool statistics.
type poolSnapshot struct {
	acquired, idle, total float64
	waits, timeouts       float64
}

// PoolStatsCollector exports connection pool statistics for one store.
// Each store gets its own descriptors, so a Redis and a Postgres collector
// register side by side.
type PoolStatsCollector struct {
	acquired, idle, total *prometheus.Desc
	waits, timeouts       *prometheus.Desc
	snapshot              func() poolSnapshot
}

func newPoolStatsCollector(store string, snapshot func() poolSnapshot) *PoolStatsCollector {
	return &PoolStatsCollector{
		acquired: poolDesc("db_pool_acquired_connections", "Connections currently in use", store),
		idle:     poolDesc("db_pool_idle_connections", "Connections currently idle", store),
		total:    poolDesc("db_pool_total_connections", "Connections currently open", store),
		waits:    poolDesc("db_pool_empty_acquire_count_total", "Acquires that had to wait for a free connection", store),
		timeouts: poolDesc("db_pool_acquire_timeouts_total", "Acquires that gave up waiting", store),
		snapshot: snapshot,
	}
}

// NewPostgresPoolCollector reports pgxpool statistics under store="postgres".
func NewPostgresPoolCollector(pool *pgxpool.Pool) *PoolStatsCollector {
	return newPoolStatsCollector("postgres", func() poolSnapshot {
		s := pool.Stat()
		return poolSnapshot{
			acquired: float64(s.AcquiredConns()),
			idle:     float64(s.IdleConns()),
			total:    float64(s.TotalConns()),
			waits:    float64(s.EmptyAcquireCount()),
			timeouts: float64(s.CanceledAcquireCount()),
		}
	})
}

// NewRedisPoolCollector reports go-redis pool statistics under store="redis".
func NewRedisPoolCollector(client *redis.Client) *PoolStatsCollector {
	return newPoolStatsCollector("redis", func() poolSnapshot {
		s := client.PoolStats()
		return poolSnapshot{
			acquired: float64(s.TotalConns - s.IdleConns),
			idle:     float64(s.IdleConns),
			total:    float64(s.TotalConns),
			waits:    float64(s.Misses),
			timeouts: float64(s.Timeouts),
		}
	})
}

func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquired
	ch <- c.idle
	ch <- c.total
	ch <- c.waits
	ch <- c.timeouts
}

func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.snapshot()
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, s.acquired)
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, s.idle)
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, s.total)
	ch <- prometheus.MustNewConstMetric(c.waits, prometheus.CounterValue, s.waits)
	ch <- prometheus.MustNewConstMetric(c.timeouts, prometheus.CounterValue, s.timeouts)
}
