package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats is the pool snapshot reported by the database health endpoint.
type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
	AcquireCount  int64 `json:"acquire_count"`
}

type healthResponse struct {
	Status      string     `json:"status"`
	PingLatency string     `json:"ping_latency,omitempty"`
	Error       string     `json:"error,omitempty"`
	Pool        *PoolStats `json:"pool"`
}

// GetPoolStats snapshots the connection pool counters.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
		AcquireCount:  stat.AcquireCount(),
	}
}

// HealthHandler serves the database health check. It pings the database with
// a bounded timeout and reports the measured round trip alongside the pool
// counters, so a saturated pool is distinguishable from an unreachable one.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		start := time.Now()
		err := pool.Ping(ctx)
		latency := time.Since(start)

		resp := healthResponse{Pool: GetPoolStats(pool)}
		if err != nil {
			resp.Status = "unhealthy"
			resp.Error = err.Error()
			return c.JSON(http.StatusServiceUnavailable, resp)
		}

		resp.Status = "healthy"
		resp.PingLatency = latency.String()
		return c.JSON(http.StatusOK, resp)
	}
}
