// Package handlers implements the pbench monitoring API endpoint
// handlers.
//
// @title pbench Monitoring API
// @version 1.0
// @description Read-only API for observing a running pbench benchmark and its run history.
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8080
// @BasePath /api/v1
package handlers

import (
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/jroosing/pbench/internal/dashboard/models"
	"github.com/jroosing/pbench/internal/store"
)

// LiveFunc returns the benchmark's current rate snapshot. Returns the
// zero value with Tracking false until the first DATA sample is observed.
type LiveFunc func() models.LiveStats

// Handler contains dependencies for the monitoring handlers. A nil
// Store or Live is valid and degrades gracefully.
type Handler struct {
	logger    *slog.Logger
	store     *store.Store
	live      LiveFunc
	startTime time.Time
}

// New creates a Handler. store and live may be nil.
func New(logger *slog.Logger, st *store.Store, live LiveFunc) *Handler {
	return &Handler{
		logger:    logger,
		store:     st,
		live:      live,
		startTime: time.Now(),
	}
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Stats godoc
// @Summary Runtime and system statistics
// @Tags system
// @Produce json
// @Success 200 {object} models.StatsResponse
// @Router /stats [get]
func (h *Handler) Stats(c *gin.Context) {
	uptime := time.Since(h.startTime)

	memStats := models.MemoryStats{}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		memStats.TotalMB = float64(vmStat.Total) / 1024 / 1024
		memStats.FreeMB = float64(vmStat.Available) / 1024 / 1024
		memStats.UsedMB = float64(vmStat.Used) / 1024 / 1024
		memStats.UsedPercent = vmStat.UsedPercent
	}

	cpuStats := models.CPUStats{NumCPU: runtime.NumCPU()}
	if pct, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(pct) > 0 {
		cpuStats.UsedPercent = pct[0]
		cpuStats.IdlePercent = 100.0 - pct[0]
	}

	var live models.LiveStats
	if h.live != nil {
		live = h.live()
	}

	c.JSON(http.StatusOK, models.StatsResponse{
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		CPU:           cpuStats,
		Memory:        memStats,
		Live:          live,
	})
}

// Runs godoc
// @Summary Recent benchmark runs
// @Tags runs
// @Produce json
// @Success 200 {object} models.RunsResponse
// @Router /runs [get]
func (h *Handler) Runs(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, models.RunsResponse{Runs: []models.RunResponse{}})
		return
	}

	runs, err := h.store.RecentRuns(50)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("dashboard: failed to query recent runs", "error", err)
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to query runs"})
		return
	}

	out := make([]models.RunResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, models.RunResponse{
			ID:           r.ID,
			Role:         r.Role,
			Addr:         r.Addr,
			Threads:      r.Threads,
			StartedAt:    r.StartedAt,
			EndedAt:      r.EndedAt,
			PacketsTotal: r.PacketsTotal,
			MaxLastSeq:   r.MaxLastSeq,
		})
	}
	c.JSON(http.StatusOK, models.RunsResponse{Runs: out})
}
