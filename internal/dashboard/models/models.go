// Package models defines request and response types for the pbench
// monitoring API.
package models

import "time"

// StatusResponse is a simple health response.
type StatusResponse struct {
	Status string `json:"status"`
}

// CPUStats mirrors gopsutil's CPU sample.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
	IdlePercent float64 `json:"idle_percent"`
}

// MemoryStats mirrors gopsutil's virtual memory sample.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// LiveStats is the benchmark's current rate snapshot, polled directly
// from the running control-plane loop.
type LiveStats struct {
	Role     string  `json:"role"`
	RecvPPS  float64 `json:"recv_pps"`
	SentPPS  float64 `json:"sent_pps"`
	Packets  uint64  `json:"packets"`
	LastSeq  uint64  `json:"last_seq"`
	Threads  int     `json:"threads"`
	Tracking bool    `json:"tracking"`
}

// StatsResponse is the response for GET /api/v1/stats.
type StatsResponse struct {
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     time.Time   `json:"start_time"`
	CPU           CPUStats    `json:"cpu"`
	Memory        MemoryStats `json:"memory"`
	Live          LiveStats   `json:"live"`
}

// RunResponse is one persisted run, as returned by GET /api/v1/runs.
type RunResponse struct {
	ID           int64      `json:"id"`
	Role         string     `json:"role"`
	Addr         string     `json:"addr"`
	Threads      int        `json:"threads"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	PacketsTotal uint64     `json:"packets_total"`
	MaxLastSeq   uint64     `json:"max_last_seq"`
}

// RunsResponse is the response for GET /api/v1/runs.
type RunsResponse struct {
	Runs []RunResponse `json:"runs"`
}

// ErrorResponse is a generic API error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
