package session

import (
	"math"
	"time"

	"resmon/internal/sysinfo"
)

// State represents the lifecycle state of a sampling session
type State string

const (
	// StateIdle means no session is active.
	StateIdle State = "idle"
	// StateRunning means a session is collecting samples.
	StateRunning State = "running"
	// StateCompleted means the session finished and its data is frozen.
	StateCompleted State = "completed"
	// StateFailed means the session was aborted by an engine fault.
	StateFailed State = "failed"
)

// Terminal reports whether the state permits no further transitions
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Session is one bounded-duration monitoring run. It is owned by the
// engine while running and frozen once it reaches a terminal state.
type Session struct {
	ID              string       `json:"id"`
	DurationSeconds float64      `json:"duration_seconds"`
	IntervalSeconds float64      `json:"interval_seconds"`
	StartTime       time.Time    `json:"start_time"`
	EndTime         *time.Time   `json:"end_time,omitempty"`
	State           State        `json:"state"`
	System          sysinfo.Info `json:"system"`
	Measurements    []Measurement `json:"measurements"`
}

// Measurement is the normalized result of one successful tick.
// Derived rate and percentage fields are rounded to two decimals at
// build time for display stability.
type Measurement struct {
	Timestamp time.Time      `json:"timestamp"`
	Elapsed   float64        `json:"elapsed_seconds"`
	CPU       CPUMetrics     `json:"cpu"`
	Memory    MemoryMetrics  `json:"memory"`
	Disk      DiskMetrics    `json:"disk"`
	Network   NetworkMetrics `json:"network"`
	GPU       *GPUMetrics    `json:"gpu,omitempty"`
}

// CPUMetrics holds processor load figures for one tick
type CPUMetrics struct {
	UsagePercent float64   `json:"usage_percent"`
	TemperatureC *float64  `json:"temperature_c,omitempty"`
	PerCore      []float64 `json:"per_core,omitempty"`
}

// MemoryMetrics holds RAM usage for one tick
type MemoryMetrics struct {
	TotalBytes  uint64  `json:"total_bytes"`
	UsedBytes   uint64  `json:"used_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

// DiskMetrics holds aggregate filesystem usage plus derived IO rates
type DiskMetrics struct {
	TotalBytes       uint64  `json:"total_bytes"`
	UsedBytes        uint64  `json:"used_bytes"`
	UsedPercent      float64 `json:"used_percent"`
	ReadBytesPerSec  float64 `json:"read_bytes_per_sec"`
	WriteBytesPerSec float64 `json:"write_bytes_per_sec"`
}

// NetworkMetrics holds derived network throughput
type NetworkMetrics struct {
	RecvBytesPerSec float64 `json:"recv_bytes_per_sec"`
	SentBytesPerSec float64 `json:"sent_bytes_per_sec"`
}

// GPUMetrics holds a single device reading for one tick
type GPUMetrics struct {
	Name               string  `json:"name,omitempty"`
	UtilizationPercent float64 `json:"utilization_percent"`
	TemperatureC       float64 `json:"temperature_c"`
	MemoryUsedBytes    uint64  `json:"memory_used_bytes"`
	MemoryTotalBytes   uint64  `json:"memory_total_bytes"`
}

// Store persists a finished session as one flat snapshot keyed by its
// identifier. The engine only needs Save; richer retrieval lives with
// the implementation.
type Store interface {
	Save(s *Session) error
}

// Clone returns a copy of the session safe to hand to readers while
// the engine may still be appending measurements to the original.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Measurements = make([]Measurement, len(s.Measurements))
	copy(cp.Measurements, s.Measurements)
	if s.EndTime != nil {
		end := *s.EndTime
		cp.EndTime = &end
	}
	return &cp
}

// round2 rounds to two decimal digits
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
