// Package stats computes summary statistics over a finished or
// in-flight measurement sequence. Computation is pure and detached
// from sampling: it can run on live data mid-session or on a session
// loaded from disk, always producing the same result for the same
// input.
package stats

import (
	"math"
	"sort"
	"time"

	"resmon/internal/session"
)

// Aggregate summarizes one metric series
type Aggregate struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// Peak marks where a series reached its maximum
type Peak struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Summary holds the aggregates for every collected metric series.
// Optional series (CPU temperature, GPU) aggregate over the samples
// that carried them; their Count reflects how many did.
type Summary struct {
	CPUUsage       Aggregate `json:"cpu_usage_percent"`
	CPUTemperature Aggregate `json:"cpu_temperature_c"`
	MemoryUsed     Aggregate `json:"memory_used_percent"`
	DiskUsed       Aggregate `json:"disk_used_percent"`
	DiskRead       Aggregate `json:"disk_read_bytes_per_sec"`
	DiskWrite      Aggregate `json:"disk_write_bytes_per_sec"`
	NetworkRecv    Aggregate `json:"network_recv_bytes_per_sec"`
	NetworkSent    Aggregate `json:"network_sent_bytes_per_sec"`
	GPUUtilization Aggregate `json:"gpu_utilization_percent"`
	GPUTemperature Aggregate `json:"gpu_temperature_c"`

	PeakCPU    Peak `json:"peak_cpu"`
	PeakMemory Peak `json:"peak_memory"`

	SampleCount int `json:"sample_count"`
}

// Compute builds a summary over the given measurements. Returns nil
// when the sequence is empty: an absent summary, not a zero-valued
// one, so callers can distinguish "no data" from "all zeros".
func Compute(measurements []session.Measurement) *Summary {
	if len(measurements) == 0 {
		return nil
	}

	s := &Summary{
		CPUUsage:    aggregate(collect(measurements, func(m session.Measurement) float64 { return m.CPU.UsagePercent })),
		MemoryUsed:  aggregate(collect(measurements, func(m session.Measurement) float64 { return m.Memory.UsedPercent })),
		DiskUsed:    aggregate(collect(measurements, func(m session.Measurement) float64 { return m.Disk.UsedPercent })),
		DiskRead:    aggregate(collect(measurements, func(m session.Measurement) float64 { return m.Disk.ReadBytesPerSec })),
		DiskWrite:   aggregate(collect(measurements, func(m session.Measurement) float64 { return m.Disk.WriteBytesPerSec })),
		NetworkRecv: aggregate(collect(measurements, func(m session.Measurement) float64 { return m.Network.RecvBytesPerSec })),
		NetworkSent: aggregate(collect(measurements, func(m session.Measurement) float64 { return m.Network.SentBytesPerSec })),
		SampleCount: len(measurements),
	}

	var cpuTemps, gpuUtil, gpuTemps []float64
	for _, m := range measurements {
		if m.CPU.TemperatureC != nil {
			cpuTemps = append(cpuTemps, *m.CPU.TemperatureC)
		}
		if m.GPU != nil {
			gpuUtil = append(gpuUtil, m.GPU.UtilizationPercent)
			gpuTemps = append(gpuTemps, m.GPU.TemperatureC)
		}
	}
	s.CPUTemperature = aggregate(cpuTemps)
	s.GPUUtilization = aggregate(gpuUtil)
	s.GPUTemperature = aggregate(gpuTemps)

	s.PeakCPU = peak(measurements, func(m session.Measurement) float64 { return m.CPU.UsagePercent })
	s.PeakMemory = peak(measurements, func(m session.Measurement) float64 { return m.Memory.UsedPercent })

	return s
}

// collect extracts one series from the measurement sequence
func collect(measurements []session.Measurement, get func(session.Measurement) float64) []float64 {
	out := make([]float64, len(measurements))
	for i, m := range measurements {
		out[i] = get(m)
	}
	return out
}

// aggregate computes min/max/avg/median over a series. An empty series
// yields the zero aggregate with Count 0.
func aggregate(values []float64) Aggregate {
	if len(values) == 0 {
		return Aggregate{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return Aggregate{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Avg:    round2(sum / float64(len(values))),
		Median: round2(median(sorted)),
		Count:  len(values),
	}
}

// median expects a sorted slice. Even-length series take the mean of
// the two middle elements.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// peak finds the first index at which the series reaches its maximum
func peak(measurements []session.Measurement, get func(session.Measurement) float64) Peak {
	best := Peak{Index: 0, Timestamp: measurements[0].Timestamp, Value: get(measurements[0])}
	for i, m := range measurements[1:] {
		if v := get(m); v > best.Value {
			best = Peak{Index: i + 1, Timestamp: m.Timestamp, Value: v}
		}
	}
	return best
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
