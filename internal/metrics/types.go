package metrics

import (
	"context"
	"time"
)

// Snapshot is a raw point-in-time reading from the host. Disk and
// network carry absolute monotonic counters; rate derivation happens
// in the sampling session, not here.
type Snapshot struct {
	Timestamp time.Time
	CPU       CPUReading
	Memory    MemoryReading
	Disk      DiskReading
	Network   NetworkReading
	GPU       *GPUReading // nil when no GPU is available
}

// CPUReading holds instantaneous CPU load figures
type CPUReading struct {
	UsagePercent float64
	PerCore      []float64
	TemperatureC *float64 // nil when no sensor is exposed
}

// MemoryReading holds RAM usage in bytes
type MemoryReading struct {
	TotalBytes  uint64
	UsedBytes   uint64
	FreeBytes   uint64
	UsedPercent float64
}

// DiskReading holds aggregate filesystem usage plus absolute IO counters
type DiskReading struct {
	TotalBytes  uint64
	UsedBytes   uint64
	UsedPercent float64
	ReadBytes   uint64 // cumulative since boot
	WriteBytes  uint64 // cumulative since boot
}

// NetworkReading holds absolute byte counters summed over interfaces
type NetworkReading struct {
	BytesRecv uint64
	BytesSent uint64
}

// GPUReading holds a single device snapshot
type GPUReading struct {
	Name               string
	UtilizationPercent float64
	TemperatureC       float64
	MemoryUsedBytes    uint64
	MemoryTotalBytes   uint64
}

// Source provides point-in-time host snapshots. Implementations may
// return partial data (nil optional readings) but must fail the call
// when the core CPU or memory probes fail.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}
