package metrics

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"resmon/internal/logging"
)

// SystemSource reads host metrics through gopsutil, with optional GPU
// readings through NVML. One instance is shared across sessions; it
// holds no per-session state.
type SystemSource struct {
	logger   *logging.Logger
	diskPath string
	gpu      gpuReader
}

// NewSystemSource creates a metric source rooted at diskPath for
// filesystem usage. GPU probing is attempted once at construction and
// disabled for the lifetime of the source if unavailable.
func NewSystemSource(diskPath string, enableGPU bool, logger *logging.Logger) *SystemSource {
	s := &SystemSource{
		logger:   logger,
		diskPath: diskPath,
	}

	if enableGPU {
		reader, err := newGPUReader()
		if err != nil {
			logger.Info("metrics.gpu.unavailable", "GPU metrics disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			s.gpu = reader
		}
	}

	return s
}

// Snapshot collects a full point-in-time reading. The independent
// per-metric probes run concurrently; CPU and memory failures fail the
// whole snapshot, everything else degrades to missing data.
func (s *SystemSource) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Timestamp: time.Now()}

	var (
		wg           sync.WaitGroup
		cpuErr       error
		memErr       error
		diskUsageErr error
		diskRateErr  error
		netErr       error
	)

	wg.Add(5)

	go func() {
		defer wg.Done()
		snap.CPU, cpuErr = s.readCPU(ctx)
	}()

	go func() {
		defer wg.Done()
		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			memErr = err
			return
		}
		snap.Memory = MemoryReading{
			TotalBytes:  vm.Total,
			UsedBytes:   vm.Used,
			FreeBytes:   vm.Available,
			UsedPercent: vm.UsedPercent,
		}
	}()

	go func() {
		defer wg.Done()
		usage, err := disk.UsageWithContext(ctx, s.diskPath)
		if err != nil {
			diskUsageErr = err
			return
		}
		snap.Disk.TotalBytes = usage.Total
		snap.Disk.UsedBytes = usage.Used
		snap.Disk.UsedPercent = usage.UsedPercent
	}()

	go func() {
		defer wg.Done()
		counters, err := disk.IOCountersWithContext(ctx)
		if err != nil {
			diskRateErr = err
			return
		}
		var read, write uint64
		for name, st := range counters {
			if strings.HasPrefix(name, "loop") {
				continue
			}
			read += st.ReadBytes
			write += st.WriteBytes
		}
		snap.Disk.ReadBytes = read
		snap.Disk.WriteBytes = write
	}()

	go func() {
		defer wg.Done()
		counters, err := net.IOCountersWithContext(ctx, false)
		if err != nil || len(counters) == 0 {
			netErr = err
			return
		}
		snap.Network = NetworkReading{
			BytesRecv: counters[0].BytesRecv,
			BytesSent: counters[0].BytesSent,
		}
	}()

	wg.Wait()

	if cpuErr != nil {
		return Snapshot{}, fmt.Errorf("cpu probe failed: %w", cpuErr)
	}
	if memErr != nil {
		return Snapshot{}, fmt.Errorf("memory probe failed: %w", memErr)
	}

	// Disk and network probes degrade to zero values
	if diskUsageErr != nil {
		s.logger.Debug("metrics.disk.usage.failed", "Disk usage probe failed", map[string]interface{}{
			"error": diskUsageErr.Error(),
		})
	}
	if diskRateErr != nil {
		s.logger.Debug("metrics.disk.counters.failed", "Disk IO counter probe failed", map[string]interface{}{
			"error": diskRateErr.Error(),
		})
	}
	if netErr != nil {
		s.logger.Debug("metrics.net.failed", "Network counter probe failed", map[string]interface{}{
			"error": netErr.Error(),
		})
	}

	if s.gpu != nil {
		gpu, err := s.gpu.read()
		if err != nil {
			s.logger.Debug("metrics.gpu.read.failed", "GPU probe failed", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			snap.GPU = gpu
		}
	}

	return snap, nil
}

// readCPU collects overall load, per-core load, and the package
// temperature when a sensor exposes one.
func (s *SystemSource) readCPU(ctx context.Context) (CPUReading, error) {
	reading := CPUReading{}

	overall, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return reading, err
	}
	if len(overall) == 0 {
		return reading, fmt.Errorf("no aggregate cpu data")
	}
	reading.UsagePercent = overall[0]

	if perCore, err := cpu.PercentWithContext(ctx, 0, true); err == nil {
		reading.PerCore = perCore
	}

	if temp := readCPUTemperature(ctx); temp != nil {
		reading.TemperatureC = temp
	}

	return reading, nil
}

// readCPUTemperature scans the host temperature sensors for a CPU
// package reading. Returns nil when nothing matches.
func readCPUTemperature(ctx context.Context) *float64 {
	sensors, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil {
		return nil
	}
	for _, sensor := range sensors {
		key := strings.ToLower(sensor.SensorKey)
		if strings.Contains(key, "coretemp") || strings.Contains(key, "k10temp") ||
			strings.Contains(key, "cpu_thermal") || strings.Contains(key, "tdie") {
			if sensor.Temperature > 0 {
				t := sensor.Temperature
				return &t
			}
		}
	}
	return nil
}
