//go:build cuda

package metrics

import (
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// nvmlReader reads the first GPU device through NVML.
type nvmlReader struct {
	device nvml.Device
}

// newGPUReader initializes NVML and binds to device 0. The caller
// treats any error as "no GPU"; sampling proceeds without GPU data.
func newGPUReader() (gpuReader, error) {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, fmt.Errorf("failed to initialize NVML: %v", nvml.ErrorString(ret))
	}

	device, ret := nvml.DeviceGetHandleByIndex(0)
	if ret != nvml.SUCCESS {
		if shutdownRet := nvml.Shutdown(); shutdownRet != nvml.SUCCESS {
			return nil, fmt.Errorf("failed to get GPU device: %v (shutdown: %v)",
				nvml.ErrorString(ret), nvml.ErrorString(shutdownRet))
		}
		return nil, fmt.Errorf("failed to get GPU device: %v", nvml.ErrorString(ret))
	}

	return &nvmlReader{device: device}, nil
}

// read collects utilization, memory, and temperature for the bound
// device. Individual probe failures leave the field at zero rather
// than failing the reading.
func (r *nvmlReader) read() (*GPUReading, error) {
	reading := &GPUReading{}

	if name, ret := r.device.GetName(); ret == nvml.SUCCESS {
		reading.Name = name
	}

	utilization, ret := r.device.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("failed to get GPU utilization: %v", nvml.ErrorString(ret))
	}
	reading.UtilizationPercent = float64(utilization.Gpu)

	if memInfo, ret := r.device.GetMemoryInfo(); ret == nvml.SUCCESS {
		reading.MemoryUsedBytes = memInfo.Used
		reading.MemoryTotalBytes = memInfo.Total
	}

	if temp, ret := r.device.GetTemperature(nvml.TEMPERATURE_GPU); ret == nvml.SUCCESS {
		reading.TemperatureC = float64(temp)
	}

	return reading, nil
}
