package metrics

// gpuReader abstracts the NVML-backed device reader so the system
// source and tests do not depend on the cuda build tag.
type gpuReader interface {
	read() (*GPUReading, error)
}
