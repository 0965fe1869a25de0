//go:build !cuda

package metrics

import "fmt"

// newGPUReader reports GPU support as unavailable in builds without
// the cuda tag.
func newGPUReader() (gpuReader, error) {
	return nil, fmt.Errorf("GPU support not compiled in (build with -tags cuda)")
}
