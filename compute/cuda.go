//go:build cuda

package compute

import "gorgonia.org/cu"

func cudaDeviceCount() int {
	n, err := cu.NumDevices()
	if err != nil {
		return 0
	}
	return n
}
