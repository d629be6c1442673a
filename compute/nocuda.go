//go:build !cuda

package compute

func cudaDeviceCount() int {
	return 0
}
