// Package compute resolves the compute backend for a training run: an
// accelerator when one is present and allowed, otherwise the host CPU.
// CUDA support is isolated behind the "cuda" build tag.
package compute

import (
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// Kind enumerates backend kinds.
type Kind int

const (
	CPU Kind = iota
	CUDA
)

// Device identifies a single compute device.
type Device struct {
	Kind  Kind
	Index int
}

func (d Device) String() string {
	if d.Kind == CUDA {
		return fmt.Sprintf("cuda:%d", d.Index)
	}
	return "cpu"
}

// Resolve picks the device for a run: the first CUDA device if any is present
// and noCUDA is false, otherwise the CPU.
func Resolve(noCUDA bool) Device {
	if !noCUDA && DeviceCount() > 0 {
		return Device{Kind: CUDA}
	}
	return Device{Kind: CPU}
}

// DeviceCount reports the number of CUDA devices (0 without the cuda tag).
func DeviceCount() int {
	return cudaDeviceCount()
}

// Parallelism reports the worker count for CPU batch sharding.
func Parallelism() int {
	return runtime.GOMAXPROCS(0)
}

// CPUFeatures describes the host CPU and the SIMD level relevant to the
// float kernels.
func CPUFeatures() string {
	simd := "scalar"
	if cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ) {
		simd = "avx512"
	} else if cpuid.CPU.Supports(cpuid.AVX2) {
		simd = "avx2"
	}
	return fmt.Sprintf("%s (%d cores, %s)", cpuid.CPU.BrandName, cpuid.CPU.LogicalCores, simd)
}
