package compute

import "testing"

func TestResolveNoCUDA(t *testing.T) {
	d := Resolve(true)
	if d.Kind != CPU {
		t.Errorf("Resolve(true) = %v, want cpu", d)
	}
	if d.String() != "cpu" {
		t.Errorf("String() = %q", d.String())
	}
}

func TestResolveFollowsDeviceCount(t *testing.T) {
	d := Resolve(false)
	if DeviceCount() == 0 && d.Kind != CPU {
		t.Errorf("no CUDA devices but resolved %v", d)
	}
	if DeviceCount() > 0 && d.Kind != CUDA {
		t.Errorf("CUDA devices present but resolved %v", d)
	}
}

func TestCPUFeatures(t *testing.T) {
	if CPUFeatures() == "" {
		t.Error("empty CPU feature report")
	}
	if Parallelism() < 1 {
		t.Errorf("Parallelism() = %d", Parallelism())
	}
}
