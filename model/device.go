package model

import "sync"

// Device names a compute placement for model parameters and batches.
type Device string

const (
	CPU         Device = "cpu"
	Accelerator Device = "gpu"
)

// Placer is optionally implemented by backbones that support moving their
// parameters between devices.
type Placer interface {
	To(device Device) error
}

var (
	probeMu          sync.RWMutex
	acceleratorProbe func() bool
)

// RegisterAcceleratorProbe installs a probe reporting whether an accelerator
// backend is available. Backbone providers with GPU support register one.
func RegisterAcceleratorProbe(probe func() bool) {
	probeMu.Lock()
	defer probeMu.Unlock()
	acceleratorProbe = probe
}

// ResolveDevice prefers an accelerator when a registered probe reports one,
// falling back to the CPU.
func ResolveDevice() Device {
	probeMu.RLock()
	probe := acceleratorProbe
	probeMu.RUnlock()

	if probe != nil && probe() {
		return Accelerator
	}
	return CPU
}
