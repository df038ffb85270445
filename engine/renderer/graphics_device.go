package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gltf/common"
)

// DeviceBackendType identifies the GPU backend implementation behind a GraphicsDevice.
type DeviceBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based device.
	BackendTypeWGPU DeviceBackendType = iota

	// BackendTypeHeadless selects the in-memory device that only tracks resource lifetimes.
	BackendTypeHeadless
)

// Resource is a GPU object owned by whoever created it.
// Release frees the underlying handle. Implementations tolerate being released more than
// once but only free the handle the first time.
type Resource interface {
	// Label retrieves the debug label the resource was created with.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Release frees the GPU handle.
	Release()
}

// GraphicsDevice is the capability the importer uses to create GPU resources.
// All methods must be called on the goroutine that owns the device.
type GraphicsDevice interface {
	// CreateVertexBuffer uploads interleaved float vertex data.
	//
	// Parameters:
	//   - label: debug label for the buffer
	//   - data: interleaved vertex floats
	//
	// Returns:
	//   - Resource: the created buffer
	//   - error: error if the buffer could not be created
	CreateVertexBuffer(label string, data []float32) (Resource, error)

	// CreateIndexBuffer uploads 16-bit index data.
	//
	// Parameters:
	//   - label: debug label for the buffer
	//   - data: the indices
	//
	// Returns:
	//   - Resource: the created buffer
	//   - error: error if the buffer could not be created
	CreateIndexBuffer(label string, data []uint16) (Resource, error)

	// CreateTexture uploads RGBA pixels with all staged mip levels and builds a matching sampler.
	//
	// Parameters:
	//   - label: debug label for the texture
	//   - staging: pixel data and dimensions
	//   - sampler: sampler configuration
	//
	// Returns:
	//   - Resource: the created texture, view and sampler as one unit
	//   - error: error if creation fails
	CreateTexture(label string, staging common.TextureStagingData, sampler common.SamplerStagingData) (Resource, error)
}

// NewGraphicsDevice creates a device of the given backend type.
// The release function frees the device itself and is a no-op for the headless backend.
//
// Parameters:
//   - backendType: the device backend (e.g., BackendTypeWGPU)
//
// Returns:
//   - GraphicsDevice: the created device
//   - func(): releases the device once every resource created on it is released
//   - error: error if the backend could not be initialized
func NewGraphicsDevice(backendType DeviceBackendType) (GraphicsDevice, func(), error) {
	switch backendType {
	case BackendTypeWGPU:
		d, err := NewWGPUDevice(false)
		if err != nil {
			return nil, nil, err
		}
		return d, d.Release, nil
	case BackendTypeHeadless:
		return NewHeadlessDevice(0), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown device backend %d", backendType)
	}
}

// ParseDeviceBackendType maps a backend name to its DeviceBackendType.
//
// Parameters:
//   - name: "wgpu" or "headless"
//
// Returns:
//   - DeviceBackendType: the backend type
//   - error: error if the name is unknown
func ParseDeviceBackendType(name string) (DeviceBackendType, error) {
	switch name {
	case "wgpu":
		return BackendTypeWGPU, nil
	case "headless":
		return BackendTypeHeadless, nil
	}
	return 0, fmt.Errorf("unknown device backend %q", name)
}
