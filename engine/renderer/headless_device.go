package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/pkg/errors"
)

// ErrDeviceExhausted is returned by a HeadlessDevice once its creation limit is reached.
var ErrDeviceExhausted = errors.New("headless device: resource limit reached")

// ResourceKind classifies resources created by a HeadlessDevice.
type ResourceKind int

const (
	ResourceVertexBuffer ResourceKind = iota
	ResourceIndexBuffer
	ResourceTexture
)

// headlessResource is a Resource that only records its own lifetime.
type headlessResource struct {
	device   *HeadlessDevice
	label    string
	kind     ResourceKind
	size     int
	released bool
}

func (r *headlessResource) Label() string {
	return r.label
}

func (r *headlessResource) Release() {
	r.device.release(r)
}

// HeadlessDevice is a GraphicsDevice that keeps no GPU state.
// It counts live handles and records release calls on already released handles, which makes
// it suitable for tests and for CPU-only tooling.
type HeadlessDevice struct {
	mu             sync.Mutex
	limit          int
	created        int
	live           map[*headlessResource]struct{}
	doubleReleases int
	bytes          int
}

var _ GraphicsDevice = &HeadlessDevice{}

// NewHeadlessDevice creates a HeadlessDevice.
//
// Parameters:
//   - limit: maximum number of resources the device will create before failing, or 0 for no limit
//
// Returns:
//   - *HeadlessDevice: the new device
func NewHeadlessDevice(limit int) *HeadlessDevice {
	return &HeadlessDevice{
		limit: limit,
		live:  make(map[*headlessResource]struct{}),
	}
}

func (d *HeadlessDevice) create(label string, kind ResourceKind, size int) (Resource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.limit > 0 && d.created >= d.limit {
		return nil, errors.Wrapf(ErrDeviceExhausted, "creating %s", label)
	}
	d.created++
	d.bytes += size
	r := &headlessResource{device: d, label: label, kind: kind, size: size}
	d.live[r] = struct{}{}
	return r, nil
}

func (d *HeadlessDevice) release(r *headlessResource) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r.released {
		d.doubleReleases++
		return
	}
	r.released = true
	d.bytes -= r.size
	delete(d.live, r)
}

func (d *HeadlessDevice) CreateVertexBuffer(label string, data []float32) (Resource, error) {
	return d.create(label, ResourceVertexBuffer, len(data)*4)
}

func (d *HeadlessDevice) CreateIndexBuffer(label string, data []uint16) (Resource, error) {
	return d.create(label, ResourceIndexBuffer, len(data)*2)
}

func (d *HeadlessDevice) CreateTexture(label string, staging common.TextureStagingData, _ common.SamplerStagingData) (Resource, error) {
	size := len(staging.Pixels)
	for _, level := range staging.MipLevels {
		size += len(level)
	}
	return d.create(label, ResourceTexture, size)
}

// Live returns the number of resources created and not yet released.
func (d *HeadlessDevice) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// LiveOfKind returns the number of live resources of one kind.
func (d *HeadlessDevice) LiveOfKind(kind ResourceKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for r := range d.live {
		if r.kind == kind {
			n++
		}
	}
	return n
}

// Created returns the total number of resources ever created.
func (d *HeadlessDevice) Created() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created
}

// DoubleReleases returns how many times Release was called on an already released resource.
func (d *HeadlessDevice) DoubleReleases() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doubleReleases
}

// LiveBytes returns the byte size of all live resources.
func (d *HeadlessDevice) LiveBytes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bytes
}
