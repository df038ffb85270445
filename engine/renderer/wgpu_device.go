package renderer

import (
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-gltf/common"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuDevice is the WebGPU implementation of GraphicsDevice.
type wgpuDevice struct {
	mu       sync.Mutex
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// WGPUDevice is a GraphicsDevice backed by a WebGPU device that can be shut down.
type WGPUDevice interface {
	GraphicsDevice

	// Release destroys the device, queue, adapter and instance.
	// All resources created from the device must be released first.
	Release()
}

var _ WGPUDevice = &wgpuDevice{}

// wgpuBuffer wraps a GPU buffer as a Resource.
type wgpuBuffer struct {
	label  string
	buffer *wgpu.Buffer
	once   sync.Once
}

func (b *wgpuBuffer) Label() string {
	return b.label
}

func (b *wgpuBuffer) Release() {
	b.once.Do(func() {
		b.buffer.Release()
	})
}

// wgpuTexture wraps a texture together with its default view and sampler.
type wgpuTexture struct {
	label   string
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
	once    sync.Once
}

func (t *wgpuTexture) Label() string {
	return t.label
}

// View retrieves the default texture view for binding.
func (t *wgpuTexture) View() *wgpu.TextureView {
	return t.view
}

// Sampler retrieves the sampler built from the glTF sampler state.
func (t *wgpuTexture) Sampler() *wgpu.Sampler {
	return t.sampler
}

func (t *wgpuTexture) Release() {
	t.once.Do(func() {
		if t.sampler != nil {
			t.sampler.Release()
		}
		if t.view != nil {
			t.view.Release()
		}
		t.texture.Release()
	})
}

// NewWGPUDevice requests an adapter and device with no presentation surface.
// The calling goroutine is locked to its OS thread, which becomes the thread owning the device.
//
// Parameters:
//   - forceFallbackAdapter: true to request the software fallback adapter
//
// Returns:
//   - WGPUDevice: the created device
//   - error: error if no adapter or device could be acquired
func NewWGPUDevice(forceFallbackAdapter bool) (WGPUDevice, error) {
	runtime.LockOSThread()
	w := &wgpuDevice{
		instance: wgpu.CreateInstance(nil),
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		w.instance.Release()
		return nil, err
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Asset Device",
	})
	if err != nil {
		a.Release()
		w.instance.Release()
		return nil, err
	}
	w.device = d
	w.queue = d.GetQueue()

	return w, nil
}

func (w *wgpuDevice) CreateVertexBuffer(label string, data []float32) (Resource, error) {
	return w.createBuffer(label, common.SliceToBytes(data), wgpu.BufferUsageVertex)
}

func (w *wgpuDevice) CreateIndexBuffer(label string, data []uint16) (Resource, error) {
	raw := common.SliceToBytes(data)
	// Buffer writes must be a multiple of four bytes.
	if len(raw)%4 != 0 {
		padded := make([]byte, len(raw)+2)
		copy(padded, raw)
		raw = padded
	}
	return w.createBuffer(label, raw, wgpu.BufferUsageIndex)
}

func (w *wgpuDevice) createBuffer(label string, data []byte, usage wgpu.BufferUsage) (Resource, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, err := w.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             uint64(len(data)),
		Usage:            usage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		w.queue.WriteBuffer(buf, 0, data)
	}
	return &wgpuBuffer{label: label, buffer: buf}, nil
}

func (w *wgpuDevice) CreateTexture(label string, staging common.TextureStagingData, sampler common.SamplerStagingData) (Resource, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	tex, err := w.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: staging.MipLevelCount(),
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	levels := append([][]byte{staging.Pixels}, staging.MipLevels...)
	for level, pixels := range levels {
		width, height := staging.LevelSize(uint32(level))
		w.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: uint32(level),
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			pixels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  width * 4,
				RowsPerImage: height,
			},
			&wgpu.Extent3D{
				Width:              width,
				Height:             height,
				DepthOrArrayLayers: 1,
			},
		)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}

	lodMax := float32(0)
	if sampler.UsesMipmaps {
		lodMax = float32(staging.MipLevelCount())
	}
	samp, err := w.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  common.Coalesce(sampler.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(sampler.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(sampler.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(sampler.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(sampler.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(sampler.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   sampler.LodMinClamp,
		LodMaxClamp:   common.Coalesce(sampler.LodMaxClamp, lodMax),
		MaxAnisotropy: common.Coalesce(sampler.MaxAnisotropy, 1),
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, err
	}

	return &wgpuTexture{label: label, texture: tex, view: view, sampler: samp}, nil
}

func (w *wgpuDevice) Release() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.device == nil {
		return
	}
	w.queue.Release()
	w.device.Release()
	w.adapter.Release()
	w.instance.Release()
	w.device = nil
}
