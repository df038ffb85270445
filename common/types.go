// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/cogentcore/webgpu/wgpu"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the base mip level in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the base level in pixels.
	Width uint32
	// Height is the height of the base level in pixels.
	Height uint32
	// MipLevels holds the downsampled levels below the base, largest first. Empty when the texture has no mip chain.
	MipLevels [][]byte
}

// MipLevelCount returns the total number of levels including the base level.
func (t TextureStagingData) MipLevelCount() uint32 {
	return uint32(len(t.MipLevels)) + 1
}

// LevelSize returns the pixel dimensions of the given mip level.
//
// Parameters:
//   - level: the mip level, 0 being the base
//
// Returns:
//   - uint32: width of the level
//   - uint32: height of the level
func (t TextureStagingData) LevelSize(level uint32) (uint32, uint32) {
	return max(t.Width>>level, 1), max(t.Height>>level, 1)
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
	// UsesMipmaps is true when the glTF min filter selects between mip levels.
	UsesMipmaps bool
}

// DecodeImage decodes encoded image bytes to RGBA staging data.
// Supports PNG, JPEG, WebP and BMP.
//
// Parameters:
//   - data: the encoded image bytes
//
// Returns:
//   - *TextureStagingData: the decoded base level
//   - error: error if decoding fails
func DecodeImage(data []byte) (*TextureStagingData, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}

// GenerateMipmaps fills MipLevels with a full chain down to 1x1.
// Each level is downsampled from the previous one with a bilinear filter.
func (t *TextureStagingData) GenerateMipmaps() {
	t.MipLevels = t.MipLevels[:0]
	prev := &image.RGBA{
		Pix:    t.Pixels,
		Stride: int(t.Width) * 4,
		Rect:   image.Rect(0, 0, int(t.Width), int(t.Height)),
	}
	for level := uint32(1); ; level++ {
		w, h := t.LevelSize(level)
		if prev.Rect.Dx() == 1 && prev.Rect.Dy() == 1 {
			break
		}
		dst := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		t.MipLevels = append(t.MipLevels, dst.Pix)
		prev = dst
	}
}
