package common

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestDecodeImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.Set(2, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	staging, err := DecodeImage(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if staging.Width != 3 || staging.Height != 2 || len(staging.Pixels) != 3*2*4 {
		t.Fatalf("decoded %dx%d with %d bytes", staging.Width, staging.Height, len(staging.Pixels))
	}
	last := staging.Pixels[len(staging.Pixels)-4:]
	if !bytes.Equal(last, []byte{10, 20, 30, 255}) {
		t.Errorf("last pixel = %v", last)
	}

	if _, err := DecodeImage([]byte("not an image")); err == nil {
		t.Error("expected an error for garbage input")
	}
}

func TestGenerateMipmaps(t *testing.T) {
	tests := []struct {
		width, height uint32
		levels        uint32
	}{
		{4, 4, 3},
		{8, 2, 4},
		{1, 1, 1},
	}

	for _, tt := range tests {
		staging := TextureStagingData{
			Pixels: bytes.Repeat([]byte{255, 0, 0, 255}, int(tt.width*tt.height)),
			Width:  tt.width,
			Height: tt.height,
		}
		staging.GenerateMipmaps()

		if got := staging.MipLevelCount(); got != tt.levels {
			t.Errorf("%dx%d: %d levels, want %d", tt.width, tt.height, got, tt.levels)
			continue
		}
		for i, level := range staging.MipLevels {
			w, h := staging.LevelSize(uint32(i + 1))
			if len(level) != int(w*h*4) {
				t.Errorf("%dx%d level %d holds %d bytes, want %dx%d", tt.width, tt.height, i+1, len(level), w, h)
			}
			if level[0] != 255 || level[1] != 0 {
				t.Errorf("level %d lost the source colour: %v", i+1, level[:4])
			}
		}
	}
}
