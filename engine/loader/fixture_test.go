package loader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

// fixture assembles a small glTF document with a single embedded buffer.
type fixture struct {
	bin         bytes.Buffer
	bufferViews []map[string]any
	accessors   []map[string]any
	doc         map[string]any
}

func newFixture() *fixture {
	return &fixture{
		doc: map[string]any{
			"asset": map[string]any{"version": "2.0"},
		},
	}
}

// align pads the binary chunk to a multiple of four bytes.
func (f *fixture) align() {
	for f.bin.Len()%4 != 0 {
		f.bin.WriteByte(0)
	}
}

// view appends data as a new buffer view and returns its index.
func (f *fixture) view(data []byte, stride int) int {
	f.align()
	v := map[string]any{
		"buffer":     0,
		"byteOffset": f.bin.Len(),
		"byteLength": len(data),
	}
	if stride > 0 {
		v["byteStride"] = stride
	}
	f.bin.Write(data)
	f.bufferViews = append(f.bufferViews, v)
	return len(f.bufferViews) - 1
}

// accessor appends an accessor and returns its index.
func (f *fixture) accessor(a map[string]any) int {
	f.accessors = append(f.accessors, a)
	return len(f.accessors) - 1
}

var typeWidths = map[string]int{"SCALAR": 1, "VEC2": 2, "VEC3": 3, "VEC4": 4, "MAT4": 16}

func (f *fixture) floats(typ string, values ...float32) int {
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return f.accessor(map[string]any{
		"bufferView":    f.view(data, 0),
		"componentType": 5126,
		"type":          typ,
		"count":         len(values) / typeWidths[typ],
	})
}

func (f *fixture) ubytes(typ string, normalized bool, values ...uint8) int {
	a := map[string]any{
		"bufferView":    f.view(values, 0),
		"componentType": 5121,
		"type":          typ,
		"count":         len(values) / typeWidths[typ],
	}
	if normalized {
		a["normalized"] = true
	}
	return f.accessor(a)
}

func (f *fixture) uint16s(typ string, values ...uint16) int {
	data := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(data[i*2:], v)
	}
	return f.accessor(map[string]any{
		"bufferView":    f.view(data, 0),
		"componentType": 5123,
		"type":          typ,
		"count":         len(values) / typeWidths[typ],
	})
}

func (f *fixture) uint32s(values ...uint32) int {
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], v)
	}
	return f.accessor(map[string]any{
		"bufferView":    f.view(data, 0),
		"componentType": 5125,
		"type":          "SCALAR",
		"count":         len(values),
	})
}

// image appends an encoded PNG of the given size as a buffer view image and returns the image index.
func (f *fixture) image(t *testing.T, w, h int) int {
	t.Helper()
	return f.add("images", map[string]any{"bufferView": f.view(encodePNG(t, w, h), 0), "mimeType": "image/png"})
}

// encodePNG returns a w by h gradient encoded as PNG.
func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 40), G: uint8(y * 40), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// external encodes the document with the binary chunk referenced as the sidecar file bin.
// It returns the JSON and the sidecar contents.
func (f *fixture) external(t *testing.T, bin string) ([]byte, []byte) {
	t.Helper()
	f.align()
	doc := make(map[string]any, len(f.doc)+3)
	for k, v := range f.doc {
		doc[k] = v
	}
	doc["buffers"] = []any{map[string]any{"byteLength": f.bin.Len(), "uri": bin}}
	doc["bufferViews"] = f.bufferViews
	doc["accessors"] = f.accessors
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return data, bytes.Clone(f.bin.Bytes())
}

// add appends v to the top-level array key and returns its index.
func (f *fixture) add(key string, v any) int {
	list, _ := f.doc[key].([]any)
	f.doc[key] = append(list, v)
	return len(list)
}

// set stores a top-level document property.
func (f *fixture) set(key string, v any) {
	f.doc[key] = v
}

// triangle adds a mesh with one indexed triangle in the XY plane and returns the mesh index.
func (f *fixture) triangle() int {
	pos := f.floats("VEC3", 0, 0, 0, 1, 0, 0, 0, 1, 0)
	idx := f.uint16s("SCALAR", 0, 1, 2)
	return f.add("meshes", map[string]any{
		"name": "tri",
		"primitives": []any{map[string]any{
			"attributes": map[string]any{"POSITION": pos},
			"indices":    idx,
		}},
	})
}

// json encodes the document with the binary chunk as a base64 data URI.
func (f *fixture) json(t *testing.T) []byte {
	t.Helper()
	doc := make(map[string]any, len(f.doc)+3)
	for k, v := range f.doc {
		doc[k] = v
	}
	if f.bin.Len() > 0 {
		f.align()
		doc["buffers"] = []any{map[string]any{
			"byteLength": f.bin.Len(),
			"uri":        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(f.bin.Bytes()),
		}}
		doc["bufferViews"] = f.bufferViews
		doc["accessors"] = f.accessors
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return data
}

// glb encodes the document as a GLB container with the binary chunk embedded.
func (f *fixture) glb(t *testing.T) []byte {
	t.Helper()
	f.align()
	doc := make(map[string]any, len(f.doc)+3)
	for k, v := range f.doc {
		doc[k] = v
	}
	doc["buffers"] = []any{map[string]any{"byteLength": f.bin.Len()}}
	doc["bufferViews"] = f.bufferViews
	doc["accessors"] = f.accessors

	jsonData, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	for len(jsonData)%4 != 0 {
		jsonData = append(jsonData, ' ')
	}

	var out bytes.Buffer
	total := 12 + 8 + len(jsonData) + 8 + f.bin.Len()
	binary.Write(&out, binary.LittleEndian, glbHeader{Magic: glbMagic, Version: glbVersion, Length: uint32(total)})
	binary.Write(&out, binary.LittleEndian, glbChunkHeader{ChunkLength: uint32(len(jsonData)), ChunkType: glbChunkJSON})
	out.Write(jsonData)
	binary.Write(&out, binary.LittleEndian, glbChunkHeader{ChunkLength: uint32(f.bin.Len()), ChunkType: glbChunkBIN})
	out.Write(f.bin.Bytes())
	return out.Bytes()
}

// prepare imports data on the CPU with cfg and an optional texture resolver.
func prepare(t *testing.T, data []byte, cfg Config, textures TextureResolver) (*PreparedAsset, error) {
	t.Helper()
	return newGLTFImporter(cfg, textures).Prepare(context.Background(), NewMemoryResolver(data), "fixture.gltf")
}

// mustPrepare is prepare with the default configuration, failing the test on error.
func mustPrepare(t *testing.T, data []byte) *PreparedAsset {
	t.Helper()
	p, err := prepare(t, data, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return p
}

// requireKind fails unless err carries a FormatError of kind.
func requireKind(t *testing.T, err error, kind FormatErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", kind)
	}
	got, ok := FormatErrorKindOf(err)
	if !ok {
		t.Fatalf("expected FormatError %v, got %v", kind, err)
	}
	if got != kind {
		t.Fatalf("expected FormatError %v, got %v (%v)", kind, got, err)
	}
}

func approx(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}
