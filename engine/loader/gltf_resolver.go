package loader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-gltf/common"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

const (
	glbMagic     = 0x46546C67 // "glTF" in little-endian ASCII
	glbVersion   = 2
	glbChunkJSON = 0x4E4F534A // "JSON" in little-endian ASCII
	glbChunkBIN  = 0x004E4942 // "BIN\0" in little-endian ASCII
)

// glbHeader is the header of a GLB file (12 bytes).
type glbHeader struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

// glbChunkHeader is the header of a GLB chunk (8 bytes).
type glbChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32
}

// DataFileResolver gives the importer access to a glTF document and the files it references.
type DataFileResolver interface {
	// Load reads and decodes the document at location.
	// The format (JSON or GLB) is detected from the content.
	//
	// Parameters:
	//   - ctx: context for cancellation
	//   - location: the document path, relative to the resolver's file system
	//
	// Returns:
	//   - error: FormatError for malformed content, or an IO error
	Load(ctx context.Context, location string) error

	// Root retrieves the decoded document, or nil before Load succeeds.
	//
	// Returns:
	//   - *gltf.Document: the document
	Root() *gltf.Document

	// Buffer retrieves the raw bytes of buffer index.
	//
	// Parameters:
	//   - index: the buffer index
	//
	// Returns:
	//   - []byte: the buffer bytes
	//   - error: FormatError if the buffer does not exist
	Buffer(index int) ([]byte, error)

	// LoadImage decodes image index to RGBA pixels.
	//
	// Parameters:
	//   - ctx: context for cancellation
	//   - index: the image index
	//
	// Returns:
	//   - *common.TextureStagingData: the decoded base level
	//   - error: error if the image cannot be read or decoded
	LoadImage(ctx context.Context, index int) (*common.TextureStagingData, error)

	// Location retrieves the location passed to Load.
	//
	// Returns:
	//   - string: the document location
	Location() string
}

// resolver is the fs.FS backed implementation of DataFileResolver.
type resolver struct {
	fsys     fs.FS
	data     []byte
	location string
	dir      string
	doc      *gltf.Document
	binChunk []byte
}

var _ DataFileResolver = &resolver{}

// NewFileResolver creates a resolver reading from the operating system.
// The document's directory is used to resolve relative URIs.
//
// Returns:
//   - DataFileResolver: the resolver
func NewFileResolver() DataFileResolver {
	return &resolver{}
}

// NewFSResolver creates a resolver reading the document and its sidecar files from fsys.
//
// Parameters:
//   - fsys: the file system holding the document
//
// Returns:
//   - DataFileResolver: the resolver
func NewFSResolver(fsys fs.FS) DataFileResolver {
	return &resolver{fsys: fsys}
}

// NewMemoryResolver creates a resolver over already loaded document bytes.
// Only embedded buffers and images (GLB chunk, data URIs, buffer views) can be resolved.
//
// Parameters:
//   - data: the glTF JSON or GLB bytes
//
// Returns:
//   - DataFileResolver: the resolver
func NewMemoryResolver(data []byte) DataFileResolver {
	return &resolver{data: data}
}

func (r *resolver) Root() *gltf.Document {
	return r.doc
}

func (r *resolver) Location() string {
	return r.location
}

func (r *resolver) Load(ctx context.Context, location string) error {
	r.location = location

	data := r.data
	if data == nil {
		if r.fsys == nil {
			abs, err := filepath.Abs(location)
			if err != nil {
				return err
			}
			r.fsys = os.DirFS(filepath.Dir(abs))
			location = filepath.Base(abs)
		}
		r.dir = path.Dir(filepath.ToSlash(location))

		var err error
		data, err = fs.ReadFile(r.fsys, filepath.ToSlash(location))
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", r.location)
		}
	}

	jsonData := data
	if len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == glbMagic {
		var err error
		jsonData, r.binChunk, err = splitGLB(data)
		if err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := checkDocumentStrings(jsonData); err != nil {
		return err
	}

	doc := &gltf.Document{}
	if err := json.Unmarshal(jsonData, doc); err != nil {
		return &FormatError{Kind: ErrMalformed, Subject: r.location, Detail: "invalid glTF JSON", Err: err}
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return newFormatError(ErrMalformed, "asset.version", "unsupported glTF version %q", doc.Asset.Version)
	}

	if err := r.loadBuffers(doc); err != nil {
		return err
	}

	r.doc = doc
	return nil
}

// splitGLB returns the JSON and BIN chunks of a GLB container.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func splitGLB(data []byte) ([]byte, []byte, error) {
	if len(data) < 12 {
		return nil, nil, newFormatError(ErrMalformed, "glb", "file too small")
	}

	rd := bytes.NewReader(data)

	var header glbHeader
	if err := binary.Read(rd, binary.LittleEndian, &header); err != nil {
		return nil, nil, &FormatError{Kind: ErrMalformed, Subject: "glb", Detail: "failed to read header", Err: err}
	}
	if header.Version != glbVersion {
		return nil, nil, newFormatError(ErrMalformed, "glb", "unsupported container version %d", header.Version)
	}

	var jsonData, binData []byte
	for {
		var chunk glbChunkHeader
		if err := binary.Read(rd, binary.LittleEndian, &chunk); err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, &FormatError{Kind: ErrMalformed, Subject: "glb", Detail: "failed to read chunk header", Err: err}
		}

		chunkData := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(rd, chunkData); err != nil {
			return nil, nil, &FormatError{Kind: ErrMalformed, Subject: "glb", Detail: "truncated chunk", Err: err}
		}

		switch chunk.ChunkType {
		case glbChunkJSON:
			jsonData = chunkData
		case glbChunkBIN:
			if binData == nil {
				binData = chunkData
			}
		}
	}

	if jsonData == nil {
		return nil, nil, newFormatError(ErrMalformed, "glb", "missing JSON chunk")
	}
	return jsonData, binData, nil
}

// documentStrings holds the enumerated strings of a document that must be known to the importer.
type documentStrings struct {
	Animations []struct {
		Channels []struct {
			Target struct {
				Path string `json:"path"`
			} `json:"target"`
		} `json:"channels"`
		Samplers []struct {
			Interpolation string `json:"interpolation"`
		} `json:"samplers"`
	} `json:"animations"`
	Cameras []struct {
		Type string `json:"type"`
	} `json:"cameras"`
}

// checkDocumentStrings rejects interpolation, channel path and camera type names the importer
// does not know, before they are folded into enums by the document decoder.
func checkDocumentStrings(jsonData []byte) error {
	var ds documentStrings
	if err := json.Unmarshal(jsonData, &ds); err != nil {
		return &FormatError{Kind: ErrMalformed, Detail: "invalid glTF JSON", Err: err}
	}

	for ai, anim := range ds.Animations {
		for si, s := range anim.Samplers {
			if s.Interpolation != "" && !interpolationNames[s.Interpolation] {
				return newFormatError(ErrUnknownInterpolation, fmt.Sprintf("animation %d sampler %d", ai, si), "interpolation %q", s.Interpolation)
			}
		}
		for ci, c := range anim.Channels {
			if !channelPathNames[c.Target.Path] {
				return newFormatError(ErrMalformed, fmt.Sprintf("animation %d channel %d", ai, ci), "unknown target path %q", c.Target.Path)
			}
		}
	}

	for i, c := range ds.Cameras {
		if !cameraTypeNames[c.Type] {
			return newFormatError(ErrUnknownCameraType, fmt.Sprintf("camera %d", i), "camera type %q", c.Type)
		}
	}
	return nil
}

// loadBuffers fills Data for every buffer from the GLB chunk, a data URI or a sidecar file.
func (r *resolver) loadBuffers(doc *gltf.Document) error {
	for i, buf := range doc.Buffers {
		subject := fmt.Sprintf("buffer %d", i)

		switch {
		case buf.URI == "":
			if i != 0 || r.binChunk == nil {
				return newFormatError(ErrMalformed, subject, "buffer has no URI and no GLB binary chunk")
			}
			buf.Data = r.binChunk
		case strings.HasPrefix(buf.URI, "data:"):
			data, _, err := decodeDataURI(buf.URI)
			if err != nil {
				return &FormatError{Kind: ErrMalformed, Subject: subject, Err: err}
			}
			buf.Data = data
		default:
			data, err := r.readSidecar(buf.URI)
			if err != nil {
				return errors.Wrapf(err, "%s", subject)
			}
			buf.Data = data
		}

		if len(buf.Data) < int(buf.ByteLength) {
			return newFormatError(ErrMalformed, subject, "buffer holds %d bytes, %d declared", len(buf.Data), buf.ByteLength)
		}
	}
	return nil
}

// readSidecar reads a file referenced by a relative URI.
func (r *resolver) readSidecar(uri string) ([]byte, error) {
	if r.fsys == nil {
		return nil, fmt.Errorf("external resource %q cannot be resolved from memory", uri)
	}
	name := path.Join(r.dir, filepath.ToSlash(uri))
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %q", uri)
	}
	return data, nil
}

func (r *resolver) Buffer(index int) ([]byte, error) {
	if r.doc == nil || index < 0 || index >= len(r.doc.Buffers) {
		return nil, newFormatError(ErrInvalidIndex, fmt.Sprintf("buffer %d", index), "buffer does not exist")
	}
	return r.doc.Buffers[index].Data, nil
}

func (r *resolver) LoadImage(ctx context.Context, index int) (*common.TextureStagingData, error) {
	if r.doc == nil || index < 0 || index >= len(r.doc.Images) {
		return nil, newFormatError(ErrInvalidIndex, fmt.Sprintf("image %d", index), "image does not exist")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := r.doc.Images[index]
	var encoded []byte

	switch {
	case img.BufferView != nil:
		view, err := bufferViewBytes(r, int(*img.BufferView))
		if err != nil {
			return nil, err
		}
		encoded = view
	case strings.HasPrefix(img.URI, "data:"):
		data, _, err := decodeDataURI(img.URI)
		if err != nil {
			return nil, &FormatError{Kind: ErrMalformed, Subject: fmt.Sprintf("image %d", index), Err: err}
		}
		encoded = data
	case img.URI != "":
		data, err := r.readSidecar(img.URI)
		if err != nil {
			return nil, err
		}
		encoded = data
	default:
		return nil, newFormatError(ErrMalformed, fmt.Sprintf("image %d", index), "image has no source")
	}

	staging, err := common.DecodeImage(encoded)
	if err != nil {
		return nil, errors.Wrapf(err, "image %d", index)
	}
	return staging, nil
}

// bufferViewBytes returns the bytes covered by a buffer view.
func bufferViewBytes(r DataFileResolver, index int) ([]byte, error) {
	doc := r.Root()
	if index < 0 || index >= len(doc.BufferViews) {
		return nil, newFormatError(ErrInvalidIndex, fmt.Sprintf("bufferView %d", index), "buffer view does not exist")
	}
	bv := doc.BufferViews[index]
	buf, err := r.Buffer(int(bv.Buffer))
	if err != nil {
		return nil, err
	}
	start, end := int(bv.ByteOffset), int(bv.ByteOffset)+int(bv.ByteLength)
	if end > len(buf) {
		return nil, newFormatError(ErrMalformed, fmt.Sprintf("bufferView %d", index), "range [%d, %d) exceeds buffer of %d bytes", start, end, len(buf))
	}
	return buf[start:end], nil
}

// decodeDataURI decodes a base64 data URI.
// Format: data:[<mediatype>][;base64],<data>
//
// Parameters:
//   - uri: the data URI string
//
// Returns:
//   - []byte: the decoded binary data
//   - string: the MIME type
//   - error: error if the URI is malformed or not base64
func decodeDataURI(uri string) ([]byte, string, error) {
	header, encoded, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data URI: no comma found")
	}

	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("unsupported data URI encoding: %s", header)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, mimeType, nil
}
