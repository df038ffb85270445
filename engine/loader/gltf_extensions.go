package loader

import (
	"encoding/json"
	"slices"

	"github.com/pkg/errors"
)

// Extension names recognised by the importer.
const (
	ExtLightsPunctual     = "KHR_lights_punctual"
	ExtSpecularGlossiness = "KHR_materials_pbrSpecularGlossiness"
	ExtUnlit              = "KHR_materials_unlit"
	ExtTextureTransform   = "KHR_texture_transform"
)

// ExtensionRegistry lists the extensions a document may require.
type ExtensionRegistry struct {
	supported []string
}

// NewExtensionRegistry creates a registry with the built-in extensions.
//
// Returns:
//   - *ExtensionRegistry: the registry
func NewExtensionRegistry() *ExtensionRegistry {
	return &ExtensionRegistry{
		supported: []string{ExtLightsPunctual, ExtSpecularGlossiness, ExtUnlit, ExtTextureTransform},
	}
}

// Supported reports whether name can appear in extensionsRequired.
func (r *ExtensionRegistry) Supported(name string) bool {
	return slices.Contains(r.supported, name)
}

// CheckRequired fails on the first required extension the importer cannot honour.
//
// Parameters:
//   - required: the document's extensionsRequired list
//
// Returns:
//   - error: FormatError of kind ErrUnsupportedExtension, or nil
func (r *ExtensionRegistry) CheckRequired(required []string) error {
	for _, name := range required {
		if !r.Supported(name) {
			return newFormatError(ErrUnsupportedExtension, name, "required extension is not supported")
		}
	}
	return nil
}

// lookupExtension decodes the payload stored under name into out.
// Payloads of unregistered extensions arrive as raw JSON; anything else is re-encoded first.
//
// Parameters:
//   - exts: an extensions block
//   - name: the extension name
//   - out: pointer to the payload struct
//
// Returns:
//   - bool: false if the block has no such extension
//   - error: FormatError if the payload does not match out
func lookupExtension[M ~map[string]V, V any](exts M, name string, out any) (bool, error) {
	v, ok := exts[name]
	if !ok {
		return false, nil
	}

	var data []byte
	switch raw := any(v).(type) {
	case json.RawMessage:
		data = raw
	case []byte:
		data = raw
	default:
		encoded, err := json.Marshal(raw)
		if err != nil {
			return false, errors.Wrapf(err, "re-encoding %s", name)
		}
		data = encoded
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, &FormatError{Kind: ErrMalformed, Subject: name, Detail: "invalid extension payload", Err: err}
	}
	return true, nil
}

// extTextureInfo is a texture reference inside an extension payload.
type extTextureInfo struct {
	Index      int                        `json:"index"`
	TexCoord   int                        `json:"texCoord"`
	Extensions map[string]json.RawMessage `json:"extensions"`
}

// extSpecularGlossiness is the KHR_materials_pbrSpecularGlossiness payload.
type extSpecularGlossiness struct {
	DiffuseFactor             *[4]float32     `json:"diffuseFactor"`
	DiffuseTexture            *extTextureInfo `json:"diffuseTexture"`
	SpecularFactor            *[3]float32     `json:"specularFactor"`
	GlossinessFactor          *float32        `json:"glossinessFactor"`
	SpecularGlossinessTexture *extTextureInfo `json:"specularGlossinessTexture"`
}

// extTextureTransform is the KHR_texture_transform payload.
type extTextureTransform struct {
	Offset   *[2]float32 `json:"offset"`
	Rotation float32     `json:"rotation"`
	Scale    *[2]float32 `json:"scale"`
	TexCoord *int        `json:"texCoord"`
}

// extLights is the document-level KHR_lights_punctual payload.
type extLights struct {
	Lights []extLight `json:"lights"`
}

// extLight is one punctual light definition.
type extLight struct {
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Color     *[3]float32 `json:"color"`
	Intensity *float32    `json:"intensity"`
	Range     *float32    `json:"range"`
	Spot      *struct {
		InnerConeAngle *float32 `json:"innerConeAngle"`
		OuterConeAngle *float32 `json:"outerConeAngle"`
	} `json:"spot"`
}

// extLightRef is the node-level KHR_lights_punctual payload.
type extLightRef struct {
	Light *int `json:"light"`
}
