package loader

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// SemanticKind is the closed set of vertex attribute semantics.
type SemanticKind int

const (
	SemanticPosition SemanticKind = iota
	SemanticNormal
	SemanticTangent
	SemanticTexCoord
	SemanticColor
	SemanticJoints
	SemanticWeights

	// SemanticCustom covers application-specific attributes prefixed with an underscore.
	// They are skipped during import.
	SemanticCustom
)

// Semantic is a parsed attribute name.
type Semantic struct {
	Kind SemanticKind

	// Set is the n of TEXCOORD_n, COLOR_n, JOINTS_n and WEIGHTS_n. It is 0 for other kinds.
	Set int

	// Name is the attribute name as written in the document.
	Name string
}

var setSemantics = map[string]SemanticKind{
	"TEXCOORD": SemanticTexCoord,
	"COLOR":    SemanticColor,
	"JOINTS":   SemanticJoints,
	"WEIGHTS":  SemanticWeights,
}

// ParseSemantic resolves an attribute name once into a Semantic.
// Names that are neither standard nor underscore-prefixed are a FormatError.
//
// Parameters:
//   - name: the attribute name, such as "TEXCOORD_1"
//
// Returns:
//   - Semantic: the parsed semantic
//   - error: FormatError if the name is unknown
func ParseSemantic(name string) (Semantic, error) {
	switch name {
	case "POSITION":
		return Semantic{Kind: SemanticPosition, Name: name}, nil
	case "NORMAL":
		return Semantic{Kind: SemanticNormal, Name: name}, nil
	case "TANGENT":
		return Semantic{Kind: SemanticTangent, Name: name}, nil
	}

	if strings.HasPrefix(name, "_") {
		return Semantic{Kind: SemanticCustom, Name: name}, nil
	}

	prefix, suffix, ok := strings.Cut(name, "_")
	if kind, known := setSemantics[prefix]; ok && known {
		set, err := strconv.Atoi(suffix)
		if err == nil && set >= 0 {
			return Semantic{Kind: kind, Set: set, Name: name}, nil
		}
	}

	return Semantic{}, newFormatError(ErrUnknownSemantic, name, "attribute is not a glTF semantic")
}

// parseAttributes resolves every attribute of a primitive, ordered so that imports are deterministic.
func parseAttributes[T constraints.Integer](attrs map[string]T) ([]parsedAttribute, error) {
	out := make([]parsedAttribute, 0, len(attrs))
	for name, accessor := range attrs {
		sem, err := ParseSemantic(name)
		if err != nil {
			return nil, err
		}
		out = append(out, parsedAttribute{Semantic: sem, Accessor: int(accessor)})
	}
	slices.SortFunc(out, func(a, b parsedAttribute) int {
		return cmp.Or(
			cmp.Compare(a.Semantic.Kind, b.Semantic.Kind),
			cmp.Compare(a.Semantic.Set, b.Semantic.Set),
			cmp.Compare(a.Semantic.Name, b.Semantic.Name),
		)
	})
	return out, nil
}

// parsedAttribute pairs a semantic with its accessor index.
type parsedAttribute struct {
	Semantic Semantic
	Accessor int
}
