package loader

import (
	"fmt"

	"github.com/pkg/errors"
)

// FormatErrorKind classifies malformed or unsupported glTF content.
type FormatErrorKind int

const (
	// ErrMalformed covers content that cannot be decoded or violates the glTF structure.
	ErrMalformed FormatErrorKind = iota
	ErrUnknownSemantic
	ErrBadComponentType
	ErrMissingBufferView
	ErrUnsupportedExtension
	ErrUnknownInterpolation
	ErrUnknownCameraType
	ErrUnsupportedPrimitiveMode
	ErrMissingAttribute
	ErrInvalidIndex
	ErrCyclicNode
)

func (k FormatErrorKind) String() string {
	switch k {
	case ErrUnknownSemantic:
		return "unknown attribute semantic"
	case ErrBadComponentType:
		return "bad component type"
	case ErrMissingBufferView:
		return "missing buffer view"
	case ErrUnsupportedExtension:
		return "unsupported extension"
	case ErrUnknownInterpolation:
		return "unknown interpolation"
	case ErrUnknownCameraType:
		return "unknown camera type"
	case ErrUnsupportedPrimitiveMode:
		return "unsupported primitive mode"
	case ErrMissingAttribute:
		return "missing attribute"
	case ErrInvalidIndex:
		return "invalid index"
	case ErrCyclicNode:
		return "cyclic node reference"
	}
	return "malformed content"
}

// FormatError reports glTF content the importer cannot accept.
// It is always fatal to the load that produced it.
type FormatError struct {
	Kind FormatErrorKind

	// Subject names the offending element, such as an attribute name or "accessor 3".
	Subject string

	Detail string

	// Err is the underlying cause, if any.
	Err error
}

func (e *FormatError) Error() string {
	msg := "gltf: " + e.Kind.String()
	if e.Subject != "" {
		msg += " (" + e.Subject + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// newFormatError builds a FormatError with a formatted detail message.
func newFormatError(kind FormatErrorKind, subject string, format string, args ...any) *FormatError {
	return &FormatError{
		Kind:    kind,
		Subject: subject,
		Detail:  fmt.Sprintf(format, args...),
	}
}

// IsFormatError reports whether err is or wraps a FormatError.
//
// Parameters:
//   - err: the error to inspect
//
// Returns:
//   - bool: true if a FormatError is in the chain
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// FormatErrorKindOf returns the kind of the first FormatError in the chain.
//
// Returns:
//   - FormatErrorKind: the kind
//   - bool: false if err holds no FormatError
func FormatErrorKindOf(err error) (FormatErrorKind, bool) {
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}
