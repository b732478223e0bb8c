package runtime

import (
	"sigs.k8s.io/yaml"
)

type TypeExtractor func(data []byte) (string, error)

type accessorPointer[P any] interface {
	TypeAccessor
	*P
}

func TypeExtractorFor[O any, P accessorPointer[O]]() TypeExtractor {
	return func(data []byte) (string, error) {
		var meta O

		err := yaml.Unmarshal(data, &meta)
		if err != nil {
			return "", err
		}
		return P(&meta).GetType(), nil
	}
}

// Encoding provides object decoding for scheme types.
type Encoding[T Object] interface {
	SchemeTypes[T]

	// Decode decodes a self-describing document.
	Decode(data []byte) (T, error)
	// DecodeAs decodes a document for an explicitly given type.
	DecodeAs(typ string, data []byte) (T, error)
}

// Scheme is an encoding with registration.
type Scheme[E Object] interface {
	Encoding[E]
	TypeScheme[E]
}

type scheme[E Object] struct {
	*types[E]
	typeExtractor TypeExtractor
}

var _ Scheme[Object] = (*scheme[Object])(nil)

// NewYAMLScheme creates a scheme decoding YAML or JSON documents.
// Without explicit extractor the type is taken from the
// top-level field type.
func NewYAMLScheme[E Object](e ...TypeExtractor) Scheme[E] {
	x := TypeExtractorFor[ObjectMeta]()
	if len(e) > 0 && e[0] != nil {
		x = e[0]
	}
	return &scheme[E]{newTypes[E](), x}
}

func (s *scheme[E]) Decode(data []byte) (E, error) {
	var _nil E

	ty, err := s.typeExtractor(data)
	if err != nil {
		return _nil, err
	}
	return s.DecodeAs(ty, data)
}

func (s *scheme[E]) DecodeAs(typ string, data []byte) (E, error) {
	var _nil E

	v, err := s.CreateObject(typ)
	if err != nil {
		return _nil, err
	}

	if len(data) > 0 {
		err = yaml.Unmarshal(data, v)
		if err != nil {
			return _nil, err
		}
	}
	// the document might carry a different type field
	v.SetType(typ)
	return v, nil
}
