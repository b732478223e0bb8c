package content

import (
	"errors"
	"fmt"

	"github.com/mandelsoft/widgy/pkg/runtime"
)

var (
	ErrUnknownType  = errors.New("unknown content type")
	ErrIncompatible = errors.New("incompatible content")
	ErrInvalid      = errors.New("invalid content")
)

// Content is the polymorphic payload attached to a tree node.
// Every content object is identified by its type tag.
type Content interface {
	runtime.Object
}

// Validator is an optional Content interface used
// to check the consistency of a content object before
// it is persisted.
type Validator interface {
	Validate() error
}

// ChildAcceptor is an optional Content interface.
// Only content implementing it may have child nodes.
type ChildAcceptor interface {
	AcceptsChild(child Content) bool
}

// ParentAcceptor is an optional Content interface
// restricting the possible parents of a content object.
type ParentAcceptor interface {
	AcceptsParent(parent Content) bool
}

// Meta is the embeddable part of content implementations.
type Meta = runtime.ObjectMeta

func NewMeta(typ string) Meta {
	return runtime.NewObjectMeta(typ)
}

func IncompatibleError(parent, child Content, reason string) error {
	return fmt.Errorf("%w: %s cannot be placed below %s: %s", ErrIncompatible, runtime.GetTypeOf(child), runtime.GetTypeOf(parent), reason)
}

func InvalidError(c Content, msg string, args ...interface{}) error {
	return fmt.Errorf("%w (%s): %s", ErrInvalid, runtime.GetTypeOf(c), fmt.Sprintf(msg, args...))
}
