package content

import (
	"encoding/json"
	"fmt"

	"github.com/mandelsoft/widgy/pkg/runtime"
)

// Registry maps type tags to content schemas.
type Registry interface {
	Register(name string, proto Content) error
	Types() []string
	Has(typ string) bool

	// Create creates an empty content object for a registered type.
	Create(typ string) (Content, error)
	// Resolve decodes a stored payload. It never fails:
	// unknown types or broken payloads degrade to an UnknownWidget.
	Resolve(typ string, data []byte) Content
	// Encode serializes a content object for storage.
	Encode(c Content) ([]byte, error)

	// Validate checks whether the content may be persisted.
	Validate(c Content) error
	// CheckChild checks whether child may be placed below parent.
	CheckChild(parent, child Content) error
}

type registry struct {
	scheme runtime.Scheme[Content]
}

var _ Registry = (*registry)(nil)

func NewRegistry() Registry {
	return &registry{scheme: runtime.NewYAMLScheme[Content]()}
}

type pointer[P any] interface {
	Content
	*P
}

func RegisterType[T any, P pointer[T]](r Registry, name string) error {
	var proto T
	return r.Register(name, P(&proto))
}

func MustRegisterType[T any, P pointer[T]](r Registry, name string) {
	if err := RegisterType[T, P](r, name); err != nil {
		panic(err)
	}
}

func (r *registry) Register(name string, proto Content) error {
	if _, ok := proto.(*UnknownWidget); ok {
		return fmt.Errorf("placeholder type cannot be registered")
	}
	err := r.scheme.Register(name, proto)
	if err == nil {
		log.Debug("registered content type {{type}}", "type", name)
	}
	return err
}

func (r *registry) Types() []string {
	return r.scheme.TypeNames()
}

func (r *registry) Has(typ string) bool {
	return r.scheme.HasType(typ)
}

func (r *registry) Create(typ string) (Content, error) {
	if !r.scheme.HasType(typ) {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, typ)
	}
	return r.scheme.CreateObject(typ)
}

func (r *registry) Resolve(typ string, data []byte) Content {
	if !r.scheme.HasType(typ) {
		log.Debug("no content type {{type}} registered, using placeholder", "type", typ)
		return NewUnknownWidget(typ, data, "type not registered")
	}
	c, err := r.scheme.DecodeAs(typ, data)
	if err != nil {
		log.Info("cannot decode content of type {{type}}: {{error}}", "type", typ, "error", err.Error())
		return NewUnknownWidget(typ, data, err.Error())
	}
	return c
}

func (r *registry) Encode(c Content) ([]byte, error) {
	if u, ok := c.(*UnknownWidget); ok {
		return []byte(u.Data), nil
	}
	return json.Marshal(c)
}

func (r *registry) Validate(c Content) error {
	if c == nil {
		return fmt.Errorf("%w: no content given", ErrInvalid)
	}
	if IsUnknown(c) {
		return fmt.Errorf("%w %q: placeholder content cannot be written", ErrUnknownType, c.GetType())
	}
	if !r.Has(c.GetType()) {
		return fmt.Errorf("%w %q", ErrUnknownType, c.GetType())
	}
	if v, ok := c.(Validator); ok {
		return v.Validate()
	}
	return nil
}

func (r *registry) CheckChild(parent, child Content) error {
	if IsUnknown(parent) {
		return IncompatibleError(parent, child, "unknown widgets do not accept children")
	}
	a, ok := parent.(ChildAcceptor)
	if !ok {
		return IncompatibleError(parent, child, "no children accepted")
	}
	if !a.AcceptsChild(child) {
		return IncompatibleError(parent, child, "rejected by parent")
	}
	if p, ok := child.(ParentAcceptor); ok && !p.AcceptsParent(parent) {
		return IncompatibleError(parent, child, "rejected by child")
	}
	return nil
}
