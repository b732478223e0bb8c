package runtime

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/mandelsoft/widgy/pkg/utils"
)

var ErrUnknownType = fmt.Errorf("unknown object type")

type Initializer[T Object] func(o T)

// SchemeTypes is a set of type definitions
// mapping type names to Go types.
// This mapping is used to provide a simple
// object creation by type name.
type SchemeTypes[T Object] interface {
	TypeNames() []string
	HasType(t string) bool
	CreateObject(typ string, init ...Initializer[T]) (T, error)
}

// TypeScheme is a set types with a registration possibility.
type TypeScheme[T Object] interface {
	SchemeTypes[T]

	Register(name string, proto T) error
}

type types[E Object] struct {
	lock  sync.RWMutex
	types map[string]reflect.Type
}

var _ TypeScheme[Object] = (*types[Object])(nil)

func NewTypeScheme[E Object]() TypeScheme[E] {
	return newTypes[E]()
}

func newTypes[E Object]() *types[E] {
	return &types[E]{types: map[string]reflect.Type{}}
}

func (s *types[E]) Register(name string, proto E) error {
	if name == "" {
		return fmt.Errorf("type name required")
	}
	t := reflect.TypeOf(proto)
	if t == nil || t.Kind() != reflect.Pointer {
		return fmt.Errorf("proto type for %s must be pointer", name)
	}
	t = t.Elem()
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("proto type for %s must be pointer to struct", name)
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if old := s.types[name]; old != nil && old != t {
		return fmt.Errorf("type %q already registered for %s", name, old)
	}
	s.types[name] = t
	return nil
}

func (s *types[E]) HasType(t string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.types[t] != nil
}

func (s *types[E]) CreateObject(typ string, init ...Initializer[E]) (E, error) {
	var _nil E

	s.lock.RLock()
	t := s.types[typ]
	s.lock.RUnlock()

	if t == nil {
		return _nil, fmt.Errorf("%w %q", ErrUnknownType, typ)
	}

	o := reflect.New(t).Interface().(E)
	o.SetType(typ)
	for _, i := range init {
		i(o)
	}
	return o, nil
}

func (s *types[E]) TypeNames() []string {
	var names []string

	s.lock.RLock()
	defer s.lock.RUnlock()

	for n := range s.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type ElementType[P any] interface {
	Object
	*P
}

func Register[T any, P ElementType[T], E Object](s TypeScheme[E], name string) error {
	var proto T

	p, ok := (any(&proto)).(E)
	if !ok {
		return fmt.Errorf("*%s does not implement scheme interface %s", utils.TypeOf[T](), utils.TypeOf[E]())
	}
	return s.Register(name, p)
}

func MustRegister[T any, P ElementType[T], E Object](s TypeScheme[E], name string) {
	err := Register[T, P, E](s, name)
	if err != nil {
		panic(err)
	}
}
