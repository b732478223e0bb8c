package runtime

// TypeAccessor provides the type tag of a serialized object.
type TypeAccessor interface {
	GetType() string
}

// Object is the base interface of all objects handled by a Scheme.
// The type tag is part of the serialized form.
type Object interface {
	TypeAccessor
	SetType(string)
}

// ObjectMeta is the embeddable type tag.
type ObjectMeta struct {
	Type string `json:"type"`
}

var _ Object = (*ObjectMeta)(nil)

func NewObjectMeta(typ string) ObjectMeta {
	return ObjectMeta{Type: typ}
}

func (o *ObjectMeta) GetType() string {
	return o.Type
}

func (o *ObjectMeta) SetType(t string) {
	o.Type = t
}

// GetTypeOf provides the type tag of an object, or the empty
// string for nil objects.
func GetTypeOf(o TypeAccessor) string {
	if o == nil {
		return ""
	}
	return o.GetType()
}
