package widgets

import (
	"slices"

	"github.com/mandelsoft/widgy/pkg/content"
)

const (
	FIELD_TEXT     = "text"
	FIELD_EMAIL    = "email"
	FIELD_TEXTAREA = "textarea"
	FIELD_CHECKBOX = "checkbox"
	FIELD_CHOICE   = "choice"
)

var FieldKinds = []string{FIELD_TEXT, FIELD_EMAIL, FIELD_TEXTAREA, FIELD_CHECKBOX, FIELD_CHOICE}

type Field struct {
	Name     string   `json:"name"`
	Label    string   `json:"label,omitempty"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required,omitempty"`
	Choices  []string `json:"choices,omitempty"`
}

type Form struct {
	content.Meta `json:",inline"`

	Name    string  `json:"name"`
	Submit  string  `json:"submit,omitempty"`
	Fields  []Field `json:"fields,omitempty"`
	Message string  `json:"message,omitempty"`
}

var _ content.Validator = (*Form)(nil)

func NewForm(name string, fields ...Field) *Form {
	return &Form{
		Meta:   content.NewMeta(TYPE_FORM),
		Name:   name,
		Fields: fields,
	}
}

func (f *Form) Validate() error {
	if f.Name == "" {
		return content.InvalidError(f, "form name required")
	}
	seen := map[string]bool{}
	for _, fld := range f.Fields {
		if fld.Name == "" {
			return content.InvalidError(f, "field without name")
		}
		if seen[fld.Name] {
			return content.InvalidError(f, "duplicate field %q", fld.Name)
		}
		seen[fld.Name] = true
		if !slices.Contains(FieldKinds, fld.Kind) {
			return content.InvalidError(f, "field %q: unknown kind %q", fld.Name, fld.Kind)
		}
		if fld.Kind == FIELD_CHOICE && len(fld.Choices) == 0 {
			return content.InvalidError(f, "field %q: choices required", fld.Name)
		}
	}
	return nil
}

func (f *Form) GetDescription() string {
	return "form " + f.Name
}
