// Package widgets provides the standard content types
// usable in widgy trees.
package widgets

import (
	"github.com/mandelsoft/widgy/pkg/content"
)

const (
	TYPE_MARKDOWN = "markdown"
	TYPE_TABLE    = "table"
	TYPE_FORM     = "form"
	TYPE_CALLOUT  = "callout"
	TYPE_LAYOUT   = "layout"
	TYPE_SECTION  = "section"
)

// Register registers all standard widgets at the given registry.
func Register(r content.Registry) error {
	if err := content.RegisterType[Markdown](r, TYPE_MARKDOWN); err != nil {
		return err
	}
	if err := content.RegisterType[Table](r, TYPE_TABLE); err != nil {
		return err
	}
	if err := content.RegisterType[Form](r, TYPE_FORM); err != nil {
		return err
	}
	if err := content.RegisterType[Callout](r, TYPE_CALLOUT); err != nil {
		return err
	}
	if err := content.RegisterType[Layout](r, TYPE_LAYOUT); err != nil {
		return err
	}
	return content.RegisterType[Section](r, TYPE_SECTION)
}

// NewRegistry provides a registry with all standard widgets.
func NewRegistry() content.Registry {
	r := content.NewRegistry()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}
