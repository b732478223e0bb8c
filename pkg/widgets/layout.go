package widgets

import (
	"regexp"

	"github.com/mandelsoft/widgy/pkg/content"
)

var language = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]{2,8})?$`)

// Layout is the top-level container of a page. Layouts
// may be bound to a language for translated page variants.
type Layout struct {
	content.Meta `json:",inline"`

	Title    string `json:"title,omitempty"`
	Language string `json:"language,omitempty"`
}

var (
	_ content.ChildAcceptor  = (*Layout)(nil)
	_ content.ParentAcceptor = (*Layout)(nil)
	_ content.Validator      = (*Layout)(nil)
)

func NewLayout(title, lang string) *Layout {
	return &Layout{
		Meta:     content.NewMeta(TYPE_LAYOUT),
		Title:    title,
		Language: lang,
	}
}

// AcceptsChild accepts all children, nested layouts
// decide on their own.
func (l *Layout) AcceptsChild(child content.Content) bool {
	return true
}

// AcceptsParent restricts nested layouts.
// A layout may only be placed below another layout
// when providing a translation (it has a language).
func (l *Layout) AcceptsParent(parent content.Content) bool {
	return l.Language != "" && parent.GetType() == TYPE_LAYOUT
}

func (l *Layout) Validate() error {
	if l.Language != "" && !language.MatchString(l.Language) {
		return content.InvalidError(l, "invalid language code %q", l.Language)
	}
	return nil
}

func (l *Layout) GetDescription() string {
	if l.Language != "" {
		return l.Title + " [" + l.Language + "]"
	}
	return l.Title
}

// Section groups leaf widgets inside a layout.
type Section struct {
	content.Meta `json:",inline"`

	Title string `json:"title,omitempty"`
}

var _ content.ChildAcceptor = (*Section)(nil)

func NewSection(title string) *Section {
	return &Section{
		Meta:  content.NewMeta(TYPE_SECTION),
		Title: title,
	}
}

func (s *Section) AcceptsChild(child content.Content) bool {
	switch child.GetType() {
	case TYPE_LAYOUT, TYPE_SECTION:
		return false
	}
	return true
}

func (s *Section) GetDescription() string {
	return s.Title
}
