package widgets

import (
	"slices"

	"github.com/mandelsoft/widgy/pkg/content"
)

var CalloutStyles = []string{"info", "warning", "danger"}

type Callout struct {
	content.Meta `json:",inline"`

	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
	Style string `json:"style,omitempty"`
}

var _ content.Validator = (*Callout)(nil)

func NewCallout(title, text, style string) *Callout {
	return &Callout{
		Meta:  content.NewMeta(TYPE_CALLOUT),
		Title: title,
		Text:  text,
		Style: style,
	}
}

func (c *Callout) Validate() error {
	if c.Style != "" && !slices.Contains(CalloutStyles, c.Style) {
		return content.InvalidError(c, "unknown style %q", c.Style)
	}
	if c.Text == "" && c.Title == "" {
		return content.InvalidError(c, "title or text required")
	}
	return nil
}

func (c *Callout) GetDescription() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Text
}
