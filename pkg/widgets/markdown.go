package widgets

import (
	"strings"

	"github.com/mandelsoft/widgy/pkg/content"
)

type Markdown struct {
	content.Meta `json:",inline"`

	Content string `json:"content"`
}

var _ content.Content = (*Markdown)(nil)

func NewMarkdown(text string) *Markdown {
	return &Markdown{
		Meta:    content.NewMeta(TYPE_MARKDOWN),
		Content: text,
	}
}

func (m *Markdown) GetDescription() string {
	line, _, _ := strings.Cut(strings.TrimSpace(m.Content), "\n")
	return strings.TrimLeft(line, "# ")
}
