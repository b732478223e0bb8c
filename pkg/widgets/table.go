package widgets

import (
	"fmt"

	"github.com/mandelsoft/widgy/pkg/content"
)

type Table struct {
	content.Meta `json:",inline"`

	Caption string     `json:"caption,omitempty"`
	Header  []string   `json:"header,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

var _ content.Validator = (*Table)(nil)

func NewTable(header []string, rows ...[]string) *Table {
	return &Table{
		Meta:   content.NewMeta(TYPE_TABLE),
		Header: header,
		Rows:   rows,
	}
}

// Columns returns the column count of the table.
func (t *Table) Columns() int {
	if len(t.Header) > 0 {
		return len(t.Header)
	}
	if len(t.Rows) > 0 {
		return len(t.Rows[0])
	}
	return 0
}

// Validate checks that the table is rectangular.
func (t *Table) Validate() error {
	cols := t.Columns()
	for i, r := range t.Rows {
		if len(r) != cols {
			return content.InvalidError(t, "row %d has %d columns, expected %d", i+1, len(r), cols)
		}
	}
	return nil
}

func (t *Table) GetDescription() string {
	if t.Caption != "" {
		return t.Caption
	}
	return fmt.Sprintf("table %dx%d", len(t.Rows), t.Columns())
}
