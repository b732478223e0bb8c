package app

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/widgy/pkg/utils"
)

// Output describes the result of a command as table and as object.
type Output struct {
	Columns []string
	Rows    [][]string
	Object  interface{}
	Empty   string
}

func (o *Output) AddRow(cols ...string) {
	o.Rows = append(o.Rows, cols)
}

// Print prints the output in the requested format.
// The default format is a table.
func (o *Output) Print(w io.Writer, format string, sortField string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		if len(o.Rows) == 0 && o.Empty != "" {
			fmt.Fprintf(w, "%s\n", o.Empty)
			return nil
		}
		return PrintTable(w, o.Columns, o.Rows, sortField)
	case "json":
		data, err := json.Marshal(o.Object)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n", string(data))
	case "yaml":
		data, err := yaml.Marshal(o.Object)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s", string(data))
	default:
		return fmt.Errorf("invalid output format %q", format)
	}
	return nil
}

func PrintTable(w io.Writer, columnList []string, fieldList [][]string, sortField string) error {
	sortField = strings.ToUpper(strings.TrimSpace(sortField))
	sort := -1
	if sortField != "" {
		sort = slices.Index(columnList, sortField)
		if sort < 0 {
			return fmt.Errorf("unknown sort field %q", sortField)
		}
	}
	if sort >= 0 {
		slices.SortStableFunc(fieldList, func(a, b []string) int { return strings.Compare(a[sort], b[sort]) })
	}
	max := make([]int, len(columnList))
	for i, s := range columnList {
		max[i] = len(s)
	}
	for _, cols := range fieldList {
		for i, s := range cols {
			if max[i] < len(s) {
				max[i] = len(s)
			}
		}
	}

	f := formatString(max)
	printLine(w, columnList, f)
	for _, cols := range fieldList {
		printLine(w, cols, f)
	}
	return nil
}

func printLine(w io.Writer, cols []string, msg string) {
	args := utils.TransformSlice(cols, func(s string) any { return s })
	fmt.Fprintf(w, "%s\n", strings.TrimRight(fmt.Sprintf(msg, args...), " "))
}

func formatString(max []int) string {
	msg := ""
	for _, l := range max {
		msg += fmt.Sprintf("%%-%ds ", l)
	}
	return msg[:len(msg)-1]
}
