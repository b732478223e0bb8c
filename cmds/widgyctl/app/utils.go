package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/widgy/pkg/content"
	"github.com/mandelsoft/widgy/pkg/exchange"
	"github.com/mandelsoft/widgy/pkg/tree"
	"github.com/mandelsoft/widgy/pkg/utils"
	"github.com/mandelsoft/widgy/pkg/versioning"
)

// ResolveNode finds a node by id or by materialized path.
func (o *Options) ResolveNode(ctx context.Context, ref string) (*tree.Node, error) {
	if tree.ValidPath(ref) {
		n, err := o.store.FindNode(ctx, ref)
		if err == nil || !versioning.IsNotExist(err) {
			return n, err
		}
	}
	return o.store.GetNode(ctx, ref)
}

// ResolveRoot resolves a tracker to its working copy,
// or any other reference to a node.
func (o *Options) ResolveRoot(ctx context.Context, ref string) (*tree.Node, error) {
	t, err := o.manager.GetTracker(ctx, ref)
	if err == nil {
		return o.store.GetNode(ctx, t.WorkingCopy)
	}
	if !versioning.IsNotExist(err) {
		return nil, err
	}
	return o.ResolveNode(ctx, ref)
}

// ParseContent creates a content object of the given type. The
// attributes are taken from an optional YAML document overwritten
// by field assignments of the form <field>=<value>.
func ParseContent(reg content.Registry, typ string, data string, assignments []string) (content.Content, error) {
	if !reg.Has(typ) {
		return nil, fmt.Errorf("%w %q (use one of %s)", content.ErrUnknownType, typ, strings.Join(reg.Types(), ", "))
	}
	values := map[string]interface{}{}
	if data != "" {
		if err := yaml.Unmarshal([]byte(data), &values); err != nil {
			return nil, fmt.Errorf("invalid content data: %w", err)
		}
	}
	for _, a := range assignments {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid field assignment %q", a)
		}
		values[k] = v
	}
	values["type"] = typ
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return exchange.Decode(reg, &exchange.Element{Content: raw})
}

func Author(name string) string {
	if name != "" {
		return name
	}
	return utils.OptionalDefaulted("unknown", os.Getenv("USER"))
}

func outputFlags(flags *pflag.FlagSet, output *string, sort *string) {
	flags.StringVarP(output, "output", "o", "", "output format (table, yaml, json)")
	if sort != nil {
		flags.StringVarP(sort, "sort", "s", "", "sort field")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var now = time.Now
