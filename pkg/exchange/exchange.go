package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/widgy/pkg/content"
	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/store"
	"github.com/mandelsoft/widgy/pkg/tree"
)

const VERSION = "widgy/v1"

// Document is the exchange format of a content tree.
type Document struct {
	Version string   `json:"version"`
	Root    *Element `json:"root"`
}

// Element describes a node with its content and children.
// The content is kept in its stored encoding including the type.
type Element struct {
	Content  json.RawMessage `json:"content"`
	Children []*Element      `json:"children,omitempty"`
}

func (e *Element) Count() int {
	n := 1
	for _, c := range e.Children {
		n += c.Count()
	}
	return n
}

// Export describes the subtree starting at the given node.
func Export(ctx context.Context, s *store.Store, node string) (*Document, error) {
	t, err := s.LoadTree(ctx, node)
	if err != nil {
		return nil, err
	}
	var export func(idx tree.Index) (*Element, error)
	export = func(idx tree.Index) (*Element, error) {
		n := t.Get(idx)
		c, err := s.GetContentFor(ctx, n.Content)
		if err != nil {
			return nil, err
		}
		data, err := s.Registry().Encode(c)
		if err != nil {
			return nil, fmt.Errorf("encode content of %s: %w", n.Path, err)
		}
		e := &Element{Content: data}
		for _, ci := range t.Children(idx) {
			ce, err := export(ci)
			if err != nil {
				return nil, err
			}
			e.Children = append(e.Children, ce)
		}
		return e, nil
	}
	root, err := export(t.Lookup(node))
	if err != nil {
		return nil, err
	}
	return &Document{Version: VERSION, Root: root}, nil
}

// Decode provides the content object of an element.
// Only registered content types can be imported.
func Decode(reg content.Registry, e *Element) (content.Content, error) {
	var meta struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(e.Content, &meta); err != nil {
		return nil, fmt.Errorf("invalid element content: %w", err)
	}
	if meta.Type == "" {
		return nil, fmt.Errorf("element content without type")
	}
	c := reg.Resolve(meta.Type, e.Content)
	if err := reg.Validate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Import creates a new top level tree from a document.
func Import(ctx context.Context, s *store.Store, doc *Document) (*tree.Node, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	var root *tree.Node
	err := s.Database().Transaction(ctx, func(tx *database.Tx) error {
		c, err := Decode(s.Registry(), doc.Root)
		if err != nil {
			return err
		}
		root, err = s.CreateRootTx(ctx, tx, c)
		if err != nil {
			return err
		}
		return addChildrenTx(ctx, tx, s, root.ID, doc.Root.Children)
	})
	if err != nil {
		return nil, err
	}
	log.Info("imported {{count}} nodes as tree {{path}}", "count", doc.Root.Count(), "path", root.Path)
	return root, nil
}

// ImportChildren appends the children of the document root
// to an existing node.
func ImportChildren(ctx context.Context, s *store.Store, parent string, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	return s.Database().Transaction(ctx, func(tx *database.Tx) error {
		return addChildrenTx(ctx, tx, s, parent, doc.Root.Children)
	})
}

func addChildrenTx(ctx context.Context, q database.Querier, s *store.Store, parent string, elems []*Element) error {
	for _, e := range elems {
		c, err := Decode(s.Registry(), e)
		if err != nil {
			return err
		}
		n, err := s.AddChildTx(ctx, q, parent, tree.LastChild, c)
		if err != nil {
			return err
		}
		if err := addChildrenTx(ctx, q, s, n.ID, e.Children); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) Validate() error {
	if d.Version != VERSION {
		return fmt.Errorf("unsupported document version %q", d.Version)
	}
	if d.Root == nil {
		return fmt.Errorf("document without root element")
	}
	return nil
}

// WriteFile stores a document as YAML file.
func WriteFile(fs vfs.FileSystem, path string, doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return vfs.WriteFile(fs, path, data, 0o600)
}

// ReadFile reads a YAML or JSON document.
func ReadFile(fs vfs.FileSystem, path string) (*Document, error) {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document %q: %w", path, err)
	}
	return &doc, doc.Validate()
}
