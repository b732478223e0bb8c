package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/minio/highwayhash"

	"github.com/mandelsoft/widgy/pkg/content"
	"github.com/mandelsoft/widgy/pkg/database"
	"github.com/mandelsoft/widgy/pkg/tree"
)

var fingerprintKey = []byte("widgy content fingerprint key 01")

// Fingerprint calculates the fingerprint stored for serialized content.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", highwayhash.Sum64(data, fingerprintKey))
}

// ContentRow is the persisted representation of a content object.
type ContentRow struct {
	ID     string
	Type   string
	Data   []byte
	Hash   string
	NodeID string
}

func getContentRowTx(ctx context.Context, q database.Querier, ref tree.ContentRef) (*ContentRow, error) {
	var r ContentRow
	var data string
	err := q.QueryRowContext(ctx, "SELECT id, type, data, hash, node_id FROM contents WHERE id = ?", ref.ID).
		Scan(&r.ID, &r.Type, &data, &r.Hash, &r.NodeID)
	if err == sql.ErrNoRows {
		return nil, database.NotExist("content", ref.String())
	}
	if err != nil {
		return nil, fmt.Errorf("get content %s: %w", ref, err)
	}
	r.Data = []byte(data)
	return &r, nil
}

func (s *Store) getContentTx(ctx context.Context, q database.Querier, ref tree.ContentRef) (content.Content, error) {
	r, err := getContentRowTx(ctx, q, ref)
	if err != nil {
		return nil, err
	}
	return s.registry.Resolve(ref.Type, r.Data), nil
}

// prepareContent validates and encodes a content object and
// allocates the reference for a new content row.
func (s *Store) prepareContent(c content.Content) (tree.ContentRef, []byte, error) {
	if err := s.registry.Validate(c); err != nil {
		return tree.ContentRef{}, nil, err
	}
	data, err := s.registry.Encode(c)
	if err != nil {
		return tree.ContentRef{}, nil, fmt.Errorf("encode content %s: %w", c.GetType(), err)
	}
	return tree.ContentRef{Type: c.GetType(), ID: uuid.New().String()}, data, nil
}

func insertContentTx(ctx context.Context, q database.Querier, ref tree.ContentRef, data []byte, node string) error {
	_, err := q.ExecContext(ctx, "INSERT INTO contents (id, type, data, hash, node_id) VALUES (?, ?, ?, ?, ?)",
		ref.ID, ref.Type, string(data), Fingerprint(data), node)
	if err != nil {
		return fmt.Errorf("insert content %s: %w", ref, err)
	}
	return nil
}

// copyContentTx duplicates a content row for a cloned node.
func copyContentTx(ctx context.Context, q database.Querier, src tree.ContentRef, dst string, node string) error {
	n, err := database.ExecAffected(ctx, q,
		"INSERT INTO contents (id, type, data, hash, node_id) SELECT ?, type, data, hash, ? FROM contents WHERE id = ?",
		dst, node, src.ID)
	if err != nil {
		return fmt.Errorf("copy content %s: %w", src, err)
	}
	if n == 0 {
		return database.NotExist("content", src.String())
	}
	return nil
}
