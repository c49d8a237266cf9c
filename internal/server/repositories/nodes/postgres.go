// Package nodes provides the PostgreSQL-backed repository for hierarchy rows.
//
// A root node is stored with a NULL parent_id; listings are ordered by
// descending insertion order with id as the tie breaker.
package nodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// PostgresRepository implements node storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, node *models.Node) (*models.Node, error) {
	query :=
		`INSERT INTO nodes (owner_id, name, kind, is_public, parent_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	var parent sql.NullString
	if node.ParentID != nil {
		parent = sql.NullString{String: node.ParentID.String(), Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		node.OwnerID, node.Name, node.Kind.String(), node.IsPublic, parent).
		Scan(&node.ID, &node.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return node, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id models.NodeID) (*models.Node, error) {
	query :=
		`SELECT id, owner_id, name, kind, is_public, parent_id, blob_path, created_at FROM nodes
		 WHERE id = $1
		 `

	return r.scanNode(r.db.QueryRowContext(ctx, query, id.String()))
}

func (r *PostgresRepository) GetOwned(ctx context.Context, ownerID string, id models.NodeID) (*models.Node, error) {
	query :=
		`SELECT id, owner_id, name, kind, is_public, parent_id, blob_path, created_at FROM nodes
		 WHERE id = $1 AND owner_id = $2
		 `

	return r.scanNode(r.db.QueryRowContext(ctx, query, id.String(), ownerID))
}

// ListByParent returns the owner's children of the given parent (nil for
// root), newest first. The view is not snapshot isolated: concurrent inserts
// between page fetches may cause skips or repeats.
func (r *PostgresRepository) ListByParent(ctx context.Context, ownerID string, parentID *models.NodeID, limit, offset int) ([]*models.Node, error) {
	query :=
		`SELECT id, owner_id, name, kind, is_public, parent_id, blob_path, created_at FROM nodes
		 WHERE owner_id = $1 AND parent_id IS NOT DISTINCT FROM $2
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3 OFFSET $4
		 `

	var parent sql.NullString
	if parentID != nil {
		parent = sql.NullString{String: parentID.String(), Valid: true}
	}

	rows, err := r.db.QueryContext(ctx, query, ownerID, parent, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Node
	for rows.Next() {
		node, err := scanNodeRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, node)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SetPublic flips only the is_public field in a single owner-scoped update
// and returns the updated row. Zero rows affected is reported as not found.
func (r *PostgresRepository) SetPublic(ctx context.Context, ownerID string, id models.NodeID, public bool) (*models.Node, error) {
	query :=
		`UPDATE nodes SET is_public = $1
		 WHERE id = $2 AND owner_id = $3
		 RETURNING id, owner_id, name, kind, is_public, parent_id, blob_path, created_at
		 `

	return r.scanNode(r.db.QueryRowContext(ctx, query, public, id.String(), ownerID))
}

func (r *PostgresRepository) SetBlobPath(ctx context.Context, id models.NodeID, path string) error {
	query :=
		`UPDATE nodes SET blob_path = $1
		 WHERE id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, path, id.String())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanNode(row *sql.Row) (*models.Node, error) {
	node, err := scanNodeRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return node, nil
}

func scanNodeRow(row rowScanner) (*models.Node, error) {
	node := &models.Node{}
	var kind string
	var parent sql.NullString

	err := row.Scan(&node.ID, &node.OwnerID, &node.Name, &kind, &node.IsPublic,
		&parent, &node.BlobPath, &node.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	node.Kind = models.NodeKind(kind)
	if parent.Valid {
		id := models.NodeID(parent.String)
		node.ParentID = &id
	}
	return node, nil
}
