package nodes

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// Repository describes hierarchy persistence operations needed by the services.
//
// GetOwned and SetPublic scope by owner so that a missing record and a record
// owned by someone else are indistinguishable to callers.
type Repository interface {
	Create(ctx context.Context, node *models.Node) (*models.Node, error)
	GetByID(ctx context.Context, id models.NodeID) (*models.Node, error)
	GetOwned(ctx context.Context, ownerID string, id models.NodeID) (*models.Node, error)
	ListByParent(ctx context.Context, ownerID string, parentID *models.NodeID, limit, offset int) ([]*models.Node, error)
	SetPublic(ctx context.Context, ownerID string, id models.NodeID, public bool) (*models.Node, error)
	SetBlobPath(ctx context.Context, id models.NodeID, path string) error
	Count(ctx context.Context) (int64, error)
}
