package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blob"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/queue"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/session"
)

// PageSize is the fixed number of nodes returned per listing page.
const PageSize = 20

const defaultContentType = "text/plain; charset=utf-8"

// CreateRequest carries the already-parsed parameters of a node creation.
// Data distinguishes an absent payload (nil) from an empty one.
type CreateRequest struct {
	Name     string
	Kind     string
	ParentID string
	Data     *string
	IsPublic bool
}

// Content is the result of a content fetch: raw bytes plus a content-type
// hint derived from the node name.
type Content struct {
	Data        []byte
	ContentType string
}

// FileService implements the hierarchy core: validated uploads,
// access-controlled retrieval, visibility control and thumbnail dispatch.
type FileService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	sessions   session.Store
	blobs      *blob.Store
	dispatcher queue.Dispatcher
	logger     logging.Logger
}

// NewFileService constructs a FileService from its collaborators.
func NewFileService(db *sql.DB, repos repomanager.RepositoryManager, sessions session.Store,
	blobs *blob.Store, dispatcher queue.Dispatcher, logger logging.Logger) *FileService {
	return &FileService{
		db:         db,
		repos:      repos,
		sessions:   sessions,
		blobs:      blobs,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// canAccess is the single authorization predicate for content access: the
// node is public or the caller owns it. An anonymous caller has an empty id
// and can therefore only match public nodes.
func canAccess(callerID string, node *models.Node) bool {
	return node.IsPublic || node.OwnerID == callerID
}

// Create validates and persists a new node, writes the blob for non-folders
// and dispatches a thumbnail job for images. Checks run in a fixed order and
// the first violated rule wins.
//
// The metadata insert and the blob write are not atomic: a blob failure
// leaves an orphaned row without a blob path, which retrieval reports as
// not found.
func (s *FileService) Create(ctx context.Context, token string, req *CreateRequest) (*models.Node, error) {
	userID, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	if req.Name == "" {
		return nil, common.ErrMissingName
	}
	kind, err := models.ParseNodeKind(req.Kind)
	if err != nil {
		return nil, err
	}
	var data []byte
	if kind != models.KindFolder {
		if req.Data == nil {
			return nil, common.ErrMissingData
		}
		data, err = base64.StdEncoding.DecodeString(*req.Data)
		if err != nil {
			return nil, common.ErrMissingData
		}
	}

	parentID, err := s.resolveParent(ctx, req.ParentID)
	if err != nil {
		return nil, err
	}

	repo := s.repos.Nodes(s.db)
	node, err := repo.Create(ctx, &models.Node{
		OwnerID:  userID,
		Name:     req.Name,
		Kind:     kind,
		IsPublic: req.IsPublic,
		ParentID: parentID,
	})
	if err != nil {
		s.logger.Error(ctx, "node create failed", "error", err)
		return nil, common.ErrorInternal
	}

	if kind != models.KindFolder {
		path, err := s.blobs.Write(data)
		if err != nil {
			// The row stays behind without a blob; content fetches on it
			// report not found.
			s.logger.Error(ctx, "blob write failed", "node", node.ID.String(), "error", err)
			return nil, common.ErrorInternal
		}
		if err := repo.SetBlobPath(ctx, node.ID, path); err != nil {
			s.logger.Error(ctx, "blob path update failed", "node", node.ID.String(), "error", err)
			return nil, common.ErrorInternal
		}
		node.BlobPath = path
	}

	if kind == models.KindImage {
		job := &models.ThumbnailJob{
			OwnerID: userID,
			NodeID:  node.ID.String(),
			Name:    fmt.Sprintf("Image thumbnail [%s-%s]", userID, node.ID),
		}
		// Best effort: the upload already succeeded, a lost job only means
		// missing variants.
		if err := s.dispatcher.Dispatch(ctx, job); err != nil {
			s.logger.Warn(ctx, "thumbnail dispatch failed", "node", node.ID.String(), "error", err)
		}
	}

	return node, nil
}

// Get returns a node owned by the caller. Missing and not-owned records are
// indistinguishable.
func (s *FileService) Get(ctx context.Context, token, id string) (*models.Node, error) {
	userID, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	nodeID, err := models.ParseNodeID(id)
	if err != nil {
		return nil, err
	}

	node, err := s.repos.Nodes(s.db).GetOwned(ctx, userID, nodeID)
	if err != nil {
		return nil, s.repoError(ctx, "node lookup failed", err)
	}
	return node, nil
}

// List returns one page of the caller's children of the given parent,
// newest first. An empty or "0" parent means the root level; a malformed
// parent id matches nothing. Pages below zero are treated as zero.
func (s *FileService) List(ctx context.Context, token, parentID string, page int) ([]*models.Node, error) {
	userID, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if page < 0 {
		page = 0
	}

	var parent *models.NodeID
	if parentID != "" && parentID != models.RootParent {
		pid, err := models.ParseNodeID(parentID)
		if err != nil {
			return []*models.Node{}, nil
		}
		parent = &pid
	}

	result, err := s.repos.Nodes(s.db).ListByParent(ctx, userID, parent, PageSize, page*PageSize)
	if err != nil {
		return nil, s.repoError(ctx, "node listing failed", err)
	}
	if result == nil {
		result = []*models.Node{}
	}
	return result, nil
}

// SetVisibility atomically flips only the isPublic field of a node owned by
// the caller and returns the updated node. Publish and unpublish share the
// same ownership resolution.
func (s *FileService) SetVisibility(ctx context.Context, token, id string, public bool) (*models.Node, error) {
	userID, err := s.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	nodeID, err := models.ParseNodeID(id)
	if err != nil {
		return nil, err
	}

	node, err := s.repos.Nodes(s.db).SetPublic(ctx, userID, nodeID, public)
	if err != nil {
		return nil, s.repoError(ctx, "visibility update failed", err)
	}
	return node, nil
}

// GetContent streams the blob behind a node, or a named size variant of it.
// The token is optional: an absent or invalid token degrades to anonymous
// access, which only succeeds against public nodes. Access denial and
// non-existence are deliberately indistinguishable.
func (s *FileService) GetContent(ctx context.Context, token, id, variant string) (*Content, error) {
	callerID := ""
	if token != "" {
		if userID, err := s.sessions.Resolve(ctx, token); err == nil {
			callerID = userID
		}
	}

	nodeID, err := models.ParseNodeID(id)
	if err != nil {
		return nil, err
	}

	node, err := s.repos.Nodes(s.db).GetByID(ctx, nodeID)
	if err != nil {
		return nil, s.repoError(ctx, "node lookup failed", err)
	}
	if !canAccess(callerID, node) {
		return nil, common.ErrorNotFound
	}
	if node.Kind == models.KindFolder {
		return nil, common.ErrFolderWithoutContent
	}

	data, err := s.blobs.Read(node.BlobPath, variant)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Also the expected state while a thumbnail job has not
			// completed yet.
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "blob read failed", "node", node.ID.String(), "error", err)
		return nil, common.ErrorInternal
	}

	return &Content{Data: data, ContentType: contentTypeFor(node.Name)}, nil
}

func (s *FileService) resolve(ctx context.Context, token string) (string, error) {
	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return "", err
		}
		s.logger.Error(ctx, "session resolve failed", "error", err)
		return "", common.ErrorInternal
	}
	return userID, nil
}

// resolveParent maps a raw parent reference to a validated id, or nil for
// the root sentinel. The parent must exist and be a folder.
func (s *FileService) resolveParent(ctx context.Context, raw string) (*models.NodeID, error) {
	if raw == "" || raw == models.RootParent {
		return nil, nil
	}

	parentID, err := models.ParseNodeID(raw)
	if err != nil {
		return nil, common.ErrParentNotFound
	}

	parent, err := s.repos.Nodes(s.db).GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrParentNotFound
		}
		s.logger.Error(ctx, "parent lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if parent.Kind != models.KindFolder {
		return nil, common.ErrParentNotFolder
	}
	return &parentID, nil
}

func (s *FileService) repoError(ctx context.Context, msg string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return defaultContentType
}
