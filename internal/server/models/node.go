package models

import (
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/google/uuid"
)

// RootParent is the canonical wire representation of "no parent folder".
// It is never a stored value: a root node has a NULL parent in the database
// and a nil ParentID in memory.
const RootParent = "0"

// NodeID is a validated node identifier. Construct it only through
// ParseNodeID; anything else circulating as a NodeID has already been
// checked against the uuid format.
type NodeID string

// ParseNodeID validates a raw identifier. Malformed ids are reported as
// ErrorNotFound since they can never address an existing record.
func ParseNodeID(s string) (NodeID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", common.ErrorNotFound
	}
	return NodeID(s), nil
}

// String returns the id in its canonical text form.
func (id NodeID) String() string { return string(id) }

// Node represents a folder, file or image in the hierarchy.
//
// Invariants: a folder never carries a BlobPath; ParentID, when set, must
// reference an existing folder (enforced at creation time, never persisted
// otherwise); OwnerID and Kind are immutable after creation.
type Node struct {
	ID        NodeID
	OwnerID   string
	Name      string
	Kind      NodeKind
	IsPublic  bool
	ParentID  *NodeID
	BlobPath  string
	CreatedAt time.Time
}

// Descriptor is the public view of a node returned to API callers.
// The root sentinel is rendered as RootParent.
type Descriptor struct {
	ID       string `json:"id"`
	OwnerID  string `json:"userId"`
	Name     string `json:"name"`
	Kind     string `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID string `json:"parentId"`
}

// Describe converts a node into its public descriptor.
func (n *Node) Describe() *Descriptor {
	parent := RootParent
	if n.ParentID != nil {
		parent = n.ParentID.String()
	}
	return &Descriptor{
		ID:       n.ID.String(),
		OwnerID:  n.OwnerID,
		Name:     n.Name,
		Kind:     n.Kind.String(),
		IsPublic: n.IsPublic,
		ParentID: parent,
	}
}
