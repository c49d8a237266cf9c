package models

import "github.com/dmitrijs2005/filevault/internal/common"

// NodeKind is the closed set of node types in the hierarchy. Values are
// constructed only through ParseNodeKind so malformed input is rejected
// once, at the boundary.
type NodeKind string

const (
	KindFolder NodeKind = "folder"
	KindFile   NodeKind = "file"
	KindImage  NodeKind = "image"
)

// ParseNodeKind validates a raw kind string. An empty or unknown value is
// reported as a missing type, matching the upload validation contract.
func ParseNodeKind(s string) (NodeKind, error) {
	switch NodeKind(s) {
	case KindFolder, KindFile, KindImage:
		return NodeKind(s), nil
	default:
		return "", common.ErrMissingType
	}
}

// String returns the canonical kind name.
func (k NodeKind) String() string { return string(k) }
