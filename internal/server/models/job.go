package models

// ThumbnailJob is the message published for every uploaded image. The
// worker resolves the node owner-scoped and writes resized variants next to
// the original blob. Processing must stay idempotent: a redelivered job
// simply overwrites the variants.
type ThumbnailJob struct {
	OwnerID string `json:"userId"`
	NodeID  string `json:"fileId"`
	Name    string `json:"name"`
}
