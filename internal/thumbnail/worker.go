package thumbnail

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/blob"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/queue"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

// Worker drains the thumbnail topic and materializes size variants for image
// nodes. Jobs referring to nodes that no longer exist (or were never valid)
// are acknowledged and dropped; transient failures are nacked so the
// subscriber redelivers them.
type Worker struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	sub    message.Subscriber
	blobs  *blob.Store
	proc   *Processor
	logger logging.Logger
}

func NewWorker(db *sql.DB, repos repomanager.RepositoryManager, sub message.Subscriber,
	blobs *blob.Store, logger logging.Logger) *Worker {
	return &Worker{
		db:     db,
		repos:  repos,
		sub:    sub,
		blobs:  blobs,
		proc:   NewProcessor(),
		logger: logger,
	}
}

// Run consumes jobs until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	messages, err := w.sub.Subscribe(ctx, queue.TopicThumbnails)
	if err != nil {
		return err
	}

	w.logger.Info(ctx, "thumbnail worker started")

	for msg := range messages {
		if err := w.handle(ctx, msg.Payload); err != nil {
			w.logger.Error(ctx, "thumbnail job failed, retrying", "error", err)
			msg.Nack()
			continue
		}
		msg.Ack()
	}
	return nil
}

// handle processes one job payload. A nil return acknowledges the message,
// including the poison cases that retrying cannot fix.
func (w *Worker) handle(ctx context.Context, payload []byte) error {
	var job models.ThumbnailJob
	if err := json.Unmarshal(payload, &job); err != nil {
		w.logger.Warn(ctx, "dropping malformed thumbnail job", "error", err)
		return nil
	}

	nodeID, err := models.ParseNodeID(job.NodeID)
	if err != nil {
		w.logger.Warn(ctx, "dropping thumbnail job with bad file id", "fileId", job.NodeID)
		return nil
	}

	node, err := w.repos.Nodes(w.db).GetOwned(ctx, job.OwnerID, nodeID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			w.logger.Warn(ctx, "dropping thumbnail job for missing file", "fileId", job.NodeID)
			return nil
		}
		return err
	}

	if node.Kind != models.KindImage || node.BlobPath == "" {
		return nil
	}

	data, err := w.blobs.Read(node.BlobPath, "")
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			w.logger.Warn(ctx, "dropping thumbnail job with missing blob", "fileId", job.NodeID)
			return nil
		}
		return err
	}

	variants, err := w.proc.Variants(data, node.Name)
	if err != nil {
		// Undecodable payloads stay undecodable; drop instead of retrying.
		w.logger.Warn(ctx, "dropping undecodable image", "fileId", job.NodeID, "error", err)
		return nil
	}

	for tag, rendition := range variants {
		if err := w.blobs.WriteVariant(node.BlobPath, tag, rendition); err != nil {
			return err
		}
	}

	w.logger.Info(ctx, "thumbnails written", "fileId", job.NodeID, "variants", len(variants))
	return nil
}
