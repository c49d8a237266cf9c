// Package queue carries thumbnail jobs between the upload pipeline and the
// worker process over a durable, Postgres-backed watermill topic.
//
// Delivery is at-least-once once published; a crash between the metadata
// insert and the publish loses the job permanently, so consumers of size
// variants must treat a missing variant as an ordinary not-found.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
)

// TopicThumbnails is the watermill topic for image post-processing jobs.
const TopicThumbnails = "thumbnails"

// Dispatcher enqueues thumbnail jobs.
type Dispatcher interface {
	Dispatch(ctx context.Context, job *models.ThumbnailJob) error
}

// WatermillDispatcher publishes jobs as JSON messages on any watermill
// publisher.
type WatermillDispatcher struct {
	pub message.Publisher
}

// NewWatermillDispatcher wraps the given publisher.
func NewWatermillDispatcher(pub message.Publisher) *WatermillDispatcher {
	return &WatermillDispatcher{pub: pub}
}

func (d *WatermillDispatcher) Dispatch(ctx context.Context, job *models.ThumbnailJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("job marshal error: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := d.pub.Publish(TopicThumbnails, msg); err != nil {
		return fmt.Errorf("job publish error: %w", err)
	}
	return nil
}

// NewPostgresPublisher builds a watermill-sql publisher storing messages in
// the application database, so a published job survives process restarts.
func NewPostgresPublisher(db *sql.DB, logger logging.Logger) (message.Publisher, error) {
	return wsql.NewPublisher(db, wsql.PublisherConfig{
		SchemaAdapter:        wsql.DefaultPostgreSQLSchema{},
		AutoInitializeSchema: true,
	}, NewLoggerAdapter(logger))
}

// NewPostgresSubscriber builds the matching subscriber for the worker
// process. The consumer group makes redeliveries resume after a crash.
func NewPostgresSubscriber(db *sql.DB, consumerGroup string, logger logging.Logger) (message.Subscriber, error) {
	return wsql.NewSubscriber(db, wsql.SubscriberConfig{
		ConsumerGroup:  consumerGroup,
		BackoffManager: wsql.NewDefaultBackoffManager(time.Second, 5*time.Second),
		SchemaAdapter:  wsql.DefaultPostgreSQLSchema{},
		OffsetsAdapter: wsql.DefaultPostgreSQLOffsetsAdapter{},

		InitializeSchema: true,
	}, NewLoggerAdapter(logger))
}
