package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/redis/go-redis/v9"
)

// Stats reports the number of stored users and nodes.
type Stats struct {
	Users int64 `json:"users"`
	Files int64 `json:"files"`
}

// AppService answers liveness and statistics queries about the backing stores.
type AppService struct {
	db     *sql.DB
	redis  redis.Cmdable
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

// NewAppService constructs an AppService from its collaborators.
func NewAppService(db *sql.DB, rdb redis.Cmdable, repos repomanager.RepositoryManager, logger logging.Logger) *AppService {
	return &AppService{db: db, redis: rdb, repos: repos, logger: logger}
}

// Status pings both stores and reports their availability.
func (s *AppService) Status(ctx context.Context) (dbAlive, redisAlive bool) {
	dbAlive = s.db.PingContext(ctx) == nil
	redisAlive = s.redis.Ping(ctx).Err() == nil
	return dbAlive, redisAlive
}

// Stats counts users and nodes.
func (s *AppService) Stats(ctx context.Context) (*Stats, error) {
	userCount, err := s.repos.Users(s.db).Count(ctx)
	if err != nil {
		s.logger.Error(ctx, "user count failed", "error", err)
		return nil, common.ErrorInternal
	}
	nodeCount, err := s.repos.Nodes(s.db).Count(ctx)
	if err != nil {
		s.logger.Error(ctx, "node count failed", "error", err)
		return nil, common.ErrorInternal
	}
	return &Stats{Users: userCount, Files: nodeCount}, nil
}
