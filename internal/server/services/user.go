// Package services contains the server-side business logic. This file
// implements UserService: registration, credential login, session logout
// and authenticated profile lookup.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/session"
	"golang.org/x/crypto/bcrypt"
)

// UserService provides account and session operations.
type UserService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	sessions session.Store
	logger   logging.Logger
}

// NewUserService constructs a UserService from its collaborators.
func NewUserService(db *sql.DB, repos repomanager.RepositoryManager, sessions session.Store, logger logging.Logger) *UserService {
	return &UserService{db: db, repos: repos, sessions: sessions, logger: logger}
}

// Register creates a new account. The email must be unused; the password is
// stored as a bcrypt hash. The duplicate check and the insert run in one
// transaction.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, common.ErrMissingEmail
	}
	if password == "" {
		return nil, common.ErrMissingPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		_, err := repo.GetByEmail(ctx, email)
		if err == nil {
			return common.ErrAlreadyExists
		}
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "user lookup failed", "error", err)
			return common.ErrorInternal
		}

		user, err = repo.Create(ctx, &models.User{Email: email, PasswordHash: string(hash)})
		if err != nil {
			s.logger.Error(ctx, "user create failed", "error", err)
			return common.ErrorInternal
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and issues a session token. Unknown emails
// and wrong passwords are reported identically as unauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	repo := s.repos.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return "", common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", common.ErrorUnauthorized
	}

	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		s.logger.Error(ctx, "session issue failed", "error", err)
		return "", common.ErrorInternal
	}
	return token, nil
}

// Logout revokes the session behind the token. An unknown token is
// unauthorized rather than a no-op.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if _, err := s.sessions.Resolve(ctx, token); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return err
		}
		s.logger.Error(ctx, "session resolve failed", "error", err)
		return common.ErrorInternal
	}
	if err := s.sessions.Revoke(ctx, token); err != nil {
		s.logger.Error(ctx, "session revoke failed", "error", err)
		return common.ErrorInternal
	}
	return nil
}

// Me returns the account behind a live session token.
func (s *UserService) Me(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, err
		}
		s.logger.Error(ctx, "session resolve failed", "error", err)
		return nil, common.ErrorInternal
	}

	user, err := s.repos.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	return user, nil
}
