package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	nodesrepo "github.com/dmitrijs2005/filevault/internal/server/repositories/nodes"
	usersrepo "github.com/dmitrijs2005/filevault/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db
}

func newSQLMockDBWithMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	byEmailOut *models.User
	byEmailErr error

	byIDOut *models.User
	byIDErr error

	countOut int64
	countErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = "u-new"
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.byEmailErr != nil {
		return nil, f.byEmailErr
	}
	return f.byEmailOut, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.byIDOut, nil
}

func (f *fakeUsersRepo) Count(ctx context.Context) (int64, error) {
	return f.countOut, f.countErr
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	n *fakeNodesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.u }
func (m *fakeRepoManager) Nodes(db dbx.DBTX) nodesrepo.Repository      { return m.n }

type fakeSessionStore struct {
	issueOut string
	issueErr error

	resolveOut string
	resolveErr error

	revoked    []string
	revokeErr  error
	issuedFor  []string
	resolvedOf []string
}

func (f *fakeSessionStore) Issue(ctx context.Context, userID string) (string, error) {
	f.issuedFor = append(f.issuedFor, userID)
	if f.issueErr != nil {
		return "", f.issueErr
	}
	return f.issueOut, nil
}

func (f *fakeSessionStore) Resolve(ctx context.Context, token string) (string, error) {
	f.resolvedOf = append(f.resolvedOf, token)
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return f.resolveOut, nil
}

func (f *fakeSessionStore) Revoke(ctx context.Context, token string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, token)
	return nil
}

func newUserService(t *testing.T, rm *fakeRepoManager, sessions *fakeSessionStore) *UserService {
	t.Helper()
	return NewUserService(newSQLMockDB(t), rm, sessions, testLogger())
}

// --- tests ---

func TestRegister_MissingFields(t *testing.T) {
	s := newUserService(t, &fakeRepoManager{u: &fakeUsersRepo{}}, &fakeSessionStore{})

	if _, err := s.Register(context.Background(), "", "pass"); !errors.Is(err, common.ErrMissingEmail) {
		t.Fatalf("want ErrMissingEmail, got %v", err)
	}
	if _, err := s.Register(context.Background(), "a@b.c", ""); !errors.Is(err, common.ErrMissingPassword) {
		t.Fatalf("want ErrMissingPassword, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db, mock := newSQLMockDBWithMock(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := &fakeRepoManager{u: &fakeUsersRepo{byEmailOut: &models.User{ID: "u-1", Email: "a@b.c"}}}
	s := NewUserService(db, rm, &fakeSessionStore{}, testLogger())

	_, err := s.Register(context.Background(), "a@b.c", "pass")
	if !errors.Is(err, common.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRegister_Success_HashesPassword(t *testing.T) {
	db, mock := newSQLMockDBWithMock(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{u: &fakeUsersRepo{byEmailErr: common.ErrorNotFound}}
	s := NewUserService(db, rm, &fakeSessionStore{}, testLogger())

	user, err := s.Register(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.ID != "u-new" || user.Email != "a@b.c" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "secret" {
		t.Fatalf("password stored in clear")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret")) != nil {
		t.Fatalf("stored hash does not verify the password")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRegister_LookupAndCreateErrors(t *testing.T) {
	db, mock := newSQLMockDBWithMock(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rmLookup := &fakeRepoManager{u: &fakeUsersRepo{byEmailErr: errBoom{}}}
	s := NewUserService(db, rmLookup, &fakeSessionStore{}, testLogger())
	if _, err := s.Register(context.Background(), "a@b.c", "p"); !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("lookup error: want ErrorInternal, got %v", err)
	}

	rmCreate := &fakeRepoManager{u: &fakeUsersRepo{byEmailErr: common.ErrorNotFound, createErr: errBoom{}}}
	s2 := NewUserService(db, rmCreate, &fakeSessionStore{}, testLogger())
	if _, err := s2.Register(context.Background(), "a@b.c", "p"); !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("create error: want ErrorInternal, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestLogin_Flows(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)

	// unknown email → unauthorized
	rmNF := &fakeRepoManager{u: &fakeUsersRepo{byEmailErr: common.ErrorNotFound}}
	sNF := newUserService(t, rmNF, &fakeSessionStore{})
	if _, err := sNF.Login(context.Background(), "ghost@b.c", "x"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("unknown email: want ErrorUnauthorized, got %v", err)
	}

	// wrong password → unauthorized
	rmWP := &fakeRepoManager{u: &fakeUsersRepo{byEmailOut: &models.User{ID: "u-1", PasswordHash: string(hash)}}}
	sWP := newUserService(t, rmWP, &fakeSessionStore{})
	if _, err := sWP.Login(context.Background(), "a@b.c", "wrong"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("wrong password: want ErrorUnauthorized, got %v", err)
	}

	// infrastructure error → internal
	rmIE := &fakeRepoManager{u: &fakeUsersRepo{byEmailErr: errBoom{}}}
	sIE := newUserService(t, rmIE, &fakeSessionStore{})
	if _, err := sIE.Login(context.Background(), "a@b.c", "x"); !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("repo error: want ErrorInternal, got %v", err)
	}

	// success → session issued for the account
	sessions := &fakeSessionStore{issueOut: "tok-1"}
	rmOK := &fakeRepoManager{u: &fakeUsersRepo{byEmailOut: &models.User{ID: "u-1", PasswordHash: string(hash)}}}
	sOK := newUserService(t, rmOK, sessions)
	token, err := sOK.Login(context.Background(), "a@b.c", "right")
	if err != nil || token != "tok-1" {
		t.Fatalf("Login success: token=%q err=%v", token, err)
	}
	if len(sessions.issuedFor) != 1 || sessions.issuedFor[0] != "u-1" {
		t.Fatalf("session issued for wrong user: %v", sessions.issuedFor)
	}
}

func TestLogout_Flows(t *testing.T) {
	// unknown token → unauthorized, nothing revoked
	sessions := &fakeSessionStore{resolveErr: common.ErrorUnauthorized}
	s := newUserService(t, &fakeRepoManager{u: &fakeUsersRepo{}}, sessions)
	if err := s.Logout(context.Background(), "gone"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want ErrorUnauthorized, got %v", err)
	}
	if len(sessions.revoked) != 0 {
		t.Fatalf("revoked an unknown token: %v", sessions.revoked)
	}

	// success → token revoked
	sessions2 := &fakeSessionStore{resolveOut: "u-1"}
	s2 := newUserService(t, &fakeRepoManager{u: &fakeUsersRepo{}}, sessions2)
	if err := s2.Logout(context.Background(), "tok-1"); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if len(sessions2.revoked) != 1 || sessions2.revoked[0] != "tok-1" {
		t.Fatalf("unexpected revocations: %v", sessions2.revoked)
	}

	// revoke failure → internal
	sessions3 := &fakeSessionStore{resolveOut: "u-1", revokeErr: errBoom{}}
	s3 := newUserService(t, &fakeRepoManager{u: &fakeUsersRepo{}}, sessions3)
	if err := s3.Logout(context.Background(), "tok-1"); !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("want ErrorInternal, got %v", err)
	}
}

func TestMe_Flows(t *testing.T) {
	// live session → profile
	rm := &fakeRepoManager{u: &fakeUsersRepo{byIDOut: &models.User{ID: "u-1", Email: "a@b.c"}}}
	s := newUserService(t, rm, &fakeSessionStore{resolveOut: "u-1"})
	user, err := s.Me(context.Background(), "tok-1")
	if err != nil || user.Email != "a@b.c" {
		t.Fatalf("Me success: user=%+v err=%v", user, err)
	}

	// dead token → unauthorized
	s2 := newUserService(t, rm, &fakeSessionStore{resolveErr: common.ErrorUnauthorized})
	if _, err := s2.Me(context.Background(), "gone"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want ErrorUnauthorized, got %v", err)
	}

	// account deleted behind a live session → unauthorized
	rmGone := &fakeRepoManager{u: &fakeUsersRepo{byIDErr: common.ErrorNotFound}}
	s3 := newUserService(t, rmGone, &fakeSessionStore{resolveOut: "u-1"})
	if _, err := s3.Me(context.Background(), "tok-1"); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want ErrorUnauthorized, got %v", err)
	}
}
