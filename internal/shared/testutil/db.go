// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/engagement-saas-be/internal/modules/engagement/models"
)

// NewTestDB opens a SQLite database in the test's temp dir with every model
// migrated. Foreign keys are enforced so cascade rules hold as in Postgres.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one writer at a time, same as a single sqlite file allows
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

// CreateUser inserts an active user with the given email.
func CreateUser(t *testing.T, db *gorm.DB, email string) *auth.User {
	t.Helper()
	user := &auth.User{
		Email:        email,
		PasswordHash: "x",
		FullName:     "Test " + email,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateWorkspace inserts a workspace owned by owner, with owner as a member.
func CreateWorkspace(t *testing.T, db *gorm.DB, owner *auth.User, name string) *models.Workspace {
	t.Helper()
	ws := &models.Workspace{
		Name:    name,
		Slug:    name + "-" + uuid.NewString()[:8],
		OwnerID: owner.ID,
	}
	require.NoError(t, db.Create(ws).Error)
	AddMember(t, db, ws.ID, owner.ID, models.MemberRoleOwner)
	return ws
}

// AddMember adds userID to workspaceID with role.
func AddMember(t *testing.T, db *gorm.DB, workspaceID, userID uuid.UUID, role models.MemberRole) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		JoinedAt:    &now,
	}).Error)
}
