package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cppla/postboard/config"
	"github.com/cppla/postboard/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.InitDatabase(config.AppConfig{
		DatabaseURL: "sqlite://:memory:",
		LogLevel:    "silent",
	}, models.All()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDatabase(db) })
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user, err := NewAuthService(db).Register(context.Background(), username, "secret")
	require.NoError(t, err)
	return user
}

// failingCache answers every call with err.
type failingCache struct {
	err     error
	deletes int
}

func (c *failingCache) Get(context.Context, string) ([]byte, error) { return nil, c.err }
func (c *failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return c.err
}
func (c *failingCache) Delete(context.Context, string) error {
	c.deletes++
	return c.err
}

var errCacheDown = errors.New("connection refused")
