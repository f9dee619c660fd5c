package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/postboard/config"
	"github.com/cppla/postboard/models"
	"github.com/cppla/postboard/services"
)

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	return config.AppConfig{
		DatabaseURL: "sqlite:///" + filepath.Join(t.TempDir(), "posts.db"),
		LogLevel:    "silent",
	}
}

func TestRun_InitDBTwice(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	require.NoError(t, run(cfg, []string{"init-db"}, nil, &out))
	require.NoError(t, run(cfg, []string{"init-db"}, nil, &out))
	assert.Equal(t, 2, strings.Count(out.String(), "Initialized the database."))
}

func TestRun_ResetDB(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	require.NoError(t, run(cfg, []string{"init-db"}, nil, &out))

	db, err := config.OpenDatabase(cfg)
	require.NoError(t, err)
	_, err = services.NewAuthService(db).Register(context.Background(), "alice", "pw")
	require.NoError(t, err)
	require.NoError(t, config.CloseDatabase(db))

	err = run(cfg, []string{"reset-db"}, strings.NewReader("n\n"), &out)
	assert.ErrorIs(t, err, errAborted)

	require.NoError(t, run(cfg, []string{"reset-db", "-yes"}, nil, &out))

	db, err = config.OpenDatabase(cfg)
	require.NoError(t, err)
	defer config.CloseDatabase(db)
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRun_DeleteUser(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer
	require.NoError(t, run(cfg, []string{"init-db"}, nil, &out))

	db, err := config.OpenDatabase(cfg)
	require.NoError(t, err)
	user, err := services.NewAuthService(db).Register(context.Background(), "alice", "pw")
	require.NoError(t, err)
	_, err = services.NewPostService(db, nil, 0, nil).CreatePost(context.Background(), user, "Hello", "World")
	require.NoError(t, err)
	require.NoError(t, config.CloseDatabase(db))

	require.NoError(t, run(cfg, []string{"delete-user", "alice"}, nil, &out))
	assert.Contains(t, out.String(), "Deleted user alice.")

	err = run(cfg, []string{"delete-user", "alice"}, nil, &out)
	assert.ErrorIs(t, err, services.ErrNotFound)

	db, err = config.OpenDatabase(cfg)
	require.NoError(t, err)
	defer config.CloseDatabase(db)
	var post models.Post
	require.NoError(t, db.First(&post).Error)
	assert.Nil(t, post.UserID)
	assert.Equal(t, "alice", post.Username)
}

func TestRun_Usage(t *testing.T) {
	err := run(testConfig(t), []string{"bogus"}, nil, &bytes.Buffer{})
	assert.EqualError(t, err, usage)

	err = run(testConfig(t), []string{"delete-user"}, nil, &bytes.Buffer{})
	assert.EqualError(t, err, usage)
}
