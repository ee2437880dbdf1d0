package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"clfadmin/internal/db"
	"clfadmin/internal/model"
	"clfadmin/internal/repository"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:seed_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn, false))
	return conn
}

func TestUpsertUser(t *testing.T) {
	conn := setupDB(t)
	repo := repository.NewUserRepository(conn)
	ctx := context.Background()

	user, created, err := upsertUser(ctx, repo, "Admin", "admin@example.com", "first", model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("first")))

	again, created, err := upsertUser(ctx, repo, "Renamed", "admin@example.com", "second", model.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	stored, err := repo.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("second")))
}

func TestSeedHistoryOnlyOnce(t *testing.T) {
	conn := setupDB(t)
	users := repository.NewUserRepository(conn)
	history := repository.NewHistoryRepository(conn)
	ctx := context.Background()

	user, _, err := upsertUser(ctx, users, "Rina", "rina@example.com", "secret", model.RoleResearcher)
	require.NoError(t, err)

	inserted, err := seedHistory(ctx, history, user.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, inserted)

	inserted, err = seedHistory(ctx, history, user.ID, 4)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	_, total, err := history.List(ctx, repository.HistoryQuery{UserID: user.ID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}
