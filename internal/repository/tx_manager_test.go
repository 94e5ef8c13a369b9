package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"backend/internal/database"
	"backend/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	tm := NewTransactionManager(db)
	users := NewUserRepository(db)
	ctx := context.Background()

	phone := "0900000001"
	err := tm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := users.Create(txCtx, &model.User{Phone: &phone, Role: model.RoleClient, IsActive: true}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	_, err = users.FindByPhone(ctx, phone)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRunInTxCommits(t *testing.T) {
	db := setupTestDB(t)
	tm := NewTransactionManager(db)
	users := NewUserRepository(db)
	ctx := context.Background()

	phone := "0900000002"
	err := tm.RunInTx(ctx, func(txCtx context.Context) error {
		return users.Create(txCtx, &model.User{Phone: &phone, Role: model.RoleClient, IsActive: true})
	})
	require.NoError(t, err)

	_, err = users.FindByPhone(ctx, phone)
	assert.NoError(t, err)
}

func TestGetDBPrefersTransaction(t *testing.T) {
	db := setupTestDB(t)
	tm := NewTransactionManager(db)

	require.NoError(t, tm.RunInTx(context.Background(), func(txCtx context.Context) error {
		assert.NotSame(t, db, GetDB(txCtx, db))
		return nil
	}))

	// Outside a transaction the root handle is used.
	plain := GetDB(context.Background(), db)
	assert.NotNil(t, plain)
}
