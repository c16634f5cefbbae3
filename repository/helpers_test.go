package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"storefront/config"
	"storefront/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	db, err := config.SetupDatabase(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedProduct(t *testing.T, repo *ProductRepository, p models.Product) *models.Product {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &p))
	return &p
}

func seedUser(t *testing.T, repo *UserRepository, email string) *models.User {
	t.Helper()
	hashed, err := HashPassword("Secret123!")
	require.NoError(t, err)
	user := &models.User{FirstName: "Ada", LastName: "Lovelace", Email: email, Password: hashed}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}
