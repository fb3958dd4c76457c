package services_test

import (
	"context"
	"testing"

	"ajatus_server/internal/database/dbtest"
	"ajatus_server/internal/models"
	"ajatus_server/internal/services"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUser(t *testing.T, db *gorm.DB, email, username string) *models.User {
	t.Helper()
	user, err := services.NewUserService(db, 0).Register(context.Background(), services.RegisterRequest{
		Email:    email,
		Username: username,
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	return user
}

func setup(t *testing.T) (*gorm.DB, *models.User) {
	t.Helper()
	db := dbtest.New(t)
	return db, newUser(t, db, "aino@example.fi", "aino")
}
