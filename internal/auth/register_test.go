package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier-backend/pkg/config"
	"github.com/atelierhq/atelier-backend/pkg/db"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/security"
)

func setupRegisterTestDB(t *testing.T) *db.Client {
	t.Helper()

	client, err := db.New(context.Background(), config.DBConfig{DSN: "file::memory:"}, true, nil)
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, client.DB().Exec(users).Error)
	return client
}

func TestRegisterCreatesUser(t *testing.T) {
	client := setupRegisterTestDB(t)

	svc, err := NewRegisterService(RegisterServiceParams{DB: client})
	require.NoError(t, err)

	created, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Avery",
		LastName:  "Lane",
		Email:     "Shopper@Example.com",
		Password:  "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "shopper@example.com", created.Email)

	var hash string
	require.NoError(t, client.DB().
		Raw("SELECT password_hash FROM users WHERE email = ?", "shopper@example.com").
		Scan(&hash).Error)
	valid, err := security.VerifyPassword("correct horse battery", hash)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	client := setupRegisterTestDB(t)

	svc, err := NewRegisterService(RegisterServiceParams{DB: client})
	require.NoError(t, err)

	req := RegisterRequest{
		FirstName: "Avery",
		LastName:  "Lane",
		Email:     "shopper@example.com",
		Password:  "correct horse battery",
	}
	_, err = svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error code: %v", err)
	}
}
