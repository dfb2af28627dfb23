package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yujung915/research-manager/internal/store"
)

func setupService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	verifier := NewJWTVerifier([]byte("service-test-secret"))
	return NewService(st, verifier, time.Hour), st
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "yujung", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "yujung", user.Username)

	// Stored hash is bcrypt, never the raw password
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse battery")))

	token, loggedIn, err := svc.Login(ctx, "yujung", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestService_Register_DuplicateUsername(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "duplicate", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "duplicate", "otherpassword")
	assert.ErrorIs(t, err, store.ErrUsernameExists)
}

func TestService_Register_Validation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"too short username", "ab", "password123", ErrBadUsername},
		{"leading digit", "1user", "password123", ErrBadUsername},
		{"spaces in username", "bad user", "password123", ErrBadUsername},
		{"empty username", "", "password123", ErrBadUsername},
		{"short password", "gooduser", "short", ErrWeakPassword},
		{"empty password", "gooduser", "", ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Login_WrongPassword(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "yujung", "password123")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "yujung", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Login_UnknownUser(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "ghost", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_TokenResolvesUser(t *testing.T) {
	svc, st := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "yujung", "password123")
	require.NoError(t, err)

	token, _, err := svc.Login(ctx, "yujung", "password123")
	require.NoError(t, err)

	claims, err := svc.verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, "yujung", claims.Username)

	stored, err := st.GetUser(ctx, claims.Subject)
	require.NoError(t, err)
	assert.Equal(t, "yujung", stored.Username)
}
