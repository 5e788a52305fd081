package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/order-backend/internal/domain"
	"github.com/DRSN-tech/order-backend/pkg/e"
	"github.com/DRSN-tech/order-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthUC() (*AuthUseCase, *memStore) {
	store := newMemStore()
	return NewAuthUC(&fakeUserRepo{s: store}, fakeHasher{}, fakeTokens{}, logger.Nop()), store
}

func TestRegister(t *testing.T) {
	uc, _ := newAuthUC()
	ctx := context.Background()

	res, err := uc.Register(ctx, &RegisterReq{Name: "Jane", Email: " Jane@Example.com ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", res.User.Email)
	assert.Equal(t, domain.RoleCustomer, res.User.Role)
	assert.Equal(t, "hashed:password1", res.User.PasswordHash)
	require.NotNil(t, res.Token)
	assert.NotEmpty(t, res.Token.AccessToken)

	_, err = uc.Register(ctx, &RegisterReq{Name: "Jane 2", Email: "jane@example.com", Password: "password2"})
	assert.ErrorIs(t, err, e.ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterReq
		wantErr error
	}{
		{"empty name", RegisterReq{Email: "a@b.c", Password: "password1"}, e.ErrValidation},
		{"bad email", RegisterReq{Name: "A", Email: "not-an-email", Password: "password1"}, e.ErrInvalidEmail},
		{"display name in email", RegisterReq{Name: "A", Email: "A <a@b.c>", Password: "password1"}, e.ErrInvalidEmail},
		{"short password", RegisterReq{Name: "A", Email: "a@b.c", Password: "short"}, e.ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, _ := newAuthUC()
			_, err := uc.Register(context.Background(), &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLogin(t *testing.T) {
	uc, _ := newAuthUC()
	ctx := context.Background()
	_, err := uc.Register(ctx, &RegisterReq{Name: "Jane", Email: "jane@example.com", Password: "password1"})
	require.NoError(t, err)

	res, err := uc.Login(ctx, &LoginReq{Email: "JANE@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "Jane", res.User.Name)

	_, err = uc.Login(ctx, &LoginReq{Email: "jane@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, e.ErrInvalidCredentials)

	_, err = uc.Login(ctx, &LoginReq{Email: "ghost@example.com", Password: "password1"})
	assert.ErrorIs(t, err, e.ErrInvalidCredentials)
}

func TestAuthenticateAndRefresh(t *testing.T) {
	uc, _ := newAuthUC()
	ctx := context.Background()
	registered, err := uc.Register(ctx, &RegisterReq{Name: "Jane", Email: "jane@example.com", Password: "password1"})
	require.NoError(t, err)

	user, err := uc.Authenticate(ctx, registered.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, user.ID)

	refreshed, err := uc.Refresh(ctx, registered.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, refreshed.User.ID)

	_, err = uc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, e.ErrUnauthorized)

	_, err = uc.Authenticate(ctx, "token-999-customer")
	assert.ErrorIs(t, err, e.ErrUnauthorized)
}
