package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	stubPasswords(t, "secret1")
	fc := &fakeClient{}
	app, out := newTestApp(fc, readerFromLines("A", "a@x.com"))

	require.NoError(t, app.Register(context.Background()))

	assert.Equal(t, "A", fc.regName)
	assert.Equal(t, "a@x.com", fc.regEmail)
	assert.Equal(t, "secret1", fc.regPass)
	assert.True(t, app.isLoggedIn())
	assert.Equal(t, "(a@x.com)", app.getStatus())
	assert.Contains(t, out.String(), "Welcome, A!")
}

func TestLogin_Failure(t *testing.T) {
	stubPasswords(t, "wrong")
	fc := &fakeClient{loginErr: errors.New("unauthorized: invalid credentials")}
	app, _ := newTestApp(fc, readerFromLines("a@x.com"))

	err := app.Login(context.Background())
	assert.EqualError(t, err, "unauthorized: invalid credentials")
	assert.Equal(t, "wrong", fc.loginPass)
	assert.False(t, app.isLoggedIn())
	assert.Empty(t, app.getStatus())
}

func TestLoginProfileLogout(t *testing.T) {
	stubPasswords(t, "secret1")
	fc := &fakeClient{}
	app, out := newTestApp(fc, readerFromLines("a@x.com"))
	ctx := context.Background()

	require.NoError(t, app.Login(ctx))
	assert.True(t, app.isLoggedIn())

	require.NoError(t, app.Profile(ctx))
	assert.Contains(t, out.String(), "Name:    A")

	require.NoError(t, app.Logout(ctx))
	assert.False(t, app.isLoggedIn())
	assert.Nil(t, app.user)
}
