package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/passvault/internal/common"
)

// Register prompts for name, email and password and creates an account.
// A successful registration also logs the user in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.client.Register(ctx, name, email, password)
	if err != nil {
		return err
	}

	a.user = user
	fmt.Fprintf(a.out, "Welcome, %s!\n", user.Name)
	return nil
}

// Login prompts for email and password and starts a session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	a.user = user
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Email)
	return nil
}

// Logout forgets the session token.
func (a *App) Logout(ctx context.Context) error {
	a.client.Logout()
	a.user = nil
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	user, err := a.client.Profile(ctx)
	if err != nil {
		return err
	}
	a.user = user
	fmt.Fprintf(a.out, "Name:    %s\nEmail:   %s\nSince:   %s\n", user.Name, user.Email, user.CreatedAt.Format("2006-01-02"))
	return nil
}
