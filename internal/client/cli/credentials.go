package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/passvault/internal/client/models"
	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/passgen"
)

// minFieldLength mirrors the web client: site, username and password must be
// longer than three characters.
const minFieldLength = 4

func validateCredential(c *models.Credential) error {
	var short []string
	if len(c.Site) < minFieldLength {
		short = append(short, "site")
	}
	if len(c.Username) < minFieldLength {
		short = append(short, "username")
	}
	if len(c.Password) < minFieldLength {
		short = append(short, "password")
	}
	if len(short) > 0 {
		return fmt.Errorf("%w: %s must be at least %d characters", common.ErrorValidation, strings.Join(short, ", "), minFieldLength)
	}
	return nil
}

func mask(secret string) string {
	return strings.Repeat("*", len(secret))
}

func (a *App) List(ctx context.Context) error {
	items, err := a.client.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No passwords to show")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSITE\tUSERNAME\tPASSWORD")
	for _, c := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Site, c.Username, mask(c.Password))
	}
	return tw.Flush()
}

// find looks id up in the caller's credentials.
func (a *App) find(ctx context.Context, id string) (*models.Credential, error) {
	items, err := a.client.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range items {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: credential %s", common.ErrorNotFound, id)
}

// idArg returns the first argument or prompts for an id.
func (a *App) idArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	id, err := getSimpleText(a.reader, "Enter id", a.out)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: missing id", common.ErrorValidation)
	}
	return id, nil
}

// Show prints one credential including its password.
func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.idArg(args)
	if err != nil {
		return err
	}
	c, err := a.find(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "ID:       %s\nSite:     %s\nUsername: %s\nPassword: %s\nUpdated:  %s\n",
		c.ID, c.Site, c.Username, c.Password, c.UpdatedAt.Format("2006-01-02 15:04"))
	return nil
}

// readSecret reads a password without echo. An empty entry generates one
// with the default generator settings.
func (a *App) readSecret() (string, error) {
	fmt.Fprintln(a.out, "Leave the password empty to generate one.")
	pw, err := getPassword(a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)

	if len(pw) > 0 {
		return string(pw), nil
	}

	generated, err := passgen.Generate(passgen.DefaultOptions())
	if err != nil {
		return "", err
	}
	fmt.Fprintf(a.out, "Generated password: %s\n", generated)
	return generated, nil
}

func (a *App) Add(ctx context.Context) error {
	site, err := getSimpleText(a.reader, "Enter website URL", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	secret, err := a.readSecret()
	if err != nil {
		return err
	}

	c := &models.Credential{Site: site, Username: username, Password: secret}
	if err := validateCredential(c); err != nil {
		return err
	}

	created, err := a.client.Create(ctx, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s\n", created.ID)
	return nil
}

// Edit replaces site, username and password of an existing credential.
// Empty answers keep the current values.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.idArg(args)
	if err != nil {
		return err
	}
	current, err := a.find(ctx, id)
	if err != nil {
		return err
	}

	site, err := getSimpleText(a.reader, fmt.Sprintf("Enter website URL [%s]", current.Site), a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, fmt.Sprintf("Enter username [%s]", current.Username), a.out)
	if err != nil {
		return err
	}

	secret := current.Password
	change, err := confirm(a.reader, "Change password?", a.out)
	if err != nil {
		return err
	}
	if change {
		if secret, err = a.readSecret(); err != nil {
			return err
		}
	}

	c := &models.Credential{ID: id, Site: current.Site, Username: current.Username, Password: secret}
	if site != "" {
		c.Site = site
	}
	if username != "" {
		c.Username = username
	}
	if err := validateCredential(c); err != nil {
		return err
	}

	if _, err := a.client.Update(ctx, c); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s\n", id)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.idArg(args)
	if err != nil {
		return err
	}

	ok, err := confirm(a.reader, fmt.Sprintf("Delete %s?", id), a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	deleted, err := a.client.Delete(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s (%s)\n", deleted.ID, deleted.Site)
	return nil
}
