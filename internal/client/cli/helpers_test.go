package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/passvault/internal/client/models"
	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/logging"
)

// ------------ helpers ------------

func readerFromLines(lines ...string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ io.Writer) ([]byte, error) {
		if len(pws) == 0 {
			return []byte{}, nil
		}
		pw := pws[0]
		pws = pws[1:]
		return []byte(pw), nil
	}
	t.Cleanup(func() { getPassword = orig })
}

func newTestApp(c *fakeClient, reader *bufio.Reader) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{client: c, logger: logging.Nop(), reader: reader, out: &out}, &out
}

type fakeClient struct {
	token string
	items []*models.Credential

	regName, regEmail, regPass string
	loginPass                  string
	loginErr                   error

	created *models.Credential
	updated *models.Credential
	deleted string
	exports int
}

func (f *fakeClient) Register(_ context.Context, name, email string, password []byte) (*models.User, error) {
	f.regName, f.regEmail, f.regPass = name, email, string(password)
	f.token = "tok"
	return &models.User{ID: "u1", Name: name, Email: email}, nil
}

func (f *fakeClient) Login(_ context.Context, email string, password []byte) (*models.User, error) {
	f.loginPass = string(password)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.token = "tok"
	return &models.User{ID: "u1", Email: email}, nil
}

func (f *fakeClient) Logout()                      { f.token = "" }
func (f *fakeClient) LoggedIn() bool               { return f.token != "" }
func (f *fakeClient) Ping(_ context.Context) error { return nil }

func (f *fakeClient) Profile(_ context.Context) (*models.User, error) {
	return &models.User{ID: "u1", Name: "A", Email: "a@x.com"}, nil
}

func (f *fakeClient) List(_ context.Context) ([]*models.Credential, error) {
	return f.items, nil
}

func (f *fakeClient) Create(_ context.Context, c *models.Credential) (*models.Credential, error) {
	f.created = c
	out := *c
	out.ID = "new-id"
	return &out, nil
}

func (f *fakeClient) Update(_ context.Context, c *models.Credential) (*models.Credential, error) {
	f.updated = c
	return c, nil
}

func (f *fakeClient) Delete(_ context.Context, id string) (*models.Credential, error) {
	for _, c := range f.items {
		if c.ID == id {
			f.deleted = id
			return c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeClient) Export(_ context.Context) (*models.Export, error) {
	f.exports++
	return &models.Export{URL: "https://s3.example/export"}, nil
}
