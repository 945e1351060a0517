package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/passvault/internal/client/client"
	"github.com/dmitrijs2005/passvault/internal/client/config"
	"github.com/dmitrijs2005/passvault/internal/client/models"
	"github.com/dmitrijs2005/passvault/internal/logging"
)

type App struct {
	config *config.Config
	client client.Client
	logger logging.Logger
	reader *bufio.Reader
	out    io.Writer
	user   *models.User
}

func NewApp(c *config.Config) (*App, error) {
	if c.ServerURL == "" {
		return nil, errors.New("server URL is not set")
	}
	return &App{
		config: c,
		client: client.NewHTTPClient(c.ServerURL, c.RequestTimeout),
		logger: logging.NewTextLogger(os.Stderr, slog.LevelWarn),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}

func (a *App) getStatus() string {
	if a.user == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.user.Email)
}

// Run checks the server once and then runs the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to passvault CLI (type 'help' for commands)")

	if err := a.client.Ping(ctx); err != nil {
		a.logger.Warn(ctx, "server is not ready", "url", a.config.ServerURL, "error", err)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}
