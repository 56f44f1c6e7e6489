package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/rentdesk/internal/client/authclient"
	"github.com/dmitrijs2005/rentdesk/internal/client/config"
)

// authAPI is the part of authclient.Client the commands use.
type authAPI interface {
	Login(ctx context.Context, username string, password []byte) (*authclient.LoginResponse, error)
	Refresh(ctx context.Context) (*authclient.TokenResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*authclient.MeResponse, error)
}

type App struct {
	config   *config.Config
	client   authAPI
	userName string
	loggedIn bool
	reader   *bufio.Reader
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		client: authclient.New(c.ServerURL, nil, c.RequestTimeout),
		reader: bufio.NewReader(os.Stdin),
	}
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

func (a *App) isLoggedIn() bool {
	return a.loggedIn
}

// Run starts the REPL on stdin and logs out on exit.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to rentdesk CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
	if a.loggedIn {
		_ = a.Logout(ctx)
	}
}
