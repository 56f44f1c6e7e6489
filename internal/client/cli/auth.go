package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/rentdesk/internal/client/authclient"
	"github.com/dmitrijs2005/rentdesk/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and opens a session. The password is wiped
// before returning.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.client.Login(ctx, userName, password)
	if err != nil {
		return err
	}

	a.userName = res.Username
	a.loggedIn = true
	printlnFn(fmt.Sprintf("Logged in as %s [%s]", res.Username, strings.Join(res.Authorities, ", ")))
	return nil
}

// Refresh rotates the refresh token. A rejected token ends the local session.
func (a *App) Refresh(ctx context.Context) error {
	res, err := a.client.Refresh(ctx)
	if err != nil {
		if errors.Is(err, authclient.ErrUnauthorized) || errors.Is(err, authclient.ErrNotLoggedIn) {
			a.reset()
		}
		return err
	}
	printlnFn(fmt.Sprintf("Session refreshed, access token valid for %ds", res.ExpiresIn))
	return nil
}

func (a *App) Me(ctx context.Context) error {
	me, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("subject: %s\nauthorities: %s", me.SubjectID, strings.Join(me.Authorities, ", ")))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	defer a.reset()
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	printlnFn("Logged out")
	return nil
}

func (a *App) reset() {
	a.userName = ""
	a.loggedIn = false
}
