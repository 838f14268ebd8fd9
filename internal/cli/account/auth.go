package account

import (
	"context"

	"github.com/julianstephens/sutra/internal/cli"
)

type LoginCmd struct {
	Principal string `help:"Sign in as an existing principal instead of the stored or a new one."`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	var err error
	if c.Principal != "" {
		_, err = ctx.Session.LoginAs(bg, c.Principal)
	} else {
		_, err = ctx.Session.Login(bg)
	}
	if err != nil {
		return err
	}

	ctx.Session.EnsureRole(bg)
	return printIdentity(ctx)
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.RequireSignedIn(); err != nil {
		ctx.Println("Already signed out.")
		return nil
	}
	if err := ctx.Session.Logout(context.Background()); err != nil {
		return err
	}
	ctx.Println("Signed out.")
	return nil
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.RequireSignedIn(); err != nil {
		ctx.Println("Not signed in.")
		return nil
	}
	return printIdentity(ctx)
}

func printIdentity(ctx *cli.Context) error {
	bg := context.Background()
	id, err := ctx.RequireSignedIn()
	if err != nil {
		return err
	}

	role, err := ctx.Habits.Role(bg)
	if err != nil {
		return err
	}
	name, err := ctx.Habits.DisplayName(bg)
	if err != nil {
		return err
	}

	ctx.Printf("Principal: %s\n", id.Principal)
	ctx.Printf("Role:      %s\n", role)
	if name != "" {
		ctx.Printf("Name:      %s\n", name)
	}
	return nil
}
