package account

import (
	"context"

	"github.com/julianstephens/sutra/internal/cli"
	"github.com/julianstephens/sutra/internal/models"
)

type ProfileCmd struct {
	Show    ProfileShowCmd    `cmd:"" help:"Show your profile." default:"1"`
	SetName ProfileSetNameCmd `cmd:"" help:"Change your display name."`
}

type ProfileShowCmd struct {
	Principal string `help:"Show another principal's profile (admins only)." short:"p"`
}

func (c *ProfileShowCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.RequireSignedIn(); err != nil {
		return err
	}

	bg := context.Background()
	if c.Principal != "" {
		return c.showOther(bg, ctx)
	}
	profile, err := ctx.Habits.Profile(bg)
	if err != nil {
		return err
	}
	admin, err := ctx.Habits.IsAdmin(bg)
	if err != nil {
		return err
	}

	if profile == nil || profile.DisplayName == "" {
		ctx.Println("Display name: (not set)")
	} else {
		ctx.Printf("Display name: %s\n", profile.DisplayName)
	}
	if admin {
		ctx.Println("Administrator: yes")
	}
	return nil
}

func (c *ProfileShowCmd) showOther(bg context.Context, ctx *cli.Context) error {
	profile, err := ctx.Habits.UserProfile(bg, c.Principal)
	if err != nil {
		return err
	}
	ctx.Printf("Principal:    %s\n", c.Principal)
	if profile == nil || profile.DisplayName == "" {
		ctx.Println("Display name: (not set)")
	} else {
		ctx.Printf("Display name: %s\n", profile.DisplayName)
	}
	return nil
}

type ProfileSetNameCmd struct {
	Name string `arg:"" help:"New display name."`
}

func (c *ProfileSetNameCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.RequireSignedIn(); err != nil {
		return err
	}
	if err := ctx.Habits.SetDisplayName(context.Background(), c.Name); err != nil {
		return err
	}
	ctx.Println("Display name updated.")
	return nil
}

type RoleCmd struct {
	Assign RoleAssignCmd `cmd:"" help:"Assign a role to a principal (admins only)."`
}

type RoleAssignCmd struct {
	Principal string `arg:"" help:"Principal to assign the role to."`
	Role      string `arg:"" help:"Role: admin, user, or guest."`
}

func (c *RoleAssignCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.RequireSignedIn(); err != nil {
		return err
	}
	role, err := models.ParseUserRole(c.Role)
	if err != nil {
		return err
	}
	if err := ctx.Habits.AssignRole(context.Background(), c.Principal, role); err != nil {
		return err
	}
	ctx.Printf("Assigned role %s to %s\n", role, c.Principal)
	return nil
}
