package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/sutra/internal/cli"
	"github.com/julianstephens/sutra/internal/keyring"
)

type DoctorCmd struct{}

type check struct {
	name string
	run  func(context.Context, *cli.Context) error
	// warnOnly checks never fail the command
	warnOnly bool
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	checks := []check{
		{name: "Database reachable", run: checkDBReachable},
		{name: "Schema version", run: checkSchemaVersion},
		{name: "Backend connection", run: checkConnect},
		{name: "OS keyring", run: checkKeyring, warnOnly: true},
		{name: "Clock/timezone", run: checkClockTimezone},
	}

	failed := false
	for _, c := range checks {
		err := c.run(bg, ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n   %v\n", c.name, err)
		default:
			ctx.Printf("❌ %s: FAIL\n   Error: %v\n", c.name, err)
			failed = true
		}
	}

	ctx.Println()
	if failed {
		return errors.New("one or more checks failed")
	}
	ctx.Println("All checks passed.")
	return nil
}

func checkDBReachable(bg context.Context, ctx *cli.Context) error {
	return ctx.Store.Ping(bg)
}

func checkSchemaVersion(bg context.Context, ctx *cli.Context) error {
	status, err := ctx.Store.SchemaStatus(bg)
	if err != nil {
		return err
	}
	if !status.UpToDate() {
		return fmt.Errorf("schema version %d, expected %d (run 'sutra migrate')", status.Current, status.Latest)
	}
	return nil
}

func checkConnect(bg context.Context, ctx *cli.Context) error {
	return ctx.Session.Connect(bg)
}

func checkKeyring(context.Context, *cli.Context) error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkClockTimezone(_ context.Context, ctx *cli.Context) error {
	now := ctx.Today()
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return nil
}
