package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/sutra/internal/backend/sqlstore"
	"github.com/julianstephens/sutra/internal/cli"
	"github.com/julianstephens/sutra/internal/cli/account"
	"github.com/julianstephens/sutra/internal/cli/habits"
	"github.com/julianstephens/sutra/internal/cli/system"
	"github.com/julianstephens/sutra/internal/constants"
	apperrors "github.com/julianstephens/sutra/internal/errors"
	"github.com/julianstephens/sutra/internal/keyring"
	"github.com/julianstephens/sutra/internal/logger"
	"github.com/julianstephens/sutra/internal/session"
	"github.com/julianstephens/sutra/internal/utils"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"SQLite database path or PostgreSQL connection string. Credentials must NOT be embedded in a PostgreSQL connection string; use SUTRA_DB_CONNECTION, .pgpass, or the OS keyring instead." default:"${default_config}"`
	Debug    bool   `help:"Enable debug logging."`
	Timezone string `help:"IANA timezone used for 'today' (default: system local)." default:"Local"`

	Init    system.InitCmd    `cmd:"" help:"Initialize sutra storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Tui     system.TuiCmd     `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Keyring system.KeyringCmd `cmd:"" help:"Manage the database connection string in the OS keyring."`

	Login   account.LoginCmd   `cmd:"" help:"Sign in."`
	Logout  account.LogoutCmd  `cmd:"" help:"Sign out."`
	Whoami  account.WhoamiCmd  `cmd:"" help:"Show the signed-in identity."`
	Profile account.ProfileCmd `cmd:"" help:"Show or edit your profile."`
	Role    account.RoleCmd    `cmd:"" help:"Manage user roles."`

	Habit habits.HabitCmd `cmd:"" help:"Manage habits and completions."`
}

// offline commands run without opening the store or connecting a session
var offline = map[string]bool{"init": true, "migrate": true, "doctor": true, "keyring": true}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with two-week streaks and six-month history"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
		},
	)

	command := strings.Fields(ctx.Command())[0]

	connStr, err := resolveConnection(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: configDir(connStr),
		Quiet:     command == "tui",
	}); err != nil {
		apperrors.Fatal(err)
	}

	loc, err := utils.LoadLocation(CLI.Timezone)
	if err != nil {
		apperrors.Fatalf("invalid timezone %q: %v", CLI.Timezone, err)
	}

	var store *sqlstore.Store
	if utils.IsPostgresConnString(connStr) {
		if err := sqlstore.ValidateConnString(connStr); err != nil {
			if errors.Is(err, sqlstore.ErrEmbeddedCredentials) {
				apperrors.Fatalf("PostgreSQL connection strings with embedded credentials are not allowed; use 'sutra keyring set', %s, or a .pgpass file", constants.ConnectionEnvVar)
			}
			apperrors.Fatal(err)
		}
		store = sqlstore.NewPostgres(connStr)
	} else {
		store = sqlstore.NewSQLite(connStr)
	}
	defer store.Close()

	appCtx := cli.NewContext(store, session.NewKeyringProvider(), loc)

	if !offline[command] {
		bg := context.Background()
		if err := store.Load(bg); err != nil {
			apperrors.Fatal(err)
		}
		if command == "tui" {
			// the TUI performs the role assignment itself
			err = appCtx.Session.Connect(bg)
		} else {
			err = appCtx.Start(bg)
		}
		if err != nil {
			apperrors.Fatal(err)
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		apperrors.Fatal(err)
	}
}

// resolveConnection picks the database in order: environment, an explicit
// --config value, the OS keyring, then the default SQLite path.
func resolveConnection(config string) (string, error) {
	if env := os.Getenv(constants.ConnectionEnvVar); env != "" {
		return env, nil
	}
	if utils.IsPostgresConnString(config) {
		return config, nil
	}
	if config != constants.DefaultConfigPath {
		return utils.ExpandPath(config)
	}
	if connStr, err := keyring.GetConnectionString(); err == nil {
		return connStr, nil
	} else if !errors.Is(err, keyring.ErrNotFound) {
		logger.Warn("Failed to read connection string from keyring", "error", err)
	}
	return utils.ExpandPath(config)
}

func configDir(connStr string) string {
	if !utils.IsPostgresConnString(connStr) {
		return filepath.Dir(connStr)
	}
	dir, err := utils.ExpandPath(filepath.Dir(constants.DefaultConfigPath))
	if err != nil {
		return "."
	}
	return dir
}
