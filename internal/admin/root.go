// Package admin implements tuidosync-admin, the operator CLI for the
// identity store: applying migrations and issuing API tokens.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/dmitrijs2005/tuidosync/internal/filex"
	"github.com/dmitrijs2005/tuidosync/internal/server/config"
	"github.com/dmitrijs2005/tuidosync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tuidosync/internal/server/services"
	"github.com/spf13/cobra"
)

type options struct {
	configFile string
	driver     string
	dsn        string
	secret     string
}

// env is the opened identity store shared by subcommands.
type env struct {
	db    *sql.DB
	rm    repomanager.RepositoryManager
	users *services.UserService
}

func (o *options) config() (*config.Config, error) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	if o.configFile != "" {
		if err := cfg.ApplyFile(o.configFile); err != nil {
			return nil, err
		}
	}
	if o.driver != "" {
		cfg.DatabaseDriver = o.driver
	}
	if o.dsn != "" {
		cfg.DatabaseDSN = o.dsn
	}
	if o.secret != "" {
		cfg.SecretKey = o.secret
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("secret key must not be empty")
	}
	return cfg, nil
}

func (o *options) open(ctx context.Context) (*env, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}

	rm, err := repomanager.New(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	if rm.Driver() == repomanager.DriverSQLite {
		if err := filex.EnsureParentDir(filex.SQLiteFilePath(cfg.DatabaseDSN)); err != nil {
			return nil, err
		}
	}

	db, err := repomanager.Open(ctx, rm, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	return &env{
		db:    db,
		rm:    rm,
		users: services.NewUserService(db, rm, []byte(cfg.SecretKey)),
	}, nil
}

// NewRootCommand builds the command tree. Output goes to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "tuidosync-admin",
		Short: "Administer the tuidosync identity store",
		Long: `Administer the tuidosync identity store.

Database settings come from the server config file (-c) and can be
overridden with --driver, --dsn and --secret. The secret must match the
server's, otherwise issued tokens will not resolve.`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "server config file (json, yaml or toml)")
	pf.StringVar(&opts.driver, "driver", "", "database driver (postgres or sqlite)")
	pf.StringVar(&opts.dsn, "dsn", "", "database DSN")
	pf.StringVar(&opts.secret, "secret", "", "token hashing secret key")

	root.AddCommand(newMigrateCommand(opts), newUserCommand(opts))
	return root
}
