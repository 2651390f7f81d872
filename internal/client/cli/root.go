// Package cli implements the tuidosync client commands: check, push and
// pull of the local task data file.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/tuidosync/internal/client/client"
	"github.com/dmitrijs2005/tuidosync/internal/client/config"
	"github.com/spf13/cobra"
)

type options struct {
	configFile string
	serverURL  string
	grpcAddr   string
	transport  string
	token      string
	dataFile   string
	timeout    time.Duration

	// dial builds the transport; replaced in tests.
	dial func(cfg *config.Config) (client.Client, error)
}

func dial(cfg *config.Config) (client.Client, error) {
	if cfg.Transport == config.TransportGRPC {
		return client.NewGRPCClient(cfg.GRPCAddr, cfg.APIToken)
	}
	return client.NewHTTPClient(cfg.ServerURL, cfg.APIToken, cfg.Timeout), nil
}

func (o *options) config(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	if o.configFile != "" {
		if err := cfg.ApplyFile(o.configFile); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.ServerURL = o.serverURL
	}
	if flags.Changed("grpc") {
		cfg.GRPCAddr = o.grpcAddr
	}
	if flags.Changed("transport") {
		cfg.Transport = o.transport
	}
	if flags.Changed("token") {
		cfg.APIToken = o.token
	}
	if flags.Changed("file") {
		cfg.DataFile = o.dataFile
	}
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run resolves config, connects and calls fn with a deadline of cfg.Timeout.
func (o *options) run(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, c client.Client) error) error {
	cfg, err := o.config(cmd)
	if err != nil {
		return err
	}

	c, err := o.dial(cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	return fn(ctx, cfg, c)
}

// NewRootCommand builds the command tree. Output goes to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	return newRootCommand(out, dial)
}

func newRootCommand(out io.Writer, d func(*config.Config) (client.Client, error)) *cobra.Command {
	opts := &options{dial: d}

	root := &cobra.Command{
		Use:   "tuidosync",
		Short: "Synchronize local task data with a tuidosync server",
		Long: `Synchronize local task data with a tuidosync server.

The whole data file is uploaded or replaced; the last write wins.`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "client config file (json or yaml)")
	pf.StringVarP(&opts.serverURL, "url", "a", "", "server API base URL")
	pf.StringVarP(&opts.grpcAddr, "grpc", "g", "", "server gRPC address")
	pf.StringVarP(&opts.transport, "transport", "m", "", "transport: http or grpc")
	pf.StringVarP(&opts.token, "token", "k", "", "API token")
	pf.StringVarP(&opts.dataFile, "file", "f", "", "local data file")
	pf.DurationVarP(&opts.timeout, "timeout", "t", 0, "request timeout")

	root.AddCommand(newCheckCommand(opts), newPushCommand(opts), newPullCommand(opts), newSyncCommand(opts))
	return root
}
