package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/tuidosync/internal/client/client"
	"github.com/dmitrijs2005/tuidosync/internal/client/config"
	"github.com/dmitrijs2005/tuidosync/internal/snapshot"
	"github.com/spf13/cobra"
)

func newPushCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload the local data file, replacing the server copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, cfg *config.Config, c client.Client) error {
				return push(ctx, cfg, c, cmd.OutOrStdout())
			})
		},
	}
}

func push(ctx context.Context, cfg *config.Config, c client.Client, out io.Writer) error {
	raw, err := os.ReadFile(cfg.DataFile)
	if err != nil {
		return fmt.Errorf("read data file: %w", err)
	}

	// Rejected locally so a broken file never costs a round trip.
	res := snapshot.Decode(raw)
	if !res.OK() {
		return fmt.Errorf("%s: %w", cfg.DataFile, res.Err())
	}
	body, err := snapshot.Encode(res.Snapshot)
	if err != nil {
		return err
	}

	up, err := c.Upload(ctx, body)
	if err != nil {
		return err
	}
	if err := saveLastSync(cfg.DataFile, up.Timestamp); err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}

	fmt.Fprintf(out, "pushed %d projects, %d tasks, %d notes (%d bytes) at %s\n",
		len(res.Snapshot.Projects), res.Snapshot.TaskCount(), len(res.Snapshot.Notes), up.Size, up.Timestamp)
	return nil
}
