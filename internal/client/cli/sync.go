package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tuidosync/internal/client/client"
	"github.com/dmitrijs2005/tuidosync/internal/client/config"
	"github.com/spf13/cobra"
)

// Sync directions chosen by decide.
const (
	actionPush   = "push"
	actionPull   = "pull"
	actionInSync = "none"
)

// decide picks a direction from the server's last sync and the local one.
// A zero local time means the data file was never synced.
func decide(exists bool, local, remote time.Time) string {
	switch {
	case !exists:
		return actionPush
	case local.IsZero():
		return actionPull
	case remote.After(local):
		return actionPull
	case remote.Equal(local):
		return actionInSync
	default:
		return actionPush
	}
}

func newSyncCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push or pull, whichever side changed last",
		Long: `Compare the server's last sync time with the one recorded locally by
the previous push or pull, then upload or download the whole data file.
There is no merge: the newer side replaces the older one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, cfg *config.Config, c client.Client) error {
				st, err := c.Check(ctx)
				if err != nil {
					return err
				}

				local, err := loadLastSync(cfg.DataFile)
				if err != nil {
					return err
				}

				var remote time.Time
				if st.Exists && st.LastSync != "" {
					if remote, err = parseServerTime(st.LastSync); err != nil {
						return err
					}
				}

				out := cmd.OutOrStdout()
				switch decide(st.Exists, local, remote) {
				case actionPush:
					return push(ctx, cfg, c, out)
				case actionPull:
					return pull(ctx, cfg, c, st, false, out)
				default:
					fmt.Fprintln(out, "already in sync")
					return nil
				}
			})
		},
	}
}
