package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/tuidosync/internal/client/client"
	"github.com/dmitrijs2005/tuidosync/internal/client/config"
	"github.com/dmitrijs2005/tuidosync/internal/snapshot"
	"github.com/spf13/cobra"
)

var errWouldEmpty = errors.New("server copy is empty; use --force to overwrite local data")

func newPullCommand(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Replace the local data file with the server copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, cfg *config.Config, c client.Client) error {
				st, err := c.Check(ctx)
				if err != nil {
					return err
				}
				if !st.Exists {
					return client.ErrNotFound
				}
				return pull(ctx, cfg, c, st, force, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite local data even when the server copy is empty")
	return cmd
}

// pull downloads the server copy; st is the status checked just before, its
// lastSync becomes the local sync state.
func pull(ctx context.Context, cfg *config.Config, c client.Client, st *client.Status, force bool, out io.Writer) error {
	raw, err := c.Download(ctx)
	if err != nil {
		return err
	}

	res := snapshot.Decode(raw)
	if !res.OK() {
		return fmt.Errorf("server returned invalid data: %w", res.Err())
	}
	s := res.Snapshot

	if !force && isEmpty(s) && hasLocalData(cfg.DataFile) {
		return errWouldEmpty
	}

	enc, err := snapshot.Encode(s)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, enc, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')

	if err := writeAtomic(cfg.DataFile, buf.Bytes()); err != nil {
		return err
	}
	if err := saveLastSync(cfg.DataFile, st.LastSync); err != nil {
		return fmt.Errorf("save sync state: %w", err)
	}

	fmt.Fprintf(out, "pulled %d projects, %d tasks, %d notes into %s\n",
		len(s.Projects), s.TaskCount(), len(s.Notes), cfg.DataFile)
	return nil
}

func isEmpty(s *snapshot.Snapshot) bool {
	return len(s.Projects) == 0 && s.TaskCount() == 0 && len(s.Notes) == 0
}

func hasLocalData(path string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	res := snapshot.Decode(raw)
	return !res.OK() || !isEmpty(res.Snapshot)
}
