package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tuidosync/internal/client/client"
	"github.com/dmitrijs2005/tuidosync/internal/client/config"
	"github.com/spf13/cobra"
)

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Show whether the server holds data for this token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, _ *config.Config, c client.Client) error {
				st, err := c.Check(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if !st.Exists {
					fmt.Fprintln(out, "no data on server")
					return nil
				}
				fmt.Fprintln(out, "data on server")
				if st.LastSync != "" {
					fmt.Fprintf(out, "last sync: %s\n", st.LastSync)
				}
				if st.DataSize != nil {
					fmt.Fprintf(out, "size: %d bytes\n", *st.DataSize)
				}
				return nil
			})
		},
	}
}
