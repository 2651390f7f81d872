package admin

import (
	"fmt"
	"io"

	"github.com/dmitrijs2005/tuidosync/internal/server/services"
	"github.com/spf13/cobra"
)

func newUserCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users and their API tokens",
	}
	cmd.AddCommand(newUserCreateCommand(opts), newUserRotateCommand(opts))
	return cmd
}

func newUserCreateCommand(opts *options) *cobra.Command {
	var name, image string

	cmd := &cobra.Command{
		Use:   "create EMAIL",
		Short: "Create a user and print its API token",
		Long: `Create a user and print its API token.

The token is shown once; only its hash is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.db.Close()

			issued, err := e.users.Register(cmd.Context(), args[0], name, image)
			if err != nil {
				return err
			}

			printIssued(cmd.OutOrStdout(), "created", issued)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&image, "image", "", "avatar URL")
	return cmd
}

func newUserRotateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate-token EMAIL",
		Short: "Replace a user's API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.db.Close()

			issued, err := e.users.RotateToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printIssued(cmd.OutOrStdout(), "rotated", issued)
			return nil
		},
	}
}

func printIssued(w io.Writer, verb string, issued *services.Issued) {
	fmt.Fprintf(w, "user %s: %s\n", verb, issued.User.Email)
	fmt.Fprintf(w, "api token: %s\n", issued.Token)
}
