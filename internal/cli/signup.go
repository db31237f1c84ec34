package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSignUpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account with --email and --password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, password := a.v.GetString("email"), a.v.GetString("password")
			if email == "" || password == "" {
				return errMissingCredentials
			}
			if err := a.client.SignUp(cmd.Context(), email, password); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "account %s created; sign in with --email/--password\n", email)
			return nil
		},
	}
}
