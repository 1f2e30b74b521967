package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <username>",
	Short: "Mint an access token for a user (development only)",
	Long: `Mint a PASETO access token signed with the server's key.

The token is printed on stdout so it can be captured, e.g.:

  TOKEN=$(shelfctl token alice)
  curl -H "Authorization: Bearer $TOKEN" localhost:8080/api/v1/me`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func runToken(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.IsProduction() {
		return fmt.Errorf("refusing to mint tokens with ENV=production")
	}

	user, err := a.users.GetByUsername(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	tokens, err := a.tokenService()
	if err != nil {
		return err
	}

	token, err := tokens.GenerateAccessToken(user)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
