package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hsfl/cosmos-core-sub000/internal/auth"
)

var (
	tokenRole   string
	tokenNode   string
	tokenSecret string
	tokenTTL    int
)

func init() {
	cmd := newTokenCmd()
	cmd.Flags().StringVar(&tokenRole, "role", string(auth.RoleOperator), "Role granted by the token (viewer, operator)")
	cmd.Flags().StringVar(&tokenNode, "node", "", "Restrict the token to one node (default: any node)")
	cmd.Flags().StringVar(&tokenSecret, "secret", "", "Signing secret (default: $COSMOS_JWT_SECRET)")
	cmd.Flags().IntVar(&tokenTTL, "ttl", 15, "Token lifetime in minutes")
	rootCmd.AddCommand(cmd)
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint an operator token",
		Long: `The token command signs a bearer token for the daemon's write endpoints
with the secret configured as security.jwt.secret.

Example:
  COSMOS_JWT_SECRET=... nsctl token alice --role operator --node cubesat1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(cmd, args[0])
		},
	}
}

func runToken(cmd *cobra.Command, subject string) error {
	role, err := auth.ParseRole(tokenRole)
	if err != nil {
		return err
	}
	if !auth.IsValidSubject(subject) {
		return auth.ErrInvalidSubject
	}
	secret := tokenSecret
	if secret == "" {
		secret = os.Getenv("COSMOS_JWT_SECRET")
	}
	if secret == "" {
		return errors.New("no signing secret: pass --secret or set COSMOS_JWT_SECRET")
	}

	tok, err := auth.GenerateAccessToken(subject, role, tokenNode, secret, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
