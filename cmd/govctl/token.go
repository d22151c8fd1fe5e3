package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"habitat/internal/auth"
	id "habitat/pkg/domain"
	dErrors "habitat/pkg/domain-errors"
	"habitat/pkg/platform/secrets"
	"habitat/pkg/requestcontext"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue operator and session tokens",
	}
	cmd.AddCommand(newAdminTokenCmd(), newSessionTokenCmd(a))
	return cmd
}

// newAdminTokenCmd prints a fresh admin token and the bcrypt hash to put in
// ADMIN_TOKEN.
func newAdminTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "admin",
		Short: "Generate an admin token and its hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := secrets.Generate()
			if err != nil {
				return err
			}
			hash, err := secrets.Hash(token)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token: %s\n", token)
			fmt.Fprintf(out, "hash:  %s\n", hash)
			return nil
		},
	}
}

func newSessionTokenCmd(a *app) *cobra.Command {
	var (
		user string
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Sign a session token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := id.ParseUserID(user)
			if err != nil {
				return err
			}
			r := requestcontext.Role(role)
			if !r.Valid() {
				return dErrors.New(dErrors.CodeInvalidInput, "role must be resident or provider")
			}
			sessionID, err := id.ParseSessionID(uuid.NewString())
			if err != nil {
				return err
			}
			jwt := auth.NewJWTService(a.cfg.Auth.JWTSigningKey, a.cfg.Auth.JWTIssuer)
			token, err := jwt.GenerateAccessToken(userID, sessionID, r, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (uuid)")
	cmd.Flags().StringVar(&role, "role", string(requestcontext.RoleResident), "resident or provider")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
