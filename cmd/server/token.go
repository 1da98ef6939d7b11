package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"civicpulse.ai/civicpulse-api/internal/auth"
	"civicpulse.ai/civicpulse-api/internal/config"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Print an admin bearer token for the upload endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		if config.AppConfig.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set; admin routes are open and need no token")
		}
		token, err := auth.GenerateJWT(config.AppConfig.JWTSecret, tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	issueTokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "token subject")
	issueTokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
