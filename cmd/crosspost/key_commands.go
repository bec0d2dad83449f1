package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/maheshrc27/crosspost/pkg/utils"
	"github.com/spf13/cobra"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.SecretKey == "" {
				return errors.New("SECRET_KEY is not set")
			}
			token, err := utils.GenerateToken(cfg.SecretKey, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "Name recorded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func newKeygenCommand() *cobra.Command {
	var apiKey bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a SECRET_KEY (or an API_KEY with --api)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			var err error
			if apiKey {
				key, err = utils.GenerateRandomKey(32)
			} else {
				key, err = utils.GenerateSecretKey(16)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	cmd.Flags().BoolVar(&apiKey, "api", false, "Generate an API key instead of an encryption key")
	return cmd
}

func newEncryptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <value>",
		Short: "Encrypt a credential for use as enc:... in the environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.SecretKey == "" {
				return errors.New("SECRET_KEY is not set")
			}
			sealed, err := utils.Encrypt([]byte(args[0]), []byte(cfg.SecretKey))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "enc:"+sealed)
			return nil
		},
	}
}
