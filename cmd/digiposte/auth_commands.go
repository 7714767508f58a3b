package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nivram913/fuse-digiposte/internal/auth"
	"github.com/nivram913/fuse-digiposte/internal/deps"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in through the browser and store the session token",
		Long: "Opens the Digiposte login page and waits for the session token to be written " +
			"to auth.token_file. With --token the given token is stored directly.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			store := auth.NewFileTokenStore(cfg.Auth.StateFile)

			token := ctx.tokenFlagValue()
			if token == "" {
				browser := deps.CheckBinaries([]deps.Requirement{
					deps.BrowserRequirement(cfg.Auth.BrowserCommand, auth.DefaultBrowserCommand()),
				})[0]
				if !browser.Available {
					fmt.Fprintf(out, "Browser helper unavailable (%s); open the URL below manually.\n", browser.Detail)
				}
				fmt.Fprintln(out, "Sign in to Digiposte at:")
				fmt.Fprintf(out, "\n    %s\n\n", cfg.Auth.LoginURL)
				fmt.Fprintf(out, "Waiting for the session token in %s... (Ctrl+C to abort)\n", cfg.Auth.TokenFile)

				token, err = auth.Login(cmd.Context(), auth.LoginOptionsFromConfig(cfg, ctx.log()))
				if err != nil {
					return err
				}
			}

			if err := store.Save(auth.State{Token: token}); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			fmt.Fprintf(out, "Logged in; token saved to %s\n", store.Path())
			return nil
		},
	}
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := auth.NewFileTokenStore(cfg.Auth.StateFile)
			if err := store.Clear(); err != nil {
				return fmt.Errorf("clear token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed stored token from %s\n", store.Path())
			return nil
		},
	}
}
