package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Open a new connection and save its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ConnectionResult

			if err := client.Post(cmd.Context(), "/api/v1/connections", nil, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Close the connection, leaving any match, and forget the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), "/api/v1/connections/me"); err != nil {
				return err
			}

			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Disconnected")
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var name string
	var hero int

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a username and hero for this connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"username": name,
				"hero_id":  hero,
			}
			var result PlayerView

			if err := client.Post(cmd.Context(), "/api/v1/players", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Username (required)")
	cmd.Flags().IntVar(&hero, "hero", 0, "Hero id, see 'moba heroes' (0 for none)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newHeroesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "heroes",
		Short: "List selectable heroes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HeroList

			if err := client.Get(cmd.Context(), "/api/v1/heroes", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
