package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match management commands",
	}

	cmd.AddCommand(newMatchListCmd())
	cmd.AddCommand(newMatchHistoryCmd())
	cmd.AddCommand(newMatchCreateCmd())
	cmd.AddCommand(newMatchGetCmd())
	cmd.AddCommand(newMatchJoinCmd())
	cmd.AddCommand(newMatchLeaveCmd())

	return cmd
}

func matchPath(id, suffix string) string {
	return "/api/v1/matches/" + url.PathEscape(id) + suffix
}

func newMatchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List matches with free seats",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MatchList

			if err := client.Get(cmd.Context(), "/api/v1/matches", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newMatchHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished matches, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MatchHistory

			if err := client.Get(cmd.Context(), "/api/v1/matches/history?limit="+strconv.Itoa(limit), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of matches")

	return cmd
}

func newMatchCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new match and join it",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MatchView

			if err := client.Post(cmd.Context(), "/api/v1/matches", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newMatchGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <match-id>",
		Short: "Get match details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MatchView

			if err := client.Get(cmd.Context(), matchPath(args[0], ""), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newMatchJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <match-id>",
		Short: "Join a match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MatchView

			if err := client.Post(cmd.Context(), matchPath(args[0], "/join"), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newMatchLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <match-id>",
		Short: "Leave a match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(cmd.Context(), matchPath(args[0], "/leave"), nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage(fmt.Sprintf("Left match %s", args[0]))
			return nil
		},
	}
}
