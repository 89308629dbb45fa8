package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func parseCoord(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, raw)
	}
	return v, nil
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <match-id> <x> <y>",
		Short: "Report a new position",
		Long: `Report a new position in a match.

Put -- before the arguments when a coordinate is negative:
  moba move match-1 -- -10.5 20`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := parseCoord("x", args[1])
			if err != nil {
				return err
			}
			y, err := parseCoord("y", args[2])
			if err != nil {
				return err
			}

			req := map[string]float64{"x": x, "y": y}
			if err := client.Post(cmd.Context(), matchPath(args[0], "/move"), req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage(fmt.Sprintf("Moved to (%g, %g)", x, y))
			return nil
		},
	}
}

func newAbilityCmd() *cobra.Command {
	var x, y float64

	cmd := &cobra.Command{
		Use:   "ability <match-id> <ability-id>",
		Short: "Cast one of your hero's abilities",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			abilityID, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("ability id must be an integer, got %q", args[1])
			}

			req := map[string]any{"ability_id": abilityID, "x": x, "y": y}
			var result AbilityResult

			if err := client.Post(cmd.Context(), matchPath(args[0], "/abilities"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().Float64Var(&x, "x", 0, "Target x")
	cmd.Flags().Float64Var(&y, "y", 0, "Target y")

	return cmd
}

func newAttackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attack <match-id> <target-id>",
		Short: "Basic attack another player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"target_id": args[1]}
			var result AttackResult

			if err := client.Post(cmd.Context(), matchPath(args[0], "/attack"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newChatCmd() *cobra.Command {
	var team bool

	cmd := &cobra.Command{
		Use:   "chat <match-id> <message...>",
		Short: "Send a chat message to the match or your team",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"message":   strings.Join(args[1:], " "),
				"team_only": team,
			}

			if err := client.Post(cmd.Context(), matchPath(args[0], "/chat"), req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Sent")
			return nil
		},
	}

	cmd.Flags().BoolVar(&team, "team", false, "Send to your team only")

	return cmd
}
