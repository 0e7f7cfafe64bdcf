package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(teamsCmd)
	teamsCmd.AddCommand(teamsListCmd)
	teamsCmd.AddCommand(teamsScoreCmd)
}

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Inspect and adjust the team leaderboard",
}

// ─── teams list ─────────────────────────────────────────────────────────────

var teamsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the leaderboard",
	RunE:  runTeamsList,
}

func runTeamsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	teams, err := a.board.List(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%-4s %-8s %-14s %7s %8s\n", "#", "ID", "NAME", "SCORE", "MEMBERS")
	for i, t := range teams {
		fmt.Fprintf(os.Stdout, "%-4d %-8s %-14s %7d %8d\n", i+1, t.ID, t.Name, t.Score, t.MemberCount)
	}
	return nil
}

// ─── teams score ────────────────────────────────────────────────────────────

var teamsScoreCmd = &cobra.Command{
	Use:   "score TEAM_ID DELTA",
	Short: "Add a signed delta to a team's score",
	Long:  `Add DELTA (may be negative) to a team's score. Scores never drop below zero.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runTeamsScore,
}

func runTeamsScore(cmd *cobra.Command, args []string) error {
	delta, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid delta %q: %w", args[1], err)
	}

	ctx, cancel := commandContext()
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	team, err := a.board.AdjustScore(ctx, args[0], delta)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✅ %s now at %d points\n", team.Name, team.Score)
	return nil
}
