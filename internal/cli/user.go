package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// ─── User CLI ───────────────────────────────────────────────────────────────
// Terminal access to the same sessions the web client drives: onboard a
// user, submit prompts and review progress.

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userShowCmd)
	userCmd.AddCommand(userChatCmd)
	userCmd.AddCommand(userResetCmd)
	userCmd.AddCommand(userXPCmd)

	userCreateCmd.Flags().StringP("team", "t", "", "Team to join (required)")
	_ = userCreateCmd.MarkFlagRequired("team")
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users and chat sessions",
}

// ─── user create ────────────────────────────────────────────────────────────

var userCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Onboard a user onto a team",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserCreate,
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	teamID, _ := cmd.Flags().GetString("team")

	ctx, cancel := commandContext()
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	u, _, err := a.engine.CreateUser(ctx, args[0], teamID)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✅ User %q created with id %s\n", u.Name, u.ID)
	fmt.Fprintf(os.Stdout, "   Chat with: greenpoint user chat %s <prompt>\n", u.ID)
	return nil
}

// ─── user show ──────────────────────────────────────────────────────────────

var userShowCmd = &cobra.Command{
	Use:   "show USER_ID",
	Short: "Show a user's level, stats, recent activity and achievements",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserShow,
}

func runUserShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	u, err := a.engine.GetUser(ctx, args[0])
	if err != nil {
		return err
	}
	achievements, err := a.engine.Achievements(ctx, u.ID)
	if err != nil {
		return err
	}
	stats, err := a.engine.Analytics(ctx, u.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s (%s) on %s\n", u.Name, u.ID, u.TeamID)
	fmt.Fprintf(os.Stdout, "Level %d: %d / %d XP\n", u.Level, u.XP, u.XPToNextLevel)
	fmt.Fprintf(os.Stdout, "Prompts: %d total, %d efficient, %d inefficient, average energy %.1f%%\n",
		u.Stats.TotalPrompts, u.Stats.EfficientPrompts, u.Stats.InefficientPrompts, u.Stats.AverageEnergy)
	fmt.Fprintf(os.Stdout, "Eco streak: %d · efficiency %d%%\n\n", u.Stats.EcoStreak, stats.EfficiencyPercent)

	fmt.Fprintf(os.Stdout, "%-6s %7s %7s\n", "DAY", "PROMPTS", "ENERGY")
	for _, d := range stats.Days {
		fmt.Fprintf(os.Stdout, "%-6s %7d %7d\n", d.Label, d.Prompts, d.Energy)
	}
	fmt.Fprintln(os.Stdout)

	for _, ach := range achievements {
		mark := "  "
		if ach.Unlocked() {
			mark = "✅"
		}
		line := fmt.Sprintf("%s %s", mark, ach.Title)
		if ach.HasProgress() {
			line += fmt.Sprintf(" (%d/%d)", *ach.Progress, *ach.MaxProgress)
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}

// ─── user chat ──────────────────────────────────────────────────────────────

var userChatCmd = &cobra.Command{
	Use:   "chat USER_ID PROMPT...",
	Short: "Submit a prompt as a user",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runUserChat,
}

func runUserChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.chat.Submit(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, res.AssistantMessage.Content)
	fmt.Fprintln(os.Stdout)
	if res.Blocked {
		fmt.Fprintf(os.Stdout, "⚠️  Blocked (%s)\n", res.BlockReason)
	}
	fmt.Fprintf(os.Stdout, "Energy %d%% (%s) · +%d XP · level %d (%d/%d)\n",
		res.Metrics.Usage, res.Metrics.Efficiency, res.Engagement.XPAwarded,
		res.Engagement.Level, res.Engagement.XP, res.Engagement.XPToNextLevel)
	for _, id := range res.Engagement.Unlocked {
		fmt.Fprintf(os.Stdout, "🏆 Unlocked %s\n", id)
	}
	if res.Engagement.TeamError != "" {
		fmt.Fprintf(os.Stdout, "Team update failed: %s\n", res.Engagement.TeamError)
	}
	return nil
}

// ─── user reset ─────────────────────────────────────────────────────────────

var userResetCmd = &cobra.Command{
	Use:   "reset USER_ID",
	Short: "Clear a user's chat history",
	Long:  `Clear a user's chat history. Level, XP, stats and achievements are kept.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runUserReset,
}

func runUserReset(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.chat.Reset(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✅ Chat history cleared for %s\n", args[0])
	return nil
}

// ─── user xp ────────────────────────────────────────────────────────────────

var userXPCmd = &cobra.Command{
	Use:   "xp USER_ID AMOUNT",
	Short: "Award XP to a user directly",
	Args:  cobra.ExactArgs(2),
	RunE:  runUserXP,
}

func runUserXP(cmd *cobra.Command, args []string) error {
	amount, err := strconv.Atoi(args[1])
	if err != nil || amount <= 0 {
		return fmt.Errorf("invalid amount %q: must be a positive integer", args[1])
	}

	ctx, cancel := commandContext()
	defer cancel()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	up, err := a.engine.AddXP(ctx, args[0], amount)
	if err != nil {
		return err
	}
	u, err := a.engine.GetUser(ctx, args[0])
	if err != nil {
		return err
	}
	if up {
		fmt.Fprint(os.Stdout, "🎉 Level up! ")
	}
	fmt.Fprintf(os.Stdout, "Level %d: %d / %d XP\n", u.Level, u.XP, u.XPToNextLevel)
	return nil
}
