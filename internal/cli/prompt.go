package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/greenpoint-eco/greenpoint/internal/app/energy"
	"github.com/greenpoint-eco/greenpoint/internal/app/validation"
	"github.com/greenpoint-eco/greenpoint/internal/domain"
)

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().Bool("heuristic", false, "Skip the classifier even if one is configured")
	estimateCmd.Flags().Bool("json", false, "Print the evaluation as JSON")
}

// ─── validate ───────────────────────────────────────────────────────────────

var validateCmd = &cobra.Command{
	Use:   "validate PROMPT...",
	Short: "Check a prompt's length and wording",
	Long: `Print the advisory validation status for a prompt and whether the
submission gate would block it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")
	v := validation.Validate(prompt)

	fmt.Fprintf(os.Stdout, "Words:   %d\n", validation.WordCount(prompt))
	fmt.Fprintf(os.Stdout, "Status:  %s\n", v.Status)
	if v.Message != "" {
		fmt.Fprintf(os.Stdout, "Message: %s\n", v.Message)
	}
	if b, blocked := validation.Gate(prompt); blocked {
		fmt.Fprintf(os.Stdout, "Blocked: %s (energy usage %d%%)\n", b.Reason, b.Metrics.Usage)
	} else {
		fmt.Fprintln(os.Stdout, "Blocked: no")
	}
	return nil
}

// ─── estimate ───────────────────────────────────────────────────────────────

var estimateCmd = &cobra.Command{
	Use:   "estimate PROMPT...",
	Short: "Estimate a prompt's energy usage",
	Long: `Score a prompt with the configured classifier, falling back to the
built-in heuristic when the classifier is disabled or fails. No user or
team records are touched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEstimate,
}

func runEstimate(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")
	heuristic, _ := cmd.Flags().GetBool("heuristic")
	asJSON, _ := cmd.Flags().GetBool("json")

	var ev domain.Evaluation
	if heuristic {
		ev = energy.New(energy.DefaultConfig(), nil, nil).Heuristic(prompt)
	} else {
		ctx, cancel := commandContext()
		defer cancel()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		ev = a.estimator.Estimate(ctx, prompt)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ev)
	}

	fmt.Fprintf(os.Stdout, "Energy usage:    %d%% (%s)\n", ev.Metrics.Usage, ev.Metrics.Efficiency)
	fmt.Fprintf(os.Stdout, "Eco-responsible: %t (score %d)\n", ev.Classification.IsEcoResponsible, ev.Classification.Score)
	fmt.Fprintf(os.Stdout, "Source:          %s\n", ev.Source)
	if ev.FallbackReason != "" {
		fmt.Fprintf(os.Stdout, "Fallback:        %s\n", ev.FallbackReason)
	}
	if ev.Classification.Explanation != "" {
		fmt.Fprintf(os.Stdout, "\n%s\n", ev.Classification.Explanation)
	}
	for _, s := range ev.Metrics.Suggestions {
		fmt.Fprintf(os.Stdout, "  • %s\n", s)
	}
	return nil
}
