package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/id-verifier/internal/database"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show verification statistics",
	Long: `Show aggregated verification outcomes and per-place activity.

Examples:
  # All-time statistics
  id-verifier stats

  # Restrict to a period
  id-verifier stats --period today
  id-verifier stats --period week

  # JSON output for scripting
  id-verifier stats --json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().String("period", "", "Period filter: today, yesterday, week or month")
	statsCmd.Flags().Bool("json", false, "Output as JSON")
}

// StatsCLIResult is the JSON shape printed by the stats command.
type StatsCLIResult struct {
	Stats  *database.VerificationStats `json:"stats"`
	Places []database.PlaceStats       `json:"places,omitempty"`
}

func runStats(cmd *cobra.Command, args []string) error {
	period := mustGetString(cmd, "period")
	jsonOutput := mustGetBool(cmd, "json")

	switch period {
	case "", "today", "yesterday", "week", "month":
	default:
		return fmt.Errorf("unknown period %q (want today, yesterday, week or month)", period)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	filter := database.StatsFilter{Period: period}

	stats, err := a.verifications.Stats(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to load statistics: %w", err)
	}
	places, err := a.verifications.StatsByPlace(ctx, filter, 10)
	if err != nil {
		return fmt.Errorf("failed to load place statistics: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(StatsCLIResult{Stats: stats, Places: places})
	}

	if period == "" {
		fmt.Println("Verifications (all time):")
	} else {
		fmt.Printf("Verifications (%s):\n", period)
	}
	fmt.Printf("  Total:    %d\n", stats.Total)
	fmt.Printf("  Matched:  %d\n", stats.Matched)
	fmt.Printf("  Failed:   %d\n", stats.Failed)
	fmt.Printf("  External: %d\n", stats.External)

	if len(places) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PLACE\tTOTAL")
		for _, p := range places {
			fmt.Fprintf(w, "%s\t%d\n", p.Place, p.Total)
		}
		w.Flush()
	}
	return nil
}
