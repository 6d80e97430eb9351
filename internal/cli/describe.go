package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/synheart/consciousness-bridge/internal/generator"
	"github.com/synheart/consciousness-bridge/internal/models"
)

var describeCmd = &cobra.Command{
	Use:   "describe <schedule>",
	Short: "Describe a mood schedule in detail",
	Long:  `Shows a schedule's moods with their intensities, when each starts within a cycle, and the value bounds of its tier.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

func init() {
	describeCmd.Flags().String("schedules-dir", "", "Directory of extra schedule YAML files")
}

func runDescribe(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("schedules-dir")
	registry, err := loadRegistry(dir)
	if err != nil {
		return err
	}

	sched, err := registry.Get(args[0])
	if err != nil {
		return fmt.Errorf("schedule not found: %w", err)
	}

	out := cmd.OutOrStdout()
	cycle := time.Duration(sched.CycleSeconds() * float64(time.Second)).Round(time.Second)

	fmt.Fprintf(out, "Schedule: %s\n", sched.Name)
	fmt.Fprintf(out, "Description: %s\n", sched.Description)
	fmt.Fprintf(out, "Tier: %s\n", sched.Tier)
	fmt.Fprintf(out, "Rate: %g units/s\n", sched.Rate)
	if sched.Tier == models.TierAdvanced {
		fmt.Fprintf(out, "Reference intensity: %g\n", sched.ReferenceIntensity)
	}
	fmt.Fprintf(out, "Cycle: %s\n\n", cycle)

	fmt.Fprintln(out, "Moods:")
	var start float64
	for i, mood := range sched.Moods {
		offset := time.Duration(start / sched.Rate * float64(time.Second)).Round(time.Second)
		dwell := time.Duration(mood.Duration / sched.Rate * float64(time.Second)).Round(time.Second)
		fmt.Fprintf(out, "  %2d. %-18s intensity=%-4g starts at %-8s lasts %s\n", i+1, mood.Label, mood.Intensity, offset, dwell)
		start += mood.Duration
	}

	fmt.Fprintln(out, "\nBounds:")
	bounds := generator.Bounds(sched.Tier, sched)
	for _, name := range sortedNames(bounds) {
		b := bounds[name]
		fmt.Fprintf(out, "  %-26s [%.4g, %.4g]\n", name, b.Min, b.Max)
	}

	fmt.Fprintln(out)
	return nil
}

func sortedNames(bounds map[string]generator.Bound) []string {
	names := make([]string, 0, len(bounds))
	for name := range bounds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
