package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listSchedulesCmd = &cobra.Command{
	Use:   "list-schedules",
	Short: "List available mood schedules",
	Long:  `Lists the built-in mood schedules and any found in --schedules-dir, with their descriptions.`,
	RunE:  runListSchedules,
}

func init() {
	listSchedulesCmd.Flags().String("schedules-dir", "", "Directory of extra schedule YAML files")
}

func runListSchedules(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("schedules-dir")
	registry, err := loadRegistry(dir)
	if err != nil {
		return err
	}

	descriptions := registry.ListWithDescriptions()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Available schedules:")
	fmt.Fprintln(out)
	for _, name := range registry.List() {
		fmt.Fprintf(out, "  %-20s %s\n", name, descriptions[name])
	}
	fmt.Fprintln(out)

	return nil
}
