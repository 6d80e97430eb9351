package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/synheart/consciousness-bridge/internal/models"
)

func renderBar(score float64, width int) string {
	filled := int(score * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// printState writes a state as one labelled bar per metric. Metrics are on a
// 0-10 scale.
func printState(w io.Writer, label string, state models.State) {
	fmt.Fprintf(w, "%s  mood: %s\n", label, state.MoodState)

	metrics := state.Metrics()
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := metrics[name]
		fmt.Fprintf(w, "  %-26s %s %6.3f\n", name, renderBar(value/10, 30), value)
	}
	if state.IsAdvanced() {
		fmt.Fprintf(w, "  %-26s %v\n", "mcp_connected", state.MCPConnected)
	}
}
