package cli

import (
	"fmt"
	"net"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment and print connection info",
	Long:  `Validates configuration and schedules, checks port availability, and provides client examples.`,
	RunE:  runDoctor,
}

func init() {
	doctorCmd.Flags().String("host", "localhost", "Host the bridge would bind to")
	doctorCmd.Flags().Int("port", 8765, "Port the bridge would listen on")
	doctorCmd.Flags().String("schedules-dir", "", "Directory of extra schedule YAML files")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🏥 Consciousness Bridge Environment Check")

	fmt.Fprintf(out, "Go Version:        %s\n", runtime.Version())
	fmt.Fprintf(out, "OS/Arch:           %s/%s\n\n", runtime.GOOS, runtime.GOARCH)

	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(out, "❌ Configuration: %v\n\n", err)
		return err
	}
	fmt.Fprintf(out, "✅ Configuration valid (tier %s, schedule %s)\n", cfg.Generator.Tier, cfg.ScheduleName())

	registry, err := loadRegistry(cfg.Generator.SchedulesDir)
	if err != nil {
		fmt.Fprintf(out, "❌ Schedules: %v\n\n", err)
		return err
	}
	fmt.Fprintf(out, "✅ Found %d schedules: %v\n", len(registry.List()), registry.List())
	if _, err := registry.Get(cfg.ScheduleName()); err != nil {
		fmt.Fprintf(out, "❌ Configured schedule '%s' not found\n", cfg.ScheduleName())
	}
	fmt.Fprintln(out)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	if isPortAvailable(addr) {
		fmt.Fprintf(out, "✅ %s is available\n\n", addr)
	} else {
		fmt.Fprintf(out, "⚠️  %s is in use\n", addr)
		fmt.Fprintf(out, "   Use --port flag or BRIDGE_PORT to pick a different port\n\n")
	}

	url := fmt.Sprintf("http://%s/consciousness/state", addr)

	fmt.Fprintln(out, "📡 Client Examples:")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "curl:")
	fmt.Fprintf(out, "  curl -s %s\n", url)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "JavaScript:")
	fmt.Fprintf(out, "  const state = await (await fetch('%s')).json();\n", url)
	fmt.Fprintln(out, "  console.log(state.mood_state, state.bond_strength);")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Java (renderer, 50 ms timeout):")
	fmt.Fprintf(out, "  HttpRequest req = HttpRequest.newBuilder(URI.create(\"%s\"))\n", url)
	fmt.Fprintln(out, "      .timeout(Duration.ofMillis(50)).build();")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Go:")
	fmt.Fprintf(out, "  resp, err := http.Get(%q)\n", url)
	fmt.Fprintln(out, "  var state map[string]any")
	fmt.Fprintln(out, "  json.NewDecoder(resp.Body).Decode(&state)")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "✅ Environment check complete")
	return nil
}

func isPortAvailable(addr string) bool {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	listener.Close()
	return true
}
