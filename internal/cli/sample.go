package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/synheart/consciousness-bridge/internal/encoding"
	"google.golang.org/protobuf/encoding/protowire"
)

var (
	sampleAt     time.Duration
	sampleCount  int
	sampleStep   time.Duration
	sampleOutput string
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print states at chosen elapsed times",
	Long: `Computes states offline at --at, --at+step, ... without starting a server.

Examples:
  bridge sample --tier advanced --at 10m
  bridge sample --count 5 --step 20s --output json
  bridge sample --tier advanced --output protobuf > states.bin`,
	RunE: runSample,
}

func init() {
	sampleCmd.Flags().String("tier", "simple", "Generator tier: simple|advanced")
	sampleCmd.Flags().String("schedule", "", "Mood schedule (defaults to the tier name)")
	sampleCmd.Flags().String("schedules-dir", "", "Directory of extra schedule YAML files")
	sampleCmd.Flags().DurationVar(&sampleAt, "at", 0, "Elapsed time of the first sample")
	sampleCmd.Flags().IntVar(&sampleCount, "count", 1, "Number of samples")
	sampleCmd.Flags().DurationVar(&sampleStep, "step", time.Second, "Elapsed time between samples")
	sampleCmd.Flags().StringVar(&sampleOutput, "output", "text", "Output format: text|json|protobuf")
}

func runSample(cmd *cobra.Command, args []string) error {
	output := strings.ToLower(strings.TrimSpace(sampleOutput))
	var encoder encoding.Encoder
	if output != "text" {
		format, err := encoding.ParseFormat(output)
		if err != nil {
			return fmt.Errorf("invalid --output %q (expected: text|json|protobuf)", sampleOutput)
		}
		encoder = encoding.NewEncoder(format)
	}
	if sampleCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	if sampleAt < 0 {
		return fmt.Errorf("--at must not be negative")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	for i := 0; i < sampleCount; i++ {
		elapsed := sampleAt + time.Duration(i)*sampleStep
		state := gen.At(elapsed)

		if encoder == nil {
			printState(out, fmt.Sprintf("t=%-8s", elapsed), state)
			continue
		}

		data, err := encoder.Encode(state)
		if err != nil {
			return fmt.Errorf("failed to encode state: %w", err)
		}
		if output == string(encoding.FormatProtobuf) {
			// length-delimited so consecutive messages can be split apart
			out.Write(protowire.AppendBytes(nil, data))
			continue
		}
		fmt.Fprintln(out, string(data))
	}
	return nil
}
