package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/synheart/consciousness-bridge/internal/models"
	"github.com/synheart/consciousness-bridge/internal/recorder"
)

var (
	recordDuration time.Duration
	recordStep     time.Duration
	recordOut      string
	recordFormat   string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a simulated session to a file",
	Long: `Sweeps the generator over a simulated timeline and writes every sample
to NDJSON, length-delimited protobuf or SQLite. No wall-clock waiting.

Examples:
  bridge record --out session.ndjson --duration 1h --step 1s
  bridge record --tier advanced --out session.db --format sqlite`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().String("tier", "simple", "Generator tier: simple|advanced")
	recordCmd.Flags().String("schedule", "", "Mood schedule (defaults to the tier name)")
	recordCmd.Flags().String("schedules-dir", "", "Directory of extra schedule YAML files")
	recordCmd.Flags().DurationVar(&recordDuration, "duration", 5*time.Minute, "Simulated duration to record")
	recordCmd.Flags().DurationVar(&recordStep, "step", 100*time.Millisecond, "Simulated time between samples")
	recordCmd.Flags().StringVar(&recordOut, "out", "", "Output file (required)")
	recordCmd.Flags().StringVar(&recordFormat, "format", "ndjson", "Output format: ndjson|proto|sqlite")
	recordCmd.MarkFlagRequired("out")
}

func runRecord(cmd *cobra.Command, args []string) error {
	format, err := recorder.ParseFormat(recordFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	writer, err := recorder.NewWriter(recordOut, format)
	if err != nil {
		return fmt.Errorf("failed to create recorder: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "📼 Recording Session Started\n\n")
	fmt.Fprintf(out, "Tier:       %s\n", gen.Tier())
	fmt.Fprintf(out, "Schedule:   %s\n", gen.Schedule().Name)
	fmt.Fprintf(out, "Output:     %s (%s)\n", recordOut, format)
	fmt.Fprintf(out, "Timeline:   %s every %s\n\n", recordDuration, recordStep)

	sampleCount := 0
	progressCallback := func() {
		sampleCount++
		if sampleCount%10000 == 0 {
			fmt.Fprintf(out, "\rRecorded %s samples...", humanize.Comma(int64(sampleCount)))
		}
	}

	samples := make(chan models.Sample, 1000)
	recordErr := make(chan error, 1)
	go func() {
		err := recorder.RecordFromChannel(ctx, writer, samples, progressCallback)
		if err != nil {
			// stop the sweep, nobody is draining samples anymore
			cancel()
		}
		recordErr <- err
	}()

	sweepErr := gen.Sweep(ctx, recordDuration, recordStep, samples)
	close(samples)

	if err := <-recordErr; err != nil {
		return fmt.Errorf("recording error: %w", err)
	}
	if sweepErr != nil && sweepErr != context.Canceled {
		return fmt.Errorf("generator error: %w", sweepErr)
	}

	size := ""
	if info, err := os.Stat(recordOut); err == nil {
		size = ", " + humanize.Bytes(uint64(info.Size()))
	}
	fmt.Fprintf(out, "\n✅ Recording complete: %s (%s samples%s)\n", recordOut, humanize.Comma(int64(sampleCount)), size)

	if format == recorder.FormatSQLite {
		return printDatabaseSummary(out, recordOut, gen.Schedule().Labels())
	}
	return nil
}

// printDatabaseSummary reports what the database holds per mood, in schedule order
func printDatabaseSummary(out io.Writer, path string, labels []string) error {
	db, err := recorder.NewSQLiteWriter(path)
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}
	defer db.Close()

	total, err := db.Count()
	if err != nil {
		return err
	}
	moods, err := db.MoodCounts()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nDatabase rows: %s\n", humanize.Comma(int64(total)))
	for _, label := range labels {
		if n := moods[label]; n > 0 {
			fmt.Fprintf(out, "  %-18s %s\n", label, humanize.Comma(int64(n)))
		}
	}
	return nil
}
