package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/synheart/consciousness-bridge/internal/config"
	"github.com/synheart/consciousness-bridge/internal/generator"
	"github.com/synheart/consciousness-bridge/internal/models"
	"github.com/synheart/consciousness-bridge/internal/server"
	"github.com/synheart/consciousness-bridge/internal/transport"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve consciousness state over HTTP",
	Long: `Starts the bridge on localhost:8765. Every GET /consciousness/state
recomputes the state from the time elapsed since startup.

With --stream, states are also pushed at --stream-rate over
Server-Sent Events (/consciousness/stream) and WebSocket (/consciousness/ws).

Examples:
  bridge serve
  bridge serve --tier advanced
  bridge serve --port 9000 --stream --stream-rate 20hz`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Int("port", 8765, "Port to listen on")
	serveCmd.Flags().String("tier", "simple", "Generator tier: simple|advanced")
	serveCmd.Flags().String("schedule", "", "Mood schedule (defaults to the tier name)")
	serveCmd.Flags().String("schedules-dir", "", "Directory of extra schedule YAML files")
	serveCmd.Flags().Bool("stream", false, "Push states over SSE and WebSocket")
	serveCmd.Flags().String("stream-rate", "10hz", "Stream push rate")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	srvConfig := server.DefaultConfig()
	srvConfig.Host = cfg.Server.Host
	srvConfig.Port = cfg.Server.Port
	srv := server.NewServer(srvConfig, gen, logger)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var streams *transport.Streams
	if cfg.Stream.Enabled {
		streams = transport.NewStreams(cfg.Stream.Buffer, logger)
		srv.Handle(server.StreamPath, streams.SSE)
		srv.Handle(server.WebSocketPath, streams.WebSocket)
	}

	if err := srv.Listen(); err != nil {
		return err
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "\n⏹  Received interrupt signal, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if streams != nil {
		if err := startStreaming(ctx, gen, streams, cfg, logger); err != nil {
			return err
		}
	}

	if !globalOpts.Quiet {
		printServeBanner(cmd.ErrOrStderr(), srv.GetAddress(), gen, cfg)
	}

	// Start server (blocks until context is cancelled)
	if err := srv.Start(ctx); err != nil && err != context.Canceled {
		return fmt.Errorf("server error: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\n📊 Served %d state updates\n", gen.Updates())
	fmt.Fprintln(cmd.ErrOrStderr(), "✓ Shutdown complete")
	return nil
}

// startStreaming ticks the generator into the stream hubs until ctx is done
func startStreaming(ctx context.Context, gen *generator.Generator, streams *transport.Streams, cfg *config.Config, logger *zap.Logger) error {
	interval, err := config.ParseTickRate(cfg.Stream.Rate)
	if err != nil {
		return fmt.Errorf("invalid stream rate: %w", err)
	}

	states := make(chan models.State, cfg.Stream.Buffer)
	go streams.Run(ctx, states)

	go func() {
		defer close(states)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		if err := gen.Stream(ctx, ticker, states); err != nil && err != context.Canceled {
			logger.Error("stream stopped", zap.Error(err))
		}
	}()
	return nil
}

func printServeBanner(out io.Writer, address string, gen *generator.Generator, cfg *config.Config) {
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "╔═══════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(out, "║                 💫 Consciousness Bridge Started                ║")
	fmt.Fprintln(out, "╚═══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(out, "")
	fmt.Fprintf(out, "  Status:    %s/\n", address)
	fmt.Fprintf(out, "  State:     %s%s\n", address, server.StatePath)
	if cfg.Stream.Enabled {
		fmt.Fprintf(out, "  SSE:       %s%s\n", address, server.StreamPath)
		fmt.Fprintf(out, "  WebSocket: ws%s%s\n", address[len("http"):], server.WebSocketPath)
		fmt.Fprintf(out, "  Rate:      %s\n", cfg.Stream.Rate)
	}
	fmt.Fprintln(out, "")
	fmt.Fprintf(out, "  Tier:      %s\n", gen.Tier())
	fmt.Fprintf(out, "  Schedule:  %s (%d moods)\n", gen.Schedule().Name, len(gen.Schedule().Moods))
	fmt.Fprintf(out, "  Run ID:    %s\n", gen.RunID())
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Waiting for requests... (Press Ctrl+C to stop)")
	fmt.Fprintln(out, "")
}
