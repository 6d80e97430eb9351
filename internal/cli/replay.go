package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/synheart/consciousness-bridge/internal/models"
	"github.com/synheart/consciousness-bridge/internal/recorder"
	"github.com/synheart/consciousness-bridge/internal/server"
	"github.com/synheart/consciousness-bridge/internal/transport"
	"go.uber.org/zap"
)

var (
	replayIn    string
	replaySpeed float64
	replayLoop  bool
	replayHost  string
	replayPort  int
	replayPrint bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded session over SSE and WebSocket",
	Long: `Replays states from an NDJSON recording with the recorded pacing and pushes
them to SSE (/consciousness/stream) and WebSocket (/consciousness/ws) clients.

Examples:
  bridge replay --in session.ndjson
  bridge replay --in session.ndjson --speed 10 --loop --print`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayIn, "in", "", "NDJSON recording to replay (required)")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayLoop, "loop", false, "Loop playback continuously")
	replayCmd.Flags().StringVar(&replayHost, "host", "localhost", "Host to bind to")
	replayCmd.Flags().IntVar(&replayPort, "port", 8766, "Port to listen on")
	replayCmd.Flags().BoolVar(&replayPrint, "print", false, "Also print each state to stdout")
	replayCmd.MarkFlagRequired("in")
}

func runReplay(cmd *cobra.Command, args []string) error {
	rep := recorder.NewReplayer(replayIn, replaySpeed, replayLoop)

	count, err := rep.CountSamples()
	if err != nil {
		return fmt.Errorf("failed to read recording: %w", err)
	}
	first, err := rep.FirstSample()
	if err != nil {
		return fmt.Errorf("failed to read first sample: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	streams := transport.NewStreams(cfg.Stream.Buffer, logger)
	r := chi.NewRouter()
	r.Handle(server.StreamPath, streams.SSE)
	r.Handle(server.WebSocketPath, streams.WebSocket)

	addr := net.JoinHostPort(replayHost, strconv.Itoa(replayPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	httpServer := &http.Server{Handler: r, ReadHeaderTimeout: server.DefaultConfig().ReadHeaderTimeout}
	httpServer.RegisterOnShutdown(func() { streams.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("replay server stopped", zap.Error(err))
			cancel()
		}
	}()
	defer httpServer.Shutdown(context.Background())

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "▶️  Replay Session Started\n\n")
	fmt.Fprintf(out, "File:         %s\n", replayIn)
	fmt.Fprintf(out, "Samples:      %d\n", count)
	fmt.Fprintf(out, "Run ID:       %s\n", first.RunID)
	fmt.Fprintf(out, "Tier:         %s\n", tierOf(first.State))
	fmt.Fprintf(out, "Speed:        %.1fx\n", replaySpeed)
	fmt.Fprintf(out, "Loop:         %v\n", replayLoop)
	fmt.Fprintf(out, "SSE:          http://%s%s\n", ln.Addr(), server.StreamPath)
	fmt.Fprintf(out, "WebSocket:    ws://%s%s\n\n", ln.Addr(), server.WebSocketPath)

	states := make(chan models.State, 100)
	broadcast := make(chan models.State, 100)
	go streams.Run(ctx, broadcast)

	go func() {
		defer close(broadcast)
		for state := range states {
			if replayPrint {
				printState(cmd.OutOrStdout(), state.Time().Format("15:04:05.000"), state)
			}
			select {
			case broadcast <- state:
			case <-ctx.Done():
				return
			}
		}
	}()

	err = rep.Replay(ctx, states)
	close(states)
	if err != nil && err != context.Canceled {
		return fmt.Errorf("replay error: %w", err)
	}

	fmt.Fprintln(out, "\nReplay complete")
	return nil
}

func tierOf(state models.State) models.Tier {
	if state.IsAdvanced() {
		return models.TierAdvanced
	}
	return models.TierSimple
}
