package recorder

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/synheart/consciousness-bridge/internal/models"
)

// Replayer plays an NDJSON recording back with its recorded pacing
type Replayer struct {
	filename    string
	speed       float64
	loop        bool
	sampleCount int
	firstSample *models.Sample
	loaded      bool
}

// NewReplayer creates a new replayer. speed scales playback; values <= 0
// mean real time.
func NewReplayer(filename string, speed float64, loop bool) *Replayer {
	if speed <= 0 {
		speed = 1.0
	}
	return &Replayer{
		filename: filename,
		speed:    speed,
		loop:     loop,
	}
}

// loadMetadata reads the file once to cache count and first sample
func (r *Replayer) loadMetadata() error {
	if r.loaded {
		return nil
	}

	file, err := os.Open(r.filename)
	if err != nil {
		return fmt.Errorf("failed to open recording file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	r.sampleCount = 0

	for scanner.Scan() {
		r.sampleCount++
		if r.sampleCount == 1 {
			var sample models.Sample
			if err := json.Unmarshal(scanner.Bytes(), &sample); err != nil {
				return fmt.Errorf("failed to parse first sample: %w", err)
			}
			r.firstSample = &sample
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	r.loaded = true
	return nil
}

// Replay sends each recorded state to output, spaced by the recorded
// elapsed_s deltas divided by speed
func (r *Replayer) Replay(ctx context.Context, output chan<- models.State) error {
	for {
		if err := r.replayOnce(ctx, output); err != nil {
			return err
		}

		if !r.loop {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (r *Replayer) replayOnce(ctx context.Context, output chan<- models.State) error {
	file, err := os.Open(r.filename)
	if err != nil {
		return fmt.Errorf("failed to open recording file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var lastElapsed float64
	lineNum := 0

	for scanner.Scan() {
		lineNum++

		var sample models.Sample
		if err := json.Unmarshal(scanner.Bytes(), &sample); err != nil {
			return fmt.Errorf("failed to parse sample at line %d: %w", lineNum, err)
		}

		if lineNum > 1 {
			delay := time.Duration((sample.Elapsed - lastElapsed) / r.speed * float64(time.Second))
			if delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}
		}
		lastElapsed = sample.Elapsed

		select {
		case <-ctx.Done():
			return ctx.Err()
		case output <- sample.State:
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	return nil
}

// CountSamples returns the number of samples in the recording
func (r *Replayer) CountSamples() (int, error) {
	if err := r.loadMetadata(); err != nil {
		return 0, err
	}
	return r.sampleCount, nil
}

// FirstSample returns the first sample in the recording
func (r *Replayer) FirstSample() (*models.Sample, error) {
	if err := r.loadMetadata(); err != nil {
		return nil, err
	}
	if r.firstSample == nil {
		return nil, fmt.Errorf("recording file is empty")
	}
	return r.firstSample, nil
}
