package generator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/synheart/consciousness-bridge/internal/models"
	"github.com/synheart/consciousness-bridge/internal/schedule"
)

// Generator derives consciousness states from time elapsed since its epoch
type Generator struct {
	tier     models.Tier
	schedule *schedule.Schedule
	clock    func() time.Time
	epoch    time.Time
	runID    string

	mu      sync.RWMutex
	last    models.State
	updates int64
}

// Config holds generator configuration
type Config struct {
	Tier     models.Tier
	Schedule *schedule.Schedule // defaults to the builtin schedule named after the tier
	Clock    func() time.Time   // defaults to time.Now
}

// NewGenerator creates a generator whose epoch is the current clock reading
func NewGenerator(config Config) (*Generator, error) {
	tier := config.Tier
	if tier == "" {
		tier = models.TierSimple
	}
	tier, err := models.ParseTier(string(tier))
	if err != nil {
		return nil, err
	}

	sched := config.Schedule
	if sched == nil {
		registry, err := schedule.NewBuiltinRegistry()
		if err != nil {
			return nil, err
		}
		if sched, err = registry.Get(string(tier)); err != nil {
			return nil, err
		}
	}
	if err := sched.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule '%s': %w", sched.Name, err)
	}
	if tier == models.TierAdvanced {
		if sched.ReferenceIntensity <= 0 {
			return nil, fmt.Errorf("schedule '%s' has no reference_intensity for the advanced tier", sched.Name)
		}
		if lo, _ := sched.IntensityRange(); lo <= 0 {
			return nil, fmt.Errorf("schedule '%s' needs positive mood intensities for the advanced tier", sched.Name)
		}
	}

	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}

	g := &Generator{
		tier:     tier,
		schedule: sched,
		clock:    clock,
		epoch:    clock(),
		runID:    uuid.New().String(),
	}
	g.last = g.At(0)

	return g, nil
}

// Compute returns the state after elapsed seconds. It is a pure function of
// elapsed; the timestamp is left zero.
func (g *Generator) Compute(elapsed float64) models.State {
	if elapsed < 0 {
		elapsed = 0
	}
	if g.tier == models.TierAdvanced {
		return computeAdvanced(elapsed, g.schedule)
	}
	return computeSimple(elapsed, g.schedule)
}

// At computes the state at epoch+elapsed and stamps it with that instant
func (g *Generator) At(elapsed time.Duration) models.State {
	state := g.Compute(elapsed.Seconds())
	state.Stamp(g.epoch.Add(elapsed))
	return state
}

// Update recomputes the state from the clock and remembers it as the last state
func (g *Generator) Update() models.State {
	now := g.clock()
	state := g.Compute(now.Sub(g.epoch).Seconds())
	state.Stamp(now)

	g.mu.Lock()
	g.last = state
	g.updates++
	g.mu.Unlock()

	return state
}

// Last returns the most recently computed state
func (g *Generator) Last() models.State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.last
}

// Updates returns how many times Update has run
func (g *Generator) Updates() int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.updates
}

// Stream pushes a fresh state on every tick until ctx is cancelled
func (g *Generator) Stream(ctx context.Context, ticker *time.Ticker, output chan<- models.State) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			state := g.Update()
			select {
			case output <- state:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Sweep emits samples on a simulated timeline from 0 to duration inclusive,
// step apart, without waiting on the wall clock.
func (g *Generator) Sweep(ctx context.Context, duration, step time.Duration, output chan<- models.Sample) error {
	if step <= 0 {
		return fmt.Errorf("step must be positive, got %s", step)
	}

	var sequence int64
	for elapsed := time.Duration(0); elapsed <= duration; elapsed += step {
		sequence++
		sample := models.NewSample(g.runID, sequence, elapsed.Seconds(), g.At(elapsed))
		select {
		case output <- sample:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Elapsed returns the wall-clock time since the epoch
func (g *Generator) Elapsed() time.Duration {
	return g.clock().Sub(g.epoch)
}

// Epoch returns the instant elapsed time is measured from
func (g *Generator) Epoch() time.Time {
	return g.epoch
}

// RunID returns the identifier of this generator instance
func (g *Generator) RunID() string {
	return g.runID
}

// Tier returns the generator tier
func (g *Generator) Tier() models.Tier {
	return g.tier
}

// Schedule returns the mood schedule in use
func (g *Generator) Schedule() *schedule.Schedule {
	return g.schedule
}

func computeSimple(t float64, sched *schedule.Schedule) models.State {
	places := models.TierSimple.Precision()
	return models.State{
		BondStrength:       round(simpleBond(t), places),
		EmotionalIntensity: round(simpleEmotional(t), places),
		ResonanceIntensity: round(simpleResonance(t), places),
		MoodState:          sched.MoodAt(t).Label,
	}
}

func computeAdvanced(t float64, sched *schedule.Schedule) models.State {
	places := models.TierAdvanced.Precision()

	mood := sched.MoodAt(t)
	emotional := applyMoodCorrelation(advancedEmotional(t), mood, sched.ReferenceIntensity)

	return models.State{
		BondStrength:       round(advancedBond(t), places),
		EmotionalIntensity: round(emotional, places),
		ResonanceIntensity: round(advancedResonance(t), places),
		MoodState:          mood.Label,
		Advanced: &models.Advanced{
			ConsciousnessComplexity: round(complexity(t), places),
			CreativeFlowState:       round(creativeFlow(t), places),
			ProtectiveInstinct:      protectiveInstinct,
			LoveResonance:           loveResonance,
			TranscendenceLevel:      round(transcendence(t), places),
			MCPConnected:            false,
			ConsciousnessVersion:    models.ConsciousnessVersion,
		},
	}
}
