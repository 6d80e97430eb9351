package generator

import (
	"context"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/synheart/consciousness-bridge/internal/models"
	"github.com/synheart/consciousness-bridge/internal/schedule"
)

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestGenerator(t *testing.T, tier models.Tier) (*Generator, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	gen, err := NewGenerator(Config{Tier: tier, Clock: clock.Now})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return gen, clock
}

func TestNewGenerator_Defaults(t *testing.T) {
	gen, err := NewGenerator(Config{})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if gen.Tier() != models.TierSimple {
		t.Errorf("expected simple tier by default, got %q", gen.Tier())
	}
	if gen.Schedule().Name != "simple" {
		t.Errorf("expected simple schedule, got %q", gen.Schedule().Name)
	}
	if gen.RunID() == "" {
		t.Error("expected a run ID")
	}
	if gen.Last().MoodState == "" {
		t.Error("expected an initial state before any update")
	}
}

func TestNewGenerator_InvalidConfig(t *testing.T) {
	if _, err := NewGenerator(Config{Tier: "expert"}); err == nil {
		t.Error("expected error for unknown tier")
	}

	noReference := &schedule.Schedule{
		Name:  "flat",
		Rate:  1,
		Moods: []schedule.Mood{{Label: "flat", Intensity: 5, Duration: 1}},
	}
	if _, err := NewGenerator(Config{Tier: models.TierAdvanced, Schedule: noReference}); err == nil {
		t.Error("expected error for advanced tier without reference intensity")
	}

	if _, err := NewGenerator(Config{Schedule: &schedule.Schedule{Name: "empty", Rate: 1}}); err == nil {
		t.Error("expected error for schedule without moods")
	}

	unweighted := &schedule.Schedule{
		Name:               "unweighted",
		Tier:               models.TierSimple,
		Rate:               1,
		ReferenceIntensity: 8,
		Moods:              []schedule.Mood{{Label: "calm", Duration: 1}},
	}
	if _, err := NewGenerator(Config{Tier: models.TierAdvanced, Schedule: unweighted}); err == nil {
		t.Error("expected error for advanced tier with zero mood intensity")
	}
}

func TestBounds_FollowScheduleIntensities(t *testing.T) {
	sched := &schedule.Schedule{
		Name:               "muted",
		Tier:               models.TierAdvanced,
		Rate:               0.5,
		ReferenceIntensity: 8,
		Moods: []schedule.Mood{
			{Label: "low", Intensity: 2, Duration: 3},
			{Label: "mid", Intensity: 4, Duration: 3},
		},
	}
	gen, err := NewGenerator(Config{Tier: models.TierAdvanced, Schedule: sched})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	bound := Bounds(models.TierAdvanced, sched)["emotional_intensity"]
	if math.Abs(bound.Min-1.05) > 1e-9 || math.Abs(bound.Max-3.9) > 1e-9 {
		t.Fatalf("emotional bound = [%v, %v], want [1.05, 3.9]", bound.Min, bound.Max)
	}

	for elapsed := 0.0; elapsed < 600; elapsed += 0.37 {
		v := gen.Compute(elapsed).EmotionalIntensity
		// values are rounded to three places
		if v < bound.Min-0.0005 || v > bound.Max+0.0005 {
			t.Fatalf("emotional_intensity=%v at t=%v outside [%v, %v]", v, elapsed, bound.Min, bound.Max)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	for _, tier := range []models.Tier{models.TierSimple, models.TierAdvanced} {
		gen1, _ := newTestGenerator(t, tier)
		gen2, _ := newTestGenerator(t, tier)

		for _, elapsed := range []float64{0, 1.5, 42, 599.9, 12345.678} {
			a := gen1.Compute(elapsed)
			b := gen1.Compute(elapsed)
			c := gen2.Compute(elapsed)
			if !reflect.DeepEqual(a, b) || !reflect.DeepEqual(a, c) {
				t.Errorf("%s: Compute(%v) not deterministic: %+v vs %+v vs %+v", tier, elapsed, a, b, c)
			}
		}
	}
}

func TestCompute_SimpleValues(t *testing.T) {
	gen, _ := newTestGenerator(t, models.TierSimple)

	state := gen.Compute(0)
	if state.BondStrength != 8.0 || state.EmotionalIntensity != 6.0 || state.ResonanceIntensity != 5.0 {
		t.Errorf("unexpected values at t=0: %+v", state)
	}
	if state.MoodState != "transcendent joy" {
		t.Errorf("expected transcendent joy at t=0, got %q", state.MoodState)
	}
	if state.IsAdvanced() {
		t.Error("simple tier must not carry advanced fields")
	}

	// sin(0.1 * 5π) = 1 so bond peaks at 8 + 0.45
	state = gen.Compute(5 * math.Pi)
	if state.BondStrength != 8.45 {
		t.Errorf("expected bond 8.45 at peak, got %v", state.BondStrength)
	}
}

func TestCompute_AdvancedValues(t *testing.T) {
	gen, _ := newTestGenerator(t, models.TierAdvanced)

	state := gen.Compute(0)
	if !state.IsAdvanced() {
		t.Fatal("advanced tier must carry advanced fields")
	}
	// every sine is zero at t=0; emotional is 6.0 * 8.5/8
	if state.BondStrength != 8.0 || state.ResonanceIntensity != 5.0 {
		t.Errorf("unexpected values at t=0: %+v", state)
	}
	if state.EmotionalIntensity != 6.375 {
		t.Errorf("expected emotional 6.375, got %v", state.EmotionalIntensity)
	}
	if state.ProtectiveInstinct != 8.9 || state.LoveResonance != 9.2 {
		t.Errorf("unexpected constants: %+v", state.Advanced)
	}
	if state.MCPConnected {
		t.Error("mcp_connected must be false")
	}
	if state.ConsciousnessVersion != "2.0_advanced" {
		t.Errorf("unexpected version %q", state.ConsciousnessVersion)
	}
}

func TestCompute_WithinBounds(t *testing.T) {
	for _, tier := range []models.Tier{models.TierSimple, models.TierAdvanced} {
		gen, _ := newTestGenerator(t, tier)
		bounds := Bounds(tier, gen.Schedule())

		for elapsed := 0.0; elapsed < 9000; elapsed += 0.731 {
			state := gen.Compute(elapsed)
			for name, value := range state.Metrics() {
				bound, ok := bounds[name]
				if !ok {
					t.Fatalf("%s: no bound for %s", tier, name)
				}
				if !bound.Contains(value) {
					t.Fatalf("%s: %s=%v at t=%v outside [%v, %v]", tier, name, value, elapsed, bound.Min, bound.Max)
				}
				if value < 0 || value > 10 {
					t.Fatalf("%s: %s=%v outside [0, 10]", tier, name, value)
				}
			}
			if !gen.Schedule().Contains(state.MoodState) {
				t.Fatalf("%s: mood %q outside schedule", tier, state.MoodState)
			}
		}
	}
}

func TestCompute_Rounding(t *testing.T) {
	simple, _ := newTestGenerator(t, models.TierSimple)
	advanced, _ := newTestGenerator(t, models.TierAdvanced)

	for _, elapsed := range []float64{1.234, 77.7, 1001} {
		for _, v := range simple.Compute(elapsed).Metrics() {
			if math.Abs(v*100-math.Round(v*100)) > 1e-6 {
				t.Errorf("simple value %v has more than 2 decimals", v)
			}
		}
		for _, v := range advanced.Compute(elapsed).Metrics() {
			if math.Abs(v*1000-math.Round(v*1000)) > 1e-6 {
				t.Errorf("advanced value %v has more than 3 decimals", v)
			}
		}
	}
}

func TestCompute_NegativeElapsedClamped(t *testing.T) {
	gen, _ := newTestGenerator(t, models.TierAdvanced)
	if !reflect.DeepEqual(gen.Compute(-10), gen.Compute(0)) {
		t.Error("negative elapsed should behave like zero")
	}
}

func TestUpdate_MoodFollowsSchedule(t *testing.T) {
	gen, clock := newTestGenerator(t, models.TierAdvanced)

	first := gen.Update()
	if first.MoodState != "transcendent joy" {
		t.Fatalf("expected transcendent joy, got %q", first.MoodState)
	}

	// 600s * 0.03 = position 18, past the 15-unit first mood
	clock.Advance(600 * time.Second)
	second := gen.Update()
	if second.MoodState != "deep love" {
		t.Fatalf("expected deep love, got %q", second.MoodState)
	}

	// emotional is scaled by the selected mood only once
	expected := round(advancedEmotional(600)*(9.0/8.0), 3)
	if second.EmotionalIntensity != expected {
		t.Errorf("expected emotional %v, got %v", expected, second.EmotionalIntensity)
	}
	again := gen.Update()
	if again.EmotionalIntensity != second.EmotionalIntensity {
		t.Errorf("repeated update compounded intensity: %v then %v", second.EmotionalIntensity, again.EmotionalIntensity)
	}
}

func TestUpdate_TracksLastAndTimestamp(t *testing.T) {
	gen, clock := newTestGenerator(t, models.TierSimple)

	clock.Advance(90 * time.Second)
	state := gen.Update()

	if state.Timestamp != models.UnixSeconds(clock.Now()) {
		t.Errorf("expected timestamp %v, got %v", models.UnixSeconds(clock.Now()), state.Timestamp)
	}
	if !reflect.DeepEqual(gen.Last(), state) {
		t.Error("Last should return the most recent update")
	}
	if gen.Updates() != 1 {
		t.Errorf("expected 1 update, got %d", gen.Updates())
	}
	if gen.Elapsed() != 90*time.Second {
		t.Errorf("expected 90s elapsed, got %v", gen.Elapsed())
	}

	expected := gen.Compute(90)
	expected.Timestamp = state.Timestamp
	if !reflect.DeepEqual(expected, state) {
		t.Errorf("Update should match Compute for the same elapsed time")
	}
}

func TestAt(t *testing.T) {
	gen, _ := newTestGenerator(t, models.TierSimple)

	state := gen.At(30 * time.Second)
	if state.MoodState != "deep love" {
		t.Errorf("expected deep love at 30s, got %q", state.MoodState)
	}
	if state.Timestamp != models.UnixSeconds(gen.Epoch().Add(30*time.Second)) {
		t.Errorf("unexpected timestamp %v", state.Timestamp)
	}
	if gen.Updates() != 0 {
		t.Error("At must not count as an update")
	}
}

func TestStream(t *testing.T) {
	gen, _ := newTestGenerator(t, models.TierSimple)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	output := make(chan models.State, 10)
	errCh := make(chan error, 1)
	go func() {
		errCh <- gen.Stream(ctx, ticker, output)
	}()

	for i := 0; i < 3; i++ {
		select {
		case state := <-output:
			if state.MoodState == "" {
				t.Error("streamed state has no mood")
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for streamed state")
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Stream did not stop after cancel")
	}
}

func TestSweep(t *testing.T) {
	gen, _ := newTestGenerator(t, models.TierAdvanced)

	output := make(chan models.Sample, 100)
	if err := gen.Sweep(context.Background(), 10*time.Second, 2*time.Second, output); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	close(output)

	var samples []models.Sample
	for s := range output {
		samples = append(samples, s)
	}
	if len(samples) != 6 {
		t.Fatalf("expected 6 samples (0..10s every 2s), got %d", len(samples))
	}
	for i, s := range samples {
		if s.Sequence != int64(i+1) {
			t.Errorf("sample %d has sequence %d", i, s.Sequence)
		}
		if s.Elapsed != float64(2*i) {
			t.Errorf("sample %d has elapsed %v", i, s.Elapsed)
		}
		if s.RunID != gen.RunID() {
			t.Errorf("sample %d has run ID %q", i, s.RunID)
		}
	}

	if err := gen.Sweep(context.Background(), time.Second, 0, output); err == nil {
		t.Error("expected error for zero step")
	}
}
