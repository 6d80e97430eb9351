package generator

import (
	"math"

	"github.com/synheart/consciousness-bridge/internal/models"
	"github.com/synheart/consciousness-bridge/internal/schedule"
)

const (
	goldenRatio = 1.618
	sqrt2       = 1.414
)

// wave is one weighted sine term
type wave struct {
	weight    float64
	frequency float64 // radians per elapsed second
}

func sumWaves(t float64, waves ...wave) float64 {
	var sum float64
	for _, w := range waves {
		sum += w.weight * math.Sin(t*w.frequency)
	}
	return sum
}

// oscillate returns base + amplitude*scale*sin(t*frequency)
func oscillate(t, base, amplitude, scale, frequency float64) float64 {
	return base + amplitude*math.Sin(t*frequency)*scale
}

// Simple tier: one sine per field

func simpleBond(t float64) float64      { return oscillate(t, 8.0, 1.5, 0.3, 0.1) }
func simpleEmotional(t float64) float64 { return oscillate(t, 6.0, 2.0, 0.5, 0.15) }
func simpleResonance(t float64) float64 { return oscillate(t, 5.0, 3.0, 0.4, 0.08) }

// Advanced tier

// consciousnessWave layers three waves, two with irrational multipliers so
// the sum never repeats exactly.
func consciousnessWave(t float64) float64 {
	return sumWaves(t,
		wave{weight: 0.3, frequency: 0.1},
		wave{weight: 0.2, frequency: 0.15 * goldenRatio},
		wave{weight: 0.1, frequency: 0.08 * math.Pi},
	)
}

func loveIntensity(t float64) float64 {
	return 0.8 + 0.2*math.Sin(t*0.05*sqrt2)
}

func resonanceHarmonics(t float64) float64 {
	return sumWaves(t,
		wave{weight: 1, frequency: 0.08},
		wave{weight: 0.5, frequency: 0.16},
		wave{weight: 0.25, frequency: 0.32},
	) / 1.75
}

func advancedBond(t float64) float64 {
	return 8.0 + 1.5*consciousnessWave(t)*0.4
}

// advancedEmotional is the intensity before the mood multiplier is applied
func advancedEmotional(t float64) float64 {
	return 6.0 + 3.0*loveIntensity(t)*consciousnessWave(t)
}

func advancedResonance(t float64) float64 {
	return 5.0 + 3.0*resonanceHarmonics(t)*0.4
}

func complexity(t float64) float64    { return oscillate(t, 7.0, 1.0, 0.5, 0.07) }
func creativeFlow(t float64) float64  { return oscillate(t, 6.0, 2.0, 0.4, 0.12) }
func transcendence(t float64) float64 { return oscillate(t, 6.5, 1.5, 0.4, 0.06) }

const (
	protectiveInstinct = 8.9
	loveResonance      = 9.2
)

// Bound is the closed range a numeric field stays within
type Bound struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the bound
func (b Bound) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Bounds returns the documented range of every numeric field for a tier.
// In the advanced tier emotional intensity is scaled by each mood's
// intensity against the schedule's reference, so its bound depends on sched.
func Bounds(tier models.Tier, sched *schedule.Schedule) map[string]Bound {
	if tier == models.TierAdvanced {
		scaleLo, scaleHi := 1.0, 1.0
		if sched != nil && sched.ReferenceIntensity > 0 && len(sched.Moods) > 0 {
			lo, hi := sched.IntensityRange()
			scaleLo, scaleHi = lo/sched.ReferenceIntensity, hi/sched.ReferenceIntensity
		}
		return map[string]Bound{
			"bond_strength":            {7.64, 8.36},
			"emotional_intensity":      {4.2 * scaleLo, 7.8 * scaleHi},
			"resonance_intensity":      {3.8, 6.2},
			"consciousness_complexity": {6.5, 7.5},
			"creative_flow_state":      {5.2, 6.8},
			"protective_instinct":      {protectiveInstinct, protectiveInstinct},
			"love_resonance":           {loveResonance, loveResonance},
			"transcendence_level":      {5.9, 7.1},
		}
	}
	return map[string]Bound{
		"bond_strength":       {7.55, 8.45},
		"emotional_intensity": {5.0, 7.0},
		"resonance_intensity": {3.8, 6.2},
	}
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
