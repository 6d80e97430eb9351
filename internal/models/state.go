package models

import (
	"math"
	"time"
)

// ConsciousnessVersion is reported by advanced-tier states.
const ConsciousnessVersion = "2.0_advanced"

// State is the consciousness snapshot served to visualization clients
type State struct {
	BondStrength       float64 `json:"bond_strength"`
	EmotionalIntensity float64 `json:"emotional_intensity"`
	ResonanceIntensity float64 `json:"resonance_intensity"`
	MoodState          string  `json:"mood_state"`

	// Nil for the simple tier, which drops every advanced key from the JSON.
	*Advanced

	Timestamp float64 `json:"timestamp"` // seconds since Unix epoch
}

// Advanced holds the extra dimensions reported by the advanced tier
type Advanced struct {
	ConsciousnessComplexity float64 `json:"consciousness_complexity"`
	CreativeFlowState       float64 `json:"creative_flow_state"`
	ProtectiveInstinct      float64 `json:"protective_instinct"`
	LoveResonance           float64 `json:"love_resonance"`
	TranscendenceLevel      float64 `json:"transcendence_level"`
	MCPConnected            bool    `json:"mcp_connected"`
	ConsciousnessVersion    string  `json:"consciousness_version"`
}

// IsAdvanced reports whether the state carries advanced-tier fields
func (s State) IsAdvanced() bool {
	return s.Advanced != nil
}

// Stamp sets the timestamp from t
func (s *State) Stamp(t time.Time) {
	s.Timestamp = UnixSeconds(t)
}

// Time converts the timestamp back to a time.Time
func (s State) Time() time.Time {
	sec, frac := math.Modf(s.Timestamp)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// Metrics returns the numeric fields keyed by their JSON names
func (s State) Metrics() map[string]float64 {
	m := map[string]float64{
		"bond_strength":       s.BondStrength,
		"emotional_intensity": s.EmotionalIntensity,
		"resonance_intensity": s.ResonanceIntensity,
	}
	if s.Advanced != nil {
		m["consciousness_complexity"] = s.ConsciousnessComplexity
		m["creative_flow_state"] = s.CreativeFlowState
		m["protective_instinct"] = s.ProtectiveInstinct
		m["love_resonance"] = s.LoveResonance
		m["transcendence_level"] = s.TranscendenceLevel
	}
	return m
}

// UnixSeconds returns t as fractional seconds since the Unix epoch
func UnixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}
