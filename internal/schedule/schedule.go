package schedule

import (
	"math"

	"github.com/synheart/consciousness-bridge/internal/models"
)

// Schedule is a cyclic list of moods walked by accumulated duration
type Schedule struct {
	Name               string      `yaml:"name"`
	Description        string      `yaml:"description"`
	Tier               models.Tier `yaml:"tier"`
	Rate               float64     `yaml:"rate"`                          // schedule units per elapsed second
	ReferenceIntensity float64     `yaml:"reference_intensity,omitempty"` // intensity that leaves emotion unscaled
	Moods              []Mood      `yaml:"moods"`
}

// Mood is one entry of a schedule
type Mood struct {
	Label     string  `yaml:"label"`
	Intensity float64 `yaml:"intensity"`
	Duration  float64 `yaml:"duration"`
}

// Validate checks the schedule is usable by the generator
func (s *Schedule) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	tier := s.Tier
	if tier != "" {
		parsed, err := models.ParseTier(string(tier))
		if err != nil {
			return &ValidationError{Field: "tier", Message: "must be simple or advanced"}
		}
		tier = parsed
	}
	if !finite(s.Rate) || s.Rate <= 0 {
		return &ValidationError{Field: "rate", Message: "must be a positive number"}
	}
	if len(s.Moods) == 0 {
		return &ValidationError{Field: "moods", Message: "at least one mood is required"}
	}
	if !finite(s.ReferenceIntensity) || s.ReferenceIntensity < 0 {
		return &ValidationError{Field: "reference_intensity", Message: "must be a finite non-negative number"}
	}
	if tier == models.TierAdvanced && s.ReferenceIntensity == 0 {
		return &ValidationError{Field: "reference_intensity", Message: "must be positive for the advanced tier"}
	}

	seen := make(map[string]bool, len(s.Moods))
	for _, mood := range s.Moods {
		if mood.Label == "" {
			return &ValidationError{Field: "moods.label", Message: "is required"}
		}
		if seen[mood.Label] {
			return &ValidationError{Field: "moods.label", Message: "duplicate label '" + mood.Label + "'"}
		}
		seen[mood.Label] = true
		if !finite(mood.Duration) || mood.Duration <= 0 {
			return &ValidationError{Field: "moods.duration", Message: "must be positive for '" + mood.Label + "'"}
		}
		// the simple tier ignores intensity, so zero is allowed there
		if !finite(mood.Intensity) || mood.Intensity < 0 || (tier == models.TierAdvanced && mood.Intensity == 0) {
			return &ValidationError{Field: "moods.intensity", Message: "out of range for '" + mood.Label + "'"}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IntensityRange returns the smallest and largest mood intensity
func (s *Schedule) IntensityRange() (lo, hi float64) {
	for i, mood := range s.Moods {
		if i == 0 || mood.Intensity < lo {
			lo = mood.Intensity
		}
		if i == 0 || mood.Intensity > hi {
			hi = mood.Intensity
		}
	}
	return lo, hi
}

// TotalDuration returns the length of one full cycle in schedule units
func (s *Schedule) TotalDuration() float64 {
	var total float64
	for _, mood := range s.Moods {
		total += mood.Duration
	}
	return total
}

// CycleSeconds returns how many elapsed seconds one full cycle takes
func (s *Schedule) CycleSeconds() float64 {
	return s.TotalDuration() / s.Rate
}

// MoodAt returns the mood active after elapsed seconds
func (s *Schedule) MoodAt(elapsed float64) Mood {
	if elapsed < 0 {
		elapsed = 0
	}

	position := math.Mod(elapsed*s.Rate, s.TotalDuration())

	var cumulative float64
	for _, mood := range s.Moods {
		cumulative += mood.Duration
		if cumulative > position {
			return mood
		}
	}

	// Float rounding can leave position a hair past the final boundary
	return s.Moods[len(s.Moods)-1]
}

// Labels returns the mood labels in schedule order
func (s *Schedule) Labels() []string {
	labels := make([]string, len(s.Moods))
	for i, mood := range s.Moods {
		labels[i] = mood.Label
	}
	return labels
}

// Contains reports whether label belongs to the schedule
func (s *Schedule) Contains(label string) bool {
	for _, mood := range s.Moods {
		if mood.Label == label {
			return true
		}
	}
	return false
}

// ValidationError represents a schedule validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
