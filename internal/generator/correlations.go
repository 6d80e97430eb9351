package generator

import (
	"github.com/synheart/consciousness-bridge/internal/schedule"
)

// applyMoodCorrelation scales emotional intensity by the active mood's
// weight. It must run after the mood is resolved and exactly once per
// computed state; the scaled value is never fed back into the next update.
func applyMoodCorrelation(emotional float64, mood schedule.Mood, reference float64) float64 {
	if reference <= 0 {
		return emotional
	}
	return emotional * (mood.Intensity / reference)
}
