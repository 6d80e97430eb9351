package models

// Sample wraps a state produced on a simulated timeline for recording
type Sample struct {
	RunID    string  `json:"run_id"`
	Sequence int64   `json:"sequence"`
	Elapsed  float64 `json:"elapsed_s"`
	State    State   `json:"state"`
}

// NewSample creates a sample envelope
func NewSample(runID string, sequence int64, elapsed float64, state State) Sample {
	return Sample{
		RunID:    runID,
		Sequence: sequence,
		Elapsed:  elapsed,
		State:    state,
	}
}
