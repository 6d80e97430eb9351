package models

import (
	"fmt"
	"strings"
)

// Tier selects how many waves and fields the generator produces
type Tier string

const (
	TierSimple   Tier = "simple"
	TierAdvanced Tier = "advanced"
)

// ParseTier parses a tier name, case-insensitively
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierSimple:
		return TierSimple, nil
	case TierAdvanced:
		return TierAdvanced, nil
	}
	return "", fmt.Errorf("invalid tier %q (expected: simple|advanced)", s)
}

// Precision is the number of decimals numeric fields are rounded to
func (t Tier) Precision() int {
	if t == TierAdvanced {
		return 3
	}
	return 2
}
