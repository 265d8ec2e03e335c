// Package permissions decides which features a subscription tier unlocks.
package permissions

import (
	"fmt"
	"strings"
)

// Tier is a subscription level.
type Tier string

const (
	Free    Tier = "free"
	Pro     Tier = "pro"
	ProPlus Tier = "pro_plus"
)

// Unlimited is returned by MaxResumes for tiers without a ceiling.
const Unlimited = -1

// ParseTier accepts the canonical tier names.
func ParseTier(raw string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case Free:
		return Free, nil
	case Pro:
		return Pro, nil
	case ProPlus:
		return ProPlus, nil
	default:
		return "", fmt.Errorf("unknown tier %q", raw)
	}
}

// MaxResumes returns how many resumes a tier may own.
func MaxResumes(tier Tier) int {
	switch tier {
	case ProPlus:
		return Unlimited
	case Pro:
		return 3
	default:
		return 1
	}
}

// CanCreateResume reports whether a caller owning count resumes may create another.
func CanCreateResume(tier Tier, count int) bool {
	max := MaxResumes(tier)
	if max == Unlimited {
		return true
	}
	return count < max
}

// CanUseAITools is true for every paid tier.
func CanUseAITools(tier Tier) bool {
	return tier == Pro || tier == ProPlus
}

// CanUseCustomizations is true only for pro_plus.
func CanUseCustomizations(tier Tier) bool {
	return tier == ProPlus
}
