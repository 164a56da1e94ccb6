// Package entitlement resolves what a user is permitted to receive. The
// snapshot is read fresh per event, with no cache in this path, so plan and
// preference changes take effect immediately.
package entitlement

import (
	"strings"

	"anomalyze/internal/event"
)

// Plan is a user's ordered subscription tier.
type Plan int

const (
	PlanFree Plan = iota
	PlanBasic
	PlanPro
)

func (p Plan) String() string {
	switch p {
	case PlanPro:
		return "PRO"
	case PlanBasic:
		return "BASIC"
	default:
		return "FREE"
	}
}

// ParsePlan maps a stored plan name to its tier. Unknown values read as FREE
// so a malformed subscription row never grants paid channels.
func ParsePlan(raw string) Plan {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PRO":
		return PlanPro
	case "BASIC":
		return PlanBasic
	default:
		return PlanFree
	}
}

// Settings are the user's stored notification preferences.
type Settings struct {
	EmailEnabled bool
	PhoneEnabled bool
	// MinSeverityForVoice is stored per user but not yet consulted by the
	// permission rules; the voice threshold is hard-coded to CRITICAL.
	// Enforcement is pending a product decision.
	MinSeverityForVoice event.Severity
}

// UserContext is the resolved entitlement snapshot: who the user is, what
// they pay for, and how they want to be reached. Read-only inside the
// pipeline.
type UserContext struct {
	UserID       string
	Email        string
	Phone        string
	Plan         Plan
	FeatureFlags map[string]any
	Settings     Settings
}

// Flag reports whether a feature flag is set truthy. Flags are an opaque
// map so support can enable ad-hoc overrides (e.g. SMS outside the plan
// rule) without a schema change.
func (u UserContext) Flag(name string) bool {
	v, ok := u.FeatureFlags[name]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return false
	}
}
