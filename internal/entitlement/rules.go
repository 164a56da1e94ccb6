package entitlement

import (
	"anomalyze/internal/channel"
	"anomalyze/internal/event"
)

// FlagSMS enables SMS delivery outside the normal plan rule.
const FlagSMS = "sms"

// CanSend decides whether a channel is permitted for this user and severity.
// This is pure domain logic - no I/O, no side effects. hasWebhookTarget is
// whether the inbound event carried an explicit webhook URL; webhook targets
// today come from the event, not from stored user configuration.
func CanSend(uc UserContext, kind channel.Kind, severity event.Severity, hasWebhookTarget bool) bool {
	switch kind {
	case channel.KindEmail:
		return uc.Settings.EmailEnabled
	case channel.KindSMS:
		return uc.Settings.PhoneEnabled && (uc.Plan == PlanPro || uc.Flag(FlagSMS))
	case channel.KindVoice:
		// Hard-coded CRITICAL threshold; Settings.MinSeverityForVoice is
		// intentionally not consulted here (see models.go).
		return uc.Plan == PlanPro && severity == event.SeverityCritical
	case channel.KindWebhook:
		return hasWebhookTarget
	default:
		return false
	}
}
