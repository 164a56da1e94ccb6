package event

import (
	"encoding/json"
	"fmt"
)

// AnomalyEvent is one inbound message from the anomalies topic. It is
// immutable once decoded; Raw carries the original bytes verbatim for audit
// emission and templating.
type AnomalyEvent struct {
	UserID     string
	IncidentID string
	Severity   Severity
	Summary    string

	// Contact overrides carried on the event itself. Used only as a
	// fallback when the entitlement snapshot has no stored contact.
	Email      string
	Phone      string
	WebhookURL string

	Payload map[string]any
	Raw     json.RawMessage
}

// HasIncidentID reports whether the producer supplied an explicit incident
// identifier. When false, dedup falls back to a per-user key and every
// occurrence within the lease TTL is treated as the same incident.
func (e *AnomalyEvent) HasIncidentID() bool {
	return e.IncidentID != ""
}

// envelope mirrors the full event shape emitted by the ML service.
type envelope struct {
	Meta *struct {
		UserID string `json:"user_id"`
	} `json:"meta"`
	Data *struct {
		TxID string `json:"tx_id"`
	} `json:"data"`
	Verdict *struct {
		FinalSeverity string `json:"final_severity"`
		Explanation   string `json:"explanation"`
	} `json:"verdict"`

	// Flat legacy fields. Several producers predate the envelope format,
	// so each identity field is accepted under more than one name.
	UserID     string `json:"userId"`
	UserIDalt  string `json:"user_id"`
	IncidentID string `json:"incidentId"`
	Incident   string `json:"incident_id"`
	TxID       string `json:"tx_id"`
	ID         string `json:"id"`
	Severity   string `json:"severity"`
	Summary    string `json:"summary"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	WebhookURL string `json:"webhookUrl"`
	WebhookAlt string `json:"webhook_url"`
}

// Decode parses an inbound anomaly message, tolerating both the enveloped
// shape ({meta, data, verdict, ...}) and the flat shapes older producers
// still emit. The user id is required; everything else degrades.
func Decode(raw []byte) (*AnomalyEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode anomaly event: %w", err)
	}

	userID := firstNonEmpty(env.UserID, env.UserIDalt)
	if userID == "" && env.Meta != nil {
		userID = env.Meta.UserID
	}
	if userID == "" {
		return nil, fmt.Errorf("decode anomaly event: no user id in any known field")
	}

	incidentID := firstNonEmpty(env.IncidentID, env.Incident, env.TxID)
	if incidentID == "" && env.Data != nil {
		incidentID = env.Data.TxID
	}
	if incidentID == "" {
		incidentID = env.ID
	}

	severity := env.Severity
	summary := env.Summary
	if env.Verdict != nil {
		if severity == "" {
			severity = env.Verdict.FinalSeverity
		}
		if summary == "" {
			summary = env.Verdict.Explanation
		}
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		payload = nil
	}

	return &AnomalyEvent{
		UserID:     userID,
		IncidentID: incidentID,
		Severity:   ParseSeverity(severity),
		Summary:    summary,
		Email:      env.Email,
		Phone:      env.Phone,
		WebhookURL: firstNonEmpty(env.WebhookURL, env.WebhookAlt),
		Payload:    payload,
		Raw:        json.RawMessage(append([]byte(nil), raw...)),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
