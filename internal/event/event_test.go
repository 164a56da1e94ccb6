package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_FlatShape(t *testing.T) {
	raw := []byte(`{"userId":"u1","incidentId":"tx1","severity":"CRITICAL","summary":"amount spike"}`)

	ev, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, "u1", ev.UserID)
	assert.Equal(t, "tx1", ev.IncidentID)
	assert.Equal(t, SeverityCritical, ev.Severity)
	assert.Equal(t, "amount spike", ev.Summary)
	assert.True(t, ev.HasIncidentID())
	assert.JSONEq(t, string(raw), string(ev.Raw))
}

func TestDecode_EnvelopeShape(t *testing.T) {
	raw := []byte(`{
		"meta": {"user_id": "u2", "trace_id": "ml-abc"},
		"data": {"tx_id": "tx9", "amount": 512.40},
		"verdict": {"final_severity": "HIGH", "explanation": "velocity high"}
	}`)

	ev, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, "u2", ev.UserID)
	assert.Equal(t, "tx9", ev.IncidentID)
	assert.Equal(t, SeverityHigh, ev.Severity)
	assert.Equal(t, "velocity high", ev.Summary)
}

func TestDecode_LegacyFieldFallbacks(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		incident string
	}{
		{"snake_case user and incident", `{"user_id":"u3","incident_id":"i3"}`, "i3"},
		{"top-level tx_id", `{"userId":"u3","tx_id":"t3"}`, "t3"},
		{"bare id as last resort", `{"userId":"u3","id":"m3"}`, "m3"},
		{"no incident at all", `{"userId":"u3"}`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := Decode([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, "u3", ev.UserID)
			assert.Equal(t, tc.incident, ev.IncidentID)
		})
	}
}

func TestDecode_MissingUserID(t *testing.T) {
	_, err := Decode([]byte(`{"severity":"HIGH","id":"x"}`))
	assert.Error(t, err)
}

func TestDecode_ContactOverrides(t *testing.T) {
	ev, err := Decode([]byte(`{"userId":"u4","email":"a@b.c","phone":"+15550001","webhook_url":"https://hooks.example.com/a"}`))
	require.NoError(t, err)

	assert.Equal(t, "a@b.c", ev.Email)
	assert.Equal(t, "+15550001", ev.Phone)
	assert.Equal(t, "https://hooks.example.com/a", ev.WebhookURL)
}

func TestParseSeverity_Ordering(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityMedium.AtLeast(SeverityHigh))

	assert.Equal(t, SeverityLow, ParseSeverity("bogus"))
	assert.Equal(t, SeverityCritical, ParseSeverity("critical"))
	assert.Equal(t, "MEDIUM", SeverityMedium.String())
}
