package channel

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() Message {
	return Message{
		AlertID: "a-1",
		UserID:  "u1",
		Payload: json.RawMessage(`{"userId":"u1","severity":"HIGH"}`),
	}
}

func TestWebhookSend_SignedRequest(t *testing.T) {
	secret := "whsec_test"
	fixed := time.UnixMilli(1724000000000)

	var gotBody []byte
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWebhook(secret, WithClock(func() time.Time { return fixed }))
	err := s.Send(context.Background(), srv.URL, testMessage())
	require.NoError(t, err)

	assert.JSONEq(t, `{"userId":"u1","severity":"HIGH"}`, string(gotBody))
	assert.Equal(t, "1724000000000", gotHeaders.Get(HeaderTimestamp))
	assert.Equal(t, "v1", gotHeaders.Get(HeaderSignatureVersion))

	// Receiver-side verification: recompute HMAC-SHA256 over "{ts}.{body}".
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("1724000000000."))
	mac.Write(gotBody)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotHeaders.Get(HeaderSignature))
}

func TestWebhookSend_NoSecretSendsUnsigned(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewWebhook("")
	err := s.Send(context.Background(), srv.URL, testMessage())
	require.NoError(t, err)

	assert.NotEmpty(t, gotHeaders.Get(HeaderTimestamp))
	assert.Empty(t, gotHeaders.Get(HeaderSignature))
	assert.Empty(t, gotHeaders.Get(HeaderSignatureVersion))
}

func TestWebhookSend_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewWebhook("whsec_test")
	err := s.Send(context.Background(), srv.URL, testMessage())
	assert.ErrorContains(t, err, "502")
}

func TestWebhookSend_EmptyPayloadSendsEmptyObject(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWebhook("")
	msg := testMessage()
	msg.Payload = nil
	require.NoError(t, s.Send(context.Background(), srv.URL, msg))
	assert.Equal(t, "{}", string(gotBody))
}
