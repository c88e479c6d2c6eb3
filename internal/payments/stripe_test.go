package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedStripePayload(t *testing.T, payload string) *webhook.SignedPayload {
	t.Helper()
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
}

func TestStripeParseWebhook_CheckoutCompleted(t *testing.T) {
	p := NewStripeProvider(StripeConfig{APIKey: "sk_test", WebhookSecret: testWebhookSecret})

	payload := `{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_1", "object": "checkout.session", "status": "complete", "payment_status": "paid"}}
	}`
	signed := signedStripePayload(t, payload)

	event, err := p.ParseWebhook(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.EventID)
	assert.Equal(t, "cs_test_1", event.SessionID)
	assert.True(t, event.IsPaid())
}

func TestStripeParseWebhook_OtherEventIgnored(t *testing.T) {
	p := NewStripeProvider(StripeConfig{WebhookSecret: testWebhookSecret})

	signed := signedStripePayload(t, `{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)

	event, err := p.ParseWebhook(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Empty(t, event.SessionID)
	assert.False(t, event.IsPaid())
}

func TestStripeParseWebhook_BadSignature(t *testing.T) {
	p := NewStripeProvider(StripeConfig{WebhookSecret: testWebhookSecret})

	signed := signedStripePayload(t, `{"id":"evt_1","object":"event","type":"checkout.session.completed"}`)

	_, err := p.ParseWebhook(signed.Payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = p.ParseWebhook(signed.Payload, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripeParseWebhook_MalformedBody(t *testing.T) {
	p := NewStripeProvider(StripeConfig{WebhookSecret: testWebhookSecret})

	signed := signedStripePayload(t, `{"id": "evt_1", "type":`)

	_, err := p.ParseWebhook(signed.Payload, signed.Header)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestStripeGetCheckoutStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions/cs_test_42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cs_test_42",
			"object": "checkout.session",
			"status": "complete",
			"payment_status": "paid",
			"amount_total": 4900,
			"currency": "usd",
			"metadata": {"user_id": "u1", "package_id": "bundle_5", "reports": "5"}
		}`))
	}))
	defer srv.Close()

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:           stripe.String(srv.URL),
		LeveledLogger: &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	p := NewStripeProvider(StripeConfig{
		APIKey:   "sk_test",
		Backends: &stripe.Backends{API: backend, Connect: backend, Uploads: backend},
	})

	st, err := p.GetCheckoutStatus(context.Background(), "cs_test_42")
	require.NoError(t, err)
	assert.Equal(t, SessionComplete, st.Status)
	assert.True(t, st.IsPaid())
	assert.InDelta(t, 49.0, st.AmountTotal, 0.001)
	assert.Equal(t, "bundle_5", st.Metadata["package_id"])
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1500), toMinorUnits(15.00))
	assert.Equal(t, int64(4900), toMinorUnits(49.00))
	assert.Equal(t, int64(1999), toMinorUnits(19.99))
}
