package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeProviderFlow(t *testing.T) {
	f := NewFakeProvider("secret")
	ctx := context.Background()

	s, err := f.CreateCheckoutSession(ctx, CheckoutRequest{Amount: 49, Currency: "usd", Metadata: map[string]string{"reports": "5"}})
	require.NoError(t, err)

	st, err := f.GetCheckoutStatus(ctx, s.SessionID)
	require.NoError(t, err)
	assert.False(t, st.IsPaid())
	assert.Equal(t, "5", st.Metadata["reports"])

	f.MarkPaid(s.SessionID)
	st, err = f.GetCheckoutStatus(ctx, s.SessionID)
	require.NoError(t, err)
	assert.True(t, st.IsPaid())
	assert.Equal(t, int64(2), f.StatusCalls())

	body, sig := f.PaidEvent(s.SessionID)
	event, err := f.ParseWebhook(body, sig)
	require.NoError(t, err)
	assert.Equal(t, s.SessionID, event.SessionID)
	assert.True(t, event.IsPaid())

	_, err = f.ParseWebhook(body, "bad")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = f.ParseWebhook([]byte("{"), f.Sign([]byte("{")))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{Provider: "robokassa"})
	require.NoError(t, err)
	assert.Equal(t, "robokassa", p.Name())

	p, err = NewProvider(Config{})
	require.NoError(t, err)
	assert.Equal(t, "stripe", p.Name())

	_, err = NewProvider(Config{Provider: "paypal"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
