package payments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func TestVerifySignatureAcceptsValid(t *testing.T) {
	payload := []byte(`{"type":"checkout.completed"}`)
	now := time.Now()

	header := SignPayload(payload, testSecret, now)
	assert.NoError(t, verifySignatureAt(payload, header, testSecret, now))
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
	payload := []byte(`{"type":"checkout.completed"}`)
	now := time.Now()
	header := SignPayload(payload, testSecret, now)

	err := verifySignatureAt([]byte(`{"type":"checkout.completed","amount":0}`), header, testSecret, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	err = verifySignatureAt(payload, header, "other-secret", now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	payload := []byte(`{}`)
	signed := time.Now()
	header := SignPayload(payload, testSecret, signed)

	err := verifySignatureAt(payload, header, testSecret, signed.Add(signatureTolerance+time.Minute))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifySignatureRejectsMalformedHeader(t *testing.T) {
	for _, header := range []string{"", "v1=abc", "t=123", "t=abc,v1=def", "garbage"} {
		err := verifySignatureAt([]byte(`{}`), header, testSecret, time.Now())
		assert.ErrorIs(t, err, ErrInvalidSignature, "header %q", header)
	}
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type":"checkout.completed","session_id":"cs_123","customer_email":"a@b.c","reference":"SHOP-ABC"}`))
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	assert.Equal(t, "cs_123", ev.SessionID)
	assert.Equal(t, "a@b.c", ev.Email)

	_, err = ParseEvent([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = ParseEvent([]byte(`{"type":"checkout.completed"}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
