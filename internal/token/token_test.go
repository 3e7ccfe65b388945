package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGenerator(ttl time.Duration) *Generator {
	return NewGenerator("s3cret", nil, "shop.orders.confirm", ttl)
}

func TestTokenValidatesImmediatelyAfterCreation(t *testing.T) {
	g := testGenerator(time.Hour)
	o := Order{ID: 42, Email: "buyer@example.com"}

	tok := g.Make(o)
	assert.True(t, g.Check(o, tok))
}

func TestTokenShape(t *testing.T) {
	g := testGenerator(time.Hour)
	tok := g.Make(Order{ID: 1, Email: "a@b.c"})

	ts, hash, ok := strings.Cut(tok, "-")
	require.True(t, ok)
	assert.NotEmpty(t, ts)
	// sha256 hexdigest truncated to every second character
	assert.Len(t, hash, 32)
}

func TestTokenSelfInvalidatesOnConfirmation(t *testing.T) {
	g := testGenerator(time.Hour)
	o := Order{ID: 42, Email: "buyer@example.com"}

	tok := g.Make(o)

	o.Confirmed = true
	assert.False(t, g.Check(o, tok), "token must die the instant the order confirms")
}

func TestTokenBoundToSubjectIdentity(t *testing.T) {
	g := testGenerator(time.Hour)
	tok := g.Make(Order{ID: 42, Email: "buyer@example.com"})

	assert.False(t, g.Check(Order{ID: 43, Email: "buyer@example.com"}, tok))
	assert.False(t, g.Check(Order{ID: 42, Email: "other@example.com"}, tok))
}

func TestTokenExpiresAfterTTL(t *testing.T) {
	g := testGenerator(time.Minute)
	o := Order{ID: 7, Email: "buyer@example.com"}

	issued := time.Now()
	g.now = func() time.Time { return issued }
	tok := g.Make(o)

	g.now = func() time.Time { return issued.Add(59 * time.Second) }
	assert.True(t, g.Check(o, tok))

	g.now = func() time.Time { return issued.Add(61 * time.Second) }
	assert.False(t, g.Check(o, tok), "correct signature must still fail past the TTL")
}

func TestTokenSurvivesSecretRotationViaFallbacks(t *testing.T) {
	old := NewGenerator("old-secret", nil, "shop.orders.confirm", time.Hour)
	o := Order{ID: 42, Email: "buyer@example.com"}
	tok := old.Make(o)

	rotated := NewGenerator("new-secret", []string{"old-secret"}, "shop.orders.confirm", time.Hour)
	assert.True(t, rotated.Check(o, tok))

	dropped := NewGenerator("new-secret", nil, "shop.orders.confirm", time.Hour)
	assert.False(t, dropped.Check(o, tok))
}

func TestTokenKeySaltSeparatesPurposes(t *testing.T) {
	orders := NewGenerator("s3cret", nil, "shop.orders.confirm", time.Hour)
	accounts := NewGenerator("s3cret", nil, "shop.users.activate", time.Hour)

	o := Order{ID: 1, Email: "a@b.c"}
	assert.False(t, accounts.Check(o, orders.Make(o)))
}

func TestMalformedTokensRejected(t *testing.T) {
	g := testGenerator(time.Hour)
	o := Order{ID: 42, Email: "buyer@example.com"}

	for _, tok := range []string{"", "nodash", "!!-hash", "-", g.Make(o) + "x"} {
		assert.False(t, g.Check(o, tok), "token %q", tok)
	}
}

func TestAccountActivationToken(t *testing.T) {
	g := NewGenerator("s3cret", nil, "shop.users.activate", time.Hour)
	a := Account{ID: 9, Email: "new@example.com"}

	tok := g.Make(a)
	assert.True(t, g.Check(a, tok))

	a.Active = true
	assert.False(t, g.Check(a, tok))
}
