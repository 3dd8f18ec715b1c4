package payload

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saletrack/conversion-relay/internal/catalog"
	"github.com/saletrack/conversion-relay/internal/hashing"
	"github.com/saletrack/conversion-relay/internal/models"
)

func saleFixture() models.SaleEvent {
	return models.SaleEvent{
		AmountCents: 2990,
		Name:        "Jo Buyer",
		Email:       "Jo@Example.com",
		UTM:         models.Attribution{Source: "ig", Campaign: "launch"},
		ClientIP:    "203.0.113.9",
		UserAgent:   "Mozilla/5.0",
		FBP:         "fb.1.123.456",
		SourceURL:   "https://shop.example.com/checkout",
	}
}

func TestConversionCompose_HashesEmailAndNeverLeaksRaw(t *testing.T) {
	c := NewConversionComposer("BRL")
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	out := c.Compose(saleFixture(), "purchase_1700000000_abcd", catalog.Default().Classify(2990))

	raw, err := json.Marshal(out)
	require.NoError(t, err)

	body := strings.ToLower(string(raw))
	assert.NotContains(t, body, "jo@example.com")
	assert.Contains(t, string(raw), hashing.Digest("jo@example.com"))
}

func TestConversionCompose_Fields(t *testing.T) {
	c := NewConversionComposer("BRL")
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	p, ok := c.Compose(saleFixture(), "purchase_1700000000_abcd", catalog.Default().Classify(2990)).(ConversionPayload)
	require.True(t, ok)
	require.Len(t, p.Data, 1)

	ev := p.Data[0]
	assert.Equal(t, "Purchase", ev.EventName)
	assert.Equal(t, int64(1700000000), ev.EventTime)
	assert.Equal(t, "website", ev.ActionSource)
	assert.Equal(t, "purchase_1700000000_abcd", ev.EventID)
	assert.InDelta(t, 29.90, ev.CustomData.Value, 1e-9)
	assert.Equal(t, "BRL", ev.CustomData.Currency)
	assert.Equal(t, "prod_pro", ev.CustomData.ProductID)
	assert.Equal(t, "fb.1.123.456", ev.UserData.FBP)
	assert.Equal(t, "203.0.113.9", ev.UserData.ClientIPAddress)
	assert.Equal(t, "https://shop.example.com/checkout", ev.EventSourceURL)
}

func TestConversionCompose_AbsentFieldsOmitted(t *testing.T) {
	c := NewConversionComposer("BRL")

	out := c.Compose(models.SaleEvent{AmountCents: 500}, "purchase_1_aa", catalog.Default().Classify(500))

	raw, err := json.Marshal(out)
	require.NoError(t, err)

	s := string(raw)
	assert.NotContains(t, s, `"em"`)
	assert.NotContains(t, s, `"fbp"`)
	assert.NotContains(t, s, `"fbc"`)
	assert.NotContains(t, s, `"event_source_url"`)
	assert.NotContains(t, s, "null")
}

func TestOrderCompose_Document(t *testing.T) {
	c := NewOrderComposer("BRL", "saletrack")
	c.now = func() time.Time { return time.Unix(1700000000, 0).UTC() }

	ev := saleFixture()
	ev.OrderRef = "ord-42"

	p, ok := c.Compose(ev, "purchase_1700000000_abcd", catalog.Default().Classify(2990)).(OrderPayload)
	require.True(t, ok)

	assert.Equal(t, "ord-42", p.OrderID)
	assert.Equal(t, "paid", p.Status)
	assert.Equal(t, hashing.Digest("jo@example.com"), p.Customer.EmailDigest)
	require.Len(t, p.Products, 1)
	assert.Equal(t, int64(2990), p.Products[0].PriceCents)
	assert.Equal(t, int64(2990), p.Commission.TotalPriceCents)
	assert.Equal(t, "ig", p.Tracking.UTMSource)
}

func TestOrderCompose_FallsBackToCorrelationID(t *testing.T) {
	c := NewOrderComposer("BRL", "saletrack")

	p, ok := c.Compose(saleFixture(), "purchase_9_bb", catalog.Default().Classify(2990)).(OrderPayload)
	require.True(t, ok)

	assert.Equal(t, "purchase_9_bb", p.OrderID)
}

func TestOrderCompose_UnknownContactFieldsAreExplicitNulls(t *testing.T) {
	c := NewOrderComposer("BRL", "saletrack")

	raw, err := json.Marshal(c.Compose(saleFixture(), "purchase_9_bb", catalog.Default().Classify(2990)))
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"phone":null`)
	assert.Contains(t, string(raw), `"document":null`)
}
