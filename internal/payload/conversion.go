// Package payload builds the outbound documents for the downstream APIs.
// Payloads are stateless and rebuilt per relay attempt; they are never
// persisted.
package payload

import (
	"time"

	"github.com/saletrack/conversion-relay/internal/catalog"
	"github.com/saletrack/conversion-relay/internal/hashing"
	"github.com/saletrack/conversion-relay/internal/models"
)

// UserData is the conversion API's user-matching block. The email goes out
// only as a digest; browser tokens, IP and user agent are sent raw as the
// API requires. Absent fields are omitted, not sent as null.
type UserData struct {
	Em              []string `json:"em,omitempty"`
	FBP             string   `json:"fbp,omitempty"`
	FBC             string   `json:"fbc,omitempty"`
	ClientIPAddress string   `json:"client_ip_address,omitempty"`
	ClientUserAgent string   `json:"client_user_agent,omitempty"`
}

// CustomData carries the sale attributes and product classification.
type CustomData struct {
	Value        float64 `json:"value"`
	Currency     string  `json:"currency"`
	UTMSource    string  `json:"utm_source,omitempty"`
	UTMMedium    string  `json:"utm_medium,omitempty"`
	UTMCampaign  string  `json:"utm_campaign,omitempty"`
	UTMContent   string  `json:"utm_content,omitempty"`
	UTMTerm      string  `json:"utm_term,omitempty"`
	ProductID    string  `json:"product_id,omitempty"`
	ProductName  string  `json:"product_name,omitempty"`
	PlanID       string  `json:"plan_id,omitempty"`
	PlanName     string  `json:"plan_name,omitempty"`
	CustomerName string  `json:"customer_name,omitempty"`
}

// ConversionEvent is one event descriptor in the conversion API batch.
type ConversionEvent struct {
	EventName      string     `json:"event_name"`
	EventTime      int64      `json:"event_time"`
	ActionSource   string     `json:"action_source"`
	EventID        string     `json:"event_id"`
	UserData       UserData   `json:"user_data"`
	CustomData     CustomData `json:"custom_data"`
	EventSourceURL string     `json:"event_source_url,omitempty"`
}

// ConversionPayload is the batch wrapper the conversion API expects.
type ConversionPayload struct {
	Data []ConversionEvent `json:"data"`
}

// ConversionComposer maps sale events to conversion API payloads.
type ConversionComposer struct {
	currency string
	now      func() time.Time
}

// NewConversionComposer returns a composer reporting the given currency code.
func NewConversionComposer(currency string) *ConversionComposer {
	return &ConversionComposer{currency: currency, now: time.Now}
}

// Compose builds the per-attempt payload. The correlation id becomes the
// event_id the remote API deduplicates on within its own window.
func (c *ConversionComposer) Compose(ev models.SaleEvent, correlationID string, product catalog.Product) any {
	user := UserData{
		FBP:             ev.FBP,
		FBC:             ev.FBC,
		ClientIPAddress: ev.ClientIP,
		ClientUserAgent: ev.UserAgent,
	}
	if digest := hashing.Digest(ev.Email); digest != "" {
		user.Em = []string{digest}
	}

	event := ConversionEvent{
		EventName:    "Purchase",
		EventTime:    c.now().Unix(),
		ActionSource: "website",
		EventID:      correlationID,
		UserData:     user,
		CustomData: CustomData{
			Value:        float64(ev.AmountCents) / 100,
			Currency:     c.currency,
			UTMSource:    ev.UTM.Source,
			UTMMedium:    ev.UTM.Medium,
			UTMCampaign:  ev.UTM.Campaign,
			UTMContent:   ev.UTM.Content,
			UTMTerm:      ev.UTM.Term,
			ProductID:    product.ProductID,
			ProductName:  product.ProductName,
			PlanID:       product.PlanID,
			PlanName:     product.PlanName,
			CustomerName: ev.Name,
		},
		EventSourceURL: ev.SourceURL,
	}

	return ConversionPayload{Data: []ConversionEvent{event}}
}
