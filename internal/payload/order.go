package payload

import (
	"time"

	"github.com/saletrack/conversion-relay/internal/catalog"
	"github.com/saletrack/conversion-relay/internal/hashing"
	"github.com/saletrack/conversion-relay/internal/models"
)

// OrderCustomer identifies the buyer to the order-registration API.
// Phone and document are unknown to this pipeline; the API requires the
// fields to be present, so they are sent as explicit nulls.
type OrderCustomer struct {
	Name        string  `json:"name,omitempty"`
	EmailDigest string  `json:"email,omitempty"`
	Phone       *string `json:"phone"`
	Document    *string `json:"document"`
	IP          string  `json:"ip,omitempty"`
	UserAgent   string  `json:"user_agent,omitempty"`
}

// OrderProduct describes the purchased product/plan.
type OrderProduct struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PlanID     string `json:"plan_id,omitempty"`
	PlanName   string `json:"plan_name,omitempty"`
	PriceCents int64  `json:"price_in_cents"`
	Quantity   int    `json:"quantity"`
}

// OrderCommission is the value block of the order document.
type OrderCommission struct {
	TotalPriceCents int64  `json:"total_price_in_cents"`
	Currency        string `json:"currency"`
}

// OrderTracking carries the attribution parameters.
type OrderTracking struct {
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
}

// OrderPayload is the normalized order/customer/product/commission document
// for the order-registration API.
type OrderPayload struct {
	OrderID    string          `json:"order_id"`
	Platform   string          `json:"platform"`
	Status     string          `json:"status"`
	CreatedAt  string          `json:"created_at"`
	Customer   OrderCustomer   `json:"customer"`
	Products   []OrderProduct  `json:"products"`
	Commission OrderCommission `json:"commission"`
	Tracking   OrderTracking   `json:"tracking_parameters"`
}

// OrderComposer maps sale events to order-registration documents.
type OrderComposer struct {
	currency string
	platform string
	now      func() time.Time
}

// NewOrderComposer returns a composer for the given currency and reporting
// platform label.
func NewOrderComposer(currency, platform string) *OrderComposer {
	return &OrderComposer{currency: currency, platform: platform, now: time.Now}
}

// Compose builds the order document. The correlation id doubles as the order
// id when the caller supplied no external reference.
func (c *OrderComposer) Compose(ev models.SaleEvent, correlationID string, product catalog.Product) any {
	orderID := ev.OrderRef
	if orderID == "" {
		orderID = correlationID
	}

	return OrderPayload{
		OrderID:   orderID,
		Platform:  c.platform,
		Status:    "paid",
		CreatedAt: c.now().UTC().Format(time.RFC3339),
		Customer: OrderCustomer{
			Name:        ev.Name,
			EmailDigest: hashing.Digest(ev.Email),
			IP:          ev.ClientIP,
			UserAgent:   ev.UserAgent,
		},
		Products: []OrderProduct{{
			ID:         product.ProductID,
			Name:       product.ProductName,
			PlanID:     product.PlanID,
			PlanName:   product.PlanName,
			PriceCents: ev.AmountCents,
			Quantity:   1,
		}},
		Commission: OrderCommission{
			TotalPriceCents: ev.AmountCents,
			Currency:        c.currency,
		},
		Tracking: OrderTracking{
			UTMSource:   ev.UTM.Source,
			UTMMedium:   ev.UTM.Medium,
			UTMCampaign: ev.UTM.Campaign,
			UTMContent:  ev.UTM.Content,
			UTMTerm:     ev.UTM.Term,
		},
	}
}
