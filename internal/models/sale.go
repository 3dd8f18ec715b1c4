package models

// Attribution is the UTM parameter set captured from the originating page.
// Empty strings mean the parameter was not present on the click.
type Attribution struct {
	Source   string
	Medium   string
	Campaign string
	Content  string
	Term     string
}

// SaleEvent is the normalized inbound purchase notification.
// AmountCents is the sale value in currency minor units; amounts arrive as
// locale-tolerant decimal strings and are normalized by ParseAmount before
// this struct is built.
type SaleEvent struct {
	AmountCents int64
	Name        string
	Email       string
	UTM         Attribution
	ClientIP    string
	UserAgent   string
	FBP         string
	FBC         string
	SourceURL   string

	// OrderRef is an externally supplied order id, used for deduplication
	// when the deployment runs the external-reference identity strategy.
	OrderRef string
}

// SubmitResponse is the JSON body returned for every sale submission.
type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
