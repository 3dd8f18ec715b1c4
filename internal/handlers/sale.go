package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/saletrack/conversion-relay/internal/forwarder"
	"github.com/saletrack/conversion-relay/internal/models"
)

// SaleForwarder is the pipeline entry point the handler drives.
type SaleForwarder interface {
	Forward(ctx context.Context, ev models.SaleEvent) forwarder.Outcome
}

// SaleRequest carries the submitSale parameters. GET requests bind from the
// query string, POST requests from a JSON body. The Portuguese aliases
// (valor, nome) are what the original front-end pixel sends.
type SaleRequest struct {
	Amount      string `form:"amount" json:"amount"`
	Valor       string `form:"valor" json:"valor"`
	Name        string `form:"name" json:"name"`
	Nome        string `form:"nome" json:"nome"`
	Email       string `form:"email" json:"email"`
	UTMSource   string `form:"utm_source" json:"utm_source"`
	UTMMedium   string `form:"utm_medium" json:"utm_medium"`
	UTMCampaign string `form:"utm_campaign" json:"utm_campaign"`
	UTMContent  string `form:"utm_content" json:"utm_content"`
	UTMTerm     string `form:"utm_term" json:"utm_term"`
	FBP         string `form:"fbp" json:"fbp"`
	FBC         string `form:"fbc" json:"fbc"`
	OrderRef    string `form:"order_ref" json:"order_ref"`
}

// RegisterSaleRoutes registers the sale submission endpoint.
//
// GET|POST /sale
//   - 200 relay accepted, 400 validation failure, 409 duplicate,
//     500 relay or ledger failure. The codes are a contract with the
//     front-end and must not change.
func RegisterSaleRoutes(r gin.IRoutes, fw SaleForwarder) {
	h := func(c *gin.Context) {
		var req SaleRequest
		var err error
		if c.Request.Method == http.MethodGet {
			err = c.ShouldBindQuery(&req)
		} else {
			err = c.ShouldBindJSON(&req)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, models.SubmitResponse{Success: false, Message: "invalid request payload"})
			return
		}

		amount := firstNonEmpty(req.Amount, req.Valor)
		email := strings.TrimSpace(req.Email)
		if amount == "" || email == "" {
			c.JSON(http.StatusBadRequest, models.SubmitResponse{Success: false, Message: "amount and email are required"})
			return
		}

		cents, err := models.ParseAmount(amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.SubmitResponse{Success: false, Message: "invalid amount"})
			return
		}

		ev := models.SaleEvent{
			AmountCents: cents,
			Name:        firstNonEmpty(req.Name, req.Nome),
			Email:       email,
			UTM: models.Attribution{
				Source:   req.UTMSource,
				Medium:   req.UTMMedium,
				Campaign: req.UTMCampaign,
				Content:  req.UTMContent,
				Term:     req.UTMTerm,
			},
			ClientIP:  clientIP(c),
			UserAgent: c.Request.UserAgent(),
			FBP:       req.FBP,
			FBC:       req.FBC,
			SourceURL: sourceURL(c),
			OrderRef:  req.OrderRef,
		}

		out := fw.Forward(c.Request.Context(), ev)
		c.JSON(statusFor(out.Kind), models.SubmitResponse{
			Success: out.Kind == forwarder.KindForwarded,
			Message: out.Message,
			Detail:  out.Detail,
		})
	}

	r.GET("/sale", h)
	r.POST("/sale", h)
}

// statusFor maps terminal pipeline outcomes onto the front-end contract.
func statusFor(k forwarder.Kind) int {
	switch k {
	case forwarder.KindForwarded:
		return http.StatusOK
	case forwarder.KindValidationError:
		return http.StatusBadRequest
	case forwarder.KindDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	return c.ClientIP()
}

// sourceURL resolves the originating page: explicit referrer first, then the
// request's own URL.
func sourceURL(c *gin.Context) string {
	if ref := c.GetHeader("Referer"); ref != "" {
		return ref
	}
	return c.Request.URL.RequestURI()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
