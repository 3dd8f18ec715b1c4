// Package catalog maps canonical price points to the product/plan descriptor
// reported to downstream attribution APIs. Classification is a pure function
// of the sale amount; there is no per-tenant catalog.
package catalog

import "fmt"

// Product identifies what was sold at a given price point.
type Product struct {
	ProductID   string
	ProductName string
	PlanID      string
	PlanName    string
}

// Catalog resolves a sale amount (minor units) to a Product.
type Catalog struct {
	byCents map[int64]Product
}

// New builds a catalog from an explicit price→product table.
func New(entries map[int64]Product) *Catalog {
	m := make(map[int64]Product, len(entries))
	for cents, p := range entries {
		m[cents] = p
	}
	return &Catalog{byCents: m}
}

// Default returns the catalog for the current price points.
func Default() *Catalog {
	return New(map[int64]Product{
		1790: {ProductID: "prod_starter", ProductName: "Starter", PlanID: "plan_starter_monthly", PlanName: "Starter Monthly"},
		2990: {ProductID: "prod_pro", ProductName: "Pro", PlanID: "plan_pro_monthly", PlanName: "Pro Monthly"},
		3380: {ProductID: "prod_pro_plus", ProductName: "Pro Plus", PlanID: "plan_pro_plus_monthly", PlanName: "Pro Plus Monthly"},
	})
}

// Classify returns the product sold at the given price. Unmapped prices get a
// generated placeholder so an unknown price never fails a sale submission.
func (c *Catalog) Classify(amountCents int64) Product {
	if p, ok := c.byCents[amountCents]; ok {
		return p
	}
	id := fmt.Sprintf("unknown-%d", amountCents)
	return Product{
		ProductID:   id,
		ProductName: "Unknown product",
		PlanID:      id,
		PlanName:    "Unknown plan",
	}
}
