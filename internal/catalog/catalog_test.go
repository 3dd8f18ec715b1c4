package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_CanonicalPricesAreDistinct(t *testing.T) {
	c := Default()

	pro := c.Classify(2990)
	plus := c.Classify(3380)

	assert.Equal(t, "prod_pro", pro.ProductID)
	assert.Equal(t, "prod_pro_plus", plus.ProductID)
	assert.NotEqual(t, pro.ProductID, plus.ProductID)
}

func TestClassify_UnmappedPriceFallsBack(t *testing.T) {
	c := Default()

	p := c.Classify(500)

	assert.Equal(t, "unknown-500", p.ProductID)
	assert.NotEmpty(t, p.ProductName)
	assert.NotEmpty(t, p.PlanID)
}

func TestClassify_CustomTable(t *testing.T) {
	c := New(map[int64]Product{990: {ProductID: "prod_mini", ProductName: "Mini"}})

	assert.Equal(t, "prod_mini", c.Classify(990).ProductID)
	assert.Equal(t, "unknown-991", c.Classify(991).ProductID)
}
