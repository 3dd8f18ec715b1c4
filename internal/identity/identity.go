// Package identity derives the deduplication key that makes a sale "the same
// sale" across retries and duplicate front-end calls, and generates the
// per-attempt correlation id sent to the downstream API for its own
// deduplication window. The two identifiers serve different masters: the key
// is stable and enforced unique by the ledger, the correlation id is
// regenerated per attempt and never used for local uniqueness.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/saletrack/conversion-relay/internal/models"
)

// Strategy selects how a sale event is reduced to a Key. A deployment must
// pick one strategy and keep it; mixing strategies within one ledger breaks
// the uniqueness invariant.
type Strategy string

const (
	// StrategyComposite derives the key from the amount plus the full UTM
	// attribution set, with explicit markers for absent fields.
	StrategyComposite Strategy = "composite"

	// StrategyExternalReference uses a caller-supplied order reference,
	// for integrations that are idempotent by order id.
	StrategyExternalReference Strategy = "externalReference"
)

// Key is the derived deduplication identity of a sale.
type Key string

// ErrMissingOrderRef is returned when the external-reference strategy is
// configured but the caller did not supply an order reference.
var ErrMissingOrderRef = errors.New("order_ref required for externalReference identity strategy")

// nullMarker stands in for absent attribution fields so that
// {source:"ig"} and {medium:"ig"} produce different keys.
const nullMarker = "-"

// fieldEscaper keeps the composite encoding injective: a field value can
// never smuggle a bare separator into the joined key.
var fieldEscaper = strings.NewReplacer(`\`, `\\`, "|", `\|`)

// Builder derives deduplication keys under a fixed strategy.
type Builder struct {
	strategy Strategy
}

// NewBuilder validates the strategy name and returns a Builder.
func NewBuilder(s Strategy) (*Builder, error) {
	switch s {
	case StrategyComposite, StrategyExternalReference:
		return &Builder{strategy: s}, nil
	default:
		return nil, fmt.Errorf("unknown identity strategy %q", s)
	}
}

// Identify derives the deduplication key for a sale event. Amounts are
// already normalized to minor units, so "12,90" and "12.90" contribute
// identically.
func (b *Builder) Identify(ev models.SaleEvent) (Key, error) {
	if b.strategy == StrategyExternalReference {
		ref := strings.TrimSpace(ev.OrderRef)
		if ref == "" {
			return "", ErrMissingOrderRef
		}
		return Key(ref), nil
	}

	parts := []string{
		fmt.Sprintf("%d", ev.AmountCents),
		field(ev.UTM.Source),
		field(ev.UTM.Medium),
		field(ev.UTM.Campaign),
		field(ev.UTM.Content),
		field(ev.UTM.Term),
	}
	return Key(strings.Join(parts, "|")), nil
}

func field(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nullMarker
	}
	v = fieldEscaper.Replace(v)
	// A literal "-" value must stay distinguishable from an absent field.
	if v == nullMarker {
		return `\-`
	}
	return v
}

// Generator produces correlation ids in the format the conversion API
// expects: purchase_<unix seconds>_<8 random bytes hex>. Clock and entropy
// are injectable so tests can assert exact identifiers.
type Generator struct {
	now     func() time.Time
	entropy io.Reader
}

// NewGenerator returns a Generator backed by the wall clock and crypto/rand.
func NewGenerator() *Generator {
	return NewGeneratorWith(time.Now, rand.Reader)
}

// NewGeneratorWith builds a Generator with explicit clock and entropy.
func NewGeneratorWith(now func() time.Time, entropy io.Reader) *Generator {
	return &Generator{now: now, entropy: entropy}
}

// NewCorrelationID returns a fresh correlation id. Collisions are negligible
// and tolerated; the value is only the remote API's dedup token.
func (g *Generator) NewCorrelationID() string {
	buf := make([]byte, 8)
	// crypto/rand never fails on supported platforms; a short read would
	// only shorten the suffix, which remains acceptable for a dedup token.
	n, _ := io.ReadFull(g.entropy, buf)
	return fmt.Sprintf("purchase_%d_%s", g.now().Unix(), hex.EncodeToString(buf[:n]))
}
