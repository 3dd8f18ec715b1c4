// Package forwarder orchestrates the idempotent forwarding pipeline:
// validate → identify → ledger pre-check → compose → relay → record.
// Each inbound sale is an independent unit of work; the ledger's unique
// constraint is the only cross-request coordination.
package forwarder

import (
	"context"
	"log/slog"
	"time"

	"github.com/saletrack/conversion-relay/internal/catalog"
	"github.com/saletrack/conversion-relay/internal/hashing"
	"github.com/saletrack/conversion-relay/internal/identity"
	"github.com/saletrack/conversion-relay/internal/ledger"
	"github.com/saletrack/conversion-relay/internal/metrics"
	"github.com/saletrack/conversion-relay/internal/models"
	"github.com/saletrack/conversion-relay/internal/relay"
)

// Kind is the machine-distinguishable terminal outcome of one submission.
type Kind int

const (
	KindForwarded Kind = iota
	KindValidationError
	KindDuplicate
	KindLedgerUnavailable
	KindRelayRejected
	KindRelayTransportFailure
)

// String returns the outcome label used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindForwarded:
		return "forwarded"
	case KindValidationError:
		return "validation_error"
	case KindDuplicate:
		return "duplicate"
	case KindLedgerUnavailable:
		return "ledger_unavailable"
	case KindRelayRejected:
		return "relay_rejected"
	default:
		return "relay_transport_failure"
	}
}

// Outcome is what the caller gets back. Exactly one Outcome is produced per
// inbound sale; failures are never swallowed into a success.
type Outcome struct {
	Kind     Kind
	Message  string
	Detail   string
	Response []byte // remote acknowledgment when Kind is KindForwarded
}

// Policy decides what happens when the ledger is unavailable.
type Policy string

const (
	// PolicyFatal refuses to relay when the ledger cannot guarantee the
	// record afterward, and reports a post-relay write failure as an error.
	PolicyFatal Policy = "fatal"
	// PolicyBestEffort relays anyway and tolerates ledger write failures,
	// logging them. Duplicates may then be relayed twice; the remote API's
	// own dedup window is the only remaining guard.
	PolicyBestEffort Policy = "bestEffort"
)

// Ledger is the durable dedup store the pipeline records into.
type Ledger interface {
	Exists(ctx context.Context, key identity.Key) (bool, error)
	RecordIfAbsent(ctx context.Context, rec ledger.Record) (bool, error)
}

// Composer builds the outbound document for the configured target API.
type Composer interface {
	Compose(ev models.SaleEvent, correlationID string, product catalog.Product) any
}

// Relay sends a composed document and classifies the result.
type Relay interface {
	Send(ctx context.Context, body any) relay.Result
}

// Forwarder runs the pipeline. Build one per process and share it across
// requests; it holds no per-call state.
type Forwarder struct {
	ids      *identity.Builder
	gen      *identity.Generator
	catalog  *catalog.Catalog
	composer Composer
	relay    Relay
	ledger   Ledger
	policy   Policy
	log      *slog.Logger
}

// New wires the pipeline together.
func New(ids *identity.Builder, gen *identity.Generator, cat *catalog.Catalog,
	composer Composer, rc Relay, led Ledger, policy Policy, log *slog.Logger) *Forwarder {
	return &Forwarder{
		ids:      ids,
		gen:      gen,
		catalog:  cat,
		composer: composer,
		relay:    rc,
		ledger:   led,
		policy:   policy,
		log:      log,
	}
}

// Forward runs one sale through the pipeline and returns its terminal outcome.
func (f *Forwarder) Forward(ctx context.Context, ev models.SaleEvent) Outcome {
	out := f.forward(ctx, ev)
	metrics.SalesTotal.WithLabelValues(out.Kind.String()).Inc()
	return out
}

func (f *Forwarder) forward(ctx context.Context, ev models.SaleEvent) Outcome {
	if ev.AmountCents <= 0 {
		return Outcome{Kind: KindValidationError, Message: "amount must be a positive value"}
	}
	if ev.Email == "" {
		return Outcome{Kind: KindValidationError, Message: "email is required"}
	}

	key, err := f.ids.Identify(ev)
	if err != nil {
		return Outcome{Kind: KindValidationError, Message: err.Error()}
	}

	log := f.log.With(slog.String("event_key", string(key)))

	// Pre-check to avoid a wasted relay call. Uniqueness is still enforced
	// by RecordIfAbsent; two racers can both pass this check.
	exists, err := f.ledger.Exists(ctx, key)
	if err != nil {
		metrics.LedgerErrors.Inc()
		if f.policy == PolicyFatal {
			log.Error("ledger unavailable before relay", slog.Any("error", err))
			return Outcome{
				Kind:    KindLedgerUnavailable,
				Message: "sale not forwarded: ledger unavailable",
				Detail:  err.Error(),
			}
		}
		log.Warn("ledger pre-check failed, relaying anyway", slog.Any("error", err))
	} else if exists {
		log.Info("duplicate sale, relay skipped")
		return Outcome{Kind: KindDuplicate, Message: "sale already recorded"}
	}

	correlationID := f.gen.NewCorrelationID()
	product := f.catalog.Classify(ev.AmountCents)
	body := f.composer.Compose(ev, correlationID, product)

	start := time.Now()
	res := f.relay.Send(ctx, body)
	metrics.RelayDuration.Observe(time.Since(start).Seconds())

	switch res.Status {
	case relay.Rejected:
		log.Error("relay rejected by remote", slog.String("detail", res.Detail))
		return Outcome{
			Kind:    KindRelayRejected,
			Message: "remote API rejected the event",
			Detail:  res.Detail,
		}
	case relay.TransportFailure:
		log.Error("relay transport failure", slog.String("detail", res.Detail))
		return Outcome{
			Kind:    KindRelayTransportFailure,
			Message: "could not reach the remote API",
			Detail:  res.Detail,
		}
	}

	rec := ledger.Record{
		Key:           key,
		AmountCents:   ev.AmountCents,
		CustomerName:  ev.Name,
		EmailDigest:   hashing.Digest(ev.Email),
		UTM:           ev.UTM,
		FBP:           ev.FBP,
		FBC:           ev.FBC,
		CorrelationID: correlationID,
	}

	inserted, err := f.ledger.RecordIfAbsent(ctx, rec)
	if err != nil {
		metrics.LedgerErrors.Inc()
		if f.policy == PolicyFatal {
			log.Error("ledger write failed after accepted relay", slog.Any("error", err))
			return Outcome{
				Kind:    KindLedgerUnavailable,
				Message: "event relayed but not recorded; ledger unavailable",
				Detail:  err.Error(),
			}
		}
		log.Warn("ledger write failed after accepted relay, tolerated", slog.Any("error", err))
	} else if !inserted {
		// Lost the race to a concurrent identical submission. This call's
		// own relay succeeded, so the caller still gets a success.
		log.Info("sale recorded by concurrent submission", slog.String("correlation_id", correlationID))
	}

	log.Info("sale forwarded",
		slog.String("correlation_id", correlationID),
		slog.String("product_id", product.ProductID),
	)
	return Outcome{
		Kind:     KindForwarded,
		Message:  "sale forwarded",
		Response: res.Response,
	}
}
