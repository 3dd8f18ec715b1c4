package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/saletrack/conversion-relay/internal/catalog"
	"github.com/saletrack/conversion-relay/internal/config"
	"github.com/saletrack/conversion-relay/internal/forwarder"
	"github.com/saletrack/conversion-relay/internal/httpserver"
	"github.com/saletrack/conversion-relay/internal/identity"
	"github.com/saletrack/conversion-relay/internal/ledger"
	"github.com/saletrack/conversion-relay/internal/logging"
	"github.com/saletrack/conversion-relay/internal/payload"
	"github.com/saletrack/conversion-relay/internal/relay"
)

// main boots the service: config → logger → ledger → pipeline → HTTP server.
func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	// Connect durable storage (Postgres) and self-bootstrap the schema.
	led, err := ledger.NewPostgres(cfg.Database.URL)
	if err != nil {
		log.Error("ledger connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer led.Close()

	if err := led.EnsureSchema(); err != nil {
		log.Error("schema bootstrap failed", slog.Any("error", err))
		os.Exit(1)
	}

	ids, err := identity.NewBuilder(identity.Strategy(cfg.Pipeline.IdentityStrategy))
	if err != nil {
		log.Error("identity strategy", slog.Any("error", err))
		os.Exit(1)
	}

	// The target API is a composer/client pair chosen by configuration.
	var composer forwarder.Composer
	var client *relay.Client
	switch cfg.Relay.Target {
	case config.TargetOrder:
		composer = payload.NewOrderComposer(cfg.Relay.CurrencyCode, cfg.Relay.Platform)
		client = relay.New(relay.Options{
			Endpoint:         cfg.Relay.OrderEndpoint,
			CredentialHeader: "x-api-token",
			Credential:       cfg.Relay.APICredential,
			Timeout:          cfg.Relay.Timeout,
		})
	default:
		endpoint, err := relay.ConversionEndpoint(cfg.Relay.ConversionEndpoint, cfg.Relay.APICredential)
		if err != nil {
			log.Error("relay endpoint", slog.Any("error", err))
			os.Exit(1)
		}
		composer = payload.NewConversionComposer(cfg.Relay.CurrencyCode)
		client = relay.New(relay.Options{
			Endpoint: endpoint,
			Timeout:  cfg.Relay.Timeout,
		})
	}

	fw := forwarder.New(
		ids,
		identity.NewGenerator(),
		catalog.Default(),
		composer,
		client,
		led,
		forwarder.Policy(cfg.Pipeline.LedgerFailurePolicy),
		log,
	)

	router := httpserver.NewRouter(led, fw)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Info("server started",
		slog.Int("port", cfg.Server.Port),
		slog.String("target", cfg.Relay.Target),
		slog.String("identity_strategy", cfg.Pipeline.IdentityStrategy),
	)
	if err := srv.ListenAndServe(); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
