package config

import (
	"log"
	"strings"
)

const (
	// ProdDbId is the identifier for the production database
	ProdDbId = "old-cloud"

	// StripeKeyHeader carries the per-message Stripe API credential.
	// The saga never reads a process-global key: a single consumer can
	// serve multiple tenants, each message naming its own credential.
	StripeKeyHeader = "X-Stripe-Key"

	// AggregateIDMetadata is the Stripe resource metadata key that
	// correlates a gateway resource back to its originating aggregate.
	AggregateIDMetadata = "aggregate_id"
)

// CheckNotProdDB aborts immediately if the configured database URL contains ProdDbId.
// This should be called at the start of any test that interacts with the database.
func CheckNotProdDB() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DatabaseURL is not configured")
	}
	if strings.Contains(cfg.DatabaseURL, ProdDbId) {
		log.Fatalf("Tests aborted: DatabaseURL contains production identifier %s", ProdDbId)
	}
}
