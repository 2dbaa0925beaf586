// Package visadirectsdk is the root package of the payout orchestration
// SDK: VisaDirectClient wires the secure transport, key rotation,
// corridor policy, durable stores, and preflight services into an
// Orchestrator, and hands out PayoutBuilder values to assemble and
// dispatch payouts (§2).
package visadirectsdk

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"go.uber.org/zap"

	"visadirect-sdk-go/config"
	"visadirect-sdk-go/dx"
	"visadirect-sdk-go/internal/compliance"
	"visadirect-sdk-go/internal/events"
	"visadirect-sdk-go/internal/idempotency"
	"visadirect-sdk-go/internal/keyset"
	"visadirect-sdk-go/internal/metrics"
	"visadirect-sdk-go/internal/orchestrator"
	"visadirect-sdk-go/internal/quoting"
	"visadirect-sdk-go/internal/receipt"
	"visadirect-sdk-go/internal/recipient"
	"visadirect-sdk-go/internal/transport"
	"visadirect-sdk-go/pkg/cache"
)

// VisaDirectClient is the SDK's entry point: construct one from a
// config.ClientConfig, then call NewPayout repeatedly to build and
// dispatch payouts.
type VisaDirectClient struct {
	originatorID string
	orch         *orchestrator.Orchestrator
	metrics      *metrics.Registry
}

// New builds a VisaDirectClient: it loads the endpoint registry, starts
// the key-rotation cache, opens the secure transport, and wires the
// preflight services and orchestrator around an in-memory idempotency
// and receipt store. Callers that need a durable backend construct their
// own idempotency.Store/receipt.Store and use NewWithStores instead.
func New(ctx context.Context, cfg config.ClientConfig, logger *zap.Logger) (*VisaDirectClient, error) {
	registry, err := transport.LoadRegistry(cfg.Transport.EndpointsPath)
	if err != nil {
		return nil, fmt.Errorf("load endpoint registry: %w", err)
	}

	keys := keyset.New(keyset.NewHTTPFetcher(registry.JWKS.URL, nil), time.Duration(registry.JWKS.CacheTTLSeconds)*time.Second, cfg.Production(), logger)

	var transportCfg transport.Config
	if err := copier.Copy(&transportCfg, &cfg.Transport); err != nil {
		return nil, fmt.Errorf("copy transport config: %w", err)
	}
	transportCfg.Production = cfg.Production()

	httpClient, err := transport.New(transportCfg, registry, keys, logger)
	if err != nil {
		return nil, fmt.Errorf("build secure transport: %w", err)
	}

	return NewWithStores(httpClient, idempotency.NewMemoryStore(), receipt.NewMemoryStore(), events.NewLogEmitter(logger), cfg, logger), nil
}

// NewWithStores builds a VisaDirectClient from an already-constructed
// secure transport client and idempotency/receipt store pair, for
// callers running the durable Postgres/Redis/DynamoDB backends (§4.6).
func NewWithStores(httpClient *transport.Client, idem idempotency.Store, receipts receipt.Store, emitter events.CompensationEmitter, cfg config.ClientConfig, logger *zap.Logger) *VisaDirectClient {
	memCache := cache.NewMemoryCache()

	orch := orchestrator.New(
		httpClient,
		idem,
		receipts,
		emitter,
		recipient.New(httpClient, memCache, logger),
		quoting.New(httpClient, memCache, logger),
		compliance.New(httpClient),
		logger,
	)

	return &VisaDirectClient{
		originatorID: cfg.Originator.ID,
		orch:         orch,
	}
}

// WithMetrics attaches a metrics registry to the client's orchestrator
// and transport; a nil registry (the default) records nothing.
func (c *VisaDirectClient) WithMetrics(reg *metrics.Registry) *VisaDirectClient {
	c.metrics = reg
	c.orch.Metrics = reg
	if httpClient, ok := c.orch.HTTP.(*transport.Client); ok {
		httpClient.Metrics = reg
	}
	return c
}

// NewPayout returns a PayoutBuilder pre-populated with this client's
// configured originator ID.
func (c *VisaDirectClient) NewPayout() *dx.PayoutBuilder {
	return dx.New(c.orch).ForOriginator(c.originatorID)
}
