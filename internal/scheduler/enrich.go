package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/domainwatch/domainwatch/internal/core"
)

// EnrichStore is the persistence slice for the full-sweep enrichment
// pass.
type EnrichStore interface {
	DomainsForEnrichment(ctx context.Context, limit int) ([]*core.Domain, error)
	UpdateDomainEnrichment(ctx context.Context, id uuid.UUID, ips []string, expiresAt *time.Time) error
}

// HostResolver answers A lookups. Satisfied by checker.Resolver.
type HostResolver interface {
	LookupA(ctx context.Context, domain string) ([]string, error)
}

// ExpiryLookup answers registration expiry. Satisfied by
// checker.WHOISClient.
type ExpiryLookup interface {
	ExpiresAt(domain string) (*time.Time, error)
}

// Enricher refreshes the DNS snapshot and registration expiry for a
// bounded set of domains. Best-effort: every failure is logged and
// skipped, nothing propagates to the sweep.
type Enricher struct {
	store    EnrichStore
	resolver HostResolver
	whois    ExpiryLookup
	limit    int
	logger   *zap.Logger
}

func NewEnricher(store EnrichStore, resolver HostResolver, whois ExpiryLookup, limit int, logger *zap.Logger) *Enricher {
	if limit < 1 {
		limit = 100
	}
	return &Enricher{
		store:    store,
		resolver: resolver,
		whois:    whois,
		limit:    limit,
		logger:   logger,
	}
}

func (e *Enricher) Run(ctx context.Context) {
	domains, err := e.store.DomainsForEnrichment(ctx, e.limit)
	if err != nil {
		e.logger.Error("failed to select domains for enrichment", zap.Error(err))
		return
	}

	enriched := 0
	for _, domain := range domains {
		if ctx.Err() != nil {
			return
		}

		lookupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		ips, err := e.resolver.LookupA(lookupCtx, domain.Name)
		cancel()
		if err != nil {
			e.logger.Debug("dns snapshot failed",
				zap.String("domain", domain.Name),
				zap.Error(err),
			)
		}

		expiresAt, err := e.whois.ExpiresAt(domain.Name)
		if err != nil {
			e.logger.Debug("whois expiry lookup failed",
				zap.String("domain", domain.Name),
				zap.Error(err),
			)
		}

		if ips == nil && expiresAt == nil {
			continue
		}
		if err := e.store.UpdateDomainEnrichment(ctx, domain.ID, ips, expiresAt); err != nil {
			e.logger.Warn("failed to save enrichment",
				zap.String("domain", domain.Name),
				zap.Error(err),
			)
			continue
		}
		enriched++
	}

	if enriched > 0 {
		e.logger.Info("enriched domains", zap.Int("count", enriched))
	}
}
