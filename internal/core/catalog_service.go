package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogResolver resolves additional-service catalog entries. The database
// may carry overrides (price changes, RUT reclassification) on top of the
// built-in deploy-time defaults.
type CatalogResolver interface {
	// Resolve returns the effective catalog entry for a service id.
	Resolve(ctx context.Context, serviceID string) (CatalogService, bool, error)

	// List returns the full effective catalog: built-in defaults with any
	// database overrides applied, plus database-only additions.
	List(ctx context.Context) ([]CatalogService, error)
}

type catalogResolver struct {
	pool *pgxpool.Pool
}

// NewCatalogResolver constructs a CatalogResolver backed by the
// service_catalog_overrides table.
func NewCatalogResolver(pool *pgxpool.Pool) CatalogResolver {
	return &catalogResolver{pool: pool}
}

// Resolve returns the highest-priority active override for serviceID, falling
// back to the built-in catalog when no override exists.
func (r *catalogResolver) Resolve(ctx context.Context, serviceID string) (CatalogService, bool, error) {
	var entry CatalogService
	err := r.pool.QueryRow(ctx, `
		SELECT service_id, name, unit_price, rut_eligible, category
		FROM service_catalog_overrides
		WHERE service_id = $1
		  AND (effective_to IS NULL OR effective_to >= CURRENT_DATE)
		ORDER BY priority DESC
		LIMIT 1
	`, serviceID).Scan(&entry.ID, &entry.Name, &entry.UnitPrice, &entry.RutEligible, &entry.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			builtin, ok := LookupCatalogService(serviceID)
			return builtin, ok, nil
		}
		return CatalogService{}, false, fmt.Errorf("failed to resolve service %q: %w", serviceID, err)
	}
	return entry, true, nil
}

func (r *catalogResolver) List(ctx context.Context) ([]CatalogService, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (service_id) service_id, name, unit_price, rut_eligible, category
		FROM service_catalog_overrides
		WHERE effective_to IS NULL OR effective_to >= CURRENT_DATE
		ORDER BY service_id, priority DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog overrides: %w", err)
	}
	defer rows.Close()

	overrides := make(map[string]CatalogService)
	for rows.Next() {
		var e CatalogService
		if err := rows.Scan(&e.ID, &e.Name, &e.UnitPrice, &e.RutEligible, &e.Category); err != nil {
			return nil, fmt.Errorf("failed to scan catalog override: %w", err)
		}
		overrides[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog overrides: %w", err)
	}

	catalog := DefaultCatalog()
	for i, entry := range catalog {
		if o, ok := overrides[entry.ID]; ok {
			catalog[i] = o
			delete(overrides, entry.ID)
		}
	}
	for _, extra := range overrides {
		catalog = append(catalog, extra)
	}
	return catalog, nil
}

// CatalogResolveFunc adapts a resolver to the plain lookup signature
// ComputeQuote and ValidateSelectedServices expect. Database errors surface
// as "not found" here; callers that must distinguish use Resolve directly.
func CatalogResolveFunc(ctx context.Context, r CatalogResolver) func(id string) (CatalogService, bool) {
	return func(id string) (CatalogService, bool) {
		entry, ok, err := r.Resolve(ctx, id)
		if err != nil {
			return CatalogService{}, false
		}
		return entry, ok
	}
}
