package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ajstudioz/ajstudioz-gateway/internal/gateway/access"
	"github.com/ajstudioz/ajstudioz-gateway/internal/shared/metrics"
)

// EntitlementCache holds per-user entitlement snapshots until they expire
// or a payment or admin change invalidates them.
//
// Every user has a generation token that Invalidate replaces. Entries are
// stamped with the generation read before the database load, and Get only
// serves an entry whose stamp matches the current token. A load that raced
// with an invalidation therefore never outlives it.
type EntitlementCache struct {
	store   Store
	metrics *metrics.Metrics
}

type cachedEntitlement struct {
	Generation  string             `json:"generation"`
	Entitlement access.Entitlement `json:"entitlement"`
}

func NewEntitlementCache(store Store, m *metrics.Metrics) *EntitlementCache {
	return &EntitlementCache{store: store, metrics: m}
}

func entitlementKey(userID string) string {
	return "entitlement:" + userID
}

func generationKey(userID string) string {
	return "entitlement-gen:" + userID
}

// Generation returns the current generation of userID, creating one if
// none is stored. Read it before loading from the database and pass it to
// Set.
func (c *EntitlementCache) Generation(ctx context.Context, userID string) (string, error) {
	val, ok, err := c.store.Get(ctx, generationKey(userID))
	if err != nil {
		return "", err
	}
	if ok && len(val) > 0 {
		return string(val), nil
	}
	return c.bump(ctx, userID)
}

func (c *EntitlementCache) bump(ctx context.Context, userID string) (string, error) {
	gen := uuid.NewString()
	if err := c.store.Set(ctx, generationKey(userID), []byte(gen)); err != nil {
		return "", err
	}
	return gen, nil
}

func (c *EntitlementCache) Get(ctx context.Context, userID string) (access.Entitlement, bool, error) {
	val, ok, err := c.store.Get(ctx, entitlementKey(userID))
	if err != nil {
		return access.Entitlement{}, false, err
	}
	if !ok {
		c.count("miss")
		return access.Entitlement{}, false, nil
	}

	var entry cachedEntitlement
	if err := json.Unmarshal(val, &entry); err != nil {
		return access.Entitlement{}, false, fmt.Errorf("decode cached entitlement: %w", err)
	}

	gen, ok, err := c.store.Get(ctx, generationKey(userID))
	if err != nil {
		return access.Entitlement{}, false, err
	}
	if !ok || string(gen) != entry.Generation {
		c.count("stale")
		return access.Entitlement{}, false, nil
	}

	c.count("hit")
	return entry.Entitlement, true, nil
}

// Set stores ent under generation gen.
func (c *EntitlementCache) Set(ctx context.Context, userID, gen string, ent access.Entitlement) error {
	data, err := json.Marshal(cachedEntitlement{Generation: gen, Entitlement: ent})
	if err != nil {
		return err
	}
	return c.store.Set(ctx, entitlementKey(userID), data)
}

// Invalidate starts a new generation for userID and drops its entry.
func (c *EntitlementCache) Invalidate(ctx context.Context, userID string) error {
	if _, err := c.bump(ctx, userID); err != nil {
		return err
	}
	return c.store.Invalidate(ctx, entitlementKey(userID))
}

func (c *EntitlementCache) count(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues("entitlement", result).Inc()
	}
}
