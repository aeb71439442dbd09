package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/angelmondragon/cogsdesk-backend/internal/catalog"
	"github.com/angelmondragon/cogsdesk-backend/internal/combos"
	"github.com/angelmondragon/cogsdesk-backend/internal/pricebooks"
	"github.com/angelmondragon/cogsdesk-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SnapshotCache is the redis surface used to share loaded snapshots between
// API instances. Keys are versioned per tenant so a bump orphans old entries.
type SnapshotCache interface {
	SnapshotVersion(ctx context.Context, tenantID string) (int64, error)
	BumpSnapshotVersion(ctx context.Context, tenantID string) (int64, error)
	SnapshotKey(tenantID string, version int64) string
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// snapshotData is the cached form of a tenant's pricing data.
type snapshotData struct {
	Variants   []pricing.Variant   `json:"variants"`
	PriceBooks []pricing.PriceBook `json:"price_books"`
	Combos     []pricing.Combo     `json:"combos"`
}

func (d snapshotData) build() *pricing.Snapshot {
	return pricing.NewSnapshot(d.Variants, d.PriceBooks, d.Combos)
}

// Loader builds per-tenant pricing snapshots from the database.
type Loader struct {
	db    txRunner
	cache SnapshotCache
	ttl   time.Duration
	logg  *logger.Logger
}

// NewLoader wires a snapshot loader. cache may be nil; a zero ttl disables caching.
func NewLoader(db txRunner, cache SnapshotCache, ttl time.Duration, logg *logger.Logger) (*Loader, error) {
	if db == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Loader{db: db, cache: cache, ttl: ttl, logg: logg}, nil
}

func (l *Loader) cacheEnabled() bool {
	return l.cache != nil && l.ttl > 0
}

// Load returns an immutable snapshot of the tenant's variants, price books and combos.
func (l *Loader) Load(ctx context.Context, tenantID string) (*pricing.Snapshot, error) {
	if !l.cacheEnabled() {
		data, err := l.loadFromDB(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return data.build(), nil
	}

	ctx = l.logg.WithTenantID(ctx, tenantID)
	version, err := l.cache.SnapshotVersion(ctx, tenantID)
	if err != nil {
		l.logg.Warn(ctx, "snapshot version lookup failed: "+err.Error())
		data, err := l.loadFromDB(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return data.build(), nil
	}

	key := l.cache.SnapshotKey(tenantID, version)
	if raw, err := l.cache.Get(ctx, key); err == nil {
		var data snapshotData
		if err := json.Unmarshal([]byte(raw), &data); err == nil {
			return data.build(), nil
		}
		l.logg.Warn(ctx, "discarding undecodable cached snapshot")
	} else if !errors.Is(err, redis.Nil) {
		l.logg.Warn(ctx, "snapshot cache read failed: "+err.Error())
	}

	data, err := l.loadFromDB(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(data); err == nil {
		if err := l.cache.Set(ctx, key, encoded, l.ttl); err != nil {
			l.logg.Warn(ctx, "snapshot cache write failed: "+err.Error())
		}
	}
	return data.build(), nil
}

// Invalidate bumps the tenant's snapshot version. It satisfies the
// invalidator contract of the catalog, price book and combo services.
func (l *Loader) Invalidate(ctx context.Context, tenantID string) error {
	if l.cache == nil {
		return nil
	}
	_, err := l.cache.BumpSnapshotVersion(ctx, tenantID)
	return err
}

// loadFromDB reads everything inside one transaction so a concurrent price
// book write is seen either entirely or not at all.
func (l *Loader) loadFromDB(ctx context.Context, tenantID string) (snapshotData, error) {
	var data snapshotData
	err := l.db.WithTx(ctx, func(tx *gorm.DB) error {
		variants, err := catalog.NewRepository(tx).ListAll(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("load variants: %w", err)
		}
		books, err := pricebooks.NewRepository(tx).List(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("load price books: %w", err)
		}
		comboRows, err := combos.NewRepository(tx).List(ctx, tenantID, false)
		if err != nil {
			return fmt.Errorf("load combos: %w", err)
		}

		data.Variants = make([]pricing.Variant, 0, len(variants))
		for _, v := range variants {
			data.Variants = append(data.Variants, catalog.ToPricing(v))
		}
		data.PriceBooks = make([]pricing.PriceBook, 0, len(books))
		for _, pb := range books {
			data.PriceBooks = append(data.PriceBooks, pricebooks.ToPricing(pb))
		}
		data.Combos = make([]pricing.Combo, 0, len(comboRows))
		for _, c := range comboRows {
			data.Combos = append(data.Combos, combos.ToPricing(c))
		}
		return nil
	})
	if err != nil {
		return snapshotData{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing snapshot")
	}
	return data, nil
}
