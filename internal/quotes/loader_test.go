package quotes

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/cogsdesk-backend/pkg/db"
	"github.com/angelmondragon/cogsdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
	"github.com/angelmondragon/cogsdesk-backend/pkg/enums"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

type memoryCache struct {
	versions map[string]int64
	data     map[string]string
	sets     int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{versions: map[string]int64{}, data: map[string]string{}}
}

func (m *memoryCache) SnapshotVersion(_ context.Context, tenantID string) (int64, error) {
	return m.versions[tenantID], nil
}

func (m *memoryCache) BumpSnapshotVersion(_ context.Context, tenantID string) (int64, error) {
	m.versions[tenantID]++
	return m.versions[tenantID], nil
}

func (m *memoryCache) SnapshotKey(tenantID string, version int64) string {
	return fmt.Sprintf("snap:%s:%d", tenantID, version)
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.sets++
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	return nil
}

func discardLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

func seedTenant(t *testing.T, client *db.Client, tenantID string) {
	t.Helper()
	conn := client.DB()
	require.NoError(t, conn.Create(&models.Variant{
		TenantID: tenantID, VariantID: "V1", BaseCost: decimal.RequireFromString("5.00"), Source: enums.VariantSourceManual,
	}).Error)
	require.NoError(t, conn.Create(&models.Variant{
		TenantID: tenantID, VariantID: "V2", BaseCost: decimal.RequireFromString("7.00"), Source: enums.VariantSourceManual,
	}).Error)
	require.NoError(t, conn.Create(&models.PriceBook{
		TenantID:        tenantID,
		CountryCode:     "US",
		ShippingCarrier: "YunTu",
		CarrierKey:      "yuntu",
		Currency:        "USD",
		Tiers: []models.ShippingTier{
			{MinItems: 1, MaxItems: 2, ShippingCost: decimal.RequireFromString("4.00")},
			{MinItems: 3, MaxItems: 10, ShippingCost: decimal.RequireFromString("6.00")},
		},
		VariantOverrides: []models.VariantCostOverride{
			{VariantID: "V1", OverrideCost: decimal.RequireFromString("4.50")},
		},
	}).Error)
	require.NoError(t, conn.Create(&models.Combo{
		TenantID:        tenantID,
		ComboID:         "C1",
		Name:            "Pair",
		TriggerQuantity: 2,
		IsActive:        true,
		Items: []models.ComboItem{
			{Position: 0, VariantID: "V1", Qty: 1},
			{Position: 1, VariantID: "V2", Qty: 1},
		},
	}).Error)
}

func TestLoaderLoadsTenantData(t *testing.T) {
	client := dbtest.Open(t)
	seedTenant(t, client, "t1")
	seedTenant(t, client, "t2")

	loader, err := NewLoader(client, nil, 0, discardLogger())
	require.NoError(t, err)

	snap, err := loader.Load(context.Background(), "t1")
	require.NoError(t, err)

	v, ok := snap.Variant("V2")
	require.True(t, ok)
	assert.True(t, v.BaseCost.Equal(decimal.RequireFromString("7")))

	pb, ok := snap.PriceBook("us", "YUNTU")
	require.True(t, ok)
	require.Len(t, pb.Tiers, 2)
	assert.Equal(t, 1, pb.Tiers[0].MinItems)
	assert.True(t, pb.VariantOverrides["V1"].Equal(decimal.RequireFromString("4.5")))

	combo, ok := snap.Combo("C1")
	require.True(t, ok)
	require.Len(t, combo.Items, 2)
	assert.Len(t, snap.Combos(), 1)
}

func TestLoaderCachesUntilInvalidated(t *testing.T) {
	client := dbtest.Open(t)
	seedTenant(t, client, "t1")
	cache := newMemoryCache()

	loader, err := NewLoader(client, cache, time.Minute, discardLogger())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = loader.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	require.NoError(t, client.DB().Model(&models.Variant{}).
		Where("tenant_id = ? AND variant_id = ?", "t1", "V2").
		Update("base_cost", decimal.RequireFromString("9.00")).Error)

	snap, err := loader.Load(ctx, "t1")
	require.NoError(t, err)
	v, _ := snap.Variant("V2")
	assert.True(t, v.BaseCost.Equal(decimal.RequireFromString("7")), "cached snapshot is served until invalidated")
	assert.Equal(t, 1, cache.sets)

	require.NoError(t, loader.Invalidate(ctx, "t1"))
	snap, err = loader.Load(ctx, "t1")
	require.NoError(t, err)
	v, _ = snap.Variant("V2")
	assert.True(t, v.BaseCost.Equal(decimal.RequireFromString("9")))
	assert.Equal(t, 2, cache.sets)

	pb, ok := snap.PriceBook("US", "YunTu")
	require.True(t, ok)
	assert.True(t, pb.Tiers[1].Cost.Equal(decimal.RequireFromString("6")), "tiers survive the cache round trip")
}

func TestLoaderInvalidateWithoutCache(t *testing.T) {
	client := dbtest.Open(t)
	loader, err := NewLoader(client, nil, time.Minute, discardLogger())
	require.NoError(t, err)
	assert.NoError(t, loader.Invalidate(context.Background(), "t1"))
}
