package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/cogsdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/cogsdesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cogsdesk-backend/pkg/errors"
	"github.com/angelmondragon/cogsdesk-backend/pkg/logger"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), client, logger.New(logger.Options{Output: io.Discard}))
	require.NoError(t, err)
	return svc
}

func order(id string, at time.Time, lines ...LineInput) OrderInput {
	return OrderInput{
		ExternalID:      id,
		Name:            "#" + id,
		CountryCode:     "us",
		ShippingCarrier: "YunTu",
		Revenue:         decimal.RequireFromString("30.00"),
		ProcessedAt:     at,
		Lines:           lines,
	}
}

func TestUpsertCreatesThenReplaces(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	day := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	res, err := svc.Upsert(ctx, "t1", []OrderInput{
		order("1001", day, LineInput{VariantID: "V1", Quantity: 2}),
		order("1002", day.Add(time.Hour), LineInput{VariantID: "V2", Quantity: 1}),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	again := order("1001", day, LineInput{VariantID: "V3", Quantity: 1}, LineInput{VariantID: "V1", Quantity: 1})
	again.Revenue = decimal.RequireFromString("45.00")
	res, err = svc.Upsert(ctx, "t1", []OrderInput{again})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 0, res.Created)

	list, err := svc.ListInRange(ctx, "t1", day.Add(-time.Hour), day.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1001", list[0].ExternalID)
	assert.Equal(t, "US", list[0].CountryCode)
	assert.Equal(t, "USD", list[0].Currency)
	assert.True(t, list[0].Revenue.Equal(decimal.RequireFromString("45")))
	require.Len(t, list[0].Lines, 2)
	assert.Equal(t, "V3", list[0].Lines[0].VariantID)
}

func TestListInRangeIsHalfOpenAndTenantScoped(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	_, err := svc.Upsert(ctx, "t1", []OrderInput{
		order("a", start, LineInput{VariantID: "V1", Quantity: 1}),
		order("b", end, LineInput{VariantID: "V1", Quantity: 1}),
	})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, "t2", []OrderInput{order("c", start, LineInput{VariantID: "V1", Quantity: 1})})
	require.NoError(t, err)

	list, err := svc.ListInRange(ctx, "t1", start, end)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ExternalID)

	_, err = svc.ListInRange(ctx, "t1", end, start)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestUpsertRejectsEmptyOrders(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Upsert(context.Background(), "t1", []OrderInput{order("x", time.Now())})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.Upsert(context.Background(), "t1", []OrderInput{order("y", time.Now(), LineInput{VariantID: "V1", Quantity: 0})})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestQuoteRequestCarriesSelector(t *testing.T) {
	row := FromModel(models.Order{
		CountryCode:     "US",
		ShippingCarrier: "YunTu",
		Lines: []models.OrderLine{
			{VariantID: "V1", Quantity: 3},
			{VariantID: "V2", Quantity: 1},
		},
	})
	req := row.QuoteRequest()
	assert.Equal(t, "US", req.Selector.CountryCode)
	assert.Equal(t, "YunTu", req.Selector.ShippingCarrier)
	require.Len(t, req.Lines, 2)
	assert.Equal(t, 3, req.Lines[0].Quantity)

	assert.True(t, FromModel(models.Order{}).QuoteRequest().Selector.IsZero())
}
