package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/smallbiznis/promosync/internal/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) catalogdomain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&catalogdomain.Product{}))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	return NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})
}

func TestCreateAndLookup(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, catalogdomain.CreateRequest{
		SKU:       " sku-a ",
		Name:      "Alpha",
		UnitPrice: 2000,
		Currency:  "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "sku-a", created.SKU)
	assert.Equal(t, "USD", created.Currency)
	assert.True(t, created.Orderable)

	found, err := svc.Lookup(ctx, "sku-a")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, int64(2000), found.UnitPrice)
}

func TestCreateDuplicateSKU(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, catalogdomain.CreateRequest{SKU: "sku-a", Name: "Alpha", UnitPrice: 2000, Currency: "USD"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, catalogdomain.CreateRequest{SKU: "sku-a", Name: "Alpha Again", UnitPrice: 2500, Currency: "USD"})
	assert.ErrorIs(t, err, catalogdomain.ErrSKUExists)
}

func TestCreateValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, catalogdomain.CreateRequest{Name: "No SKU", UnitPrice: 100})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidSKU)

	_, err = svc.Create(ctx, catalogdomain.CreateRequest{SKU: "sku-x", UnitPrice: 100})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidName)

	_, err = svc.Create(ctx, catalogdomain.CreateRequest{SKU: "sku-x", Name: "Bad Price", UnitPrice: -1})
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidPrice)
}

func TestCreateNotOrderable(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	orderable := false
	created, err := svc.Create(ctx, catalogdomain.CreateRequest{
		SKU:       "sku-oos",
		Name:      "Sold Out",
		UnitPrice: 900,
		Currency:  "USD",
		Orderable: &orderable,
	})
	require.NoError(t, err)
	assert.False(t, created.IsOrderable())
}

func TestLookupMissingSKUReturnsNil(t *testing.T) {
	svc := newService(t)

	product, err := svc.Lookup(context.Background(), "sku-missing")
	require.NoError(t, err)
	assert.Nil(t, product)

	_, err = svc.Lookup(context.Background(), "   ")
	assert.ErrorIs(t, err, catalogdomain.ErrInvalidSKU)
}
