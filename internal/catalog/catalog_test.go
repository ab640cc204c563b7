package catalog

import (
	"context"
	"math"
	"slices"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martcli/internal/auth"
	"martcli/internal/domain"
	"martcli/internal/store"
	"martcli/internal/store/memory"
)

func managerCtx() context.Context {
	return auth.WithActor(context.Background(), domain.Actor{Name: "Alice", Role: domain.RoleManager})
}

func newTestCatalog(t *testing.T) (*Catalog, *memory.Store) {
	t.Helper()
	repo := memory.New()
	c := New(repo, nil)
	require.NoError(t, c.Load(context.Background()))
	return c, repo
}

func TestAddProductStoresValues(t *testing.T) {
	c, repo := newTestCatalog(t)
	ctx := managerCtx()

	cases := []struct {
		in   domain.ProductInput
		want domain.Product
	}{
		{
			in:   domain.ProductInput{Name: "Rice", Price: "10", Unit: "kg", Stock: "100"},
			want: domain.Product{Name: "rice", Price: 10, Unit: "kg", Stock: 100, SoldToday: 0},
		},
		{
			in:   domain.ProductInput{Name: "Eggs", Price: " $3 ", Unit: "piece", Stock: "0"},
			want: domain.Product{Name: "eggs", Price: 3, Unit: "piece", Stock: 0, SoldToday: 0},
		},
		{
			in:   domain.ProductInput{Name: "water", Price: "0", Unit: "bottle", Stock: "12"},
			want: domain.Product{Name: "water", Price: 0, Unit: "bottle", Stock: 12, SoldToday: 0},
		},
	}

	for _, tc := range cases {
		got, err := c.AddProduct(ctx, tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	stored, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, cases[0].want, stored[0])
	assert.Equal(t, slices.Collect(c.Products()), stored)
}

func TestAddProductRejectsInvalidNumbers(t *testing.T) {
	c, repo := newTestCatalog(t)
	ctx := managerCtx()

	for _, in := range []domain.ProductInput{
		{Name: "rice", Price: "ten", Unit: "kg", Stock: "100"},
		{Name: "rice", Price: "-1", Unit: "kg", Stock: "100"},
		{Name: "rice", Price: "1.5", Unit: "kg", Stock: "100"},
		{Name: "rice", Price: "10", Unit: "kg", Stock: "lots"},
		{Name: "rice", Price: "10", Unit: "kg", Stock: ""},
		{Name: "  ", Price: "10", Unit: "kg", Stock: "1"},
	} {
		_, err := c.AddProduct(ctx, in)
		assert.ErrorIs(t, err, store.ErrInvalidInput, "%+v", in)
	}

	stored, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Zero(t, c.Len())
}

func TestAddProductRequiresManager(t *testing.T) {
	c, _ := newTestCatalog(t)

	_, err := c.AddProduct(context.Background(), domain.ProductInput{Name: "rice", Price: "10", Unit: "kg", Stock: "1"})
	assert.ErrorIs(t, err, store.ErrUnauthorized)
}

func TestDuplicateNamesResolveToFirst(t *testing.T) {
	c, _ := newTestCatalog(t)
	ctx := managerCtx()

	_, err := c.AddProduct(ctx, domain.ProductInput{Name: "rice", Price: "10", Unit: "kg", Stock: "5"})
	require.NoError(t, err)
	_, err = c.AddProduct(ctx, domain.ProductInput{Name: "RICE", Price: "12", Unit: "kg", Stock: "50"})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	found, err := c.Find("Rice")
	require.NoError(t, err)
	assert.Equal(t, int64(10), found.Price)
}

func TestApplyPurchase(t *testing.T) {
	c, repo := newTestCatalog(t)
	ctx := managerCtx()
	_, err := c.AddProduct(ctx, domain.ProductInput{Name: "rice", Price: "10", Unit: "kg", Stock: "100"})
	require.NoError(t, err)

	line, err := c.ApplyPurchase("RICE", 30)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutLine{Product: "rice", Qty: 30, Price: 10, Cost: 300}, line)

	p, err := c.Find("rice")
	require.NoError(t, err)
	assert.Equal(t, 70, p.Stock)
	assert.Equal(t, 30, p.SoldToday)

	// Storage only changes on flush.
	stored, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, stored[0].Stock)

	require.NoError(t, c.Flush(context.Background()))
	stored, err = repo.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 70, stored[0].Stock)
	assert.Equal(t, 30, stored[0].SoldToday)
}

func TestApplyPurchaseInsufficientStockLeavesStateUnchanged(t *testing.T) {
	c, _ := newTestCatalog(t)
	_, err := c.AddProduct(managerCtx(), domain.ProductInput{Name: "rice", Price: "10", Unit: "kg", Stock: "5"})
	require.NoError(t, err)

	_, err = c.ApplyPurchase("rice", 6)
	assert.ErrorIs(t, err, store.ErrInsufficientStock)

	p, err := c.Find("rice")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, 0, p.SoldToday)

	_, err = c.ApplyPurchase("rice", 0)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
	_, err = c.ApplyPurchase("bread", 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	line, err := c.ApplyPurchase("rice", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(50), line.Cost)
}

func TestReloadDiscardsUnflushedMutations(t *testing.T) {
	c, _ := newTestCatalog(t)
	_, err := c.AddProduct(managerCtx(), domain.ProductInput{Name: "rice", Price: "10", Unit: "kg", Stock: "100"})
	require.NoError(t, err)

	_, err = c.ApplyPurchase("rice", 40)
	require.NoError(t, err)
	require.NoError(t, c.Reload(context.Background()))

	p, err := c.Find("rice")
	require.NoError(t, err)
	assert.Equal(t, 100, p.Stock)
	assert.Equal(t, 0, p.SoldToday)
}

func TestUpdateAndRemoveProduct(t *testing.T) {
	c, repo := newTestCatalog(t)
	ctx := managerCtx()
	_, err := c.AddProduct(ctx, domain.ProductInput{Name: "rice", Price: "10", Unit: "kg", Stock: "100"})
	require.NoError(t, err)
	_, err = c.AddProduct(ctx, domain.ProductInput{Name: "salt", Price: "2", Unit: "kg", Stock: "10"})
	require.NoError(t, err)

	updated, err := c.UpdateProduct(ctx, "Rice", domain.ProductUpdate{Price: "$12", Stock: ""})
	require.NoError(t, err)
	assert.Equal(t, domain.Product{Name: "rice", Price: 12, Unit: "kg", Stock: 100}, updated)

	_, err = c.UpdateProduct(ctx, "rice", domain.ProductUpdate{Stock: "-5"})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
	_, err = c.UpdateProduct(ctx, "bread", domain.ProductUpdate{Unit: "loaf"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	removed, err := c.RemoveProduct(ctx, "salt")
	require.NoError(t, err)
	assert.Equal(t, "salt", removed.Name)

	stored, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Product{{Name: "rice", Price: 12, Unit: "kg", Stock: 100}}, stored)

	_, err = c.RemoveProduct(context.Background(), "rice")
	assert.ErrorIs(t, err, store.ErrUnauthorized)
}

func TestApplyPurchaseRejectsOverflowingCost(t *testing.T) {
	c, _ := newTestCatalog(t)
	_, err := c.AddProduct(managerCtx(), domain.ProductInput{
		Name: "gold", Price: strconv.FormatInt(math.MaxInt64, 10), Unit: "bar", Stock: "2",
	})
	require.NoError(t, err)

	_, err = c.ApplyPurchase("gold", 2)
	assert.ErrorIs(t, err, ErrAmountTooLarge)
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	p, err := c.Find("gold")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)
	assert.Equal(t, 0, p.SoldToday)
}

func TestFitsCost(t *testing.T) {
	cases := []struct {
		qty   int
		price int64
		total int64
		want  bool
	}{
		{qty: 30, price: 10, total: 0, want: true},
		{qty: 1, price: math.MaxInt64, total: 0, want: true},
		{qty: 2, price: math.MaxInt64, total: 0, want: false},
		{qty: 1, price: 1, total: math.MaxInt64, want: false},
		{qty: 1_000_000, price: 0, total: math.MaxInt64, want: true},
		{qty: 3, price: math.MaxInt64 / 3, total: 1, want: true},
		{qty: 3, price: math.MaxInt64 / 3, total: 2, want: false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FitsCost(tc.qty, tc.price, tc.total), "%+v", tc)
	}
}

func TestRestoreRewritesStorage(t *testing.T) {
	c, repo := newTestCatalog(t)
	_, err := c.AddProduct(managerCtx(), domain.ProductInput{Name: "rice", Price: "10", Unit: "kg", Stock: "100"})
	require.NoError(t, err)
	snapshot := c.Snapshot()

	_, err = c.ApplyPurchase("rice", 40)
	require.NoError(t, err)
	require.NoError(t, c.Flush(context.Background()))
	require.NoError(t, c.Restore(context.Background(), snapshot))

	stored, err := repo.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, stored[0].Stock)
	assert.Equal(t, snapshot, slices.Collect(c.Products()))
}
