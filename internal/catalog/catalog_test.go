package catalog_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/lock"
)

type countingSource struct {
	products []catalog.Product
	err      error
	calls    int
}

func (s *countingSource) Products(context.Context) ([]catalog.Product, error) {
	s.calls++
	return s.products, s.err
}

func rice() catalog.Product {
	return catalog.Product{
		ID:         "p-rice",
		Name:       "Basmati Rice",
		SKU:        "RICE-01",
		StockLevel: 12,
		Prices: []catalog.PriceEntry{
			{Unit: "kg", SellingPrice: decimal.NewFromInt(200), NetPrice: decimal.NewFromInt(180)},
			{Unit: "gram", SellingPrice: decimal.RequireFromString("0.25"), NetPrice: decimal.RequireFromString("0.2")},
		},
	}
}

func TestSnapshotLookups(t *testing.T) {
	snap, err := catalog.NewSnapshot([]catalog.Product{rice(), {ID: "p-soap", Name: "Soap", SKU: "SOAP"}})
	require.NoError(t, err)
	require.Equal(t, 2, snap.Len())

	p, err := snap.Product("p-rice")
	require.NoError(t, err)
	require.Equal(t, "kg", p.BaseUnit())
	require.True(t, p.InStock())

	p, err = snap.BySKU("soap")
	require.NoError(t, err)
	require.Equal(t, "p-soap", p.ID)
	require.False(t, p.InStock())
	require.Empty(t, p.BaseUnit())

	_, err = snap.Product("missing")
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestSnapshotRejectsInvalidProducts(t *testing.T) {
	bad := rice()
	bad.Prices[0].SellingPrice = decimal.NewFromInt(-1)
	_, err := catalog.NewSnapshot([]catalog.Product{bad})
	require.ErrorIs(t, err, catalog.ErrInvalidProduct)

	_, err = catalog.NewSnapshot([]catalog.Product{rice(), rice()})
	require.ErrorIs(t, err, catalog.ErrInvalidProduct)
}

func TestPriceForIgnoresCase(t *testing.T) {
	entry, ok := rice().PriceFor(" GRAM")
	require.True(t, ok)
	require.True(t, entry.SellingPrice.Equal(decimal.RequireFromString("0.25")))

	_, ok = rice().PriceFor("piece")
	require.False(t, ok)
}

func TestCachedSourceServesFromRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	src := &countingSource{products: []catalog.Product{rice()}}
	cached := catalog.CachedSource{Source: src, Cache: catalog.NewCache(client, time.Minute), Logger: zerolog.Nop()}
	ctx := context.Background()

	first, err := cached.Products(ctx)
	require.NoError(t, err)
	second, err := cached.Products(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, src.calls)
	require.Equal(t, first[0].ID, second[0].ID)
	require.True(t, second[0].Prices[1].SellingPrice.Equal(decimal.RequireFromString("0.25")))

	require.NoError(t, cached.Refresh(ctx))
	_, err = cached.Products(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)
}

func TestCachedSourceWithoutRedis(t *testing.T) {
	src := &countingSource{err: errors.New("remote down")}
	cached := catalog.CachedSource{Source: src, Logger: zerolog.Nop()}

	_, err := catalog.Load(context.Background(), cached)
	require.ErrorContains(t, err, "remote down")
}

type slowSource struct {
	calls atomic.Int32
}

func (s *slowSource) Products(context.Context) ([]catalog.Product, error) {
	s.calls.Add(1)
	time.Sleep(20 * time.Millisecond)
	return []catalog.Product{rice()}, nil
}

func TestCachedSourceRefillsOnceUnderLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	src := &slowSource{}
	cached := catalog.CachedSource{
		Source: src,
		Cache:  catalog.NewCache(client, time.Minute),
		Lock:   lock.Locker{R: client, RetryBackoff: 2 * time.Millisecond},
		Logger: zerolog.Nop(),
	}

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			products, err := cached.Products(context.Background())
			if err == nil && len(products) != 1 {
				err = errors.New("unexpected product count")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), src.calls.Load())
}

func TestCachedSourceFallsBackWhenRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	src := &countingSource{products: []catalog.Product{rice()}}
	cached := catalog.CachedSource{
		Source: src,
		Cache:  catalog.NewCache(client, time.Minute),
		Lock:   lock.Locker{R: client},
		Logger: zerolog.Nop(),
	}

	products, err := cached.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, 1, src.calls)
}

func TestCachedSourceReportsSourceErrorsUnderLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	src := &countingSource{err: errors.New("remote down")}
	cached := catalog.CachedSource{
		Source: src,
		Cache:  catalog.NewCache(client, time.Minute),
		Lock:   lock.Locker{R: client},
		Logger: zerolog.Nop(),
	}

	_, err = cached.Products(context.Background())
	require.EqualError(t, err, "remote down")
	require.Equal(t, 1, src.calls, "a failing source is not asked twice")
}
