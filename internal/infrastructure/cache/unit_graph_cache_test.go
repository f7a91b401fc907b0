package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catercost/internal/core/apperror"
	"catercost/internal/core/tenant"
	"catercost/internal/domain/measure"
)

type fakeLoader struct {
	calls atomic.Int32
	units map[string][]measure.Unit
	err   error

	// during runs inside ListUnits, after the read started.
	during func()
}

func (l *fakeLoader) ListUnits(ctx context.Context) ([]measure.Unit, error) {
	l.calls.Add(1)
	if l.during != nil {
		l.during()
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.units[tenant.GetTenantID(ctx)], nil
}

func companyCtx(id string) context.Context {
	return tenant.WithTenant(context.Background(), &tenant.Tenant{ID: id})
}

func sampleUnits() []measure.Unit {
	return []measure.Unit{
		{ID: 2, IsBaseUnit: true, DecimalLimitQty: 0},
		{ID: 4, BaseUnitID: 2, BaseUnitEquivalent: decimal.NewFromInt(1000), DecimalLimitQty: 3},
	}
}

func TestUnitGraphCache_LoadsOncePerCompany(t *testing.T) {
	loader := &fakeLoader{units: map[string][]measure.Unit{
		"a": sampleUnits(),
		"b": sampleUnits()[:1],
	}}
	c := NewUnitGraphCache(loader, time.Minute)

	g1, err := c.Graph(companyCtx("a"))
	require.NoError(t, err)
	g2, err := c.Graph(companyCtx("a"))
	require.NoError(t, err)
	assert.Same(t, g1, g2)
	assert.Equal(t, 2, g1.Len())

	gb, err := c.Graph(companyCtx("b"))
	require.NoError(t, err)
	assert.Equal(t, 1, gb.Len())
	assert.EqualValues(t, 2, loader.calls.Load())
	assert.Equal(t, 2, c.Len())
}

func TestUnitGraphCache_TTL(t *testing.T) {
	loader := &fakeLoader{units: map[string][]measure.Unit{"a": sampleUnits()}}
	c := NewUnitGraphCache(loader, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.Graph(companyCtx("a"))
	require.NoError(t, err)

	now = now.Add(59 * time.Second)
	_, err = c.Graph(companyCtx("a"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, loader.calls.Load())

	now = now.Add(time.Second)
	_, err = c.Graph(companyCtx("a"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, loader.calls.Load())
}

func TestUnitGraphCache_Invalidate(t *testing.T) {
	loader := &fakeLoader{units: map[string][]measure.Unit{"a": sampleUnits(), "b": sampleUnits()}}
	c := NewUnitGraphCache(loader, 0)

	for _, id := range []string{"a", "b"} {
		_, err := c.Graph(companyCtx(id))
		require.NoError(t, err)
	}

	c.handleNotification(UnitsChangedChannel, " a ")
	assert.Equal(t, 1, c.Len())

	c.handleNotification("other_channel", "b")
	assert.Equal(t, 1, c.Len())

	c.handleNotification(UnitsChangedChannel, "")
	assert.Equal(t, 0, c.Len())

	_, err := c.Graph(companyCtx("a"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, loader.calls.Load())
}

func TestUnitGraphCache_InvalidateDuringLoad(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "company", payload: "a"},
		{name: "every company", payload: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &fakeLoader{units: map[string][]measure.Unit{"a": sampleUnits()}}
			c := NewUnitGraphCache(loader, 0)

			notified := false
			loader.during = func() {
				if !notified {
					notified = true
					c.handleNotification(UnitsChangedChannel, tt.payload)
				}
			}

			g, err := c.Graph(companyCtx("a"))
			require.NoError(t, err)
			assert.Equal(t, 2, g.Len())
			assert.Equal(t, 0, c.Len(), "graph read before the notification must not be cached")

			_, err = c.Graph(companyCtx("a"))
			require.NoError(t, err)
			assert.Equal(t, 1, c.Len())
			assert.EqualValues(t, 2, loader.calls.Load())

			_, err = c.Graph(companyCtx("a"))
			require.NoError(t, err)
			assert.EqualValues(t, 2, loader.calls.Load())
		})
	}
}

func TestUnitGraphCache_BrokenUnitsDoNotBlock(t *testing.T) {
	units := append(sampleUnits(),
		measure.Unit{ID: 7, BaseUnitID: 99, BaseUnitEquivalent: decimal.NewFromInt(10)},
	)
	c := NewUnitGraphCache(&fakeLoader{units: map[string][]measure.Unit{"a": units}}, 0)

	g, err := c.Graph(companyCtx("a"))
	require.NoError(t, err)

	_, err = g.ToSmallestUnit(decimal.NewFromInt(1), 4)
	assert.NoError(t, err)
	_, err = g.ToSmallestUnit(decimal.NewFromInt(1), 7)
	assert.True(t, apperror.IsUnitGraph(err))
}

func TestUnitGraphCache_Errors(t *testing.T) {
	c := NewUnitGraphCache(&fakeLoader{err: errors.New("db down")}, 0)

	_, err := c.Graph(context.Background())
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)

	_, err = c.Graph(companyCtx("a"))
	assert.ErrorContains(t, err, "db down")
	assert.Equal(t, 0, c.Len())
}

func TestUnitGraphCache_ConcurrentReaders(t *testing.T) {
	loader := &fakeLoader{units: map[string][]measure.Unit{"a": sampleUnits()}}
	c := NewUnitGraphCache(loader, 0, measure.WithDefaultDecimals(2))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := c.Graph(companyCtx("a"))
			assert.NoError(t, err)
			assert.Equal(t, 2, g.Len())
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, loader.calls.Load(), int32(16))
	assert.Equal(t, 1, c.Len())
}

func TestUnitGraphCache_StopWithoutStart(t *testing.T) {
	c := NewUnitGraphCache(&fakeLoader{}, 0)
	assert.NotPanics(t, c.Stop)
}
