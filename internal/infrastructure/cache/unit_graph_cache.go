// Package cache provides caching infrastructure with PostgreSQL LISTEN/NOTIFY support.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"catercost/internal/core/tenant"
	"catercost/internal/domain/measure"
	"catercost/pkg/logger"
)

// UnitsChangedChannel is the NOTIFY channel master-data writers signal on.
// The payload is the company id, or empty to drop every company's graph.
const UnitsChangedChannel = "units_changed"

// UnitLoader loads the unit master data of the company in ctx.
type UnitLoader interface {
	ListUnits(ctx context.Context) ([]measure.Unit, error)
}

type graphEntry struct {
	graph    *measure.Graph
	loadedAt time.Time
}

// UnitGraphCache keeps one immutable unit graph per company. Entries expire
// after the TTL and are dropped early on a units_changed notification.
type UnitGraphCache struct {
	loader UnitLoader
	opts   []measure.Option
	ttl    time.Duration
	now    func() time.Time
	loads  singleflight.Group

	mu      sync.RWMutex
	entries map[string]graphEntry // companyID -> graph
	gens    map[string]uint64     // companyID -> invalidation count
	epoch   uint64                // bumped when every company is invalidated

	// Lifecycle of the LISTEN loop
	pool        *pgxpool.Pool
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewUnitGraphCache creates a cache. ttl <= 0 keeps graphs until invalidated.
func NewUnitGraphCache(loader UnitLoader, ttl time.Duration, opts ...measure.Option) *UnitGraphCache {
	return &UnitGraphCache{
		loader:  loader,
		opts:    opts,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]graphEntry),
		gens:    make(map[string]uint64),
	}
}

// Graph returns the unit graph of the company in ctx, loading it on a miss.
// Broken units are logged and left out; they fail per-line lookups later.
func (c *UnitGraphCache) Graph(ctx context.Context) (*measure.Graph, error) {
	companyID := tenant.GetTenantID(ctx)
	if companyID == "" {
		return nil, tenant.ErrTenantNotFound
	}

	c.mu.RLock()
	entry, ok := c.entries[companyID]
	c.mu.RUnlock()
	if ok && c.fresh(entry) {
		return entry.graph, nil
	}

	v, err, _ := c.loads.Do(companyID, func() (any, error) {
		return c.load(ctx, companyID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*measure.Graph), nil
}

func (c *UnitGraphCache) fresh(e graphEntry) bool {
	return c.ttl <= 0 || c.now().Sub(e.loadedAt) < c.ttl
}

func (c *UnitGraphCache) load(ctx context.Context, companyID string) (*measure.Graph, error) {
	c.mu.RLock()
	epoch, gen := c.epoch, c.gens[companyID]
	c.mu.RUnlock()

	units, err := c.loader.ListUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("load units: %w", err)
	}

	graph, issues := measure.NewGraphLenient(units, c.opts...)
	for _, issue := range issues {
		logger.Error(ctx, "unit graph integrity failure", "company_id", companyID, "error", issue)
	}

	// An invalidation during the load means graph may already be stale:
	// hand it to this caller but do not cache it.
	c.mu.Lock()
	current := c.epoch == epoch && c.gens[companyID] == gen
	if current {
		c.entries[companyID] = graphEntry{graph: graph, loadedAt: c.now()}
	}
	c.mu.Unlock()
	if !current {
		logger.Debug(ctx, "unit graph invalidated during load, not cached", "company_id", companyID)
	}

	logger.Info(ctx, "unit graph loaded", "company_id", companyID, "units", graph.Len(), "broken", len(issues))
	return graph, nil
}

// Invalidate drops the graph of one company, or of every company when
// companyID is empty.
func (c *UnitGraphCache) Invalidate(companyID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if companyID == "" {
		c.entries = make(map[string]graphEntry)
		c.epoch++
		return
	}
	delete(c.entries, companyID)
	c.gens[companyID]++
}

// Len returns the number of cached graphs.
func (c *UnitGraphCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Start begins listening for units_changed notifications on a dedicated
// pool connection.
func (c *UnitGraphCache) Start(ctx context.Context, pool *pgxpool.Pool) {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if c.started {
		return
	}
	c.pool = pool
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true

	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "unit graph cache listening", "channel", UnitsChangedChannel)
}

// Stop gracefully stops the listener.
func (c *UnitGraphCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	cancel()
	c.wg.Wait()
	logger.Info(context.Background(), "unit graph cache stopped")
}

func (c *UnitGraphCache) listenLoop() {
	defer c.wg.Done()

	for c.ctx.Err() == nil {
		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(c.ctx, "LISTEN "+UnitsChangedChannel); err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		// Anything may have changed while we were not listening.
		c.Invalidate("")
		c.waitForNotifications(conn)
		conn.Release()
	}
}

func (c *UnitGraphCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		// Timeout so shutdown is noticed between notifications.
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if pgconn.Timeout(err) {
				continue
			}
			logger.Warn(c.ctx, "LISTEN connection lost", "error", err)
			return
		}

		c.handleNotification(notification.Channel, notification.Payload)
	}
}

func (c *UnitGraphCache) handleNotification(channel, payload string) {
	if channel != UnitsChangedChannel {
		return
	}
	companyID := strings.TrimSpace(payload)
	c.Invalidate(companyID)
	logger.Debug(context.Background(), "unit graph invalidated", "company_id", companyID)
}
