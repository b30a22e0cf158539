package services_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"movierama/internal/apperr"
	"movierama/internal/cache"
	"movierama/internal/config"
	"movierama/internal/models"
	"movierama/internal/services"
	"movierama/internal/store"
	"movierama/internal/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	gw       store.Gateway
	pages    *cache.LRU[models.RankedPage]
	profiles *cache.LRU[models.Profile]
	inv      *services.Invalidator
	ledger   *services.Ledger
	engine   *services.RankingEngine
	pager    *services.Pager
	items    *services.ItemService
	profile  *services.ProfileService
}

var (
	testVote   = config.VoteConfig{MaxAttempts: 3, Backoff: time.Millisecond}
	testPaging = config.PagingConfig{DefaultSize: 10, MaxSize: 100}
)

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, nil)
}

// newFixtureWith lets a test decorate the gateway.
func newFixtureWith(t *testing.T, wrap func(store.Gateway) store.Gateway) *fixture {
	t.Helper()
	db := testutil.TestDB(t)
	var gw store.Gateway = store.New(db)
	if wrap != nil {
		gw = wrap(gw)
	}

	pages, err := cache.NewLRU[models.RankedPage](100, cache.DefaultTTL())
	require.NoError(t, err)
	profiles, err := cache.NewLRU[models.Profile](100, cache.DefaultTTL())
	require.NoError(t, err)

	log := zap.NewNop()
	inv := services.NewInvalidator(pages, profiles, log)
	engine := services.NewRankingEngine(gw, testPaging)
	return &fixture{
		db:       db,
		gw:       gw,
		pages:    pages,
		profiles: profiles,
		inv:      inv,
		ledger:   services.NewLedger(gw, inv, testVote, log, nil),
		engine:   engine,
		pager:    services.NewPager(engine, gw, pages, log),
		items:    services.NewItemService(gw, inv, log),
		profile:  services.NewProfileService(gw, profiles),
	}
}

func (f *fixture) counts(t *testing.T, itemID uint) store.Counts {
	t.Helper()
	c, err := f.gw.CountReactions(context.Background(), []uint{itemID})
	require.NoError(t, err)
	return c[itemID]
}

// conflictGateway fails the first n CreateVote calls the way a concurrent
// insert of the same (voter, item) row would.
type conflictGateway struct {
	store.Gateway
	remaining *atomic.Int32
	creates   *atomic.Int32
}

func newConflictGateway(n int32) func(store.Gateway) store.Gateway {
	return func(gw store.Gateway) store.Gateway {
		remaining := new(atomic.Int32)
		remaining.Store(n)
		return &conflictGateway{Gateway: gw, remaining: remaining, creates: new(atomic.Int32)}
	}
}

func (g *conflictGateway) Transaction(ctx context.Context, fn func(tx store.Gateway) error) error {
	return g.Gateway.Transaction(ctx, func(tx store.Gateway) error {
		return fn(&conflictGateway{Gateway: tx, remaining: g.remaining, creates: g.creates})
	})
}

func (g *conflictGateway) CreateVote(ctx context.Context, vote *models.Vote) error {
	g.creates.Add(1)
	if g.remaining.Add(-1) >= 0 {
		return apperr.Wrapf(apperr.ErrConcurrencyConflict, "duplicate vote")
	}
	return g.Gateway.CreateVote(ctx, vote)
}

// countingGateway records how often the listing queries run.
type countingGateway struct {
	store.Gateway
	counts *atomic.Int32
	pages  *atomic.Int32
}

func newCountingGateway() (func(store.Gateway) store.Gateway, *countingGateway) {
	cg := &countingGateway{counts: new(atomic.Int32), pages: new(atomic.Int32)}
	return func(gw store.Gateway) store.Gateway {
		cg.Gateway = gw
		return cg
	}, cg
}

func (g *countingGateway) CountItems(ctx context.Context, scope models.Scope) (int64, error) {
	g.counts.Add(1)
	return g.Gateway.CountItems(ctx, scope)
}

func (g *countingGateway) PageItemsByField(ctx context.Context, key models.SortKey, dir models.Direction, offset, limit int, scope models.Scope) ([]models.Item, error) {
	g.pages.Add(1)
	return g.Gateway.PageItemsByField(ctx, key, dir, offset, limit, scope)
}

func (g *countingGateway) PageItemsByAggregate(ctx context.Context, kind models.ReactionKind, dir models.Direction, offset, limit int, scope models.Scope) ([]store.RankedRow, error) {
	g.pages.Add(1)
	return g.Gateway.PageItemsByAggregate(ctx, kind, dir, offset, limit, scope)
}

// pausingGateway parks the first FindUsers call until release is closed.
type pausingGateway struct {
	store.Gateway
	paused  atomic.Bool
	parked  chan struct{}
	release chan struct{}
}

func newPausingGateway() (func(store.Gateway) store.Gateway, *pausingGateway) {
	pg := &pausingGateway{parked: make(chan struct{}), release: make(chan struct{})}
	return func(gw store.Gateway) store.Gateway {
		pg.Gateway = gw
		return pg
	}, pg
}

func (g *pausingGateway) FindUsers(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	if g.paused.CompareAndSwap(false, true) {
		close(g.parked)
		<-g.release
	}
	return g.Gateway.FindUsers(ctx, ids)
}

// cancelAfterCommitGateway cancels the caller's context as soon as a
// transaction has committed, like a client hanging up mid-response.
type cancelAfterCommitGateway struct {
	store.Gateway
	cancel context.CancelFunc
}

func (g *cancelAfterCommitGateway) Transaction(ctx context.Context, fn func(tx store.Gateway) error) error {
	err := g.Gateway.Transaction(ctx, fn)
	if err == nil {
		g.cancel()
	}
	return err
}

// ctxCache refuses to invalidate under a done context, as a network
// backend would.
type ctxCache[V any] struct {
	cache.Cache[V]
}

func (c ctxCache[V]) InvalidateRegion(ctx context.Context, region cache.Region) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Cache.InvalidateRegion(ctx, region)
}

// newCancellingFixture returns a fixture whose ledger and item service see
// a context that is cancelled right after their transaction commits.
func newCancellingFixture(t *testing.T) (*fixture, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	f := newFixtureWith(t, func(gw store.Gateway) store.Gateway {
		return &cancelAfterCommitGateway{Gateway: gw, cancel: cancel}
	})
	log := zap.NewNop()
	inv := services.NewInvalidator(
		ctxCache[models.RankedPage]{f.pages},
		ctxCache[models.Profile]{f.profiles},
		log,
	)
	f.ledger = services.NewLedger(f.gw, inv, testVote, log, nil)
	f.items = services.NewItemService(f.gw, inv, log)
	return f, ctx
}
