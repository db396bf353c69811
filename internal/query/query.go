// Package query is the data-fetching layer between the UI and the
// services. Reads go through per-entity LRU+TTL caches with
// singleflight deduplication, so concurrent callers asking for the
// same page share one network round trip. Mutations write through the
// services and invalidate every entity whose cached reads they could
// have made stale.
package query

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"contas/internal/api"
	"contas/internal/cache"
	"contas/internal/config"
	"contas/internal/core"
	"contas/internal/log"
	"contas/internal/services"
)

// Notifier receives transient user-facing messages, the terminal
// analog of a toast.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type noopNotifier struct{}

func (noopNotifier) Success(string) {}
func (noopNotifier) Error(string)   {}

const defaultCacheSize = 64

type Queries struct {
	transactions *services.TransactionService
	categories   *services.CategoryService

	txCache  *cache.LRUCache[services.TransactionList]
	catCache *cache.LRUCache[[]core.Category]
	sumCache *cache.LRUCache[core.MonthlySummary]

	flight singleflight.Group

	// gens tracks an invalidation generation per entity. A fetch
	// snapshots the generation before going to the network and only
	// caches its result if the entity was not invalidated meanwhile,
	// so a slow response never resurrects stale data.
	mu   sync.Mutex
	gens map[string]uint64

	notifier         Notifier
	onSessionExpired func()
	logger           *log.Logger
}

func New(tx *services.TransactionService, cat *services.CategoryService, cfg *config.Config, manager *cache.Manager, logger *log.Logger) *Queries {
	q := &Queries{
		transactions: tx,
		categories:   cat,
		txCache:      cache.NewLRUCache[services.TransactionList](defaultCacheSize, cfg.TransactionCacheTTL),
		catCache:     cache.NewLRUCache[[]core.Category](defaultCacheSize, cfg.CategoryCacheTTL),
		sumCache:     cache.NewLRUCache[core.MonthlySummary](defaultCacheSize, cfg.SummaryCacheTTL),
		gens:         make(map[string]uint64),
		notifier:     noopNotifier{},
		logger:       logger.WithComponent(log.ComponentQuery),
	}
	if manager != nil {
		manager.Register(q.txCache)
		manager.Register(q.catCache)
		manager.Register(q.sumCache)
	}
	return q
}

// SetNotifier routes transient messages to the given sink.
func (q *Queries) SetNotifier(n Notifier) {
	if n != nil {
		q.notifier = n
	}
}

// SetSessionExpiredHandler registers the hook run when any fetch or
// mutation fails with an expired session. The auth layer owns the
// teardown; the query layer only reports.
func (q *Queries) SetSessionExpiredHandler(fn func()) {
	q.onSessionExpired = fn
}

func (q *Queries) generation(entity string) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.gens[entity]
}

func (q *Queries) bump(entity string) {
	q.mu.Lock()
	q.gens[entity]++
	q.mu.Unlock()
}

func (q *Queries) fresh(entity string, gen uint64) bool {
	return q.generation(entity) == gen
}

func (q *Queries) checkSession(err error) {
	if errors.Is(err, api.ErrSessionExpired) && q.onSessionExpired != nil {
		q.onSessionExpired()
	}
}

// Transactions returns one page of transactions, from cache when
// possible. Concurrent calls for the same key share a single fetch.
func (q *Queries) Transactions(ctx context.Context, filter core.TransactionFilter, page core.Page) (services.TransactionList, error) {
	key := transactionsKey(filter, page)
	if list, ok := q.txCache.Get(key); ok {
		q.logger.DebugContext(ctx, "cache hit", log.FieldCacheKey, key)
		return list, nil
	}

	gen := q.generation(entityTransactions)
	v, err, shared := q.flight.Do(key, func() (any, error) {
		list, err := q.transactions.List(ctx, filter, page)
		if err != nil {
			return nil, err
		}
		if q.fresh(entityTransactions, gen) {
			q.txCache.Set(key, list)
		}
		return list, nil
	})
	if err != nil {
		q.checkSession(err)
		return services.TransactionList{}, err
	}
	if shared {
		q.logger.DebugContext(ctx, "fetch deduplicated", log.FieldCacheKey, key)
	}
	return v.(services.TransactionList), nil
}

func (q *Queries) Transaction(ctx context.Context, id int64) (core.Transaction, error) {
	tx, err := q.transactions.Get(ctx, id)
	if err != nil {
		q.checkSession(err)
		return core.Transaction{}, err
	}
	return tx, nil
}

// Categories returns the full category list, cached as one entry.
func (q *Queries) Categories(ctx context.Context) ([]core.Category, error) {
	if cats, ok := q.catCache.Get(categoriesKey); ok {
		return cats, nil
	}

	gen := q.generation(entityCategories)
	v, err, _ := q.flight.Do(categoriesKey, func() (any, error) {
		cats, err := q.categories.List(ctx)
		if err != nil {
			return nil, err
		}
		if q.fresh(entityCategories, gen) {
			q.catCache.Set(categoriesKey, cats)
		}
		return cats, nil
	})
	if err != nil {
		q.checkSession(err)
		return nil, err
	}
	return v.([]core.Category), nil
}

// MonthlySummary returns the cached totals for one month.
func (q *Queries) MonthlySummary(ctx context.Context, ym core.YearMonth) (core.MonthlySummary, error) {
	key := summaryKey(ym)
	if sum, ok := q.sumCache.Get(key); ok {
		return sum, nil
	}

	gen := q.generation(entitySummaries)
	v, err, _ := q.flight.Do(key, func() (any, error) {
		sum, err := q.transactions.MonthlySummary(ctx, ym)
		if err != nil {
			return nil, err
		}
		if q.fresh(entitySummaries, gen) {
			q.sumCache.Set(key, sum)
		}
		return sum, nil
	})
	if err != nil {
		q.checkSession(err)
		return core.MonthlySummary{}, err
	}
	return v.(core.MonthlySummary), nil
}

// CreateTransaction writes through and invalidates transactions and
// summaries; the next read of either refetches.
func (q *Queries) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	created, err := q.transactions.Create(ctx, tx)
	if err != nil {
		q.checkSession(err)
		q.notifier.Error("could not create transaction: " + err.Error())
		return core.Transaction{}, err
	}
	q.invalidateTransactions(ctx)
	q.notifier.Success("transaction created")
	return created, nil
}

func (q *Queries) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	updated, err := q.transactions.Update(ctx, tx)
	if err != nil {
		q.checkSession(err)
		q.notifier.Error("could not update transaction: " + err.Error())
		return core.Transaction{}, err
	}
	q.invalidateTransactions(ctx)
	q.notifier.Success("transaction updated")
	return updated, nil
}

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	if err := q.transactions.Delete(ctx, id); err != nil {
		q.checkSession(err)
		q.notifier.Error("could not delete transaction: " + err.Error())
		return err
	}
	q.invalidateTransactions(ctx)
	q.notifier.Success("transaction deleted")
	return nil
}

// CreateCategory invalidates categories plus every view that embeds
// them: cached transactions carry category names and the summary
// groups by category.
func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	created, err := q.categories.Create(ctx, c)
	if err != nil {
		q.checkSession(err)
		q.notifier.Error("could not create category: " + err.Error())
		return core.Category{}, err
	}
	q.invalidateCategories(ctx)
	q.notifier.Success("category created")
	return created, nil
}

func (q *Queries) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	updated, err := q.categories.Update(ctx, c)
	if err != nil {
		q.checkSession(err)
		q.notifier.Error("could not update category: " + err.Error())
		return core.Category{}, err
	}
	q.invalidateCategories(ctx)
	q.notifier.Success("category updated")
	return updated, nil
}

func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	if err := q.categories.Delete(ctx, id); err != nil {
		q.checkSession(err)
		if api.StatusCode(err) == 409 {
			q.notifier.Error("category is still referenced by transactions")
		} else {
			q.notifier.Error("could not delete category: " + err.Error())
		}
		return err
	}
	q.invalidateCategories(ctx)
	q.notifier.Success("category deleted")
	return nil
}

// Invalidate drops every cached entity. Called on logout so the next
// session never sees another user's data.
func (q *Queries) Invalidate() {
	q.bump(entityTransactions)
	q.bump(entityCategories)
	q.bump(entitySummaries)
	q.txCache.Flush()
	q.catCache.Flush()
	q.sumCache.Flush()
}

func (q *Queries) invalidateTransactions(ctx context.Context) {
	q.bump(entityTransactions)
	q.bump(entitySummaries)
	n := q.txCache.Flush() + q.sumCache.Flush()
	q.logger.DebugContext(ctx, "invalidated", log.FieldEntity, entityTransactions, "entries", n)
}

func (q *Queries) invalidateCategories(ctx context.Context) {
	q.bump(entityCategories)
	q.bump(entityTransactions)
	q.bump(entitySummaries)
	n := q.catCache.Flush() + q.txCache.Flush() + q.sumCache.Flush()
	q.logger.DebugContext(ctx, "invalidated", log.FieldEntity, entityCategories, "entries", n)
}
