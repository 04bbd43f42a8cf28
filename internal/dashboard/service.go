package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	cacheKey = "helios:dashboard:stats"
	cacheTTL = 30 * time.Second
)

// Stats is the landing-page summary. Figures are computed per request and
// cached briefly in Redis so a busy morning does not hammer PostgreSQL.
type Stats struct {
	SalesToday      int64     `json:"sales_today"`
	RevenueToday    float64   `json:"revenue_today"`
	RevenueDisplay  string    `json:"revenue_display"`
	PendingSales    int64     `json:"pending_sales"`
	LowStockItems   int64     `json:"low_stock_items"`
	OpenShortages   int64     `json:"open_shortages"`
	ActiveInstalls  int64     `json:"active_installations"`
	ActivePartners  int64     `json:"active_partners"`
	BarterThisMonth int64     `json:"barter_this_month"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Service aggregates cross-module figures for the dashboard.
type Service struct {
	db      *pgxpool.Pool
	cache   *redis.Client
	printer *message.Printer
	unit    currency.Unit
}

// NewService constructs a Service. currencyCode selects the display currency
// for revenue figures, e.g. "AMD" or "USD".
func NewService(db *pgxpool.Pool, cache *redis.Client, currencyCode string) (*Service, error) {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, err
	}
	return &Service{
		db:      db,
		cache:   cache,
		printer: message.NewPrinter(language.English),
		unit:    unit,
	}, nil
}

// Stats returns the summary, serving from cache when fresh.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	// Cache trouble is never fatal; fall through to the database.
	if data, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
		var cached Stats
		if json.Unmarshal(data, &cached) == nil {
			return cached, nil
		}
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return Stats{}, err
	}

	if payload, err := json.Marshal(stats); err == nil {
		_ = s.cache.Set(ctx, cacheKey, payload, cacheTTL).Err()
	}
	return stats, nil
}

func (s *Service) compute(ctx context.Context) (Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)

	count := func(dst *int64, query string) {
		g.Go(func() error {
			return s.db.QueryRow(ctx, query).Scan(dst)
		})
	}

	count(&stats.SalesToday, `SELECT COUNT(*) FROM sales WHERE created_at >= CURRENT_DATE`)
	count(&stats.PendingSales, `SELECT COUNT(*) FROM sales WHERE status = 'pending'`)
	count(&stats.LowStockItems, `SELECT COUNT(*) FROM inventory_records WHERE quantity < min_stock_level`)
	count(&stats.OpenShortages, `SELECT COUNT(*) FROM shortage_requests WHERE status IN ('requested', 'approved', 'shipped')`)
	count(&stats.ActiveInstalls, `SELECT COUNT(*) FROM installations WHERE status IN ('scheduled', 'in_progress')`)
	count(&stats.ActivePartners, `SELECT COUNT(*) FROM partners WHERE is_active`)
	count(&stats.BarterThisMonth, `SELECT COUNT(*) FROM barter_transactions WHERE created_at >= date_trunc('month', CURRENT_DATE)`)

	g.Go(func() error {
		return s.db.QueryRow(ctx,
			`SELECT COALESCE(SUM(total), 0) FROM sales WHERE created_at >= CURRENT_DATE AND status <> 'cancelled'`,
		).Scan(&stats.RevenueToday)
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	stats.RevenueDisplay = s.FormatMoney(stats.RevenueToday)
	stats.GeneratedAt = time.Now()
	return stats, nil
}

// FormatMoney renders an amount in the configured display currency.
func (s *Service) FormatMoney(amount float64) string {
	return s.printer.Sprint(currency.Symbol(s.unit.Amount(amount)))
}

// Invalidate drops the cached summary. Mutating modules may call it after
// large imports so the next dashboard view is current.
func (s *Service) Invalidate(ctx context.Context) error {
	err := s.cache.Del(ctx, cacheKey).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
