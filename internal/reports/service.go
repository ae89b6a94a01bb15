package reports

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultTrendDays   = 30
	recentFeedSize     = 5
	lowStockThreshold  = 10
	outOfStockBoundary = 0
)

// Service builds derived reports. Results are cached under the versioned key
// scheme and concurrent builds of the same report collapse into one query.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
	now   func() time.Time
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: func() time.Time { return time.Now().UTC() }}
}

// BalanceReport returns every non-zero product/location balance with resolved
// names plus per-product and per-location totals.
func (s *Service) BalanceReport(ctx context.Context) (BalanceReport, error) {
	key, err := s.cache.BuildKey(ctx, keyBalanceReport())
	if err != nil {
		return BalanceReport{}, err
	}
	result, err, _ := s.group.Do(key, func() (any, error) {
		var report BalanceReport
		err := s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
			return s.buildBalanceReport(ctx)
		})
		return report, err
	})
	if err != nil {
		return BalanceReport{}, err
	}
	return result.(BalanceReport), nil
}

func (s *Service) buildBalanceReport(ctx context.Context) (BalanceReport, error) {
	rows, err := s.repo.BalanceRows(ctx)
	if err != nil {
		return BalanceReport{}, err
	}
	if rows == nil {
		rows = []BalanceRow{}
	}

	return BalanceReport{
		Rows:           rows,
		ProductTotals:  totalsBy(rows, func(r BalanceRow) (string, string) { return r.ProductID, r.ProductName }),
		LocationTotals: totalsBy(rows, func(r BalanceRow) (string, string) { return r.LocationID, r.LocationName }),
		GeneratedAt:    s.now(),
	}, nil
}

// Charts returns the stock-status breakdown and the daily movement trend for
// the requested window.
func (s *Service) Charts(ctx context.Context, days int) (ChartData, error) {
	if days <= 0 || days > 365 {
		days = defaultTrendDays
	}
	key, err := s.cache.BuildKey(ctx, keyCharts(days))
	if err != nil {
		return ChartData{}, err
	}
	result, err, _ := s.group.Do(key, func() (any, error) {
		var charts ChartData
		err := s.cache.FetchJSON(ctx, key, &charts, func(ctx context.Context) (interface{}, error) {
			return s.buildCharts(ctx, days)
		})
		return charts, err
	})
	if err != nil {
		return ChartData{}, err
	}
	return result.(ChartData), nil
}

func (s *Service) buildCharts(ctx context.Context, days int) (ChartData, error) {
	rows, err := s.repo.BalanceRows(ctx)
	if err != nil {
		return ChartData{}, err
	}

	since := s.now().AddDate(0, 0, -days)
	trend, err := s.repo.MovementTrend(ctx, since)
	if err != nil {
		return ChartData{}, err
	}
	if trend == nil {
		trend = []TrendPoint{}
	}

	return ChartData{
		StockStatus: bucketStockStatus(rows),
		Trend:       trend,
		Days:        days,
	}, nil
}

// Dashboard returns entity counts, the number of active stock positions and
// the latest ledger activity.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	key, err := s.cache.BuildKey(ctx, keyDashboard())
	if err != nil {
		return Dashboard{}, err
	}
	result, err, _ := s.group.Do(key, func() (any, error) {
		var dash Dashboard
		err := s.cache.FetchJSON(ctx, key, &dash, func(ctx context.Context) (interface{}, error) {
			return s.buildDashboard(ctx)
		})
		return dash, err
	})
	if err != nil {
		return Dashboard{}, err
	}
	return result.(Dashboard), nil
}

func (s *Service) buildDashboard(ctx context.Context) (Dashboard, error) {
	products, locations, movements, err := s.repo.Counts(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	rows, err := s.repo.BalanceRows(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	var active int64
	for _, r := range rows {
		if r.Qty > 0 {
			active++
		}
	}

	recent, err := s.repo.RecentMovements(ctx, recentFeedSize)
	if err != nil {
		return Dashboard{}, err
	}
	if recent == nil {
		recent = []RecentMovement{}
	}

	return Dashboard{
		Products:        products,
		Locations:       locations,
		Movements:       movements,
		ActiveBalances:  active,
		RecentMovements: recent,
		GeneratedAt:     s.now(),
	}, nil
}

// WarmUp prebuilds the cached reports; called from the background worker.
// trendDays selects the chart window and falls back to the default when out
// of range.
func (s *Service) WarmUp(ctx context.Context, trendDays int) error {
	if _, err := s.BalanceReport(ctx); err != nil {
		return err
	}
	if _, err := s.Charts(ctx, trendDays); err != nil {
		return err
	}
	_, err := s.Dashboard(ctx)
	return err
}

// bucketStockStatus classifies each product by total quantity across all
// locations.
func bucketStockStatus(rows []BalanceRow) StockStatus {
	perProduct := map[string]int64{}
	for _, r := range rows {
		perProduct[r.ProductID] += r.Qty
	}
	var status StockStatus
	for _, qty := range perProduct {
		switch {
		case qty > lowStockThreshold:
			status.WellStocked++
		case qty > outOfStockBoundary:
			status.LowStock++
		default:
			status.OutOfStock++
		}
	}
	return status
}

func totalsBy(rows []BalanceRow, keyFn func(BalanceRow) (id, name string)) []Total {
	byID := map[string]*Total{}
	for _, r := range rows {
		id, name := keyFn(r)
		if t, ok := byID[id]; ok {
			t.Qty += r.Qty
			continue
		}
		byID[id] = &Total{ID: id, Name: name, Qty: r.Qty}
	}
	out := make([]Total, 0, len(byID))
	for _, t := range byID {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
