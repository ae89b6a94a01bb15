package reports

import "time"

// BalanceRow is one product/location pair with resolved display names.
type BalanceRow struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	LocationID   string `json:"location_id"`
	LocationName string `json:"location_name"`
	Qty          int64  `json:"qty"`
}

// Total aggregates quantity per product or per location.
type Total struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Qty  int64  `json:"qty"`
}

// BalanceReport is the full derived stock view.
type BalanceReport struct {
	Rows           []BalanceRow `json:"rows"`
	ProductTotals  []Total      `json:"product_totals"`
	LocationTotals []Total      `json:"location_totals"`
	GeneratedAt    time.Time    `json:"generated_at"`
}

// StockStatus buckets products by their total on-hand quantity. Thresholds
// follow operator convention: above ten is healthy, one to ten is low,
// zero or below is out.
type StockStatus struct {
	WellStocked int `json:"well_stocked"`
	LowStock    int `json:"low_stock"`
	OutOfStock  int `json:"out_of_stock"`
}

// TrendPoint is one day of movement activity.
type TrendPoint struct {
	Date      string `json:"date"`
	Inbound   int64  `json:"inbound"`
	Outbound  int64  `json:"outbound"`
	Transfers int64  `json:"transfers"`
	TotalQty  int64  `json:"total_qty"`
}

// ChartData backs the charts endpoint.
type ChartData struct {
	StockStatus StockStatus  `json:"stock_status"`
	Trend       []TrendPoint `json:"trend"`
	Days        int          `json:"days"`
}

// RecentMovement is a ledger entry decorated with display names for the
// dashboard feed.
type RecentMovement struct {
	ID           int64     `json:"id"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	FromLocation string    `json:"from_location,omitempty"`
	ToLocation   string    `json:"to_location,omitempty"`
	Qty          int64     `json:"qty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Dashboard is the landing-page summary.
type Dashboard struct {
	Products        int64            `json:"products"`
	Locations       int64            `json:"locations"`
	Movements       int64            `json:"movements"`
	ActiveBalances  int64            `json:"active_balances"`
	RecentMovements []RecentMovement `json:"recent_movements"`
	GeneratedAt     time.Time        `json:"generated_at"`
}
