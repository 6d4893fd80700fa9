package analytics

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// HistoryType partitions analytics events into earned revenue and
// clawback adjustments.
type HistoryType string

const (
	HistoryTypeReward         HistoryType = "reward"
	HistoryTypeReconciliation HistoryType = "reconciliation"
)

// categoryLabels is the fixed enumeration-to-label table used for the
// categorical breakdown. Unknown history types keep their raw value.
var categoryLabels = map[HistoryType]string{
	HistoryTypeReward:         "Rewards",
	HistoryTypeReconciliation: "Reconciliation",
}

func CategoryLabel(ht HistoryType) string {
	if label, ok := categoryLabels[ht]; ok {
		return label
	}
	return string(ht)
}

// AnalyticsEvent is one append-only revenue record. Rows are written by the
// ingestion pipeline; this core only ever reads them.
type AnalyticsEvent struct {
	ID                 snowflake.ID `gorm:"column:id;primaryKey;autoIncrement:false"`
	AppID              string       `gorm:"column:app_id;index;not null"`
	PublisherID        string       `gorm:"column:publisher_id;index;not null"`
	UserID             string       `gorm:"column:user_id;index"`
	RevenueUSD         float64      `gorm:"column:revenue_usd;not null;default:0"`
	RevenueAppCurrency float64      `gorm:"column:revenue_app_currency;not null;default:0"`
	Year               int          `gorm:"column:year;not null"`
	Month              int          `gorm:"column:month;not null"`
	Day                int          `gorm:"column:day;not null"`
	FullDate           time.Time    `gorm:"column:full_date;index;not null"`
	HistoryType        string       `gorm:"column:history_type;index;not null"`
	CreatedAt          time.Time    `gorm:"column:created_at;autoCreateTime"`
}

func (AnalyticsEvent) TableName() string { return "analytics_events" }

// Date returns the event's calendar date, falling back to the year/month/day
// columns when full_date was not populated by the ingest.
func (e *AnalyticsEvent) Date() time.Time {
	if !e.FullDate.IsZero() {
		return e.FullDate
	}
	return time.Date(e.Year, time.Month(e.Month), e.Day, 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive calendar window. A zero From or To leaves that
// end open.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// MonthlyRevenue is one time-series bucket of gross reward revenue.
type MonthlyRevenue struct {
	Month       string  `json:"month"`
	MonthNumber int     `json:"month_number"`
	Year        int     `json:"year"`
	Revenue     float64 `json:"revenue"`
}

// MonthlyUserGrowth counts distinct rewarded users per month.
type MonthlyUserGrowth struct {
	Month       string `json:"month"`
	MonthNumber int    `json:"month_number"`
	Year        int    `json:"year"`
	Users       int    `json:"users"`
}

type ScalarTotals struct {
	TotalRevenue             float64 `json:"total_revenue"`
	TotalRewardCount         int     `json:"total_reward_count"`
	TotalReconciliationCount int     `json:"total_reconciliation_count"`
}

// RevenueReport is the derived view consumed by the dashboard. It is
// recomputed from the event snapshot and never persisted by the core.
type RevenueReport struct {
	TotalsByMonth    []MonthlyRevenue    `json:"totals_by_month"`
	UserGrowth       []MonthlyUserGrowth `json:"user_growth"`
	TotalsByCategory map[string]float64  `json:"totals_by_category"`
	Totals           ScalarTotals        `json:"totals"`
}
