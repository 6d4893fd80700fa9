package analytics

import (
	"math"
	"sort"
	"time"
)

type monthKey struct {
	year  int
	month int
}

// Aggregate turns an event snapshot into a RevenueReport. It is pure: the
// same snapshot and window always produce the same report, and empty input
// yields an all-zero report rather than an error.
//
// The monthly series and user growth cover reward events only; the scalar
// total sums both reward and reconciliation revenue. Reconciliation is a
// clawback tracked as its own category, not a bucket in the time series.
func Aggregate(events []*AnalyticsEvent, window *DateRange) *RevenueReport {
	report := &RevenueReport{
		TotalsByMonth:    []MonthlyRevenue{},
		UserGrowth:       []MonthlyUserGrowth{},
		TotalsByCategory: map[string]float64{},
	}

	revenueByMonth := map[monthKey]float64{}
	usersByMonth := map[monthKey]map[string]struct{}{}
	rawByCategory := map[string]float64{}

	for _, event := range events {
		if event == nil {
			continue
		}
		// Callers are expected to pre-filter, but the engine re-checks the
		// window rather than trusting the adapter.
		if window != nil && !window.Contains(event.Date()) {
			continue
		}

		revenue := sanitize(event.RevenueUSD)
		ht := HistoryType(event.HistoryType)

		rawByCategory[CategoryLabel(ht)] += revenue
		report.Totals.TotalRevenue += revenue

		switch ht {
		case HistoryTypeReward:
			report.Totals.TotalRewardCount++

			key := monthKey{year: event.Year, month: event.Month}
			revenueByMonth[key] += revenue
			if event.UserID != "" {
				if usersByMonth[key] == nil {
					usersByMonth[key] = map[string]struct{}{}
				}
				usersByMonth[key][event.UserID] = struct{}{}
			}
		case HistoryTypeReconciliation:
			report.Totals.TotalReconciliationCount++
		}
	}

	keys := make([]monthKey, 0, len(revenueByMonth))
	for key := range revenueByMonth {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	for _, key := range keys {
		label := monthLabel(key.month)
		report.TotalsByMonth = append(report.TotalsByMonth, MonthlyRevenue{
			Month:       label,
			MonthNumber: key.month,
			Year:        key.year,
			Revenue:     revenueByMonth[key],
		})
		report.UserGrowth = append(report.UserGrowth, MonthlyUserGrowth{
			Month:       label,
			MonthNumber: key.month,
			Year:        key.year,
			Users:       len(usersByMonth[key]),
		})
	}

	// Category figures are display-only and rounded half-up per bucket, so
	// their sum may drift from the grand total by up to one unit per category.
	for label, revenue := range rawByCategory {
		report.TotalsByCategory[label] = roundHalfUp(revenue)
	}

	return report
}

func monthLabel(month int) string {
	if month < 1 || month > 12 {
		return "???"
	}
	return time.Month(month).String()[:3]
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// sanitize maps missing or malformed revenue to zero so a single bad row
// cannot poison the report.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
