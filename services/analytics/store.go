package analytics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"publisher-revenuecore/pkg/db/option"
	"publisher-revenuecore/pkg/errutil"
	"publisher-revenuecore/pkg/repository"
)

// Filter selects the events that count toward one publisher's report.
type Filter struct {
	AppIDs   []string
	DateFrom *time.Time
	DateTo   *time.Time
}

// EventStore is the read-only boundary to the analytics event rows.
type EventStore interface {
	ListEvents(ctx context.Context, filter Filter) ([]*AnalyticsEvent, error)
}

type Store struct {
	events repository.Repository[AnalyticsEvent]
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		events: repository.ProvideStore[AnalyticsEvent](db),
	}
}

// RecordEvents appends a batch of rows delivered by the analytics pipeline.
// The event stream is append-only; there is no update path.
func (s *Store) RecordEvents(ctx context.Context, events []*AnalyticsEvent) error {
	if err := s.events.BatchCreate(ctx, events); err != nil {
		zap.L().Error("failed to record analytics events", zap.Int("count", len(events)), zap.Error(err))
		return errutil.Unavailable("event store write failed", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, filter Filter) ([]*AnalyticsEvent, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	}

	// A publisher with no registered apps has no events by definition.
	if len(filter.AppIDs) == 0 {
		return []*AnalyticsEvent{}, nil
	}

	queryOpts := []option.QueryOption{
		option.ApplyOperator(option.Condition{Field: "app_id", Operator: option.IN, Value: filter.AppIDs}),
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "full_date",
			OrderBy: "asc",
			Allow:   map[string]bool{"full_date": true},
		}),
	}
	if filter.DateFrom != nil {
		queryOpts = append(queryOpts, option.ApplyOperator(option.Condition{
			Field: "full_date", Operator: option.GTE, Value: *filter.DateFrom,
		}))
	}
	if filter.DateTo != nil {
		queryOpts = append(queryOpts, option.ApplyOperator(option.Condition{
			Field: "full_date", Operator: option.LTE, Value: *filter.DateTo,
		}))
	}

	events, err := s.events.Find(ctx, &AnalyticsEvent{}, queryOpts...)
	if err != nil {
		zap.L().With(opts...).Error("failed to query analytics events", zap.Error(err))
		return nil, errutil.Unavailable("event store query failed", err)
	}

	return events, nil
}
