package dashboard

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"publisher-revenuecore/services/analytics"
	"publisher-revenuecore/services/project"
)

// Syncer decides when the aggregation engine runs for one publisher session
// and caches the last good report. Triggers are serialized per publisher:
// a newer trigger cancels the in-flight fetch, results arriving for a
// superseded trigger are discarded, and concurrent triggers over identical
// inputs coalesce into a single computation.
type Syncer struct {
	publisherID string
	events      analytics.EventStore
	snapshots   *SnapshotStore

	group singleflight.Group

	mu          sync.Mutex
	loaded      bool
	gen         uint64
	cancel      context.CancelFunc
	inflightKey string
	appIDs      map[string]struct{}
	window      *analytics.DateRange

	report     *analytics.RevenueReport
	computedAt time.Time
	fromCache  bool
	lastErr    error
}

func NewSyncer(publisherID string, events analytics.EventStore, snapshots *SnapshotStore) *Syncer {
	return &Syncer{
		publisherID: publisherID,
		events:      events,
		snapshots:   snapshots,
		appIDs:      map[string]struct{}{},
	}
}

// ReportState is what the UI reads: the last good report plus a
// distinguishable error state. Err set with Report non-nil means the view is
// stale but displayable.
type ReportState struct {
	Report     *analytics.RevenueReport
	ComputedAt time.Time
	FromCache  bool
	Err        error
}

func (s *Syncer) Report() ReportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ReportState{
		Report:     s.report,
		ComputedAt: s.computedAt,
		FromCache:  s.fromCache,
		Err:        s.lastErr,
	}
}

// OnProjectSetChanged recomputes only when the app-id set actually changed.
// Reordered or renamed projects with the same app ids are not a trigger.
func (s *Syncer) OnProjectSetChanged(ctx context.Context, projects []*project.Project) error {
	set := project.AppIDSet(projects)

	s.mu.Lock()
	// The first successful load always computes; after that only a real
	// change in the app-id set does.
	if s.loaded && equalSets(s.appIDs, set) {
		s.mu.Unlock()
		return nil
	}
	s.loaded = true
	s.appIDs = set
	s.mu.Unlock()

	return s.recompute(ctx)
}

// OnDateRangeApplied installs the window and recomputes. An explicit Apply
// always recomputes, matching the user's intent.
func (s *Syncer) OnDateRangeApplied(ctx context.Context, from, to time.Time) error {
	window := &analytics.DateRange{From: from, To: to}

	s.mu.Lock()
	s.window = window
	s.mu.Unlock()

	return s.recompute(ctx)
}

// Refresh recomputes over the current inputs.
func (s *Syncer) Refresh(ctx context.Context) error {
	return s.recompute(ctx)
}

func (s *Syncer) recompute(ctx context.Context) error {
	s.mu.Lock()
	// Before the first project load there is nothing to compute over, and an
	// all-zero report would clobber a warmed snapshot view.
	if !s.loaded {
		s.mu.Unlock()
		return nil
	}
	appIDs := sortedIDs(s.appIDs)
	window := s.window
	key := computeKey(appIDs, window)

	// Cancel a stale in-flight fetch, but let an identical one keep running:
	// singleflight will attach this caller to it.
	if s.cancel != nil && key != s.inflightKey {
		s.cancel()
		s.cancel = nil
	}

	s.gen++
	myGen := s.gen

	runCtx := ctx
	if key != s.inflightKey || s.cancel == nil {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithCancel(ctx)
		s.cancel = cancel
	}
	s.inflightKey = key
	s.mu.Unlock()

	v, err, shared := s.group.Do(key, func() (any, error) {
		filter := analytics.Filter{AppIDs: appIDs}
		if window != nil {
			if !window.From.IsZero() {
				from := window.From
				filter.DateFrom = &from
			}
			if !window.To.IsZero() {
				to := window.To
				filter.DateTo = &to
			}
		}

		events, err := s.events.ListEvents(runCtx, filter)
		if err != nil {
			return nil, err
		}
		return analytics.Aggregate(events, window), nil
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if myGen != s.gen {
		// A newer trigger superseded this one; its result wins.
		return nil
	}

	s.inflightKey = ""
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		// Keep the last good report on adapter failure so the dashboard
		// still has something to show.
		s.lastErr = err
		zap.L().Warn("revenue report recompute failed",
			zap.String("publisher_id", s.publisherID),
			zap.Bool("coalesced", shared),
			zap.Error(err))
		return err
	}

	s.report = v.(*analytics.RevenueReport)
	s.computedAt = time.Now()
	s.fromCache = false
	s.lastErr = nil

	if s.snapshots != nil {
		s.snapshots.Save(s.publisherID, s.report)
	}

	return nil
}

// WarmFromSnapshot restores the last persisted report as a displayable
// stale view, without marking the syncer computed. No-op once a live report
// exists or when no snapshot store is wired.
func (s *Syncer) WarmFromSnapshot(ctx context.Context) {
	if s.snapshots == nil {
		return
	}

	s.mu.Lock()
	warmed := s.report != nil
	s.mu.Unlock()
	if warmed {
		return
	}

	report, err := s.snapshots.Load(ctx, s.publisherID)
	if err != nil || report == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		s.report = report
		s.fromCache = true
	}
}

func equalSets(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func computeKey(appIDs []string, window *analytics.DateRange) string {
	var b strings.Builder
	b.WriteString(strings.Join(appIDs, ","))
	if window != nil {
		b.WriteString("|")
		b.WriteString(window.From.Format(time.RFC3339))
		b.WriteString("..")
		b.WriteString(window.To.Format(time.RFC3339))
	}
	return b.String()
}
