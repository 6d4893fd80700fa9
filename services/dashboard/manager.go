package dashboard

import (
	"context"
	"sync"

	"publisher-revenuecore/services/analytics"
	"publisher-revenuecore/services/project"
)

// Manager hands out one Syncer per publisher session and runs the first-load
// trigger: loading the project set and, when redis has one, warming the last
// persisted report.
type Manager struct {
	events    analytics.EventStore
	registry  project.Registry
	snapshots *SnapshotStore

	mu      sync.Mutex
	syncers map[string]*Syncer
}

func NewManager(events analytics.EventStore, registry project.Registry, snapshots *SnapshotStore) *Manager {
	return &Manager{
		events:    events,
		registry:  registry,
		snapshots: snapshots,
		syncers:   map[string]*Syncer{},
	}
}

func (m *Manager) Syncer(publisherID string) *Syncer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.syncers[publisherID]; ok {
		return s
	}
	s := NewSyncer(publisherID, m.events, m.snapshots)
	m.syncers[publisherID] = s
	return s
}

// Open resolves the publisher's syncer and performs the first-load sequence:
// warm from snapshot, then fetch the project set and trigger the initial
// aggregation. A registry failure is returned but leaves the warmed view in
// place.
func (m *Manager) Open(ctx context.Context, publisherID string) (*Syncer, error) {
	s := m.Syncer(publisherID)
	s.WarmFromSnapshot(ctx)

	projects, err := m.registry.ListProjects(ctx, publisherID)
	if err != nil {
		return s, err
	}

	if err := s.OnProjectSetChanged(ctx, projects); err != nil {
		return s, err
	}
	return s, nil
}
