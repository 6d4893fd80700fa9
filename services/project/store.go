package project

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"publisher-revenuecore/pkg/errutil"
	"publisher-revenuecore/pkg/repository"
)

// Registry is the read boundary to the project registry.
type Registry interface {
	ListProjects(ctx context.Context, publisherID string) ([]*Project, error)
}

type Store struct {
	projects repository.Repository[Project]
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		projects: repository.ProvideStore[Project](db),
	}
}

func (s *Store) ListProjects(ctx context.Context, publisherID string) ([]*Project, error) {
	projects, err := s.projects.Find(ctx, &Project{PublisherID: publisherID})
	if err != nil {
		zap.L().Error("failed to query projects", zap.String("publisher_id", publisherID), zap.Error(err))
		return nil, errutil.Unavailable("project registry query failed", err)
	}
	return projects, nil
}

var Module = fx.Module("project.store",
	fx.Provide(
		NewStore,
		func(s *Store) Registry { return s },
	),
)
