package project

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusArchived Status = "archived"
)

// Project maps one publisher app into the registry. Events are attributed to
// a publisher through the app id recorded here.
type Project struct {
	ID            snowflake.ID `gorm:"column:id;primaryKey;autoIncrement:false"`
	PublisherID   string       `gorm:"column:publisher_id;index;not null"`
	AppID         string       `gorm:"column:app_id;uniqueIndex;not null"`
	Name          string       `gorm:"column:name;not null"`
	Status        string       `gorm:"column:status;default:'active'"`
	ExchangeRatio float64      `gorm:"column:exchange_ratio;default:1"`
	CreatedAt     time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (Project) TableName() string { return "projects" }

// AppIDSet normalizes a project list into the set of app ids whose events
// count toward the publisher. The sync layer compares these sets, not list
// lengths or identities.
func AppIDSet(projects []*Project) map[string]struct{} {
	set := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		if p == nil || p.AppID == "" {
			continue
		}
		set[p.AppID] = struct{}{}
	}
	return set
}
