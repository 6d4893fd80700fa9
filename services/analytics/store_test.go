package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"

	"publisher-revenuecore/services/testutil"
)

func TestListEventsFiltersByAppAndDate(t *testing.T) {
	db := testutil.NewTestDB(t, &AnalyticsEvent{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	day := func(d int) time.Time {
		return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
	}

	store := NewStore(db)

	rows := []*AnalyticsEvent{
		{ID: node.Generate(), AppID: "app-1", PublisherID: "pub-1", UserID: "u1", RevenueUSD: 10, Year: 2025, Month: 1, Day: 5, FullDate: day(5), HistoryType: string(HistoryTypeReward)},
		{ID: node.Generate(), AppID: "app-1", PublisherID: "pub-1", UserID: "u2", RevenueUSD: 20, Year: 2025, Month: 1, Day: 20, FullDate: day(20), HistoryType: string(HistoryTypeReward)},
		{ID: node.Generate(), AppID: "app-2", PublisherID: "pub-2", UserID: "u3", RevenueUSD: 99, Year: 2025, Month: 1, Day: 5, FullDate: day(5), HistoryType: string(HistoryTypeReward)},
	}
	require.NoError(t, store.RecordEvents(context.Background(), rows))
	require.NoError(t, store.RecordEvents(context.Background(), nil))

	events, err := store.ListEvents(context.Background(), Filter{AppIDs: []string{"app-1"}})
	require.NoError(t, err)
	require.Len(t, events, 2)

	from := day(1)
	to := day(10)
	events, err = store.ListEvents(context.Background(), Filter{AppIDs: []string{"app-1"}, DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, float64(10), events[0].RevenueUSD)
}

func TestListEventsInclusiveBounds(t *testing.T) {
	db := testutil.NewTestDB(t, &AnalyticsEvent{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	boundary := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&AnalyticsEvent{
		ID: node.Generate(), AppID: "app-1", PublisherID: "pub-1",
		RevenueUSD: 7, Year: 2025, Month: 2, Day: 28,
		FullDate: boundary, HistoryType: string(HistoryTypeReward),
	}).Error)

	store := NewStore(db)

	events, err := store.ListEvents(context.Background(), Filter{
		AppIDs:   []string{"app-1"},
		DateFrom: &boundary,
		DateTo:   &boundary,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestListEventsNoApps(t *testing.T) {
	db := testutil.NewTestDB(t, &AnalyticsEvent{})
	store := NewStore(db)

	events, err := store.ListEvents(context.Background(), Filter{})
	require.NoError(t, err)
	require.Empty(t, events)
}
