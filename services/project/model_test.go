package project

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppIDSet(t *testing.T) {
	projects := []*Project{
		{AppID: "app-1"},
		{AppID: "app-2"},
		{AppID: "app-1"}, // duplicate app registration collapses
		{AppID: ""},
		nil,
	}

	set := AppIDSet(projects)
	require.Len(t, set, 2)
	require.Contains(t, set, "app-1")
	require.Contains(t, set, "app-2")

	require.Empty(t, AppIDSet(nil))
}
