package payout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNetPayout(t *testing.T) {
	payout, shortfall := NetPayout(100, 15)
	require.Equal(t, float64(85), payout)
	require.Zero(t, shortfall)

	payout, shortfall = NetPayout(10, 25)
	require.Zero(t, payout)
	require.Equal(t, float64(15), shortfall)

	payout, shortfall = NetPayout(0, 0)
	require.Zero(t, payout)
	require.Zero(t, shortfall)
}

func TestApplyTotals(t *testing.T) {
	ledger := &PayoutLedger{TotalRevenue: 100, Reconciliation: 15}
	ledger.ApplyTotals()
	require.Equal(t, float64(85), ledger.TotalPayout)
	require.Zero(t, ledger.Shortfall)

	ledger = &PayoutLedger{TotalRevenue: 5, Reconciliation: 9}
	ledger.ApplyTotals()
	require.Zero(t, ledger.TotalPayout)
	require.Equal(t, float64(4), ledger.Shortfall)
}

func TestTransitionLegality(t *testing.T) {
	cases := []struct {
		from, to Status
		legal    bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusPaid, false},
		{StatusApproved, StatusPaid, true},
		{StatusApproved, StatusFailed, true},
		{StatusApproved, StatusPending, false},
		{StatusPaid, StatusFailed, false},
		{StatusPaid, StatusPending, false},
		{StatusFailed, StatusApproved, false},
		{StatusFailed, StatusPaid, false},
	}

	for _, tc := range cases {
		require.Equalf(t, tc.legal, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStatusValidity(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusPaid, StatusFailed} {
		require.True(t, s.Valid())
	}
	require.False(t, Status("Settled").Valid())
	require.False(t, Status("").Valid())

	require.True(t, StatusPaid.Terminal())
	require.True(t, StatusFailed.Terminal())
	require.False(t, StatusPending.Terminal())
	require.False(t, StatusApproved.Terminal())
}
