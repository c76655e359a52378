package transfer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReconcileLine(t *testing.T) {
	cases := []struct {
		name        string
		shipped     float64
		received    float64
		discrepancy bool
		reason      string
		magnitude   float64
	}{
		{"exact match", 10, 10, false, "", 0},
		{"within epsilon", 10, 10.00005, false, "", 0},
		{"shortage", 10, 7.5, true, ReasonShortage, 2.5},
		{"overage", 10, 12, true, ReasonOverage, 2},
		{"nothing received", 4, 0, true, ReasonShortage, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			discrepancy, reason, magnitude := ReconcileLine(tc.shipped, tc.received)
			require.Equal(t, tc.discrepancy, discrepancy)
			require.Equal(t, tc.reason, reason)
			require.InDelta(t, tc.magnitude, magnitude, 0.0001)
		})
	}
}

func TestReconcileFlagsAcrossLines(t *testing.T) {
	items := []StockTransferItem{
		{ItemID: 1, QuantityShipped: 10, QuantityReceived: 10},
		{ItemID: 2, QuantityShipped: 5, QuantityReceived: 3},
		{ItemID: 3, QuantityShipped: 2, QuantityReceived: 4},
	}

	require.True(t, Reconcile(items))

	require.False(t, items[0].Discrepancy)
	require.Empty(t, items[0].DiscrepancyReason)

	require.True(t, items[1].Discrepancy)
	require.Equal(t, ReasonShortage, items[1].DiscrepancyReason)
	require.InDelta(t, 2.0, items[1].DiscrepancyQty, 0.0001)

	require.True(t, items[2].Discrepancy)
	require.Equal(t, ReasonOverage, items[2].DiscrepancyReason)
	require.InDelta(t, 2.0, items[2].DiscrepancyQty, 0.0001)
}

func TestReconcileCleanTransfer(t *testing.T) {
	items := []StockTransferItem{
		{ItemID: 1, QuantityShipped: 6, QuantityReceived: 6},
		{ItemID: 2, QuantityShipped: 1.5, QuantityReceived: 1.5},
	}
	require.False(t, Reconcile(items))
	for _, item := range items {
		require.False(t, item.Discrepancy)
		require.Zero(t, item.DiscrepancyQty)
	}
}
