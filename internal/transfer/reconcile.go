package transfer

import "math"

// Discrepancy reasons recorded on transfer lines.
const (
	ReasonShortage = "shortage"
	ReasonOverage  = "overage"
)

// Shipped and received amounts closer than this are treated as equal.
const reconcileEpsilon = 0.0001

// ReconcileLine compares shipped against received quantities for one line.
// Lines are independent; discrepancies on one line never offset another.
func ReconcileLine(shipped, received float64) (discrepancy bool, reason string, magnitude float64) {
	diff := shipped - received
	if math.Abs(diff) < reconcileEpsilon {
		return false, "", 0
	}
	if diff > 0 {
		return true, ReasonShortage, diff
	}
	return true, ReasonOverage, -diff
}

// Reconcile applies ReconcileLine to every item in place and returns the
// transfer-level flag, the logical OR across lines. Reconciliation records
// discrepancies for audit; it never blocks completion.
func Reconcile(items []StockTransferItem) bool {
	var hasDiscrepancies bool
	for i := range items {
		discrepancy, reason, magnitude := ReconcileLine(items[i].QuantityShipped, items[i].QuantityReceived)
		items[i].Discrepancy = discrepancy
		items[i].DiscrepancyReason = reason
		items[i].DiscrepancyQty = magnitude
		if discrepancy {
			hasDiscrepancies = true
		}
	}
	return hasDiscrepancies
}
