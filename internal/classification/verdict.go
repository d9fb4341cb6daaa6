// Package classification decides, per overdue invoice, whether it is ready for
// collections or should keep waiting in the normal dunning flow.
//
// The decision is driven by an ordered table of age bands. Each band names how long ago
// the customer's latest recorded payment must be, relative to the evaluation time, for
// invoices in that band to be declared Ready. Both the latest payment date and the
// evaluation time are captured once per run, so every verdict in a run is judged against
// the same anchors. Verdicts in the recency-gated bands therefore depend on the day the
// run executes; pin the evaluation time to reproduce a result.
package classification

// Verdict is the outcome of classifying one invoice.
type Verdict int

const (
	// Unknown means the invoice age could not be determined from the source data.
	Unknown Verdict = iota
	// Ready means the invoice is eligible for collections escalation.
	Ready
	// Wait means the invoice should remain in the normal dunning flow.
	Wait
)

// String returns the label used in reports ("Ukendt", "OK", "Afvent").
func (v Verdict) String() string {
	switch v {
	case Ready:
		return "OK"
	case Wait:
		return "Afvent"
	default:
		return "Ukendt"
	}
}
