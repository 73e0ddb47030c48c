package bankcore

import "time"

// validateSequence enforces non-decreasing date order: a candidate may not
// predate the most recent entry in the history. An empty history accepts
// any date. System postings (interest, fees) never pass through here.
func validateSequence(history []Transaction, candidate Transaction) error {
	last, ok := MostRecent(history)
	if !ok {
		return nil
	}
	if candidate.Date.Before(last.Date) {
		return ErrSequence{Date: last.Date, Kind: SeqBackdated}
	}
	return nil
}

// validateMonthlyClose rejects a second interest/fee application within the
// calendar month of feeDate.
func validateMonthlyClose(history []Transaction, feeDate time.Time) error {
	for _, t := range history {
		if t.Kind != KindInterest && t.Kind != KindFee {
			continue
		}
		if sameMonth(t.Date, feeDate) {
			return ErrSequence{Date: feeDate, Kind: SeqDuplicateClose}
		}
	}
	return nil
}
