package bankcore

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// dateLayout is the calendar-date representation used at every boundary.
// Dates carry no time component; internally they are midnight UTC.
const dateLayout = "2006-01-02"

type TransactionKind string

const (
	KindDeposit    TransactionKind = "Deposit"
	KindWithdrawal TransactionKind = "Withdrawal"
	KindInterest   TransactionKind = "Interest"
	KindFee        TransactionKind = "Fee"
)

// Transaction is one immutable ledger entry. Seq is a snowflake ID minted
// when the entry is appended; it orders entries that share a date, so the
// "most recent" transaction under a date tie is the last one inserted.
type Transaction struct {
	AcctNum int64           `json:"account_number"`
	Date    time.Time       `json:"date"`
	Amount  decimal.Decimal `json:"amount"`
	Kind    TransactionKind `json:"kind"`
	Seq     snowflake.ID    `json:"seq"`
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// LastDayOfMonth returns the final calendar day of d's month.
func LastDayOfMonth(d time.Time) time.Time {
	// day 0 of the next month normalizes to the last day of this one
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// MostRecent returns the transaction with the maximal date, ties broken by
// the highest Seq. It reports false on an empty history.
func MostRecent(txns []Transaction) (Transaction, bool) {
	if len(txns) == 0 {
		return Transaction{}, false
	}
	latest := txns[0]
	for _, t := range txns[1:] {
		if t.Date.After(latest.Date) || (t.Date.Equal(latest.Date) && t.Seq > latest.Seq) {
			latest = t
		}
	}
	return latest, true
}
