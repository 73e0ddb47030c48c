package bankcore

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type AccountKind string

const (
	KindChecking AccountKind = "Checking"
	KindSavings  AccountKind = "Savings"
)

func ParseAccountKind(s string) (AccountKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "checking":
		return KindChecking, nil
	case "savings":
		return KindSavings, nil
	}
	return "", ErrInvalidAccountType{Kind: s}
}

const (
	savingsMaxDaily   = 2
	savingsMaxMonthly = 5
)

var (
	checkingMonthlyRate = decimal.RequireFromString("0.08")
	savingsMonthlyRate  = decimal.RequireFromString("0.33")

	lowBalanceFloor = decimal.NewFromInt(100)
	lowBalanceFee   = decimal.RequireFromString("-5.75")

	oneHundred = decimal.NewFromInt(100)
)

// kindPolicy is the capability record that distinguishes the account
// variants: a monthly percentage rate, an optional pre-commit limit check,
// and an optional monthly-close fee hook.
type kindPolicy struct {
	monthlyRate decimal.Decimal
	checkLimits func(history []Transaction, date time.Time) error
	monthlyFee  func(balance decimal.Decimal) (decimal.Decimal, bool)
}

var kindPolicies = map[AccountKind]kindPolicy{
	KindChecking: {
		monthlyRate: checkingMonthlyRate,
		monthlyFee:  checkingLowBalanceFee,
	},
	KindSavings: {
		monthlyRate: savingsMonthlyRate,
		checkLimits: savingsTransactionLimits,
	},
}

// savingsTransactionLimits caps a savings account at 2 transactions per day
// and 5 per calendar month. Interest and fee postings bypass this check.
func savingsTransactionLimits(history []Transaction, date time.Time) error {
	day, month := 0, 0
	for _, t := range history {
		if t.Date.Equal(date) {
			day++
		}
		if sameMonth(t.Date, date) {
			month++
		}
	}
	if day >= savingsMaxDaily {
		return ErrLimit{Scope: LimitDaily}
	}
	if month >= savingsMaxMonthly {
		return ErrLimit{Scope: LimitMonthly}
	}
	return nil
}

// checkingLowBalanceFee charges a flat fee when the post-interest balance
// is under the $100 floor.
func checkingLowBalanceFee(balance decimal.Decimal) (decimal.Decimal, bool) {
	if balance.LessThan(lowBalanceFloor) {
		return lowBalanceFee, true
	}
	return decimal.Decimal{}, false
}

// Account owns an append-only ledger of transactions and derives its
// balance from them. Mutations go through AddTransaction, which validates
// fully before committing, or through ApplyInterestAndFees; failed calls
// leave no trace.
type Account struct {
	number int64
	kind   AccountKind
	txns   []Transaction
	bal    decimal.Decimal
	policy kindPolicy
	node   *snowflake.Node
}

func newAccount(kind AccountKind, number int64, node *snowflake.Node) *Account {
	return &Account{
		number: number,
		kind:   kind,
		policy: kindPolicies[kind],
		node:   node,
	}
}

func (a *Account) Number() int64 {
	return a.number
}

func (a *Account) Kind() AccountKind {
	return a.kind
}

// Name is the display name, e.g. "Savings#000000042".
func (a *Account) Name() string {
	return fmt.Sprintf("%s#%09d", a.kind, a.number)
}

// Balance is the exact sum over all transactions, unrounded.
func (a *Account) Balance() decimal.Decimal {
	return a.bal
}

// Transactions returns a copy of the ledger, ascending by date. Entries
// sharing a date keep insertion order.
func (a *Account) Transactions() []Transaction {
	out := make([]Transaction, len(a.txns))
	copy(out, a.txns)
	return out
}

func (a *Account) MostRecentTransaction() (Transaction, bool) {
	return MostRecent(a.txns)
}

// AddTransaction validates and appends one user-originated ledger entry.
// Checks run in order: variant limits, overdraft (deposits exempt), then
// date sequencing against the watermark. No state changes unless every
// check passes.
func (a *Account) AddTransaction(amount decimal.Decimal, date time.Time, kind TransactionKind) error {
	if a.policy.checkLimits != nil {
		if err := a.policy.checkLimits(a.txns, date); err != nil {
			return err
		}
	}
	if kind != KindDeposit && a.bal.Add(amount).IsNegative() {
		return ErrOverdraw{}
	}
	cand := Transaction{
		AcctNum: a.number,
		Date:    date,
		Amount:  amount,
		Kind:    kind,
		Seq:     a.node.Generate(),
	}
	if err := validateSequence(a.txns, cand); err != nil {
		return err
	}
	a.commit(cand)
	return nil
}

// postSystemTransaction appends an interest or fee entry, skipping the
// overdraft, limit, and sequencing checks. Only the monthly close calls
// this; it is deliberately not part of the public surface.
func (a *Account) postSystemTransaction(amount decimal.Decimal, date time.Time, kind TransactionKind) {
	a.commit(Transaction{
		AcctNum: a.number,
		Date:    date,
		Amount:  amount,
		Kind:    kind,
		Seq:     a.node.Generate(),
	})
}

// ApplyInterestAndFees runs the monthly close: post interest on the current
// balance at the variant's monthly rate, dated the last day of the month of
// the most recent transaction (or now, on an empty ledger), then run the
// variant's fee hook. A close already applied in that month is rejected
// whole; past the duplicate check the procedure cannot fail partway.
func (a *Account) ApplyInterestAndFees(now time.Time) error {
	feeDate := now
	if last, ok := MostRecent(a.txns); ok {
		feeDate = LastDayOfMonth(last.Date)
	}
	if err := validateMonthlyClose(a.txns, feeDate); err != nil {
		return err
	}

	interest := a.bal.Mul(a.policy.monthlyRate).Div(oneHundred)
	a.postSystemTransaction(interest, feeDate, KindInterest)

	if a.policy.monthlyFee != nil {
		if fee, ok := a.policy.monthlyFee(a.bal); ok {
			a.postSystemTransaction(fee, feeDate, KindFee)
		}
	}
	return nil
}

// commit appends the entry, re-sorts by date, and recomputes the balance
// as a full fold. Recomputing from scratch keeps the balance invariant
// trivially checkable; there is no incremental update to drift.
func (a *Account) commit(t Transaction) {
	a.txns = append(a.txns, t)
	sort.SliceStable(a.txns, func(i, j int) bool {
		return a.txns[i].Date.Before(a.txns[j].Date)
	})
	sum := decimal.Zero
	for _, t := range a.txns {
		sum = sum.Add(t.Amount)
	}
	a.bal = sum
}

// restore replays a persisted ledger without validation; the entries were
// validated when first posted.
func (a *Account) restore(txns []Transaction) {
	for _, t := range txns {
		a.commit(t)
	}
}
