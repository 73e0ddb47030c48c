package bankcore

import (
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// AccountSummary is the read-only projection produced by Bank.Summary.
type AccountSummary struct {
	Number  int64  `json:"number"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

// Bank owns the accounts, keyed by sequentially minted account number, and
// tracks which one is currently selected. A Bank assumes a single logical
// actor; callers that share one across goroutines must serialize access
// (serviceImpl does exactly that).
type Bank struct {
	accounts    map[int64]*Account
	numAccounts int64
	selected    *Account
	node        *snowflake.Node
}

func NewBank(node *snowflake.Node) *Bank {
	return &Bank{
		accounts: make(map[int64]*Account),
		node:     node,
	}
}

// OpenAccount parses the kind case-insensitively, mints the next account
// number, and stores a fresh account with zero balance and empty history.
func (b *Bank) OpenAccount(kind string) (*Account, error) {
	k, err := ParseAccountKind(kind)
	if err != nil {
		return nil, err
	}
	b.numAccounts++
	acct := newAccount(k, b.numAccounts, b.node)
	b.accounts[acct.Number()] = acct
	return acct, nil
}

// Account looks up an account without changing the selection.
func (b *Bank) Account(number int64) (*Account, bool) {
	a, ok := b.accounts[number]
	return a, ok
}

// SelectAccount sets the current account. A nil number clears the
// selection; an unknown number fails and leaves the selection untouched.
func (b *Bank) SelectAccount(number *int64) error {
	if number == nil {
		b.selected = nil
		return nil
	}
	acct, ok := b.accounts[*number]
	if !ok {
		return ErrUnknownAccount{Number: *number}
	}
	b.selected = acct
	return nil
}

func (b *Bank) Selected() (*Account, bool) {
	return b.selected, b.selected != nil
}

// AddTransaction posts a transaction to the selected account, inferring
// the kind from the sign of the amount.
func (b *Bank) AddTransaction(amount decimal.Decimal, date time.Time) error {
	if b.selected == nil {
		return ErrNoAccountSelected
	}
	kind := KindWithdrawal
	if amount.IsPositive() {
		kind = KindDeposit
	}
	return b.selected.AddTransaction(amount, date, kind)
}

// ListTransactions returns the selected account's ledger, ascending by date.
func (b *Bank) ListTransactions() ([]Transaction, error) {
	if b.selected == nil {
		return nil, ErrNoAccountSelected
	}
	return b.selected.Transactions(), nil
}

// ApplyInterestAndFees runs the monthly close on the selected account.
func (b *Bank) ApplyInterestAndFees(now time.Time) error {
	if b.selected == nil {
		return ErrNoAccountSelected
	}
	return b.selected.ApplyInterestAndFees(now)
}

// Summary lists every account's name and formatted balance in
// account-number order.
func (b *Bank) Summary() []AccountSummary {
	out := make([]AccountSummary, 0, len(b.accounts))
	for _, a := range b.accounts {
		out = append(out, AccountSummary{
			Number:  a.Number(),
			Name:    a.Name(),
			Balance: FormatAmount(a.Balance()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Snapshot exports the bank's state for the persistence collaborator.
func (b *Bank) Snapshot() Snapshot {
	s := Snapshot{NumAccounts: b.numAccounts}
	nums := make([]int64, 0, len(b.accounts))
	for n := range b.accounts {
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	for _, n := range nums {
		a := b.accounts[n]
		s.Accounts = append(s.Accounts, AccountState{
			Number:       a.Number(),
			Kind:         a.Kind(),
			Transactions: a.Transactions(),
		})
	}
	return s
}

// Restore rebuilds the bank from a snapshot, clearing any selection.
func (b *Bank) Restore(s Snapshot) {
	b.numAccounts = s.NumAccounts
	b.selected = nil
	b.accounts = make(map[int64]*Account, len(s.Accounts))
	for _, st := range s.Accounts {
		a := newAccount(st.Kind, st.Number, b.node)
		a.restore(st.Transactions)
		b.accounts[st.Number] = a
	}
}
