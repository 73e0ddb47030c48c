package bankcore_test

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arhyth/bankcore"
)

func newTestBank(t *testing.T) *bankcore.Bank {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.New(t).Nil(err)
	return bankcore.NewBank(node)
}

func openAccount(t *testing.T, b *bankcore.Bank, kind string) *bankcore.Account {
	t.Helper()
	acct, err := b.OpenAccount(kind)
	require.New(t).Nil(err)
	return acct
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// the balance must equal the exact sum over the ledger after any mutation
func assertBalanceInvariant(t *testing.T, acct *bankcore.Account) {
	t.Helper()
	sum := decimal.Zero
	for _, txn := range acct.Transactions() {
		sum = sum.Add(txn.Amount)
	}
	assert.New(t).True(acct.Balance().Equal(sum),
		"balance %s != ledger sum %s", acct.Balance(), sum)
}

func TestAccountOverdraft(t *testing.T) {
	for _, kind := range []string{"Checking", "Savings"} {
		t.Run("rejects overdraw on a "+kind+" account", func(tt *testing.T) {
			as := assert.New(tt)
			acct := openAccount(tt, newTestBank(tt), kind)

			err := acct.AddTransaction(amt("-0.01"), date(tt, "2024-01-05"), bankcore.KindWithdrawal)
			as.ErrorAs(err, &bankcore.ErrOverdraw{})
			as.True(acct.Balance().IsZero())
			as.Empty(acct.Transactions())
		})
	}

	t.Run("allows a withdrawal down to exactly zero", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		acct := openAccount(tt, newTestBank(tt), "Checking")

		reqrd.Nil(acct.AddTransaction(amt("100"), date(tt, "2024-01-05"), bankcore.KindDeposit))
		err := acct.AddTransaction(amt("-100"), date(tt, "2024-01-06"), bankcore.KindWithdrawal)
		as.Nil(err)
		as.True(acct.Balance().IsZero())
		assertBalanceInvariant(tt, acct)
	})
}

func TestAccountSequencing(t *testing.T) {
	as := assert.New(t)
	reqrd := require.New(t)
	acct := openAccount(t, newTestBank(t), "Checking")

	reqrd.Nil(acct.AddTransaction(amt("100"), date(t, "2024-03-15"), bankcore.KindDeposit))

	t.Run("rejects a backdated transaction", func(tt *testing.T) {
		err := acct.AddTransaction(amt("10"), date(tt, "2024-03-10"), bankcore.KindDeposit)
		seqErr := bankcore.ErrSequence{}
		as.ErrorAs(err, &seqErr)
		as.Equal(bankcore.SeqBackdated, seqErr.Kind)
		as.Equal(date(tt, "2024-03-15"), seqErr.Date)
		as.EqualError(err, "New transactions must be from 2024-03-15 onward.")
		as.Len(acct.Transactions(), 1)
	})

	t.Run("accepts same-day and later transactions", func(tt *testing.T) {
		as.Nil(acct.AddTransaction(amt("10"), date(tt, "2024-03-15"), bankcore.KindDeposit))
		as.Nil(acct.AddTransaction(amt("10"), date(tt, "2024-03-16"), bankcore.KindDeposit))
		assertBalanceInvariant(tt, acct)
	})
}

func TestSavingsTransactionLimits(t *testing.T) {
	t.Run("caps transactions at two per day", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		acct := openAccount(tt, newTestBank(tt), "Savings")

		day := date(tt, "2024-01-05")
		reqrd.Nil(acct.AddTransaction(amt("1"), day, bankcore.KindDeposit))
		reqrd.Nil(acct.AddTransaction(amt("1"), day, bankcore.KindDeposit))

		err := acct.AddTransaction(amt("1"), day, bankcore.KindDeposit)
		limErr := bankcore.ErrLimit{}
		as.ErrorAs(err, &limErr)
		as.Equal(bankcore.LimitDaily, limErr.Scope)
		as.Len(acct.Transactions(), 2)
	})

	t.Run("caps transactions at five per month", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		acct := openAccount(tt, newTestBank(tt), "Savings")

		for _, d := range []string{"2024-01-02", "2024-01-05", "2024-01-09", "2024-01-16", "2024-01-23"} {
			reqrd.Nil(acct.AddTransaction(amt("1"), date(tt, d), bankcore.KindDeposit))
		}

		// a fresh day in the same month still hits the monthly cap
		err := acct.AddTransaction(amt("1"), date(tt, "2024-01-30"), bankcore.KindDeposit)
		limErr := bankcore.ErrLimit{}
		as.ErrorAs(err, &limErr)
		as.Equal(bankcore.LimitMonthly, limErr.Scope)

		as.Nil(acct.AddTransaction(amt("1"), date(tt, "2024-02-01"), bankcore.KindDeposit))
		assertBalanceInvariant(tt, acct)
	})

	t.Run("deposits are exempt from the overdraft check but not the caps", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		acct := openAccount(tt, newTestBank(tt), "Savings")

		day := date(tt, "2024-01-05")
		reqrd.Nil(acct.AddTransaction(amt("5"), day, bankcore.KindDeposit))
		reqrd.Nil(acct.AddTransaction(amt("5"), day, bankcore.KindDeposit))
		err := acct.AddTransaction(amt("5"), day, bankcore.KindDeposit)
		as.ErrorAs(err, &bankcore.ErrLimit{})
	})
}

func TestApplyInterestAndFees(t *testing.T) {
	t.Run("posts checking interest dated the last day of the month", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		acct := openAccount(tt, newTestBank(tt), "Checking")

		reqrd.Nil(acct.AddTransaction(amt("1000"), date(tt, "2024-03-15"), bankcore.KindDeposit))
		reqrd.Nil(acct.ApplyInterestAndFees(date(tt, "2024-04-02")))

		// 1000 * 0.08 / 100
		as.True(acct.Balance().Equal(amt("1000.80")), "got %s", acct.Balance())
		as.Equal("$1,000.80", bankcore.FormatAmount(acct.Balance()))
		last, ok := acct.MostRecentTransaction()
		reqrd.True(ok)
		as.Equal(bankcore.KindInterest, last.Kind)
		as.Equal(date(tt, "2024-03-31"), last.Date)
		assertBalanceInvariant(tt, acct)
	})

	t.Run("posts savings interest at the savings rate", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		acct := openAccount(tt, newTestBank(tt), "Savings")

		reqrd.Nil(acct.AddTransaction(amt("1000"), date(tt, "2024-03-15"), bankcore.KindDeposit))
		reqrd.Nil(acct.ApplyInterestAndFees(date(tt, "2024-04-02")))

		// 1000 * 0.33 / 100
		as.True(acct.Balance().Equal(amt("1003.30")), "got %s", acct.Balance())
		assertBalanceInvariant(tt, acct)
	})

	t.Run("rejects a second close in the same month", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		acct := openAccount(tt, newTestBank(tt), "Checking")

		reqrd.Nil(acct.AddTransaction(amt("1000"), date(tt, "2024-03-15"), bankcore.KindDeposit))
		reqrd.Nil(acct.ApplyInterestAndFees(date(tt, "2024-04-02")))
		before := acct.Balance()

		err := acct.ApplyInterestAndFees(date(tt, "2024-04-02"))
		seqErr := bankcore.ErrSequence{}
		as.ErrorAs(err, &seqErr)
		as.Equal(bankcore.SeqDuplicateClose, seqErr.Kind)
		as.EqualError(err, "Cannot apply interest and fees again in the month of March.")
		as.True(acct.Balance().Equal(before))
		as.Len(acct.Transactions(), 2)
	})

	t.Run("charges the low-balance fee on a checking account under $100", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		acct := openAccount(tt, newTestBank(tt), "Checking")

		reqrd.Nil(acct.AddTransaction(amt("50"), date(tt, "2024-03-15"), bankcore.KindDeposit))
		reqrd.Nil(acct.ApplyInterestAndFees(date(tt, "2024-04-02")))

		var fees int
		for _, txn := range acct.Transactions() {
			if txn.Kind == bankcore.KindFee {
				fees++
				as.True(txn.Amount.Equal(amt("-5.75")))
				as.Equal(date(tt, "2024-03-31"), txn.Date)
			}
		}
		as.Equal(1, fees)
		// 50 + 0.04 - 5.75
		as.True(acct.Balance().Equal(amt("44.29")), "got %s", acct.Balance())
		assertBalanceInvariant(tt, acct)
	})

	t.Run("accepts a deposit into a checking account the fee drove negative", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		acct := openAccount(tt, newTestBank(tt), "Checking")

		reqrd.Nil(acct.AddTransaction(amt("1"), date(tt, "2024-03-15"), bankcore.KindDeposit))
		reqrd.Nil(acct.ApplyInterestAndFees(date(tt, "2024-04-02")))
		// 1 + 0.0008 - 5.75
		reqrd.True(acct.Balance().IsNegative(), "got %s", acct.Balance())

		as.Nil(acct.AddTransaction(amt("2"), date(tt, "2024-04-02"), bankcore.KindDeposit))
		as.True(acct.Balance().IsNegative())
		assertBalanceInvariant(tt, acct)
	})

	t.Run("skips the fee on a checking account at $150", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		acct := openAccount(tt, newTestBank(tt), "Checking")

		reqrd.Nil(acct.AddTransaction(amt("150"), date(tt, "2024-03-15"), bankcore.KindDeposit))
		reqrd.Nil(acct.ApplyInterestAndFees(date(tt, "2024-04-02")))

		for _, txn := range acct.Transactions() {
			as.NotEqual(bankcore.KindFee, txn.Kind)
		}
	})

	t.Run("never charges a fee on a savings account", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		acct := openAccount(tt, newTestBank(tt), "Savings")

		reqrd.Nil(acct.AddTransaction(amt("10"), date(tt, "2024-03-15"), bankcore.KindDeposit))
		reqrd.Nil(acct.ApplyInterestAndFees(date(tt, "2024-04-02")))

		for _, txn := range acct.Transactions() {
			as.NotEqual(bankcore.KindFee, txn.Kind)
		}
	})

	t.Run("fee postings bypass the savings monthly cap", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		acct := openAccount(tt, newTestBank(tt), "Savings")

		for _, d := range []string{"2024-01-02", "2024-01-05", "2024-01-09", "2024-01-16", "2024-01-23"} {
			reqrd.Nil(acct.AddTransaction(amt("1"), date(tt, d), bankcore.KindDeposit))
		}
		// ledger already holds the monthly maximum; the close still posts
		as.Nil(acct.ApplyInterestAndFees(date(tt, "2024-02-01")))
		as.Len(acct.Transactions(), 6)
	})

	t.Run("uses the provided date on an empty ledger", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		acct := openAccount(tt, newTestBank(tt), "Savings")

		reqrd.Nil(acct.ApplyInterestAndFees(date(tt, "2024-06-10")))
		last, ok := acct.MostRecentTransaction()
		reqrd.True(ok)
		as.Equal(date(tt, "2024-06-10"), last.Date)
		as.True(last.Amount.IsZero())
	})
}

func TestAccountName(t *testing.T) {
	as := assert.New(t)
	b := newTestBank(t)

	chk := openAccount(t, b, "checking")
	sav := openAccount(t, b, "SAVINGS")
	as.Equal("Checking#000000001", chk.Name())
	as.Equal("Savings#000000002", sav.Name())
}

func TestTransactionsOrderedByDate(t *testing.T) {
	as := assert.New(t)
	reqrd := require.New(t)
	acct := openAccount(t, newTestBank(t), "Checking")

	reqrd.Nil(acct.AddTransaction(amt("10"), date(t, "2024-03-15"), bankcore.KindDeposit))
	reqrd.Nil(acct.AddTransaction(amt("20"), date(t, "2024-03-15"), bankcore.KindDeposit))
	reqrd.Nil(acct.AddTransaction(amt("30"), date(t, "2024-03-20"), bankcore.KindDeposit))

	txns := acct.Transactions()
	reqrd.Len(txns, 3)
	for i := 1; i < len(txns); i++ {
		as.False(txns[i].Date.Before(txns[i-1].Date))
	}
	// same-date entries keep insertion order
	as.True(txns[0].Amount.Equal(amt("10")))
	as.True(txns[1].Amount.Equal(amt("20")))
}
