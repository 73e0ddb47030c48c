package bankcore

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type OpenAccountReq struct {
	Type string `json:"type"`
}

// ChargeReq carries a user-originated transaction. Amount is a plain
// decimal string, Date is YYYY-MM-DD; both are parsed here at the
// boundary, never deeper in.
type ChargeReq struct {
	AcctNum int64  `json:"-"`
	Amount  string `json:"amount"`
	Date    string `json:"date"`
}

type Service interface {
	OpenAccount(req OpenAccountReq) (*AccountSummary, error)
	AddTransaction(req ChargeReq) (*decimal.Decimal, error)
	Transactions(acctNum int64) ([]Transaction, error)
	InterestAndFees(acctNum int64) (*decimal.Decimal, error)
	Summary() ([]AccountSummary, error)
	Statement(w io.Writer, acctNum int64) error
}

// serviceImpl guards a single Bank with a mutex (the bank itself assumes
// one actor) and hands the post-mutation snapshot to the repository after
// every successful write. A nil repository runs the bank purely in memory.
type serviceImpl struct {
	mu   sync.Mutex
	bank *Bank
	repo Repository
	log  *zerolog.Logger
}

var (
	_ Service = (*serviceImpl)(nil)
)

func NewService(repo Repository, log *zerolog.Logger) (*serviceImpl, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}
	svc := &serviceImpl{
		bank: NewBank(node),
		repo: repo,
		log:  log,
	}
	if repo != nil {
		snap, err := repo.LoadSnapshot(context.Background())
		if err != nil {
			return nil, err
		}
		if snap != nil {
			svc.bank.Restore(*snap)
			log.Info().
				Int64("num_accounts", snap.NumAccounts).
				Msg("bank state restored")
		}
	}
	return svc, nil
}

func (s *serviceImpl) OpenAccount(req OpenAccountReq) (*AccountSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, err := s.bank.OpenAccount(req.Type)
	if err != nil {
		return nil, err
	}
	s.persist()
	return &AccountSummary{
		Number:  acct.Number(),
		Name:    acct.Name(),
		Balance: FormatAmount(acct.Balance()),
	}, nil
}

func (s *serviceImpl) AddTransaction(req ChargeReq) (*decimal.Decimal, error) {
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, ErrBadRequest{Fields: map[string]string{"date": "must be YYYY-MM-DD"}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.bank.SelectAccount(&req.AcctNum); err != nil {
		return nil, err
	}
	if err = s.bank.AddTransaction(amount, date); err != nil {
		return nil, err
	}
	s.persist()
	acct, _ := s.bank.Selected()
	bal := acct.Balance()
	return &bal, nil
}

func (s *serviceImpl) Transactions(acctNum int64) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.bank.SelectAccount(&acctNum); err != nil {
		return nil, err
	}
	return s.bank.ListTransactions()
}

func (s *serviceImpl) InterestAndFees(acctNum int64) (*decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.bank.SelectAccount(&acctNum); err != nil {
		return nil, err
	}
	if err := s.bank.ApplyInterestAndFees(today()); err != nil {
		return nil, err
	}
	s.persist()
	acct, _ := s.bank.Selected()
	bal := acct.Balance()
	return &bal, nil
}

func (s *serviceImpl) Summary() ([]AccountSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bank.Summary(), nil
}

func (s *serviceImpl) Statement(w io.Writer, acctNum int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.bank.Account(acctNum)
	if !ok {
		return ErrUnknownAccount{Number: acctNum}
	}
	return renderStatement(w, acct)
}

// persist hands the current snapshot to the repository. A failed save does
// not undo the in-memory mutation; it is logged and the caller still sees
// success. Callers must hold s.mu.
func (s *serviceImpl) persist() {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveSnapshot(context.Background(), s.bank.Snapshot()); err != nil {
		s.log.Err(err).Msg("error persisting bank snapshot")
	}
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
