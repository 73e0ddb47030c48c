package bankcore

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
)

type Middleware func(Service) Service

//
// Logging middleware
//

type loggingMiddleware struct {
	next Service
	log  *zerolog.Logger
}

var (
	_ Service = (*loggingMiddleware)(nil)
)

func NewLoggingMiddleware(log *zerolog.Logger) Middleware {
	return func(next Service) Service {
		return &loggingMiddleware{
			next: next,
			log:  log,
		}
	}
}

func (l *loggingMiddleware) OpenAccount(req OpenAccountReq) (*AccountSummary, error) {
	start := time.Now()
	sum, err := l.next.OpenAccount(req)
	evt := l.log.Info()
	if err != nil {
		evt = l.log.Err(err)
	}
	evt.Str("method", "open_account").
		Str("type", req.Type).
		Dur("took", time.Since(start)).
		Msg("")
	return sum, err
}

func (l *loggingMiddleware) AddTransaction(req ChargeReq) (*decimal.Decimal, error) {
	start := time.Now()
	bal, err := l.next.AddTransaction(req)
	evt := l.log.Info()
	if err != nil {
		evt = l.log.Err(err)
	}
	evt.Str("method", "add_transaction").
		Int64("acct", req.AcctNum).
		Dur("took", time.Since(start)).
		Msg("")
	return bal, err
}

func (l *loggingMiddleware) Transactions(acctNum int64) ([]Transaction, error) {
	start := time.Now()
	txns, err := l.next.Transactions(acctNum)
	evt := l.log.Info()
	if err != nil {
		evt = l.log.Err(err)
	}
	evt.Str("method", "transactions").
		Int64("acct", acctNum).
		Dur("took", time.Since(start)).
		Msg("")
	return txns, err
}

func (l *loggingMiddleware) InterestAndFees(acctNum int64) (*decimal.Decimal, error) {
	start := time.Now()
	bal, err := l.next.InterestAndFees(acctNum)
	evt := l.log.Info()
	if err != nil {
		evt = l.log.Err(err)
	}
	evt.Str("method", "interest_and_fees").
		Int64("acct", acctNum).
		Dur("took", time.Since(start)).
		Msg("")
	return bal, err
}

func (l *loggingMiddleware) Summary() ([]AccountSummary, error) {
	return l.next.Summary()
}

func (l *loggingMiddleware) Statement(w io.Writer, acctNum int64) error {
	start := time.Now()
	err := l.next.Statement(w, acctNum)
	evt := l.log.Info()
	if err != nil {
		evt = l.log.Err(err)
	}
	evt.Str("method", "statement").
		Int64("acct", acctNum).
		Dur("took", time.Since(start)).
		Msg("")
	return err
}

//
// Rate limiting middleware
//

// limitMiddleware caps the number of in-flight calls per method with a
// weighted semaphore and an acquisition timeout; callers that cannot get a
// slot in time are shed with ErrUnavailable.
type limitMiddleware struct {
	next    Service
	limits  *ServiceLimits
	timeout time.Duration
}

var (
	_ Service = (*limitMiddleware)(nil)
)

type ServiceLimits struct {
	OpenAccount     *semaphore.Weighted
	AddTransaction  *semaphore.Weighted
	Transactions    *semaphore.Weighted
	InterestAndFees *semaphore.Weighted
	Summary         *semaphore.Weighted
	Statement       *semaphore.Weighted
}

// NewServiceLimits allows n in-flight calls per method.
func NewServiceLimits(n int64) *ServiceLimits {
	return &ServiceLimits{
		OpenAccount:     semaphore.NewWeighted(n),
		AddTransaction:  semaphore.NewWeighted(n),
		Transactions:    semaphore.NewWeighted(n),
		InterestAndFees: semaphore.NewWeighted(n),
		Summary:         semaphore.NewWeighted(n),
		Statement:       semaphore.NewWeighted(n),
	}
}

func NewLimitMiddleware(limits *ServiceLimits, timeout time.Duration) Middleware {
	return func(next Service) Service {
		return &limitMiddleware{
			next:    next,
			limits:  limits,
			timeout: timeout,
		}
	}
}

func (l *limitMiddleware) acquire(sem *semaphore.Weighted) (func(), error) {
	if sem == nil {
		return func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, ErrUnavailable
	}
	return func() { sem.Release(1) }, nil
}

func (l *limitMiddleware) OpenAccount(req OpenAccountReq) (*AccountSummary, error) {
	release, err := l.acquire(l.limits.OpenAccount)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.OpenAccount(req)
}

func (l *limitMiddleware) AddTransaction(req ChargeReq) (*decimal.Decimal, error) {
	release, err := l.acquire(l.limits.AddTransaction)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.AddTransaction(req)
}

func (l *limitMiddleware) Transactions(acctNum int64) ([]Transaction, error) {
	release, err := l.acquire(l.limits.Transactions)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.Transactions(acctNum)
}

func (l *limitMiddleware) InterestAndFees(acctNum int64) (*decimal.Decimal, error) {
	release, err := l.acquire(l.limits.InterestAndFees)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.InterestAndFees(acctNum)
}

func (l *limitMiddleware) Summary() ([]AccountSummary, error) {
	release, err := l.acquire(l.limits.Summary)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.next.Summary()
}

func (l *limitMiddleware) Statement(w io.Writer, acctNum int64) error {
	release, err := l.acquire(l.limits.Statement)
	if err != nil {
		return err
	}
	defer release()
	return l.next.Statement(w, acctNum)
}

//
// Circuit breaking middleware
//

type ServiceBreaker struct {
	OpenAccount     *gobreaker.TwoStepCircuitBreaker[*AccountSummary]
	AddTransaction  *gobreaker.TwoStepCircuitBreaker[*decimal.Decimal]
	Transactions    *gobreaker.TwoStepCircuitBreaker[[]Transaction]
	InterestAndFees *gobreaker.TwoStepCircuitBreaker[*decimal.Decimal]
	Summary         *gobreaker.TwoStepCircuitBreaker[[]AccountSummary]
	Statement       *gobreaker.TwoStepCircuitBreaker[interface{}]
}

func NewServiceBreaker() *ServiceBreaker {
	return &ServiceBreaker{
		OpenAccount:     gobreaker.NewTwoStepCircuitBreaker[*AccountSummary](gobreaker.Settings{Name: "open_account"}),
		AddTransaction:  gobreaker.NewTwoStepCircuitBreaker[*decimal.Decimal](gobreaker.Settings{Name: "add_transaction"}),
		Transactions:    gobreaker.NewTwoStepCircuitBreaker[[]Transaction](gobreaker.Settings{Name: "transactions"}),
		InterestAndFees: gobreaker.NewTwoStepCircuitBreaker[*decimal.Decimal](gobreaker.Settings{Name: "interest_and_fees"}),
		Summary:         gobreaker.NewTwoStepCircuitBreaker[[]AccountSummary](gobreaker.Settings{Name: "summary"}),
		Statement:       gobreaker.NewTwoStepCircuitBreaker[interface{}](gobreaker.Settings{Name: "statement"}),
	}
}

// circuitBreakMiddleware trips a breaker per method when calls keep failing
// for internal reasons. Ledger rule rejections (overdraft, sequence, limit,
// bad input) are well-formed outcomes and do not count against the breaker.
type circuitBreakMiddleware struct {
	next  Service
	brkrs *ServiceBreaker
}

var (
	_ Service = (*circuitBreakMiddleware)(nil)
)

func NewCircuitBreakMiddleware(brkrs *ServiceBreaker) Middleware {
	return func(next Service) Service {
		return &circuitBreakMiddleware{
			next:  next,
			brkrs: brkrs,
		}
	}
}

// breakerSuccess classifies an outcome for breaker accounting.
func breakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	return err != ErrInternalServer && err != ErrUnavailable
}

func (c *circuitBreakMiddleware) OpenAccount(req OpenAccountReq) (*AccountSummary, error) {
	done, err := c.brkrs.OpenAccount.Allow()
	if err != nil {
		return nil, ErrUnavailable
	}
	sum, err := c.next.OpenAccount(req)
	done(breakerSuccess(err))
	return sum, err
}

func (c *circuitBreakMiddleware) AddTransaction(req ChargeReq) (*decimal.Decimal, error) {
	done, err := c.brkrs.AddTransaction.Allow()
	if err != nil {
		return nil, ErrUnavailable
	}
	bal, err := c.next.AddTransaction(req)
	done(breakerSuccess(err))
	return bal, err
}

func (c *circuitBreakMiddleware) Transactions(acctNum int64) ([]Transaction, error) {
	done, err := c.brkrs.Transactions.Allow()
	if err != nil {
		return nil, ErrUnavailable
	}
	txns, err := c.next.Transactions(acctNum)
	done(breakerSuccess(err))
	return txns, err
}

func (c *circuitBreakMiddleware) InterestAndFees(acctNum int64) (*decimal.Decimal, error) {
	done, err := c.brkrs.InterestAndFees.Allow()
	if err != nil {
		return nil, ErrUnavailable
	}
	bal, err := c.next.InterestAndFees(acctNum)
	done(breakerSuccess(err))
	return bal, err
}

func (c *circuitBreakMiddleware) Summary() ([]AccountSummary, error) {
	done, err := c.brkrs.Summary.Allow()
	if err != nil {
		return nil, ErrUnavailable
	}
	sums, err := c.next.Summary()
	done(breakerSuccess(err))
	return sums, err
}

func (c *circuitBreakMiddleware) Statement(w io.Writer, acctNum int64) error {
	done, err := c.brkrs.Statement.Allow()
	if err != nil {
		return ErrUnavailable
	}
	err = c.next.Statement(w, acctNum)
	done(breakerSuccess(err))
	return err
}
