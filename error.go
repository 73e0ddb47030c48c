package bankcore

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInternalServer = errors.New("internal server error")

	// ErrNoAccountSelected is returned by Bank operations that need a
	// current account when none has been selected.
	ErrNoAccountSelected = errors.New("no account is currently selected")

	// ErrUnavailable is returned by the load-shedding and circuit-break
	// middlewares when the service refuses to take on more work.
	ErrUnavailable = errors.New("service unavailable")
)

type ErrBadRequest struct {
	Fields map[string]string `json:"fields"`
}

func (e ErrBadRequest) Error() string {
	return fmt.Sprintf("missing/invalid params: %v", e.Fields)
}

type ErrInvalidAccountType struct {
	Kind string `json:"kind"`
}

func (e ErrInvalidAccountType) Error() string {
	return fmt.Sprintf("%q is not a valid account type", e.Kind)
}

type ErrUnknownAccount struct {
	Number int64 `json:"number"`
}

func (e ErrUnknownAccount) Error() string {
	return fmt.Sprintf("account %d does not exist", e.Number)
}

type ErrInvalidAmount struct {
	Input string `json:"input"`
}

func (e ErrInvalidAmount) Error() string {
	return fmt.Sprintf("%q is not a valid dollar amount", e.Input)
}

type ErrOverdraw struct{}

func (e ErrOverdraw) Error() string {
	return "This transaction could not be completed due to an insufficient account balance."
}

type SequenceKind string

const (
	SeqBackdated      SequenceKind = "backdated"
	SeqDuplicateClose SequenceKind = "duplicate_close"
)

// ErrSequence reports a transaction that predates the ledger watermark, or
// interest and fees being re-applied within the same calendar month.
type ErrSequence struct {
	Date time.Time    `json:"date"`
	Kind SequenceKind `json:"kind"`
}

func (e ErrSequence) Error() string {
	if e.Kind == SeqDuplicateClose {
		return fmt.Sprintf("Cannot apply interest and fees again in the month of %s.", e.Date.Month())
	}
	return fmt.Sprintf("New transactions must be from %s onward.", e.Date.Format(dateLayout))
}

type LimitScope string

const (
	LimitDaily   LimitScope = "daily"
	LimitMonthly LimitScope = "monthly"
)

type ErrLimit struct {
	Scope LimitScope `json:"scope"`
}

func (e ErrLimit) Error() string {
	if e.Scope == LimitMonthly {
		return fmt.Sprintf("This transaction could not be completed because this account already has %d transactions in this month.", savingsMaxMonthly)
	}
	return fmt.Sprintf("This transaction could not be completed because this account already has %d transactions in this day.", savingsMaxDaily)
}
