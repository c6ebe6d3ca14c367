// Package fault carries the failure kinds of the wallet session and the
// submission workflow. The cause is always kept; only the user-facing
// message is generic.
package fault

import (
	"errors"
	"fmt"
)

type Kind string

const (
	WalletUnavailable  Kind = "wallet_unavailable"
	SubmissionFailure  Kind = "submission_failure"
	ReadFailure        Kind = "read_failure"
	InvalidAmount      Kind = "invalid_amount"
	InvalidRecipient   Kind = "invalid_recipient"
	SubmissionInFlight Kind = "submission_in_flight"
)

// GenericMessage is what users see for every wallet or submission fault.
const GenericMessage = "No Ethereum Object."

var (
	ErrNoWallet   = errors.New("wallet extension not available")
	ErrNoAccounts = errors.New("wallet returned no accounts")
	ErrNoAccount  = errors.New("no connected account")
	ErrInFlight   = errors.New("a submission is already in flight")
)

type Fault struct {
	Kind Kind
	Op   string
	Err  error
}

func New(kind Kind, op string, err error) *Fault {
	return &Fault{Kind: kind, Op: op, Err: err}
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// UserMessage is the text rendered at the view boundary.
func (f *Fault) UserMessage() string {
	switch f.Kind {
	case InvalidAmount:
		return "Invalid amount"
	case InvalidRecipient:
		return "Invalid recipient address"
	case SubmissionInFlight:
		return "A transfer is already being submitted"
	}
	return GenericMessage
}

// Is reports whether err is a *Fault of the given kind.
func Is(err error, kind Kind) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" when err is not a *Fault.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
