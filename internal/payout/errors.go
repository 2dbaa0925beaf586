package payout

import "fmt"

// ErrorKind is the stable, documented identity of a public SDK error
// (§6, §7). Messages are free to change; Kind never does.
type ErrorKind string

const (
	KindLedgerNotConfirmed     ErrorKind = "ledger-not-confirmed"
	KindAFTDeclined            ErrorKind = "aft-declined"
	KindPISFailed              ErrorKind = "pis-failed"
	KindReceiptReused          ErrorKind = "receipt-reused"
	KindQuoteRequired          ErrorKind = "quote-required"
	KindQuoteExpired           ErrorKind = "quote-expired"
	KindDestinationNotAllowed  ErrorKind = "destination-not-allowed"
	KindPolicyNotFound         ErrorKind = "policy-not-found"
	KindComplianceDenied       ErrorKind = "compliance-denied"
	KindNotOCTEligible         ErrorKind = "not-oct-eligible"
	KindInvalidDestination     ErrorKind = "invalid-destination"
	KindKeyIDUnknown           ErrorKind = "key-id-unknown"
	KindEnvelopeDecryptFailure ErrorKind = "envelope-decrypt-failure"
	KindKeySetUnavailable      ErrorKind = "key-set-unavailable-in-production"
)

// Error is the concrete type behind every typed SDK error. Callers compare
// against Kind (or use errors.Is against the package-level sentinels
// below) rather than matching on Error()'s text.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is implements errors.Is against the package-level sentinel values
// (New(kind, "")) so callers can write errors.Is(err, payout.ErrQuoteExpired).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Sentinels for errors.Is comparisons; Message/Cause are irrelevant to Is.
var (
	ErrLedgerNotConfirmed    = New(KindLedgerNotConfirmed, "")
	ErrAFTDeclined           = New(KindAFTDeclined, "")
	ErrPISFailed             = New(KindPISFailed, "")
	ErrReceiptReused         = New(KindReceiptReused, "")
	ErrQuoteRequired         = New(KindQuoteRequired, "")
	ErrQuoteExpired          = New(KindQuoteExpired, "")
	ErrDestinationNotAllowed = New(KindDestinationNotAllowed, "")
	ErrPolicyNotFound        = New(KindPolicyNotFound, "")
	ErrComplianceDenied      = New(KindComplianceDenied, "")
	ErrNotOCTEligible        = New(KindNotOCTEligible, "")
	ErrInvalidDestination    = New(KindInvalidDestination, "")
	ErrKeyIDUnknown          = New(KindKeyIDUnknown, "")
	ErrEnvelopeDecryptFailure = New(KindEnvelopeDecryptFailure, "")
	ErrKeySetUnavailable     = New(KindKeySetUnavailable, "")
)
