package terminal

import (
	"errors"
	"fmt"
)

// Failure kinds. Adapters wrap these so the session can classify vendor errors.
var (
	ErrInitialization      = errors.New("terminal initialization failed")
	ErrNoReaderFound       = errors.New("no reader found")
	ErrConnection          = errors.New("reader connection failed")
	ErrCollection          = errors.New("payment collection failed")
	ErrDeclined            = errors.New("payment declined")
	ErrAmountMismatch      = errors.New("settled amount does not match requested amount")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrConfirmation        = errors.New("payment confirmation failed")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
)

// Misuse of the session API
var (
	ErrNotInitialized   = errors.New("session not initialized")
	ErrNotConnected     = errors.New("reader not connected")
	ErrCollectInFlight  = errors.New("a collection is already in progress")
	ErrBusy             = errors.New("another reader operation is in progress")
	ErrCancelInFlight   = errors.New("cannot cancel while the payment is being collected")
	ErrAlreadySucceeded = errors.New("payment already succeeded")
	ErrNothingToConfirm = errors.New("no collected payment to confirm")
	ErrUnknownIntent    = errors.New("payment intent does not belong to this session")
	ErrSessionClosed    = errors.New("session is closed")
)

var userMessages = map[error]string{
	ErrInitialization:      "Card payments are not available. Check the payment configuration.",
	ErrNoReaderFound:       "No card reader found. Make sure the reader is powered on and nearby, then retry.",
	ErrConnection:          "Could not connect to the card reader. Make sure it is powered on and nearby, then retry.",
	ErrCollection:          "The payment could not be collected. Check the reader and try again.",
	ErrDeclined:            "The card was declined. Start a new payment.",
	ErrAmountMismatch:      "The settled amount does not match the requested amount. Start a new payment.",
	ErrPaymentNotCompleted: "The payment was not completed. Start a new payment.",
	ErrConfirmation:        "Could not reach the payment server to confirm. Try again.",
	ErrInvalidAmount:       "Amount must be greater than zero.",
	ErrNotInitialized:      "The card reader has not been set up yet.",
	ErrNotConnected:        "Connect a card reader before collecting payment.",
	ErrCollectInFlight:     "A payment is already being collected.",
	ErrBusy:                "The card reader is busy. Try again in a moment.",
	ErrCancelInFlight:      "The payment is being processed and cannot be canceled right now.",
	ErrAlreadySucceeded:    "This payment has already succeeded.",
	ErrNothingToConfirm:    "There is no collected payment to confirm.",
	ErrUnknownIntent:       "That payment does not belong to this checkout.",
	ErrSessionClosed:       "This checkout has ended. Start a new payment.",
}

// Error is the typed failure every session operation returns.
// Cause holds the vendor error for logs and is never shown to users.
type Error struct {
	Kind      error
	Retryable bool
	Cause     error
}

func newError(kind error, retryable bool, cause error) *Error {
	return &Error{Kind: kind, Retryable: retryable, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// UserMessage is safe to display
func (e *Error) UserMessage() string {
	if msg, ok := userMessages[e.Kind]; ok {
		return msg
	}
	return "The payment could not be completed."
}

// UserMessage maps any error to displayable text
func UserMessage(err error) string {
	var te *Error
	if errors.As(err, &te) {
		return te.UserMessage()
	}
	for kind, msg := range userMessages {
		if errors.Is(err, kind) {
			return msg
		}
	}
	return "The payment could not be completed."
}

// IsRetryable reports whether the caller may retry the same session
func IsRetryable(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Retryable
}
