package terminal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const cleanupTimeout = 15 * time.Second

// Snapshot is a point-in-time copy of a session for display
type Snapshot struct {
	Status          Status          `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentIntentID string          `json:"paymentIntentId,omitempty"`
	ReaderConnected bool            `json:"readerConnected"`
	ErrorMessage    string          `json:"errorMessage,omitempty"`
	Retryable       bool            `json:"retryable"`
	Closed          bool            `json:"closed"`
}

// Session drives one card-present payment from reader connection to settlement.
//
// The mutex guards state only and is never held across a call to the server or
// the reader. A closed session never reopens; the reader is released at most
// once, on whichever exit path closes the session.
type Session struct {
	server PaymentServer
	reader Reader

	mu              sync.Mutex
	status          Status
	amount          decimal.Decimal
	intent          *PaymentIntent
	intentVoided    bool
	readerConnected bool
	released        bool
	initialized     bool
	inFlight        bool
	closed          bool
	errorMessage    string
	retryable       bool
}

// NewSession creates an idle session over the given server and reader
func NewSession(server PaymentServer, reader Reader) *Session {
	return &Session{
		server: server,
		reader: reader,
		status: StatusIdle,
	}
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Status:          s.status,
		Amount:          s.amount,
		ReaderConnected: s.readerConnected,
		ErrorMessage:    s.errorMessage,
		Retryable:       s.retryable,
		Closed:          s.closed,
	}
	if s.intent != nil {
		snap.PaymentIntentID = s.intent.ID
	}
	return snap
}

// Status returns the current status
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Initialize obtains a connection token, prepares the reader and then connects.
// A token failure is reported and not retried automatically.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if err := s.busyLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.initialized {
		s.mu.Unlock()
		return s.Connect(ctx)
	}
	if !CanTransitionTo(s.status, StatusInitializing) {
		s.mu.Unlock()
		return newError(ErrBusy, false, nil)
	}
	s.status = StatusInitializing
	s.inFlight = true
	s.errorMessage = ""
	s.mu.Unlock()

	token, err := s.server.ConnectionToken(ctx)
	if err == nil {
		err = s.reader.Initialize(ctx, token)
	}

	s.mu.Lock()
	s.inFlight = false
	if s.closed {
		s.mu.Unlock()
		return newError(ErrSessionClosed, false, nil)
	}
	if err != nil {
		te := newError(ErrInitialization, false, err)
		s.failLocked(te)
		s.mu.Unlock()
		log.Printf("❌ Terminal initialization failed: %v", err)
		return te
	}
	s.initialized = true
	s.mu.Unlock()

	return s.Connect(ctx)
}

// Connect discovers and binds the reader. After a recoverable failure that
// kept the binding it simply restores the connected state.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if err := s.busyLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.initialized {
		s.mu.Unlock()
		return newError(ErrNotInitialized, false, nil)
	}
	if s.readerConnected {
		defer s.mu.Unlock()
		switch s.status {
		case StatusConnected:
			return nil
		case StatusError:
			s.status = StatusConnected
			s.errorMessage = ""
			s.retryable = false
			return nil
		default:
			return newError(ErrCollectInFlight, false, nil)
		}
	}
	if !CanTransitionTo(s.status, StatusConnecting) {
		s.mu.Unlock()
		return newError(ErrBusy, false, nil)
	}
	s.status = StatusConnecting
	s.inFlight = true
	s.errorMessage = ""
	s.mu.Unlock()

	err := s.reader.DiscoverAndConnect(ctx)

	s.mu.Lock()
	s.inFlight = false
	if s.closed {
		// torn down while discovering; a late binding still has to be released
		if err == nil {
			s.readerConnected = true
		}
		s.mu.Unlock()
		s.release(ctx)
		return newError(ErrSessionClosed, false, nil)
	}
	if err != nil {
		kind := ErrConnection
		if errors.Is(err, ErrNoReaderFound) {
			kind = ErrNoReaderFound
		}
		te := newError(kind, true, err)
		s.failLocked(te)
		s.mu.Unlock()
		log.Printf("⚠️ Card reader connection failed: %v", err)
		return te
	}
	s.readerConnected = true
	s.status = StatusConnected
	s.retryable = false
	s.mu.Unlock()

	log.Printf("✅ Card reader connected")
	return nil
}

// Collect creates a payment intent for amount and has the bound reader collect
// and process it. On success the session waits in processing for Confirm.
func (s *Session) Collect(ctx context.Context, amount decimal.Decimal, metadata map[string]string) (*PaymentIntent, error) {
	if !amount.IsPositive() {
		return nil, newError(ErrInvalidAmount, false, nil)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, newError(ErrSessionClosed, false, nil)
	}
	if s.status == StatusCollecting || s.status == StatusProcessing {
		s.mu.Unlock()
		return nil, newError(ErrCollectInFlight, false, nil)
	}
	if s.inFlight {
		s.mu.Unlock()
		return nil, newError(ErrBusy, false, nil)
	}
	if s.status != StatusConnected || !s.readerConnected {
		s.mu.Unlock()
		return nil, newError(ErrNotConnected, false, nil)
	}
	s.status = StatusCollecting
	s.inFlight = true
	s.amount = amount
	s.intent = nil
	s.intentVoided = false
	s.errorMessage = ""
	s.retryable = false
	s.mu.Unlock()

	intent, err := s.server.CreatePaymentIntent(ctx, amount, metadata)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.inFlight = false
		if s.closed {
			return nil, newError(ErrSessionClosed, false, nil)
		}
		if errors.Is(err, ErrInvalidAmount) {
			s.status = StatusConnected
			return nil, newError(ErrInvalidAmount, false, err)
		}
		te := newError(ErrCollection, true, err)
		s.failLocked(te)
		return nil, te
	}

	s.mu.Lock()
	s.intent = intent
	if s.closed {
		s.inFlight = false
		s.mu.Unlock()
		s.voidIntent(ctx, intent.ID)
		return nil, newError(ErrSessionClosed, false, nil)
	}
	s.mu.Unlock()

	if err := s.reader.CollectPaymentMethod(ctx, intent); err != nil {
		return nil, s.failCollection(ctx, intent, err)
	}

	s.mu.Lock()
	if s.closed {
		s.inFlight = false
		s.mu.Unlock()
		return nil, newError(ErrSessionClosed, false, nil)
	}
	s.status = StatusProcessing
	s.mu.Unlock()

	if err := s.reader.ProcessPayment(ctx, intent); err != nil {
		return nil, s.failCollection(ctx, intent, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if s.closed {
		return nil, newError(ErrSessionClosed, false, nil)
	}
	return intent, nil
}

// Confirm asks the server whether the collected intent settled. Only a
// server-reported succeeded status yields success. Once the session has ended
// Confirm only re-reads the server and leaves the session untouched.
func (s *Session) Confirm(ctx context.Context, paymentIntentID string) (*PaymentIntent, error) {
	s.mu.Lock()
	if s.intent == nil {
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return nil, newError(ErrSessionClosed, false, nil)
		}
		return nil, newError(ErrNothingToConfirm, false, nil)
	}
	if paymentIntentID == "" {
		paymentIntentID = s.intent.ID
	}
	if paymentIntentID != s.intent.ID {
		s.mu.Unlock()
		return nil, newError(ErrUnknownIntent, false, nil)
	}
	if s.closed {
		s.mu.Unlock()
		return s.readSettlement(ctx, paymentIntentID)
	}
	if s.inFlight {
		s.mu.Unlock()
		return nil, newError(ErrCollectInFlight, false, nil)
	}
	if s.status != StatusProcessing {
		s.mu.Unlock()
		return nil, newError(ErrNothingToConfirm, false, nil)
	}
	s.inFlight = true
	amount := s.amount
	s.mu.Unlock()

	pi, err := s.server.ConfirmPayment(ctx, paymentIntentID)

	s.mu.Lock()
	s.inFlight = false
	if s.closed {
		s.mu.Unlock()
		return nil, newError(ErrSessionClosed, false, nil)
	}
	if err != nil {
		te := newError(ErrConfirmation, true, err)
		s.errorMessage = te.UserMessage()
		s.retryable = true
		s.mu.Unlock()
		return nil, te
	}

	switch {
	case pi.Status == IntentSucceeded && !pi.Amount.Equal(amount):
		te := newError(ErrAmountMismatch, false, fmt.Errorf("requested %s, settled %s", amount, pi.Amount))
		s.failLocked(te)
		s.closed = true
		s.mu.Unlock()
		log.Printf("❌ Payment %s settled for %s, expected %s", pi.ID, pi.Amount, amount)
		s.release(ctx)
		return pi, te

	case pi.Status == IntentSucceeded:
		s.status = StatusSuccess
		s.closed = true
		s.errorMessage = ""
		s.retryable = false
		s.mu.Unlock()
		log.Printf("✅ Payment %s succeeded (%s)", pi.ID, amount)
		s.release(ctx)
		return pi, nil

	default:
		te := newError(ErrPaymentNotCompleted, false, fmt.Errorf("intent status %q", pi.Status))
		s.failLocked(te)
		s.closed = true
		s.mu.Unlock()
		s.voidIntent(ctx, paymentIntentID)
		s.release(ctx)
		return pi, te
	}
}

// Cancel ends the session, voiding any open intent and releasing the reader.
// It is refused while a collection is mid-flight and after success.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.status == StatusSuccess:
		s.mu.Unlock()
		return newError(ErrAlreadySucceeded, false, nil)
	case s.inFlight && (s.status == StatusCollecting || s.status == StatusProcessing):
		s.mu.Unlock()
		return newError(ErrCancelInFlight, false, nil)
	case s.closed:
		s.mu.Unlock()
		return nil
	}
	s.status = StatusCanceled
	s.closed = true
	s.errorMessage = ""
	s.retryable = false
	intentID := s.openIntentLocked()
	s.mu.Unlock()

	if intentID != "" {
		s.voidIntent(ctx, intentID)
	}
	s.release(ctx)
	log.Printf("🛑 Payment session canceled")
	return nil
}

// Abandon is screen teardown: it always releases the reader, even while a
// call is in flight. That call's result is discarded when it returns.
func (s *Session) Abandon(ctx context.Context) {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.status = StatusCanceled
		s.errorMessage = ""
	}
	intentID := ""
	if s.status != StatusSuccess {
		intentID = s.openIntentLocked()
	}
	s.mu.Unlock()

	if intentID != "" {
		s.voidIntent(ctx, intentID)
	}
	s.release(ctx)
}

func (s *Session) readSettlement(ctx context.Context, id string) (*PaymentIntent, error) {
	pi, err := s.server.ConfirmPayment(ctx, id)
	if err != nil {
		return nil, newError(ErrConfirmation, true, err)
	}
	if pi.Status != IntentSucceeded {
		return pi, newError(ErrPaymentNotCompleted, false, fmt.Errorf("intent status %q", pi.Status))
	}
	return pi, nil
}

func (s *Session) failCollection(ctx context.Context, intent *PaymentIntent, cause error) error {
	kind := ErrCollection
	switch {
	case errors.Is(cause, ErrDeclined):
		kind = ErrDeclined
	case errors.Is(cause, ErrAmountMismatch):
		kind = ErrAmountMismatch
	}
	fatal := kind != ErrCollection

	s.voidIntent(ctx, intent.ID)

	s.mu.Lock()
	s.inFlight = false
	if s.closed {
		s.mu.Unlock()
		return newError(ErrSessionClosed, false, nil)
	}
	te := newError(kind, !fatal, cause)
	s.failLocked(te)
	if fatal {
		s.closed = true
	}
	s.mu.Unlock()

	log.Printf("⚠️ Payment collection failed for %s: %v", intent.ID, cause)
	if fatal {
		s.release(ctx)
	}
	return te
}

func (s *Session) busyLocked() error {
	if s.closed {
		return newError(ErrSessionClosed, false, nil)
	}
	if s.inFlight {
		if s.status == StatusCollecting || s.status == StatusProcessing {
			return newError(ErrCollectInFlight, false, nil)
		}
		return newError(ErrBusy, false, nil)
	}
	return nil
}

func (s *Session) failLocked(te *Error) {
	s.status = StatusError
	s.errorMessage = te.UserMessage()
	s.retryable = te.Retryable
}

func (s *Session) openIntentLocked() string {
	if s.intent == nil || s.intentVoided {
		return ""
	}
	return s.intent.ID
}

// voidIntent cancels the intent once; failure is logged and never blocks the caller
func (s *Session) voidIntent(ctx context.Context, id string) {
	s.mu.Lock()
	if s.intentVoided || s.intent == nil || s.intent.ID != id {
		s.mu.Unlock()
		return
	}
	s.intentVoided = true
	s.mu.Unlock()

	cctx, cancel := cleanupContext(ctx)
	defer cancel()
	if _, err := s.server.CancelPayment(cctx, id); err != nil {
		log.Printf("⚠️ Failed to void payment intent %s: %v", id, err)
	}
}

// release disconnects the reader at most once
func (s *Session) release(ctx context.Context) {
	s.mu.Lock()
	if s.released || !s.readerConnected {
		s.mu.Unlock()
		return
	}
	s.released = true
	s.readerConnected = false
	s.mu.Unlock()

	cctx, cancel := cleanupContext(ctx)
	defer cancel()
	if err := s.reader.Disconnect(cctx); err != nil {
		log.Printf("⚠️ Failed to release card reader: %v", err)
	}
}

// cleanup outlives a canceled request context
func cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
}
