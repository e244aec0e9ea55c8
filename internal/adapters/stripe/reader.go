package stripe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"barstock-pos/internal/core/terminal"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Reader drives a Stripe smart reader from the server. The reader itself
// collects and processes in one action, so CollectPaymentMethod waits for
// that action and ProcessPayment checks its outcome.
type Reader struct {
	api     *client.API
	poll    time.Duration
	timeout time.Duration

	mu          sync.Mutex
	initialized bool
	readerID    string
	lastAction  *stripe.TerminalReaderAction
}

// NewReader creates a reader binding for secretKey
func NewReader(secretKey string, backends *stripe.Backends, poll, timeout time.Duration) *Reader {
	if poll <= 0 {
		poll = time.Second
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Reader{
		api:     client.New(secretKey, backends),
		poll:    poll,
		timeout: timeout,
	}
}

// Initialize accepts the connection token; server-driven readers need no SDK handshake
func (r *Reader) Initialize(_ context.Context, connectionToken string) error {
	if connectionToken == "" {
		return errors.New("empty connection token")
	}
	r.mu.Lock()
	r.initialized = true
	r.mu.Unlock()
	return nil
}

// DiscoverAndConnect binds to the first online reader on the account
func (r *Reader) DiscoverAndConnect(ctx context.Context) error {
	r.mu.Lock()
	ready := r.initialized
	r.mu.Unlock()
	if !ready {
		return errors.New("reader not initialized")
	}

	params := &stripe.TerminalReaderListParams{Status: stripe.String("online")}
	params.Context = ctx
	params.Limit = stripe.Int64(10)

	it := r.api.TerminalReaders.List(params)
	for it.Next() {
		reader := it.TerminalReader()
		r.mu.Lock()
		r.readerID = reader.ID
		r.mu.Unlock()
		log.Printf("✅ Card reader connected: %s (%s)", reader.ID, reader.Label)
		return nil
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("list readers: %w", err)
	}
	return terminal.ErrNoReaderFound
}

// CollectPaymentMethod hands the intent to the reader and waits for the
// customer to finish. Canceling ctx cancels the reader action.
func (r *Reader) CollectPaymentMethod(ctx context.Context, intent *terminal.PaymentIntent) error {
	readerID, err := r.connected()
	if err != nil {
		return err
	}

	params := &stripe.TerminalReaderProcessPaymentIntentParams{
		PaymentIntent: stripe.String(intent.ID),
	}
	params.Context = ctx
	if _, err := r.api.TerminalReaders.ProcessPaymentIntent(readerID, params); err != nil {
		return fmt.Errorf("process payment intent: %w", err)
	}

	action, err := r.waitForAction(ctx, readerID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.lastAction = action
	r.mu.Unlock()
	return actionError(action)
}

// ProcessPayment confirms the reader finished the action for this intent
func (r *Reader) ProcessPayment(_ context.Context, intent *terminal.PaymentIntent) error {
	r.mu.Lock()
	action := r.lastAction
	r.mu.Unlock()
	if action == nil {
		return errors.New("no reader action to process")
	}
	if action.ProcessPaymentIntent != nil && action.ProcessPaymentIntent.PaymentIntent != nil &&
		action.ProcessPaymentIntent.PaymentIntent.ID != intent.ID {
		return fmt.Errorf("reader processed %s, expected %s", action.ProcessPaymentIntent.PaymentIntent.ID, intent.ID)
	}
	return actionError(action)
}

// Disconnect cancels any pending reader action and drops the binding
func (r *Reader) Disconnect(ctx context.Context) error {
	r.mu.Lock()
	readerID := r.readerID
	r.readerID = ""
	r.lastAction = nil
	r.mu.Unlock()
	if readerID == "" {
		return nil
	}
	r.cancelAction(ctx, readerID)
	return nil
}

// DeviceID returns the bound reader id, empty when not connected
func (r *Reader) DeviceID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readerID
}

func (r *Reader) connected() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readerID == "" {
		return "", terminal.ErrNotConnected
	}
	return r.readerID, nil
}

func (r *Reader) waitForAction(ctx context.Context, readerID string) (*stripe.TerminalReaderAction, error) {
	deadline := time.NewTimer(r.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.cancelAction(context.Background(), readerID)
			return nil, ctx.Err()
		case <-deadline.C:
			r.cancelAction(context.Background(), readerID)
			return nil, fmt.Errorf("reader action timed out after %s", r.timeout)
		case <-ticker.C:
		}

		params := &stripe.TerminalReaderParams{}
		params.Context = ctx
		reader, err := r.api.TerminalReaders.Get(readerID, params)
		if err != nil {
			log.Printf("⚠️ reader poll failed: %v", err)
			continue
		}
		if reader.Action == nil {
			return nil, errors.New("reader has no pending action")
		}
		if reader.Action.Status != stripe.TerminalReaderActionStatusInProgress {
			return reader.Action, nil
		}
	}
}

func (r *Reader) cancelAction(ctx context.Context, readerID string) {
	params := &stripe.TerminalReaderCancelActionParams{}
	params.Context = ctx
	if _, err := r.api.TerminalReaders.CancelAction(readerID, params); err != nil {
		log.Printf("⚠️ reader cancel action failed: %v", err)
	}
}

func actionError(action *stripe.TerminalReaderAction) error {
	switch action.Status {
	case stripe.TerminalReaderActionStatusSucceeded:
		return nil
	case stripe.TerminalReaderActionStatusFailed:
		if action.FailureCode == "card_declined" {
			return fmt.Errorf("%w: %s", terminal.ErrDeclined, action.FailureMessage)
		}
		return fmt.Errorf("reader action failed: %s %s", action.FailureCode, action.FailureMessage)
	default:
		return fmt.Errorf("reader action %s", action.Status)
	}
}
