package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"barstock-pos/internal/adapters/persistence/models"
	"barstock-pos/internal/core/domain"
	"barstock-pos/internal/core/terminal"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Checkout errors
var (
	ErrCheckoutNotFound = errors.New("checkout session not found")
	ErrCheckoutAmount   = errors.New("an amount is required when the checkout has no tab")
)

const (
	collectTimeout = 3 * time.Minute
	staleAfter     = 30 * time.Minute
	closedTTL      = 10 * time.Minute
)

// CheckoutService owns the server-side card-present checkout sessions.
// Each user holds at most one session, and each physical reader is held by at
// most one session. Starting a session, or binding a reader another session
// holds, abandons the previous holder, which releases its reader.
type CheckoutService struct {
	payments      *PaymentService
	tabs          *TabService
	sales         *SaleService
	notifications *NotificationService

	mu       sync.Mutex
	sessions map[string]*checkout
	byOwner  map[string]string
	byDevice map[string]string
	now      func() time.Time
}

type checkout struct {
	id         string
	owner      domain.Actor
	tabID      *string
	session    *terminal.Session
	reader     terminal.Reader
	device     string
	collecting bool
	saleID     string
	settleErr  string
	updatedAt  time.Time
	done       chan struct{}
}

// CheckoutView is the polled state of a checkout
type CheckoutView struct {
	ID    string  `json:"id"`
	TabID *string `json:"tabId,omitempty"`
	terminal.Snapshot
	Collecting  bool   `json:"collecting"`
	SaleID      string `json:"saleId,omitempty"`
	SettleError string `json:"settleError,omitempty"`
}

// StartCheckoutInput optionally ties the checkout to a tab
type StartCheckoutInput struct {
	TabID *string `json:"tabId"`
}

// CollectInput carries the amount for a checkout without a tab
type CollectInput struct {
	Amount *decimal.Decimal `json:"amount"`
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(payments *PaymentService, tabs *TabService, sales *SaleService, notifications *NotificationService) *CheckoutService {
	return &CheckoutService{
		payments:      payments,
		tabs:          tabs,
		sales:         sales,
		notifications: notifications,
		sessions:      make(map[string]*checkout),
		byOwner:       make(map[string]string),
		byDevice:      make(map[string]string),
		now:           time.Now,
	}
}

// Start opens a session for the caller, initializes the reader and
// connects. A failed connection is reported in the view and can be retried
// with Connect.
func (s *CheckoutService) Start(ctx context.Context, actor domain.Actor, input *StartCheckoutInput) (*CheckoutView, error) {
	if input.TabID != nil {
		tab, err := s.tabs.Get(ctx, *input.TabID)
		if err != nil {
			return nil, err
		}
		if tab.Status != domain.TabOpen {
			return nil, ErrTabNotOpen
		}
		if len(tab.Items) == 0 {
			return nil, ErrTabEmpty
		}
	}

	server, reader, err := s.payments.ServerFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	co := &checkout{
		id:        uuid.NewString(),
		owner:     actor,
		tabID:     input.TabID,
		session:   terminal.NewSession(server, reader),
		reader:    reader,
		updatedAt: s.now(),
	}

	s.mu.Lock()
	prev := s.sessions[s.byOwner[actor.UserID]]
	if prev != nil {
		s.dropLocked(prev)
	}
	s.sessions[co.id] = co
	s.byOwner[actor.UserID] = co.id
	s.mu.Unlock()

	if prev != nil {
		prev.session.Abandon(ctx)
		log.Printf("🛑 Checkout %s abandoned for a new session by %s", prev.id, actor.Username)
	}

	if err := co.session.Initialize(ctx); err != nil {
		var te *terminal.Error
		if !errors.As(err, &te) {
			return nil, err
		}
	}
	s.claimDevice(ctx, co)
	return s.view(co), nil
}

// Get returns the caller's session state
func (s *CheckoutService) Get(_ context.Context, actor domain.Actor, id string) (*CheckoutView, error) {
	co, err := s.lookup(actor, id)
	if err != nil {
		return nil, err
	}
	return s.view(co), nil
}

// Connect retries reader discovery after a recoverable failure
func (s *CheckoutService) Connect(ctx context.Context, actor domain.Actor, id string) (*CheckoutView, error) {
	co, err := s.lookup(actor, id)
	if err != nil {
		return nil, err
	}
	err = co.session.Connect(ctx)
	if err == nil {
		s.claimDevice(ctx, co)
	}
	s.touch(co)
	return s.view(co), err
}

// Collect validates synchronously, then collects and confirms in the
// background. Poll Get for the outcome.
func (s *CheckoutService) Collect(ctx context.Context, actor domain.Actor, id string, input *CollectInput) (*CheckoutView, error) {
	co, err := s.lookup(actor, id)
	if err != nil {
		return nil, err
	}

	amount := decimal.Zero
	if co.tabID != nil {
		tab, err := s.tabs.Get(ctx, *co.tabID)
		if err != nil {
			return nil, err
		}
		if tab.Status != domain.TabOpen {
			return nil, ErrTabNotOpen
		}
		amount = tab.Total()
	} else {
		if input.Amount == nil {
			return nil, ErrCheckoutAmount
		}
		amount = *input.Amount
	}
	if _, err := s.payments.validateAmount(amount, ""); err != nil {
		return nil, err
	}

	s.mu.Lock()
	snap := co.session.Snapshot()
	switch {
	case co.collecting:
		s.mu.Unlock()
		return s.view(co), &terminal.Error{Kind: terminal.ErrCollectInFlight}
	case snap.Closed:
		s.mu.Unlock()
		return s.view(co), &terminal.Error{Kind: terminal.ErrSessionClosed}
	case snap.Status != terminal.StatusConnected || !snap.ReaderConnected:
		s.mu.Unlock()
		return s.view(co), &terminal.Error{Kind: terminal.ErrNotConnected}
	}
	co.collecting = true
	co.done = make(chan struct{})
	co.updatedAt = s.now()
	s.mu.Unlock()

	go s.runCollect(co, amount)
	return s.view(co), nil
}

// Cancel voids any open intent and releases the reader
func (s *CheckoutService) Cancel(ctx context.Context, actor domain.Actor, id string) (*CheckoutView, error) {
	co, err := s.lookup(actor, id)
	if err != nil {
		return nil, err
	}
	err = co.session.Cancel(ctx)
	s.touch(co)
	return s.view(co), err
}

// Abandon tears the session down even mid-collection and forgets it
func (s *CheckoutService) Abandon(ctx context.Context, actor domain.Actor, id string) error {
	co, err := s.lookup(actor, id)
	if err != nil {
		return err
	}
	s.forget(co)
	co.session.Abandon(ctx)
	return nil
}

// SweepStale abandons sessions left idle and forgets finished ones
func (s *CheckoutService) SweepStale(ctx context.Context) int {
	now := s.now()
	var stale []*checkout

	s.mu.Lock()
	for _, co := range s.sessions {
		if co.collecting {
			continue
		}
		idle := now.Sub(co.updatedAt)
		if (co.session.Snapshot().Closed && idle > closedTTL) || idle > staleAfter {
			stale = append(stale, co)
		}
	}
	s.mu.Unlock()

	for _, co := range stale {
		s.forget(co)
		co.session.Abandon(ctx)
	}
	return len(stale)
}

func (s *CheckoutService) runCollect(co *checkout, amount decimal.Decimal) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()
	defer func() {
		s.mu.Lock()
		co.collecting = false
		co.updatedAt = s.now()
		close(co.done)
		s.mu.Unlock()
	}()

	metadata := map[string]string{"checkoutId": co.id}
	if co.tabID != nil {
		metadata["tabId"] = *co.tabID
	}

	intent, err := co.session.Collect(ctx, amount, metadata)
	if err != nil {
		log.Printf("⚠️ Checkout %s collection ended: %v", co.id, err)
		return
	}
	pi, err := co.session.Confirm(ctx, intent.ID)
	if err != nil {
		log.Printf("⚠️ Checkout %s confirmation ended: %v", co.id, err)
		return
	}

	sale, err := s.settle(ctx, co, pi)
	s.mu.Lock()
	if err != nil {
		co.settleErr = "Payment succeeded but the sale could not be recorded. Check the tab before charging again."
	} else {
		co.saleID = sale.ID
	}
	s.mu.Unlock()
	if err != nil {
		log.Printf("❌ Checkout %s: payment %s succeeded but settlement failed: %v", co.id, pi.ID, err)
		return
	}
	s.notifications.NotifyPayment(ctx, sale)
}

func (s *CheckoutService) settle(ctx context.Context, co *checkout, pi *terminal.PaymentIntent) (*models.Sale, error) {
	if co.tabID != nil {
		return s.tabs.SettleCard(ctx, co.owner, *co.tabID, pi.ID)
	}
	items := []models.SaleItem{{Name: "Card payment", Quantity: 1, UnitPrice: pi.Amount}}
	return s.sales.RecordCardSale(ctx, co.owner, nil, items, pi.ID)
}

func (s *CheckoutService) lookup(actor domain.Actor, id string) (*checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	co, ok := s.sessions[id]
	if !ok || co.owner.UserID != actor.UserID {
		return nil, ErrCheckoutNotFound
	}
	return co, nil
}

func (s *CheckoutService) forget(co *checkout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(co)
}

func (s *CheckoutService) dropLocked(co *checkout) {
	delete(s.sessions, co.id)
	if s.byOwner[co.owner.UserID] == co.id {
		delete(s.byOwner, co.owner.UserID)
	}
	if co.device != "" && s.byDevice[co.device] == co.id {
		delete(s.byDevice, co.device)
	}
}

// claimDevice records co as the holder of the reader it just bound. Any other
// session still holding that reader is abandoned, so a device never serves
// two sessions.
func (s *CheckoutService) claimDevice(ctx context.Context, co *checkout) {
	dr, ok := co.reader.(terminal.DeviceReader)
	if !ok || !co.session.Snapshot().ReaderConnected {
		return
	}
	device := dr.DeviceID()
	if device == "" {
		return
	}

	s.mu.Lock()
	if _, live := s.sessions[co.id]; !live {
		s.mu.Unlock()
		return
	}
	prev := s.sessions[s.byDevice[device]]
	if prev == co {
		prev = nil
	}
	if prev != nil {
		s.dropLocked(prev)
	}
	co.device = device
	s.byDevice[device] = co.id
	s.mu.Unlock()

	if prev != nil {
		prev.session.Abandon(ctx)
		log.Printf("🛑 Checkout %s of %s lost reader %s to %s", prev.id, prev.owner.Username, device, co.owner.Username)
	}
}

func (s *CheckoutService) touch(co *checkout) {
	s.mu.Lock()
	co.updatedAt = s.now()
	s.mu.Unlock()
}

func (s *CheckoutService) view(co *checkout) *CheckoutView {
	snap := co.session.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	return &CheckoutView{
		ID:          co.id,
		TabID:       co.tabID,
		Snapshot:    snap,
		Collecting:  co.collecting,
		SaleID:      co.saleID,
		SettleError: co.settleErr,
	}
}

// wait blocks until the background collection started by Collect finishes
func (s *CheckoutService) wait(id string) {
	s.mu.Lock()
	co, ok := s.sessions[id]
	var done chan struct{}
	if ok {
		done = co.done
	}
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}
