package terminal

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// MockServer implements PaymentServer for testing
type MockServer struct {
	mu sync.Mutex

	TokenErr     error
	CreateErr    error
	ConfirmErr   error
	CancelErr    error
	SettleStatus string
	// SettleAmount overrides the amount reported on confirm
	SettleAmount *decimal.Decimal

	Created  int
	Confirms int
	Cancels  []string
	intents  map[string]*PaymentIntent
}

func newMockServer() *MockServer {
	return &MockServer{SettleStatus: IntentSucceeded, intents: make(map[string]*PaymentIntent)}
}

func (m *MockServer) ConnectionToken(_ context.Context) (string, error) {
	if m.TokenErr != nil {
		return "", m.TokenErr
	}
	return "tok_test", nil
}

func (m *MockServer) CreatePaymentIntent(_ context.Context, amount decimal.Decimal, _ map[string]string) (*PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.Created++
	pi := &PaymentIntent{
		ID:          fmt.Sprintf("pi_%d", m.Created),
		Status:      "requires_payment_method",
		Amount:      amount,
		AmountMinor: amount.Shift(2).IntPart(),
		Currency:    "usd",
	}
	m.intents[pi.ID] = pi
	return pi, nil
}

func (m *MockServer) ConfirmPayment(_ context.Context, id string) (*PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Confirms++
	if m.ConfirmErr != nil {
		return nil, m.ConfirmErr
	}
	pi, ok := m.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such intent %s", id)
	}
	out := *pi
	if out.Status != IntentCanceled {
		out.Status = m.SettleStatus
	}
	if m.SettleAmount != nil {
		out.Amount = *m.SettleAmount
	}
	return &out, nil
}

func (m *MockServer) CancelPayment(_ context.Context, id string) (*PaymentIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cancels = append(m.Cancels, id)
	if m.CancelErr != nil {
		return nil, m.CancelErr
	}
	pi, ok := m.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such intent %s", id)
	}
	pi.Status = IntentCanceled
	out := *pi
	return &out, nil
}

func (m *MockServer) cancelCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Cancels)
}

// MockReader implements Reader for testing
type MockReader struct {
	mu sync.Mutex

	InitErr    error
	ConnectErr error
	CollectErr error
	ProcessErr error

	// when set, CollectPaymentMethod signals Entered and waits on Block
	Block   chan struct{}
	Entered chan struct{}

	Connects    int
	Disconnects int
}

func (m *MockReader) Initialize(_ context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("empty token")
	}
	return m.InitErr
}

func (m *MockReader) DiscoverAndConnect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Connects++
	return m.ConnectErr
}

func (m *MockReader) CollectPaymentMethod(_ context.Context, _ *PaymentIntent) error {
	if m.Block != nil {
		m.Entered <- struct{}{}
		<-m.Block
	}
	return m.CollectErr
}

func (m *MockReader) ProcessPayment(_ context.Context, _ *PaymentIntent) error {
	return m.ProcessErr
}

func (m *MockReader) Disconnect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Disconnects++
	return nil
}

func (m *MockReader) disconnectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Disconnects
}
