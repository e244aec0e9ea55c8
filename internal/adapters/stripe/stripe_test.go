package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"barstock-pos/internal/config"
	"barstock-pos/internal/core/services"
	"barstock-pos/internal/core/terminal"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStripe serves the handful of endpoints the adapter calls
type fakeStripe struct {
	mu sync.Mutex

	intents map[string]map[string]interface{}
	readers []string
	// statuses reported on successive reader polls; the last one repeats
	actionStatuses []string
	failureCode    string
	polls          int
	cancelActions  int
	lastForm       map[string]string
}

func newFakeStripe(t *testing.T) (*fakeStripe, *Provider) {
	f := &fakeStripe{
		intents:        make(map[string]map[string]interface{}),
		readers:        []string{"tmr_1"},
		actionStatuses: []string{"in_progress", "succeeded"},
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	cfg := config.PaymentsConfig{
		Currency:            "usd",
		ReaderPollInterval:  time.Millisecond,
		ReaderActionTimeout: 2 * time.Second,
	}
	return f, NewProviderWithURL(cfg, srv.URL)
}

func (f *fakeStripe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = r.ParseForm()
	f.lastForm = make(map[string]string)
	for k := range r.PostForm {
		f.lastForm[k] = r.PostForm.Get(k)
	}

	path := r.URL.Path
	switch {
	case path == "/v1/terminal/connection_tokens":
		f.json(w, map[string]interface{}{"object": "terminal.connection_token", "secret": "pst_test_123"})

	case path == "/v1/payment_intents" && r.Method == http.MethodPost:
		amount, _ := strconv.ParseInt(r.PostForm.Get("amount"), 10, 64)
		id := fmt.Sprintf("pi_%d", len(f.intents)+1)
		pi := map[string]interface{}{
			"id":            id,
			"object":        "payment_intent",
			"amount":        amount,
			"currency":      r.PostForm.Get("currency"),
			"status":        "requires_payment_method",
			"client_secret": id + "_secret",
			"metadata":      map[string]string{"userId": r.PostForm.Get("metadata[userId]")},
		}
		f.intents[id] = pi
		f.json(w, pi)

	case strings.HasPrefix(path, "/v1/payment_intents/"):
		rest := strings.TrimPrefix(path, "/v1/payment_intents/")
		id := strings.TrimSuffix(rest, "/cancel")
		pi, ok := f.intents[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			f.json(w, map[string]interface{}{"error": map[string]string{
				"type": "invalid_request_error", "code": "resource_missing", "message": "No such payment_intent",
			}})
			return
		}
		if strings.HasSuffix(rest, "/cancel") {
			pi["status"] = "canceled"
		}
		f.json(w, pi)

	case path == "/v1/terminal/readers":
		data := make([]map[string]interface{}, 0, len(f.readers))
		for _, id := range f.readers {
			data = append(data, map[string]interface{}{"id": id, "object": "terminal.reader", "label": "Bar", "status": "online"})
		}
		f.json(w, map[string]interface{}{"object": "list", "data": data, "has_more": false, "url": "/v1/terminal/readers"})

	case strings.HasSuffix(path, "/process_payment_intent"):
		f.polls = 0
		f.json(w, f.reader("in_progress", r.PostForm.Get("payment_intent")))

	case strings.HasSuffix(path, "/cancel_action"):
		f.cancelActions++
		f.json(w, map[string]interface{}{"id": "tmr_1", "object": "terminal.reader"})

	case strings.HasPrefix(path, "/v1/terminal/readers/"):
		status := f.actionStatuses[len(f.actionStatuses)-1]
		if f.polls < len(f.actionStatuses) {
			status = f.actionStatuses[f.polls]
		}
		f.polls++
		f.json(w, f.reader(status, "pi_1"))

	default:
		w.WriteHeader(http.StatusNotFound)
		f.json(w, map[string]interface{}{"error": map[string]string{"type": "invalid_request_error", "message": "unknown path " + path}})
	}
}

func (f *fakeStripe) reader(status, intentID string) map[string]interface{} {
	action := map[string]interface{}{
		"type":                   "process_payment_intent",
		"status":                 status,
		"process_payment_intent": map[string]interface{}{"payment_intent": intentID},
	}
	if status == "failed" {
		action["failure_code"] = f.failureCode
		action["failure_message"] = "Your card was declined."
	}
	return map[string]interface{}{"id": "tmr_1", "object": "terminal.reader", "status": "online", "action": action}
}

func (f *fakeStripe) json(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeStripe) form(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm[key]
}

func (f *fakeStripe) cancels() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelActions
}

func TestGateway_CreateIntent(t *testing.T) {
	f, provider := newFakeStripe(t)
	gw := provider.Gateway("sk_test_1")

	pi, err := gw.CreateIntent(context.Background(), 1250, "usd", map[string]string{"userId": "u-1"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", pi.ID)
	assert.Equal(t, int64(1250), pi.AmountMinor)
	assert.True(t, decimal.RequireFromString("12.50").Equal(pi.Amount))
	assert.Equal(t, "u-1", pi.Metadata["userId"])

	assert.Equal(t, "1250", f.form("amount"))
	assert.Equal(t, "card_present", f.form("payment_method_types[0]"))
	assert.Equal(t, "automatic", f.form("capture_method"))
}

func TestGateway_GetAndCancel(t *testing.T) {
	_, provider := newFakeStripe(t)
	gw := provider.Gateway("sk_test_1")
	ctx := context.Background()

	created, err := gw.CreateIntent(ctx, 500, "usd", nil)
	require.NoError(t, err)

	got, err := gw.GetIntent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "requires_payment_method", got.Status)

	canceled, err := gw.CancelIntent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, terminal.IntentCanceled, canceled.Status)

	_, err = gw.GetIntent(ctx, "pi_missing")
	assert.ErrorIs(t, err, services.ErrIntentNotFound)
	_, err = gw.CancelIntent(ctx, "pi_missing")
	assert.ErrorIs(t, err, services.ErrIntentNotFound)
}

func TestGateway_ConnectionToken(t *testing.T) {
	_, provider := newFakeStripe(t)

	token, err := provider.Gateway("sk_test_1").ConnectionToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pst_test_123", token)
}

func TestReader_CollectAndProcess(t *testing.T) {
	f, provider := newFakeStripe(t)
	reader := provider.Reader("sk_test_1")
	ctx := context.Background()
	intent := &terminal.PaymentIntent{ID: "pi_1"}

	assert.Error(t, reader.DiscoverAndConnect(ctx), "connect before initialize")
	require.NoError(t, reader.Initialize(ctx, "pst_test_123"))
	device, ok := reader.(terminal.DeviceReader)
	require.True(t, ok)
	assert.Empty(t, device.DeviceID())
	require.NoError(t, reader.DiscoverAndConnect(ctx))
	assert.Equal(t, "tmr_1", device.DeviceID())

	require.NoError(t, reader.CollectPaymentMethod(ctx, intent))
	require.NoError(t, reader.ProcessPayment(ctx, intent))

	require.NoError(t, reader.Disconnect(ctx))
	assert.Equal(t, 1, f.cancels())
	assert.Empty(t, device.DeviceID())
	require.NoError(t, reader.Disconnect(ctx))
	assert.Equal(t, 1, f.cancels(), "second disconnect is a no-op")
}

func TestReader_Declined(t *testing.T) {
	f, provider := newFakeStripe(t)
	f.actionStatuses = []string{"failed"}
	f.failureCode = "card_declined"
	reader := provider.Reader("sk_test_1")
	ctx := context.Background()

	require.NoError(t, reader.Initialize(ctx, "pst_test_123"))
	require.NoError(t, reader.DiscoverAndConnect(ctx))

	err := reader.CollectPaymentMethod(ctx, &terminal.PaymentIntent{ID: "pi_1"})
	assert.ErrorIs(t, err, terminal.ErrDeclined)
}

func TestReader_NoReaderFound(t *testing.T) {
	f, provider := newFakeStripe(t)
	f.readers = nil
	reader := provider.Reader("sk_test_1")
	ctx := context.Background()

	require.NoError(t, reader.Initialize(ctx, "pst_test_123"))
	assert.ErrorIs(t, reader.DiscoverAndConnect(ctx), terminal.ErrNoReaderFound)
}

func TestReader_CollectCanceled(t *testing.T) {
	f, provider := newFakeStripe(t)
	f.actionStatuses = []string{"in_progress"}
	reader := provider.Reader("sk_test_1")

	require.NoError(t, reader.Initialize(context.Background(), "pst_test_123"))
	require.NoError(t, reader.DiscoverAndConnect(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := reader.CollectPaymentMethod(ctx, &terminal.PaymentIntent{ID: "pi_1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, f.cancels())
}

func TestReader_CollectWithoutConnect(t *testing.T) {
	_, provider := newFakeStripe(t)

	err := provider.Reader("sk_test_1").CollectPaymentMethod(context.Background(), &terminal.PaymentIntent{ID: "pi_1"})
	assert.ErrorIs(t, err, terminal.ErrNotConnected)
}
