package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"visadirect-sdk-go/internal/compliance"
	"visadirect-sdk-go/internal/corridor"
	"visadirect-sdk-go/internal/idempotency"
	"visadirect-sdk-go/internal/payout"
	"visadirect-sdk-go/internal/quoting"
	"visadirect-sdk-go/internal/receipt"
	"visadirect-sdk-go/internal/recipient"
	"visadirect-sdk-go/pkg/cache"
)

type stubPoster struct {
	response map[string]any
	status   int
	err      error
	calls    []string
}

func (p *stubPoster) Post(_ context.Context, path string, _ any) (map[string]any, int, error) {
	p.calls = append(p.calls, path)
	if p.err != nil {
		return nil, 0, p.err
	}
	return p.response, p.status, nil
}

type stubEmitter struct {
	events chan payout.CompensationEvent
}

func newStubEmitter() *stubEmitter {
	return &stubEmitter{events: make(chan payout.CompensationEvent, 4)}
}

func (e *stubEmitter) Emit(_ context.Context, event payout.CompensationEvent) {
	e.events <- event
}

func newTestOrchestrator(http Poster, emitter *stubEmitter) *Orchestrator {
	logger := zap.NewNop()
	c := cache.NewMemoryCache()
	return New(
		http,
		idempotency.NewMemoryStore(),
		receipt.NewMemoryStore(),
		emitter,
		recipient.New(http, c, logger),
		quoting.New(http, c, logger),
		compliance.New(http),
		logger,
	)
}

func basicRequest() payout.Request {
	return payout.Request{
		OriginatorID:   "orig-1",
		IdempotencyKey: "idem-1",
		Funding:        payout.InternalFunding{DebitConfirmed: true, ConfirmationRef: "ref-1"},
		Destination:    payout.CardDestination{PanToken: "pan-1"},
		Amount:         payout.Amount{Currency: "USD", Minor: 1000},
	}
}

func TestPayout_InternalFunding_DispatchesToCardPath(t *testing.T) {
	http := &stubPoster{response: map[string]any{"payoutId": "po-1", "status": "APPROVED"}, status: 200}
	o := newTestOrchestrator(http, newStubEmitter())

	res, err := o.Payout(context.Background(), basicRequest())
	require.NoError(t, err)
	assert.Equal(t, "po-1", res.PayoutID)
	assert.Equal(t, "/visadirect/fundstransfer/v1/pushfunds", http.calls[len(http.calls)-1])
}

func TestPayout_InternalFunding_UnconfirmedDebitFails(t *testing.T) {
	http := &stubPoster{response: map[string]any{}, status: 200}
	o := newTestOrchestrator(http, newStubEmitter())

	req := basicRequest()
	req.Funding = payout.InternalFunding{DebitConfirmed: false}

	_, err := o.Payout(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, payout.ErrLedgerNotConfirmed)
}

func TestPayout_IdempotentRetry_ReturnsCachedResultWithoutRedispatch(t *testing.T) {
	http := &stubPoster{response: map[string]any{"payoutId": "po-1", "status": "APPROVED"}, status: 200}
	o := newTestOrchestrator(http, newStubEmitter())

	req := basicRequest()
	first, err := o.Payout(context.Background(), req)
	require.NoError(t, err)

	callsAfterFirst := len(http.calls)
	second, err := o.Payout(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.PayoutID, second.PayoutID)
	assert.Equal(t, callsAfterFirst, len(http.calls), "a repeated idempotency key must not dispatch again")
}

func TestPayout_AFTFunding_ReceiptReusedOnSecondConsume(t *testing.T) {
	http := &stubPoster{response: map[string]any{"payoutId": "po-1", "status": "APPROVED"}, status: 200}
	o := newTestOrchestrator(http, newStubEmitter())

	req := basicRequest()
	req.Funding = payout.AFTFunding{ReceiptID: "receipt-1", Status: "approved"}
	req.IdempotencyKey = "idem-aft-1"

	_, err := o.Payout(context.Background(), req)
	require.NoError(t, err)

	req.IdempotencyKey = "idem-aft-2"
	_, err = o.Payout(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, payout.ErrReceiptReused)
}

func TestPayout_AFTFunding_DeclinedStatusFails(t *testing.T) {
	http := &stubPoster{response: map[string]any{}, status: 200}
	o := newTestOrchestrator(http, newStubEmitter())

	req := basicRequest()
	req.Funding = payout.AFTFunding{ReceiptID: "receipt-2", Status: "declined"}

	_, err := o.Payout(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, payout.ErrAFTDeclined)
}

func TestPayout_CrossCurrencyWithoutQuoteRequiresQuote(t *testing.T) {
	http := &stubPoster{response: map[string]any{}, status: 200}
	o := newTestOrchestrator(http, newStubEmitter())

	req := basicRequest()
	req.Amount.Currency = "GBP"

	_, err := o.Payout(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, payout.ErrQuoteRequired)
}

func TestPayout_DispatchFailureEmitsCompensationEvent(t *testing.T) {
	http := &stubPoster{err: assertError{"network down"}}
	emitter := newStubEmitter()
	o := newTestOrchestrator(http, emitter)

	_, err := o.Payout(context.Background(), basicRequest())
	require.Error(t, err)

	select {
	case event := <-emitter.events:
		assert.Equal(t, "payout_failed_requires_compensation", event.Event)
		assert.Equal(t, "idem-1", event.SagaID)
	case <-time.After(time.Second):
		t.Fatal("expected a compensation event")
	}
}

func TestPayout_AccountDestination_DispatchesToAccountPath(t *testing.T) {
	http := &stubPoster{response: map[string]any{"payoutId": "po-2", "status": "APPROVED"}, status: 200}
	o := newTestOrchestrator(http, newStubEmitter())

	req := basicRequest()
	req.Destination = payout.AccountDestination{AccountID: "acct-1"}

	_, err := o.Payout(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "/accountpayouts/v1/payout", http.calls[len(http.calls)-1])
}

func TestPayout_CorridorPolicyBlocksDisallowedDestination(t *testing.T) {
	http := &stubPoster{response: map[string]any{"payoutId": "po-3", "status": "APPROVED"}, status: 200}
	o := newTestOrchestrator(http, newStubEmitter())
	o.CorridorPolicy = &corridor.Policy{Corridors: []corridor.Corridor{
		{SourceCountry: "US", TargetCountry: "MX", Rules: corridor.CorridorRules{
			Rails: map[string][]string{"allowedDestinations": {"account"}},
		}},
	}}

	req := basicRequest()
	req.Preflight.Corridor = &payout.CorridorRequest{SourceCountry: "US", TargetCountry: "MX"}

	_, err := o.Payout(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, payout.ErrDestinationNotAllowed)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
