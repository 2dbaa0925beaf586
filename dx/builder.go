// Package dx is the fluent developer-experience surface for assembling
// and executing a payout: a chain of order-independent setters ending in
// a single terminal Execute call (§2, §4.7).
package dx

import (
	"context"

	"github.com/google/uuid"

	"visadirect-sdk-go/internal/orchestrator"
	"visadirect-sdk-go/internal/payout"
)

// PayoutBuilder accumulates a Request across chained setter calls and
// dispatches it through an Orchestrator on Execute. A builder is single
// use: construct a fresh one per payout.
type PayoutBuilder struct {
	orch *orchestrator.Orchestrator

	originatorID   string
	idempotencyKey string
	funding        payout.Funding
	destination    payout.Destination
	amount         payout.Amount
	preflight      payout.Preflight
}

// New builds a PayoutBuilder bound to orch. Call sites typically get orch
// from a VisaDirectClient rather than constructing one directly.
func New(orch *orchestrator.Orchestrator) *PayoutBuilder {
	return &PayoutBuilder{orch: orch}
}

func (b *PayoutBuilder) ForOriginator(originatorID string) *PayoutBuilder {
	b.originatorID = originatorID
	return b
}

func (b *PayoutBuilder) WithFundingInternal(debitConfirmed bool, confirmationRef string) *PayoutBuilder {
	b.funding = payout.InternalFunding{DebitConfirmed: debitConfirmed, ConfirmationRef: confirmationRef}
	return b
}

func (b *PayoutBuilder) WithFundingFromCard(receiptID, status string) *PayoutBuilder {
	b.funding = payout.AFTFunding{ReceiptID: receiptID, Status: status}
	return b
}

func (b *PayoutBuilder) WithFundingFromExternal(paymentID, status string) *PayoutBuilder {
	b.funding = payout.PISFunding{PaymentID: paymentID, Status: status}
	return b
}

func (b *PayoutBuilder) ToCardDirect(panToken string) *PayoutBuilder {
	b.destination = payout.CardDestination{PanToken: panToken}
	return b
}

func (b *PayoutBuilder) ToAccount(accountID string) *PayoutBuilder {
	b.destination = payout.AccountDestination{AccountID: accountID}
	return b
}

func (b *PayoutBuilder) ToWallet(walletID string) *PayoutBuilder {
	b.destination = payout.WalletDestination{WalletID: walletID}
	return b
}

// ToCardViaAlias defers alias resolution to preflight rather than
// resolving it eagerly, so Execute always sees a consistent view of
// what's been configured and a single code path performs the lookup.
func (b *PayoutBuilder) ToCardViaAlias(alias, aliasType string) *PayoutBuilder {
	if aliasType == "" {
		aliasType = "EMAIL"
	}
	b.destination = payout.AliasDestination{Alias: alias, AliasType: aliasType}
	b.preflight.Alias = &payout.AliasDestination{Alias: alias, AliasType: aliasType}
	return b
}

func (b *PayoutBuilder) ForAmount(currency string, minor int64) *PayoutBuilder {
	b.amount = payout.Amount{Currency: currency, Minor: minor}
	return b
}

func (b *PayoutBuilder) WithIdempotencyKey(key string) *PayoutBuilder {
	b.idempotencyKey = key
	return b
}

// WithCompliancePayload attaches a payload preflight must screen before
// dispatch.
func (b *PayoutBuilder) WithCompliancePayload(payload map[string]any) *PayoutBuilder {
	b.preflight.CompliancePayload = payload
	return b
}

// WithQuoteLock asks preflight to lock an FX quote for srcCurrency ->
// dstCurrency using the amount configured via ForAmount. Execute reads
// that amount, so ForAmount may be called before or after this setter.
func (b *PayoutBuilder) WithQuoteLock(srcCurrency, dstCurrency string) *PayoutBuilder {
	b.preflight.FXLock = &payout.FXLockRequest{
		SrcCurrency: srcCurrency,
		DstCurrency: dstCurrency,
		AmountMinor: b.amount.Minor,
	}
	return b
}

// WithCorridor asks preflight to enforce corridor policy for the given
// source/target country, optionally pinned to a currency pair.
func (b *PayoutBuilder) WithCorridor(sourceCountry, targetCountry, sourceCurrency, targetCurrency string) *PayoutBuilder {
	b.preflight.Corridor = &payout.CorridorRequest{
		SourceCountry:  sourceCountry,
		TargetCountry:  targetCountry,
		SourceCurrency: sourceCurrency,
		TargetCurrency: targetCurrency,
	}
	return b
}

// Execute assembles the accumulated fields into a payout.Request and runs
// it through the bound Orchestrator. It is the builder's single terminal
// operation. When no idempotency key was set, a random one is generated
// on each call; with an explicit key, a repeated call returns the result
// stored for that key instead of dispatching again. A configured FX lock
// takes its amount from ForAmount at this point.
func (b *PayoutBuilder) Execute(ctx context.Context) (payout.Receipt, error) {
	key := b.idempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	if b.preflight.FXLock != nil {
		b.preflight.FXLock.AmountMinor = b.amount.Minor
	}
	req := payout.Request{
		OriginatorID:   b.originatorID,
		IdempotencyKey: key,
		Funding:        b.funding,
		Destination:    b.destination,
		Amount:         b.amount,
		Preflight:      b.preflight,
	}
	return b.orch.Payout(ctx, req)
}
