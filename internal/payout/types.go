// Package payout defines the wire-facing data model shared by the builder,
// orchestrator, and transport: funding sources, destinations, amounts, and
// the preflight options that gate a payout before dispatch.
package payout

import "time"

// Amount is a minor-unit monetary value in a single ISO-4217 currency.
type Amount struct {
	Currency string `json:"currency"`
	Minor    int64  `json:"minor"`
}

// FundingType tags the variant carried by a Funding value.
type FundingType string

const (
	FundingInternal FundingType = "INTERNAL"
	FundingAFT      FundingType = "AFT"
	FundingPIS      FundingType = "PIS"
)

// Funding is a closed tagged union over the three ways a payout may be
// funded. The unexported marker method keeps the set closed to this
// package: the orchestrator's type switch is exhaustive by construction.
type Funding interface {
	fundingType() FundingType
	MarshalJSON() ([]byte, error)
}

// InternalFunding draws from the originator's own ledger balance.
type InternalFunding struct {
	DebitConfirmed  bool   `json:"debitConfirmed"`
	ConfirmationRef string `json:"confirmationRef"`
}

func (InternalFunding) fundingType() FundingType { return FundingInternal }

// AFTFunding draws from a card via a prior Account Funding Transaction,
// identified by a one-time receipt the SDK must burn before dispatch.
type AFTFunding struct {
	ReceiptID string `json:"receiptId"`
	Status    string `json:"status"`
}

func (AFTFunding) fundingType() FundingType { return FundingAFT }

// PISFunding draws from a bank account via a prior payment-initiation
// transfer, identified the same way as AFTFunding.
type PISFunding struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

func (PISFunding) fundingType() FundingType { return FundingPIS }

// DestinationType tags the variant carried by a Destination value.
type DestinationType string

const (
	DestinationCard    DestinationType = "CARD"
	DestinationAccount DestinationType = "ACCOUNT"
	DestinationWallet  DestinationType = "WALLET"
	DestinationAlias   DestinationType = "ALIAS"
)

// Destination is a closed tagged union over the places funds can land.
// ALIAS is transient: preflight must rewrite it to CARD before a
// Destination ever reaches dispatch (§3 invariant).
type Destination interface {
	destinationType() DestinationType
	MarshalJSON() ([]byte, error)
}

// CardDestination pushes funds directly to a tokenized PAN.
type CardDestination struct {
	PanToken string `json:"panToken"`
}

func (CardDestination) destinationType() DestinationType { return DestinationCard }

// AccountDestination pushes funds to a bank account, either by an
// opaque AccountID on file or by raw account/routing details.
type AccountDestination struct {
	AccountID     string `json:"accountId,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	RoutingNumber string `json:"routingNumber,omitempty"`
	AccountType   string `json:"accountType,omitempty"`
	CountryCode   string `json:"countryCode,omitempty"`
	Currency      string `json:"currency,omitempty"`
}

func (AccountDestination) destinationType() DestinationType { return DestinationAccount }

// WalletDestination pushes funds to a digital wallet.
type WalletDestination struct {
	WalletID string `json:"walletId"`
}

func (WalletDestination) destinationType() DestinationType { return DestinationWallet }

// AliasDestination names a recipient by alias (email, phone, ...); it must
// be resolved to a CardDestination during preflight and never survives to
// dispatch.
type AliasDestination struct {
	Alias     string `json:"alias"`
	AliasType string `json:"aliasType"`
}

func (AliasDestination) destinationType() DestinationType { return DestinationAlias }

// FXLockRequest asks preflight to lock an FX quote before dispatch.
type FXLockRequest struct {
	SrcCurrency string `json:"srcCurrency"`
	DstCurrency string `json:"dstCurrency"`
	AmountMinor int64  `json:"amountMinor"`
}

// CorridorRequest asks preflight to enforce corridor policy for a
// source/target country and (optionally) currency pair.
type CorridorRequest struct {
	SourceCountry  string `json:"sourceCountry"`
	TargetCountry  string `json:"targetCountry"`
	SourceCurrency string `json:"sourceCurrency,omitempty"`
	TargetCurrency string `json:"targetCurrency,omitempty"`
}

// Preflight bundles every optional preflight input. All fields are
// pointers/zero-valueable so "not configured" is distinguishable from
// "configured with a zero value".
type Preflight struct {
	Alias             *AliasDestination
	CompliancePayload map[string]any
	FXLock            *FXLockRequest
	Corridor          *CorridorRequest
}

// Request is the fully-assembled input to the orchestrator. It is built
// once by the fluent builder and consumed exactly once by Payout.
type Request struct {
	OriginatorID    string
	IdempotencyKey  string
	Funding         Funding
	Destination     Destination
	Amount          Amount
	Preflight       Preflight
}

// Receipt is the opaque response returned by the network. The SDK only
// inspects PayoutID and Status; everything else is passed through
// untouched so callers see exactly what the network returned.
type Receipt struct {
	PayoutID string         `json:"payoutId"`
	Status   string         `json:"status"`
	Raw      map[string]any `json:"-"`
}

// CompensationEvent is emitted when dispatch of a payout fails after guards
// have run, so an operator/reconciler can unwind any side effect already
// committed (e.g. a burned AFT receipt). A failure during preflight (alias,
// compliance, FX lock, corridor) returns its error without emitting one.
type CompensationEvent struct {
	Event     string         `json:"event"`
	SagaID    string         `json:"sagaId"`
	Reason    string         `json:"reason"`
	Timestamp time.Time      `json:"timestamp"`
	Funding   Funding        `json:"funding,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
