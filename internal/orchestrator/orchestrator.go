// Package orchestrator drives a single payout end to end: idempotency
// short-circuit, funding guards, the preflight pipeline (alias
// resolution, compliance screening, FX locking, corridor enforcement),
// dispatch, and compensation-event emission on dispatch failure (§4, §9).
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"visadirect-sdk-go/internal/compliance"
	"visadirect-sdk-go/internal/corridor"
	"visadirect-sdk-go/internal/events"
	"visadirect-sdk-go/internal/idempotency"
	"visadirect-sdk-go/internal/metrics"
	"visadirect-sdk-go/internal/payout"
	"visadirect-sdk-go/internal/receipt"
	"visadirect-sdk-go/internal/recipient"
	"visadirect-sdk-go/internal/tracing"
)

// idempotencyTTL matches the original SDK's one-hour result cache.
const idempotencyTTL = time.Hour

// Poster is the subset of the secure transport client the orchestrator
// needs to dispatch a payout.
type Poster interface {
	Post(ctx context.Context, path string, payload any) (map[string]any, int, error)
}

// Orchestrator wires together every collaborator a payout touches. All
// fields are required except CorridorPolicy, which is lazily resolved
// from corridor.Load("") the first time a request asks for it.
type Orchestrator struct {
	HTTP       Poster
	Idem       idempotency.Store
	Receipts   receipt.Store
	Events     events.CompensationEmitter
	Recipients *recipient.Service
	Quoting    quoter
	Compliance *compliance.Service
	Logger     *zap.Logger

	// CorridorPolicy overrides the lazily-loaded default; nil means
	// "resolve via corridor.Load("") on first use".
	CorridorPolicy *corridor.Policy

	// Metrics is optional; a nil Registry records nothing (§13).
	Metrics *metrics.Registry
}

// quoter is the subset of quoting.Service the orchestrator calls; kept
// as a local interface so tests can stub FX locking without a cache.
type quoter interface {
	Lock(ctx context.Context, srcCurrency, dstCurrency string, amountMinor int64) (map[string]any, error)
}

// New builds an Orchestrator from its collaborators. quoting is typed as
// an interface so callers can pass *quoting.Service directly.
func New(http Poster, idem idempotency.Store, receipts receipt.Store, emitter events.CompensationEmitter, recipients *recipient.Service, quoting quoter, compl *compliance.Service, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		HTTP:       http,
		Idem:       idem,
		Receipts:   receipts,
		Events:     emitter,
		Recipients: recipients,
		Quoting:    quoting,
		Compliance: compl,
		Logger:     logger,
	}
}

// Payout runs a request to completion: an idempotency hit returns the
// prior result without re-running guards or preflight; otherwise guards
// run, then preflight, then dispatch. A dispatch failure emits a
// compensation event before the error is returned, since guards may
// already have burned a receipt or confirmed a ledger debit.
func (o *Orchestrator) Payout(ctx context.Context, req payout.Request) (res payout.Receipt, err error) {
	ctx, finish := tracing.StartSpan(ctx, "orchestrator.payout")
	defer finish(&err)

	if cached, ok, cacheErr := o.Idem.Get(ctx, req.IdempotencyKey); cacheErr != nil {
		return payout.Receipt{}, cacheErr
	} else if ok {
		return decodeReceipt(cached)
	}

	if err = o.runGuards(ctx, req.Funding); err != nil {
		o.Metrics.ObserveGuardFailure(string(kindOf(err)))
		return payout.Receipt{}, err
	}

	destination, fxQuoteID, err := o.runPreflight(ctx, req)
	if err != nil {
		o.Metrics.ObservePreflightFailure(string(kindOf(err)))
		return payout.Receipt{}, err
	}

	destinationLabel, _ := mapDestinationType(destination)
	receiptResult, dispatchErr := o.dispatch(ctx, req, destination, fxQuoteID)
	if dispatchErr != nil {
		o.Metrics.ObserveDispatch(destinationLabel, "error")
		o.emitCompensation(req, dispatchErr)
		return payout.Receipt{}, dispatchErr
	}
	o.Metrics.ObserveDispatch(destinationLabel, "success")

	if encoded, encodeErr := json.Marshal(receiptResult.Raw); encodeErr == nil {
		_, _, _ = o.Idem.Put(ctx, req.IdempotencyKey, encoded, idempotencyTTL)
	}

	return receiptResult, nil
}

// runGuards enforces that a payout's funding is actually usable:
// an internal debit must be confirmed, and an AFT/PIS funding receipt
// must be burned via ConsumeOnce before its status is trusted (§9
// burn-before-check: a retried receipt is rejected even if it would
// otherwise have been approved).
func (o *Orchestrator) runGuards(ctx context.Context, funding payout.Funding) (err error) {
	ctx, finish := tracing.StartSpan(ctx, "orchestrator.guards")
	defer finish(&err)

	switch f := funding.(type) {
	case payout.InternalFunding:
		if !f.DebitConfirmed || f.ConfirmationRef == "" {
			return payout.New(payout.KindLedgerNotConfirmed, "internal funding requires a confirmed debit")
		}
		return nil

	case payout.AFTFunding:
		consumed, consumeErr := o.Receipts.ConsumeOnce(ctx, "AFT", f.ReceiptID)
		if consumeErr != nil {
			return consumeErr
		}
		if !consumed {
			return payout.New(payout.KindReceiptReused, "AFT receipt "+f.ReceiptID+" already consumed")
		}
		if f.Status != "approved" {
			return payout.New(payout.KindAFTDeclined, "AFT receipt "+f.ReceiptID+" has status "+f.Status)
		}
		return nil

	case payout.PISFunding:
		consumed, consumeErr := o.Receipts.ConsumeOnce(ctx, "PIS", f.PaymentID)
		if consumeErr != nil {
			return consumeErr
		}
		if !consumed {
			return payout.New(payout.KindReceiptReused, "PIS payment "+f.PaymentID+" already consumed")
		}
		if f.Status != "executed" {
			return payout.New(payout.KindPISFailed, "PIS payment "+f.PaymentID+" has status "+f.Status)
		}
		return nil

	default:
		return payout.New(payout.KindInvalidDestination, "unrecognized funding type")
	}
}

// runPreflight resolves an alias destination to a card, screens
// compliance, locks (or requires) an FX quote, and enforces corridor
// policy, in that order, returning the destination preflight ultimately
// dispatches against and the FX quote ID (if any) to attach.
func (o *Orchestrator) runPreflight(ctx context.Context, req payout.Request) (dest payout.Destination, fxQuoteID string, err error) {
	dest = req.Destination

	if alias, ok := dest.(payout.AliasDestination); ok {
		dest, err = o.resolveAlias(ctx, alias)
		if err != nil {
			return nil, "", err
		}
	}

	if req.Preflight.CompliancePayload != nil {
		if err = o.screenCompliance(ctx, req.Preflight.CompliancePayload); err != nil {
			return nil, "", err
		}
	}

	if req.Preflight.FXLock != nil {
		fxQuoteID, err = o.lockFX(ctx, req, *req.Preflight.FXLock)
		if err != nil {
			return nil, "", err
		}
	} else if requiresQuote(req) {
		return nil, "", payout.New(payout.KindQuoteRequired, "cross-currency payout requires an FX quote lock")
	}

	if req.Preflight.Corridor != nil {
		fxQuoteID, err = o.enforceCorridor(ctx, *req.Preflight.Corridor, dest, fxQuoteID)
		if err != nil {
			return nil, "", err
		}
	}

	return dest, fxQuoteID, nil
}

func (o *Orchestrator) resolveAlias(ctx context.Context, alias payout.AliasDestination) (payout.Destination, error) {
	ctx, finish := tracing.StartSpan(ctx, "orchestrator.preflight.alias")
	var err error
	defer finish(&err)

	aliasType := alias.AliasType
	if aliasType == "" {
		aliasType = "EMAIL"
	}

	resolved, err := o.Recipients.ResolveAlias(ctx, alias.Alias, aliasType)
	if err != nil {
		return nil, err
	}
	panToken, _ := resolved["panToken"].(string)

	if _, err = o.Recipients.PAV(ctx, panToken); err != nil {
		return nil, err
	}

	ftai, err := o.Recipients.FTAI(ctx, panToken)
	if err != nil {
		return nil, err
	}
	if eligible, ok := ftai["octEligible"].(bool); ok && !eligible {
		err = payout.New(payout.KindNotOCTEligible, "resolved card is not OCT-eligible")
		return nil, err
	}

	return payout.CardDestination{PanToken: panToken}, nil
}

func (o *Orchestrator) screenCompliance(ctx context.Context, payload map[string]any) (err error) {
	ctx, finish := tracing.StartSpan(ctx, "orchestrator.preflight.compliance")
	defer finish(&err)

	result, err := o.Compliance.Screen(ctx, payload)
	if err != nil {
		return err
	}
	if approved, ok := result["approved"].(bool); ok && !approved {
		return payout.New(payout.KindComplianceDenied, "compliance screening denied this payout")
	}
	return nil
}

func (o *Orchestrator) lockFX(ctx context.Context, req payout.Request, lock payout.FXLockRequest) (quoteID string, err error) {
	ctx, finish := tracing.StartSpan(ctx, "orchestrator.preflight.fx")
	defer finish(&err)

	amountMinor := lock.AmountMinor
	if amountMinor == 0 {
		amountMinor = req.Amount.Minor
	}

	quote, err := o.Quoting.Lock(ctx, lock.SrcCurrency, lock.DstCurrency, amountMinor)
	if err != nil {
		return "", err
	}

	expiresRaw, _ := quote["expiresAt"].(string)
	expiresAt, parseErr := time.Parse(time.RFC3339, expiresRaw)
	if parseErr == nil && expiresAt.Before(time.Now()) {
		err = payout.New(payout.KindQuoteExpired, "FX quote expired before dispatch")
		return "", err
	}

	quoteID, _ = quote["quoteId"].(string)
	return quoteID, nil
}

func (o *Orchestrator) enforceCorridor(ctx context.Context, req payout.CorridorRequest, dest payout.Destination, fxQuoteID string) (string, error) {
	policy := o.CorridorPolicy
	if policy == nil {
		loaded, err := corridor.Load("")
		if err != nil {
			return fxQuoteID, err
		}
		policy = loaded
	}

	rules, err := corridor.GetRules(policy, req.SourceCountry, req.TargetCountry, req.SourceCurrency, req.TargetCurrency)
	if err != nil {
		return fxQuoteID, err
	}

	destType, err := mapDestinationType(dest)
	if err != nil {
		return fxQuoteID, err
	}

	if allowed, ok := rules.Rails["allowedDestinations"]; ok && len(allowed) > 0 && !contains(allowed, destType) {
		return fxQuoteID, payout.New(payout.KindDestinationNotAllowed, destType+" is not an allowed destination for this corridor")
	}

	if lockRequired, ok := rules.FX["lockRequired"].(bool); ok && lockRequired && fxQuoteID == "" {
		return fxQuoteID, payout.New(payout.KindQuoteRequired, "corridor policy requires an FX quote lock")
	}

	return fxQuoteID, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, req payout.Request, dest payout.Destination, fxQuoteID string) (payout.Receipt, error) {
	path, err := dispatchPath(dest)
	if err != nil {
		return payout.Receipt{}, err
	}

	body := map[string]any{
		"originatorId": req.OriginatorID,
		"funding":      req.Funding,
		"destination":  dest,
		"amount":       req.Amount,
	}
	if fxQuoteID != "" {
		body["fxQuoteId"] = fxQuoteID
	}

	data, _, err := o.HTTP.Post(ctx, path, body)
	if err != nil {
		return payout.Receipt{}, err
	}

	payoutID, _ := data["payoutId"].(string)
	status, _ := data["status"].(string)
	return payout.Receipt{PayoutID: payoutID, Status: status, Raw: data}, nil
}

// emitCompensation fires a best-effort compensation event off the
// request's lifetime: dispatch already failed, so nothing further
// should block on the emitter.
func (o *Orchestrator) emitCompensation(req payout.Request, cause error) {
	event := payout.CompensationEvent{
		Event:     "payout_failed_requires_compensation",
		SagaID:    req.IdempotencyKey,
		Reason:    "NetworkError",
		Timestamp: time.Now().UTC(),
		Funding:   req.Funding,
		Metadata:  map[string]any{"message": cause.Error()},
	}
	o.Metrics.ObserveCompensationEvent()
	go o.Events.Emit(context.Background(), event)
}

// kindOf extracts the payout.ErrorKind carried by err, or "" when err
// isn't a *payout.Error (e.g. a transport or store failure).
func kindOf(err error) payout.ErrorKind {
	var pe *payout.Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func requiresQuote(req payout.Request) bool {
	return req.Amount.Currency != "USD"
}

func mapDestinationType(dest payout.Destination) (string, error) {
	switch dest.(type) {
	case payout.CardDestination:
		return "card", nil
	case payout.AccountDestination:
		return "account", nil
	case payout.WalletDestination:
		return "wallet", nil
	default:
		return "", payout.New(payout.KindDestinationNotAllowed, "unknown destination type")
	}
}

func dispatchPath(dest payout.Destination) (string, error) {
	switch dest.(type) {
	case payout.CardDestination:
		return "/visadirect/fundstransfer/v1/pushfunds", nil
	case payout.AccountDestination:
		return "/accountpayouts/v1/payout", nil
	case payout.WalletDestination:
		return "/walletpayouts/v1/payout", nil
	default:
		return "", payout.New(payout.KindInvalidDestination, fmt.Sprintf("unknown destination type %T", dest))
	}
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func decodeReceipt(raw []byte) (payout.Receipt, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return payout.Receipt{}, err
	}
	payoutID, _ := data["payoutId"].(string)
	status, _ := data["status"].(string)
	return payout.Receipt{PayoutID: payoutID, Status: status, Raw: data}, nil
}
