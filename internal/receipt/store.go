// Package receipt implements the one-shot anti-replay store used to burn
// an AFT/PIS funding receipt exactly once before a payout is dispatched
// (§4.1, §4.6, §9 burn-before-check).
package receipt

import "context"

// Store records that a (namespace, id) pair has been consumed. ConsumeOnce
// must be linearizable: concurrent callers racing on the same pair see
// exactly one true and the rest false.
type Store interface {
	ConsumeOnce(ctx context.Context, namespace, id string) (consumed bool, err error)
}
