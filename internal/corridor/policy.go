// Package corridor loads and evaluates corridor policy: the declaration
// ordered set of rules governing FX, compliance, rails, limits, and SLA
// for a source/target country (and optional currency) pair (§4.5).
package corridor

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"visadirect-sdk-go/internal/payout"
)

//go:embed corridor-policy.default.json
var defaultPolicyJSON []byte

// CorridorRules is the bundle of policy a corridor carries. Any field may
// be nil/empty when the corridor doesn't constrain that dimension.
type CorridorRules struct {
	FX         map[string]any      `json:"fx,omitempty"`
	Compliance map[string]any      `json:"compliance,omitempty"`
	Rails      map[string][]string `json:"rails,omitempty"`
	Limits     map[string]any      `json:"limits,omitempty"`
	SLA        map[string]any      `json:"sla,omitempty"`
}

// Corridor pairs a source/target country (optionally pinned to a
// currency pair) with the rules that apply to it.
type Corridor struct {
	SourceCountry string            `json:"sourceCountry"`
	TargetCountry string            `json:"targetCountry"`
	Currencies    map[string]string `json:"currencies,omitempty"`
	Rules         CorridorRules     `json:"rules"`
}

// Policy is an ordered list of corridors; GetRules resolves the first
// corridor whose criteria match, so declaration order is significant.
type Policy struct {
	Version   string     `json:"version"`
	Corridors []Corridor `json:"corridors"`
}

var (
	loadOnce sync.Once
	loaded   *Policy
	loadErr  error
)

// candidatePaths lists where a policy file is searched for: the current
// working directory, its parent, then its grandparent, before falling
// back to the embedded default.
func candidatePaths() []string {
	cwd, err := os.Getwd()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(cwd, "policy", "corridor-policy.json"),
		filepath.Join(cwd, "..", "policy", "corridor-policy.json"),
		filepath.Join(cwd, "..", "..", "policy", "corridor-policy.json"),
	}
}

// Load resolves the active corridor policy exactly once per process: an
// explicit file path takes priority, then the CWD-upward search, then the
// embedded default shipped with the module.
func Load(file string) (*Policy, error) {
	loadOnce.Do(func() {
		loaded, loadErr = load(file)
	})
	return loaded, loadErr
}

func load(file string) (*Policy, error) {
	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, payout.Wrap(payout.KindPolicyNotFound, "corridor policy file not found at "+file, err)
		}
		return decodePolicy(raw)
	}

	for _, candidate := range candidatePaths() {
		raw, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		return decodePolicy(raw)
	}

	return decodePolicy(defaultPolicyJSON)
}

func decodePolicy(raw []byte) (*Policy, error) {
	var p Policy
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, payout.Wrap(payout.KindPolicyNotFound, "corridor policy file is not valid JSON", err)
	}
	return &p, nil
}

// GetRules resolves the rules for a source/target country, optionally
// pinned to a source/target currency. Corridors are evaluated in
// declaration order; the first match wins.
func GetRules(policy *Policy, sourceCountry, targetCountry, sourceCurrency, targetCurrency string) (CorridorRules, error) {
	for _, c := range policy.Corridors {
		if c.SourceCountry != sourceCountry || c.TargetCountry != targetCountry {
			continue
		}
		if !currenciesMatch(c.Currencies, sourceCurrency, targetCurrency) {
			continue
		}
		return c.Rules, nil
	}
	return CorridorRules{}, payout.New(payout.KindPolicyNotFound, "no corridor policy for "+sourceCountry+"->"+targetCountry)
}

func currenciesMatch(pinned map[string]string, sourceCurrency, targetCurrency string) bool {
	if len(pinned) == 0 {
		return true
	}
	if src, ok := pinned["source"]; ok && src != "" && src != sourceCurrency {
		return false
	}
	if dst, ok := pinned["target"]; ok && dst != "" && dst != targetCurrency {
		return false
	}
	return true
}
