package payout

import "encoding/json"

// Each concrete Funding/Destination variant marshals with an explicit
// "type" discriminator so the wire body matches the tagged-dict shape the
// Visa Direct endpoints expect (§3).

func (f InternalFunding) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		InternalFunding
	}{Type: string(FundingInternal), InternalFunding: f})
}

func (f AFTFunding) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		AFTFunding
	}{Type: string(FundingAFT), AFTFunding: f})
}

func (f PISFunding) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		PISFunding
	}{Type: string(FundingPIS), PISFunding: f})
}

func (d CardDestination) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		CardDestination
	}{Type: string(DestinationCard), CardDestination: d})
}

func (d AccountDestination) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		AccountDestination
	}{Type: string(DestinationAccount), AccountDestination: d})
}

func (d WalletDestination) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		WalletDestination
	}{Type: string(DestinationWallet), WalletDestination: d})
}

func (d AliasDestination) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		AliasDestination
	}{Type: string(DestinationAlias), AliasDestination: d})
}
