package keyset

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"visadirect-sdk-go/internal/payout"
)

// jwkJSON mirrors the RSA JWK fields the sandbox JWKS publishes: public
// modulus/exponent for every key, plus the private exponent and CRT
// parameters for keys the SDK is also trusted to decrypt with.
type jwkJSON struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
	D   string `json:"d,omitempty"`
	P   string `json:"p,omitempty"`
	Q   string `json:"q,omitempty"`
}

type jwksDocument struct {
	Keys []jwkJSON `json:"keys"`
}

// HTTPFetcher fetches a JWKS document over HTTP, the same endpoint
// configured in the endpoint registry's jwks.url field.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

func NewHTTPFetcher(url string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPFetcher{URL: url, Client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context) ([]Entry, error) {
	if f.URL == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks fetch: unexpected status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(doc.Keys))
	for _, k := range doc.Keys {
		entry, err := decodeJWK(k)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodeJWK(k jwkJSON) (Entry, error) {
	n, err := decodeBigInt(k.N)
	if err != nil {
		return Entry{}, payout.Wrap(payout.KindKeySetUnavailable, "decode jwk modulus", err)
	}
	e, err := decodeBigInt(k.E)
	if err != nil {
		return Entry{}, payout.Wrap(payout.KindKeySetUnavailable, "decode jwk exponent", err)
	}

	pub := &rsa.PublicKey{N: n, E: int(e.Int64())}
	entry := Entry{Kid: k.Kid, Public: pub}

	if k.D != "" && k.P != "" && k.Q != "" {
		d, err := decodeBigInt(k.D)
		if err != nil {
			return Entry{}, payout.Wrap(payout.KindKeySetUnavailable, "decode jwk private exponent", err)
		}
		p, err := decodeBigInt(k.P)
		if err != nil {
			return Entry{}, payout.Wrap(payout.KindKeySetUnavailable, "decode jwk prime p", err)
		}
		q, err := decodeBigInt(k.Q)
		if err != nil {
			return Entry{}, payout.Wrap(payout.KindKeySetUnavailable, "decode jwk prime q", err)
		}
		priv := &rsa.PrivateKey{
			PublicKey: *pub,
			D:         d,
			Primes:    []*big.Int{p, q},
		}
		if err := priv.Validate(); err != nil {
			return Entry{}, payout.Wrap(payout.KindKeySetUnavailable, "validate jwk private key", err)
		}
		priv.Precompute()
		entry.Private = priv
	}

	return entry, nil
}

func decodeBigInt(b64url string) (*big.Int, error) {
	raw, err := base64URLDecode(b64url)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}
