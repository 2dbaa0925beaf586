package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"visadirect-sdk-go/internal/envelope"
	"visadirect-sdk-go/internal/keyset"
	"visadirect-sdk-go/internal/metrics"
	"visadirect-sdk-go/internal/payout"
)

// Client is the secure transport used by every service that talks to
// Visa Direct: it resolves the base URL and MLE requirement from the
// endpoint registry, presents a client certificate over mTLS, and wraps
// request/response bodies in a JWE for routes that require it.
type Client struct {
	baseURL    string
	registry   *Registry
	httpClient *http.Client
	keys       *keyset.Cache
	production bool
	logger     *zap.Logger

	// Metrics is optional; a nil Registry records nothing (§13).
	Metrics *metrics.Registry
}

// Config configures a Client's mTLS posture.
type Config struct {
	BaseURL    string
	CertPath   string
	KeyPath    string
	CAPath     string
	Production bool
}

// New builds a Client. When CertPath/KeyPath are both set, requests
// present that certificate over TLS; CAPath, when set, pins the server's
// trust root instead of the system pool.
func New(cfg Config, registry *Registry, keys *keyset.Cache, logger *zap.Logger) (*Client, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.CertPath != "" && cfg.KeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertPath, cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if cfg.CAPath != "" {
		caCert, err := os.ReadFile(cfg.CAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, errors.New("no certificates parsed from CA file")
		}
		tlsConfig.RootCAs = pool
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = registry.BaseURLs.Visa
	}

	return &Client{
		baseURL:    baseURL,
		registry:   registry,
		httpClient: &http.Client{Transport: &http.Transport{TLSClientConfig: tlsConfig}, Timeout: 30 * time.Second},
		keys:       keys,
		production: cfg.Production,
		logger:     logger,
	}, nil
}

// Post sends payload to path, sealing it in a JWE envelope when the
// registry marks that route as requiring MLE, and opening the response
// the same way (§4.3).
func (c *Client) Post(ctx context.Context, path string, payload any) (map[string]any, int, error) {
	start := time.Now()
	defer func() {
		if c.Metrics != nil {
			c.Metrics.TransportDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		}
	}()

	requiresMLE := c.registry.RequiresMLE(path)

	body, headers, err := c.buildRequestBody(ctx, payload, requiresMLE)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.doPost(ctx, path, body, headers)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	if !requiresMLE {
		data, err := parseMaybeJSON(raw)
		return data, resp.StatusCode, err
	}

	data, err := c.decryptResponse(ctx, raw)
	return data, resp.StatusCode, err
}

func (c *Client) doPost(ctx context.Context, path string, body []byte, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.httpClient.Do(req)
}

func (c *Client) buildRequestBody(ctx context.Context, payload any, requiresMLE bool) ([]byte, map[string]string, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	if !requiresMLE {
		return plaintext, map[string]string{"content-type": "application/json"}, nil
	}

	entry, err := c.keys.Current(ctx)
	if err != nil {
		if c.production {
			return nil, nil, payout.Wrap(payout.KindKeySetUnavailable, "JWKS unavailable for MLE encryption", err)
		}
		c.logger.Warn("transport: no key available, falling back to plaintext in non-production", zap.Error(err))
		return plaintext, map[string]string{"content-type": "application/json"}, nil
	}

	sealed, err := envelope.Seal(plaintext, entry.Public, entry.Kid)
	if err != nil {
		return nil, nil, err
	}
	return []byte(sealed), map[string]string{"content-type": "application/jose", "x-jwe-kid": entry.Kid}, nil
}

func (c *Client) decryptResponse(ctx context.Context, raw []byte) (map[string]any, error) {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "{") {
		return parseMaybeJSON(raw)
	}

	kid, err := envelope.Kid(text)
	if err != nil {
		return nil, payout.Wrap(payout.KindEnvelopeDecryptFailure, "read envelope header", err)
	}

	entry, err := c.keys.Lookup(ctx, kid)
	if err != nil {
		entry, err = c.keys.ForceRefresh(ctx, kid)
		if err != nil {
			return nil, err
		}
	}
	if entry.Private == nil {
		return nil, payout.New(payout.KindEnvelopeDecryptFailure, "key set entry has no private key for kid "+kid)
	}

	plaintext, err := envelope.Open(text, entry.Private)
	if err != nil {
		return nil, payout.Wrap(payout.KindEnvelopeDecryptFailure, "decrypt response envelope", err)
	}

	return parseMaybeJSON(plaintext)
}

func parseMaybeJSON(raw []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"raw": string(raw)}, nil
	}
	return out, nil
}
