// Package remote implements a G2P backend that forwards batches to another
// g2pd instance (or any server speaking the same contract) over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"g2pd/internal/backend"
	"g2pd/pkg/types"
)

const (
	defaultTimeout        = 60 * time.Second
	defaultConnectTimeout = 5 * time.Second
	predictPath           = "/v1/g2p"
)

// Client posts grapheme batches to `{base}/v1/g2p`.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	reqTimeout time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New builds a client for v. The base URL comes from the options or, when
// unset, from the variant location.
func New(v types.Variant, opts backend.Options) (*Client, error) {
	base := strings.TrimSpace(opts.Remote.URL)
	if base == "" {
		base = strings.TrimSpace(v.Location)
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("remote variant %q: base url %q must be http(s)", v.Name, base)
	}
	reqTimeout := opts.Remote.Timeout
	if reqTimeout <= 0 {
		reqTimeout = defaultTimeout
	}
	connectTimeout := opts.Remote.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	c := &Client{
		baseURL:    strings.TrimRight(base, "/"),
		model:      v.Name,
		apiKey:     opts.Remote.APIKey,
		reqTimeout: reqTimeout,
		// Deadlines are carried by the request context.
		httpClient: &http.Client{Transport: tr, Timeout: 0},
	}
	if opts.Remote.RPS > 0 {
		burst := opts.Remote.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.Remote.RPS), burst)
	}
	return c, nil
}

// Factory adapts New to backend.Factory.
func Factory(v types.Variant, opts backend.Options) (backend.Predictor, error) {
	c, err := New(v, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// PredictBatch sends one request per batch.
func (c *Client) PredictBatch(ctx context.Context, graphemes []string) ([]string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	ctx, cancel := context.WithTimeout(ctx, c.reqTimeout)
	defer cancel()

	body, err := json.Marshal(types.PredictRequest{Model: c.model, Graphemes: graphemes})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.New("remote g2p http error: " + resp.Status + ": " + strings.TrimSpace(string(b)))
	}
	var out types.PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode remote g2p response: %w", err)
	}
	if len(out.Phonemes) != len(graphemes) {
		return nil, fmt.Errorf("remote g2p returned %d predictions for %d inputs", len(out.Phonemes), len(graphemes))
	}
	return out.Phonemes, nil
}
