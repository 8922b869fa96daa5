package account

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/onboardbot/core/logger"
	"github.com/m3rciful/onboardbot/core/metrics"
	"github.com/m3rciful/onboardbot/core/telegram/netutil"
)

const maxErrorBody = 512

// Client is a single-attempt JSON client for the account service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client rooted at baseURL. A nil hc gets a pooled client
// with the given timeout and no retries.
func NewClient(baseURL string, timeout time.Duration, hc *http.Client) *Client {
	if hc == nil {
		hc = netutil.NewClient(netutil.ClientOptions{Timeout: timeout, ResponseTimeout: timeout})
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Login exchanges the identity for a bearer credential.
func (c *Client) Login(ctx context.Context, req LoginRequest) (string, error) {
	start := time.Now()
	var out loginResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", "", req, &out)
	if err == nil && strings.TrimSpace(out.Token) == "" {
		err = fmt.Errorf("account login: empty token")
	}
	c.observe(ctx, "login", start, err, slog.String("phone", logger.Redact(req.PhoneNumber, 4)))
	if err != nil {
		return "", err
	}
	return out.Token, nil
}

// Balance fetches the account summary for credential.
func (c *Client) Balance(ctx context.Context, credential string) (Balance, error) {
	start := time.Now()
	var out Balance
	err := c.do(ctx, "balance", http.MethodGet, "/balance", credential, nil, &out)
	c.observe(ctx, "balance", start, err)
	return out, err
}

func (c *Client) do(ctx context.Context, op, method, path, credential string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("account %s: encode: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("account %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("account %s: %w", op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("account %s: %w", op, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("account %s: decode: %w", op, err)
	}
	return nil
}

func (c *Client) observe(ctx context.Context, op string, start time.Time, err error, extra ...slog.Attr) {
	took := time.Since(start)
	outcome := "ok"
	switch {
	case errors.Is(err, ErrUnauthorized):
		outcome = "unauthorized"
	case err != nil:
		outcome = "fail"
	}
	metrics.ObserveAccountCall(op, outcome, took)

	attrs := append([]slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("call", op),
		slog.String("outcome", outcome),
		slog.Duration("duration", logger.RoundMS(took)),
	}, extra...)
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	logger.LogEvent(ctx, logger.Account, level, "account.call", attrs...)
}
