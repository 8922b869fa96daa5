package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second, nil)
}

func TestLoginSendsIdentity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, LoginRequest{DisplayName: "Ali Valiyev", PhoneNumber: "+998901234567", Birthday: "1990-05-17"}, got)

		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok1"})
	})

	tok, err := c.Login(context.Background(), LoginRequest{
		DisplayName: "Ali Valiyev", PhoneNumber: "+998901234567", Birthday: "1990-05-17",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok1", tok)
}

func TestLoginEmptyTokenIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"token":""}`))
	})
	_, err := c.Login(context.Background(), LoginRequest{})
	require.Error(t, err)
}

func TestBalanceUsesBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/balance", r.URL.Path)
		assert.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"balance":1500.5,"merchantName":"Yankey","loyaltyPercentage":5}`))
	})

	b, err := c.Balance(context.Background(), "tok1")
	require.NoError(t, err)
	assert.Equal(t, "1500.5", b.Balance.String())
	assert.Equal(t, "Yankey", b.MerchantName)
	assert.Equal(t, "5", b.LoyaltyPercentage.String())
}

func TestBalanceUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.Balance(context.Background(), "expired")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestBalanceServerErrorIsStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	_, err := c.Balance(context.Background(), "tok1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Status)
	assert.Equal(t, "maintenance", se.Body)
	assert.Equal(t, "ACCOUNT_HTTP_503", se.Code())
}

func TestSingleAttemptOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, 200*time.Millisecond, nil)
	_, err := c.Balance(context.Background(), "tok1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}
