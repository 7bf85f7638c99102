package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGateway(t *testing.T) {
	g := NewMock()
	id, err := g.CreateRemoteOrder(context.Background(), decimal.NewFromInt(10), "INR", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "order_mock_"))
	assert.True(t, g.VerifySignature(id, "pay_1", "anything"))
	assert.True(t, g.Mock())
}

func TestMinorUnits(t *testing.T) {
	n, err := MinorUnits(decimal.RequireFromString("2398.50"), "INR")
	require.NoError(t, err)
	assert.Equal(t, int64(239850), n)

	n, err = MinorUnits(decimal.RequireFromString("1500"), "JPY")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), n)

	_, err = MinorUnits(decimal.NewFromInt(1), "rupees")
	assert.Error(t, err)
}

func TestSignedCreateRemoteOrder(t *testing.T) {
	var got createOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_Q1","status":"created"}`))
	}))
	defer srv.Close()

	g, err := NewSigned(Config{KeyID: "rzp_test_key", KeySecret: "secret", BaseURL: srv.URL})
	require.NoError(t, err)

	id, err := g.CreateRemoteOrder(context.Background(), decimal.RequireFromString("999.99"), "inr", "order_42")
	require.NoError(t, err)
	assert.Equal(t, "order_Q1", id)
	assert.Equal(t, int64(99999), got.Amount)
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, "order_42", got.Receipt)
	assert.Equal(t, "rzp_test_key", g.KeyID())
}

func TestSignedCreateRemoteOrderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}))
	defer srv.Close()

	g, err := NewSigned(Config{KeyID: "k", KeySecret: "s", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = g.CreateRemoteOrder(context.Background(), decimal.NewFromInt(1), "INR", "")
	assert.ErrorIs(t, err, payment.ErrGateway)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestSignedVerifySignature(t *testing.T) {
	g, err := NewSigned(Config{KeyID: "k", KeySecret: "secret", BaseURL: "http://unused"})
	require.NoError(t, err)

	sig := Sign([]byte("secret"), "order_Q1", "pay_9")
	assert.True(t, g.VerifySignature("order_Q1", "pay_9", sig))
	assert.True(t, g.VerifySignature("order_Q1", "pay_9", strings.ToUpper(sig)))
	assert.False(t, g.VerifySignature("order_Q1", "pay_8", sig))
	assert.False(t, g.VerifySignature("order_Q1", "pay_9", "deadbeef"))
}

func TestNewSignedRequiresCredentials(t *testing.T) {
	_, err := NewSigned(Config{KeyID: "k"})
	assert.Error(t, err)
}
