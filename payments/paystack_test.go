package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/transaction/verify/ref_ok":
			_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"reference":"ref_ok","status":"success","amount":250000,"currency":"NGN","metadata":{"orderId":7}}}`))
		case "/transaction/verify/ref_failed":
			_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"reference":"ref_failed","status":"failed","amount":0}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
		}
	}))
	defer srv.Close()

	c := NewClient("sk_test", srv.URL+"/", time.Second)

	tx, err := c.Verify(context.Background(), "ref_ok")
	require.NoError(t, err)
	assert.True(t, tx.Succeeded())
	assert.True(t, tx.Covers(2500))
	assert.False(t, tx.Covers(2500.01))
	assert.Equal(t, "7", tx.Metadata.OrderID.String())

	tx, err = c.Verify(context.Background(), "ref_failed")
	require.NoError(t, err)
	assert.False(t, tx.Succeeded())

	_, err = c.Verify(context.Background(), "missing")
	assert.Error(t, err)

	_, err = NewClient("", srv.URL, time.Second).Verify(context.Background(), "ref_ok")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSignature(t *testing.T) {
	c := NewClient("sk_test", "http://unused", time.Second)
	body := []byte(`{"event":"charge.success"}`)
	sig := c.Sign(body)

	assert.Len(t, sig, 128)
	assert.True(t, c.ValidSignature(body, sig))
	assert.False(t, c.ValidSignature([]byte(`{"event":"charge.failed"}`), sig))
	assert.False(t, c.ValidSignature(body, ""))
	assert.False(t, NewClient("", "", time.Second).ValidSignature(body, sig))
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event":"charge.success","data":{"reference":"r1","status":"success","amount":100,"metadata":{"orderId":"12"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "charge.success", ev.Event)
	id, err := ev.Data.Metadata.OrderID.Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 12, id)
}

func TestTransactionForOrderAndCurrency(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event":"charge.success","data":{"currency":"NGN","metadata":{"orderId":"7"}}}`))
	require.NoError(t, err)
	assert.True(t, ev.Data.ForOrder(7))
	assert.False(t, ev.Data.ForOrder(8))
	assert.True(t, ev.Data.InCurrency("ngn"))
	assert.True(t, ev.Data.InCurrency(""))
	assert.False(t, ev.Data.InCurrency("USD"))

	var bare Transaction
	assert.True(t, bare.ForOrder(42))
	assert.False(t, bare.InCurrency("NGN"))
}
