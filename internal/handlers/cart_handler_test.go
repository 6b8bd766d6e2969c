package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/handmade-storefront/internal/service"
)

func cartView(t *testing.T, body []byte) service.CartView {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	var v service.CartView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestCartHandler(t *testing.T) {
	env := newTestEnv(t)
	user := token(t, "user-1", "")

	w := env.do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/cart", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, cartView(t, w.Body.Bytes()).Items)

	w = env.do(t, http.MethodPost, "/api/cart/items", user, `{"productId":"1","quantity":2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, "/api/cart/items", user, `{"productId":"2","quantity":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	v := cartView(t, w.Body.Bytes())
	assert.Equal(t, 3, v.ItemCount)
	assert.True(t, v.Totals.Subtotal.Equal(decimal.NewFromInt(748)))
	assert.True(t, v.Totals.GrandTotal.Equal(decimal.NewFromInt(788)))

	w = env.do(t, http.MethodPost, "/api/cart/items", user, `{"productId":"1","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPatch, "/api/cart/items/2", user, `{"quantity":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, cartView(t, w.Body.Bytes()).Items, 1)

	w = env.do(t, http.MethodPost, "/api/cart/merge", user, `{"items":[{"id":"1","quantity":1,"name":"x","price":1},{"id":"5","quantity":2}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v = cartView(t, w.Body.Bytes())
	assert.Equal(t, 5, v.ItemCount)

	w = env.do(t, http.MethodDelete, "/api/cart/items/5", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, cartView(t, w.Body.Bytes()).ItemCount)

	w = env.do(t, http.MethodDelete, "/api/cart", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, cartView(t, w.Body.Bytes()).ItemCount)

	// carts are per user
	w = env.do(t, http.MethodPost, "/api/cart/items", user, `{"productId":"4","quantity":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/cart", token(t, "user-2", ""), nil)
	assert.Zero(t, cartView(t, w.Body.Bytes()).ItemCount)
}
