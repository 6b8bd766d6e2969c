package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/handmade-storefront/internal/models"
)

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)

	var products []models.Product
	require.NoError(t, json.Unmarshal(resp.Data, &products))
	assert.Len(t, products, 10)
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedName   string
	}{
		{name: "existing product", path: "/api/products/1", expectedStatus: http.StatusOK, expectedName: "Hand-thrown Ceramic Mug"},
		{name: "sale product", path: "/api/products/3", expectedStatus: http.StatusOK, expectedName: "Macrame Wall Hanging"},
		{name: "not found", path: "/api/products/9999", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.path, "", nil)
			assert.Equal(t, tt.expectedStatus, w.Code)

			resp := decodeEnvelope(t, w)
			if tt.expectedStatus != http.StatusOK {
				assert.False(t, resp.Success)
				assert.Equal(t, "Product not found", resp.Message)
				return
			}

			var p models.Product
			require.NoError(t, json.Unmarshal(resp.Data, &p))
			assert.Equal(t, tt.expectedName, p.Name)
		})
	}
}

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]interface{}{"name": "Jute Basket", "price": 650, "stock": 6, "shippingCharge": 50, "codAvailable": true}

	w := env.do(t, http.MethodPost, "/api/products", token(t, "u1", ""), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/products", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/products", token(t, "admin", "admin"), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p models.Product
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &p))
	assert.Equal(t, "Jute Basket", p.Name)

	w = env.do(t, http.MethodGet, "/api/products/"+p.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/products", token(t, "admin", "admin"), map[string]interface{}{"price": 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name is required", decodeEnvelope(t, w).Message)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var h HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Equal(t, "healthy", h.Status)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, decodeEnvelope(t, w).Success)
}
