package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liormulay/order-processing-system/internal/handler"
	"github.com/liormulay/order-processing-system/internal/service/intake"
	"github.com/liormulay/order-processing-system/internal/storage"
	"github.com/liormulay/order-processing-system/internal/storage/memory"
)

type noopPublisher struct{}

func (noopPublisher) Publish(string, string, any) error { return nil }

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	store := storage.NewOrderStore(memory.NewStore(), nil)
	svc := intake.NewService(store, noopPublisher{}, "order-events", nil, nil)

	r := gin.New()
	handler.NewOrderHandler(svc, nil).RegisterRoutes(r)
	return r
}

func validOrderBody() []byte {
	return []byte(`{
		"customerName": "Alice",
		"items": [
			{"productId": "P1001", "quantity": 2, "category": "standard"}
		],
		"requestedAt": "2025-07-01T09:00:00Z"
	}`)
}

func TestCreateOrder(t *testing.T) {
	r := newRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(validOrderBody()))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, resp["orderId"])
	assert.Equal(t, "PENDING", resp["status"])
	assert.Equal(t, "Order received and being processed", resp["message"])
}

func TestCreateOrder_InvalidRequest(t *testing.T) {
	r := newRouter()

	cases := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{broken`},
		{name: "missing customer", body: `{"items":[{"productId":"P1001","quantity":1,"category":"standard"}],"requestedAt":"2025-07-01T09:00:00Z"}`},
		{name: "empty items", body: `{"customerName":"Alice","items":[],"requestedAt":"2025-07-01T09:00:00Z"}`},
		{name: "zero quantity", body: `{"customerName":"Alice","items":[{"productId":"P1001","quantity":0,"category":"standard"}],"requestedAt":"2025-07-01T09:00:00Z"}`},
		{name: "missing requested at", body: `{"customerName":"Alice","items":[{"productId":"P1001","quantity":1,"category":"standard"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader([]byte(tc.body)))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetOrderStatus(t *testing.T) {
	r := newRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(validOrderBody()))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/orders/%s", created["orderId"]), nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, created["orderId"], resp["orderId"])
	assert.Equal(t, "PENDING", resp["status"])
}

func TestGetOrderStatus_NotFound(t *testing.T) {
	r := newRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/ORD-UNKNOWN1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
