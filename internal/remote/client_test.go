package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	assert.True(t, c.Health(context.Background()))
}

func TestHealth_Non2xxAndTransportErrorsAreOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	c := NewClient(srv.URL, time.Second)
	assert.False(t, c.Health(context.Background()))

	srv.Close() // connection refused from here on
	assert.False(t, c.Health(context.Background()))
}

func TestCreateProduct_AdoptsAssignedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/products", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42,"name":"Coffee","price":3.5,"stockQuantity":98}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	created, err := c.CreateProduct(context.Background(), RemoteProduct{Name: "Coffee", Price: 3.5, StockQuantity: 98})
	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
}

func TestUpdateProduct_PathAndError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/products/42", r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.UpdateProduct(context.Background(), 42, RemoteProduct{Name: "Coffee"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestListOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":7,"orderNumber":"ORD-1","totalAmount":7.0,"customerName":"Ada","status":"PENDING"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	orders, err := c.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(7), orders[0].ID)
	assert.Equal(t, 7.0, orders[0].TotalAmount)
}
