package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesPage = `{"success":true,"data":[
	{"id":7,"unique_id":"S-7","final_amount":"120"},
	{"id":8,"unique_id":"S-8","final_amount":"80"}
],"total":2,"page":1,"limit":20,"total_pages":1}`

func TestSalesHistoryDeleteReloads(t *testing.T) {
	var lists, deletes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pos/sales", func(w http.ResponseWriter, r *http.Request) {
		lists.Add(1)
		writeJSON(w, http.StatusOK, salesPage)
	})
	mux.HandleFunc("/api/pos/sale/7/delete", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		deletes.Add(1)
		writeJSON(w, http.StatusOK, `{"success":true,"message":"Sale deleted","data":{"deleted":1}}`)
	})
	h := NewSalesHistory(newTestClient(t, mux), SalesFilter{CompanyID: 3}, 20)
	ctx := context.Background()

	require.NoError(t, h.List().Load(ctx))
	require.NoError(t, h.Delete(ctx, 7))

	assert.Equal(t, int32(1), deletes.Load())
	assert.Equal(t, int32(2), lists.Load())
	msg, failed := h.Message()
	assert.Equal(t, "Sale deleted", msg)
	assert.False(t, failed)
}

func TestSalesHistoryDeleteFailureKeepsRows(t *testing.T) {
	var lists atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pos/sales", func(w http.ResponseWriter, r *http.Request) {
		lists.Add(1)
		writeJSON(w, http.StatusOK, salesPage)
	})
	mux.HandleFunc("/api/pos/sale/7/delete", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"success":false,"error":"sale has payments"}`)
	})
	h := NewSalesHistory(newTestClient(t, mux), SalesFilter{}, 20)
	ctx := context.Background()

	require.NoError(t, h.List().Load(ctx))
	err := h.Delete(ctx, 7)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusConflict))

	assert.Equal(t, int32(1), lists.Load())
	assert.Len(t, h.List().Snapshot().Page.Items, 2)
	msg, failed := h.Message()
	assert.Equal(t, "Failed to delete sale: sale has payments", msg)
	assert.True(t, failed)
}

func TestSalesHistoryDeleteFailureUsesServerMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pos/sales", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, salesPage)
	})
	mux.HandleFunc("/api/pos/sale/7/delete", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, `{"success":false,"message":"Only managers can delete sales"}`)
	})
	h := NewSalesHistory(newTestClient(t, mux), SalesFilter{}, 20)
	ctx := context.Background()

	require.NoError(t, h.List().Load(ctx))
	require.Error(t, h.Delete(ctx, 7))
	msg, failed := h.Message()
	assert.Equal(t, "Failed to delete sale: Only managers can delete sales", msg)
	assert.True(t, failed)
}

func TestErrorTextUnwraps(t *testing.T) {
	err := fmt.Errorf("delete: %w", &APIError{Op: "delete sale", Message: "locked"})
	assert.Equal(t, "locked", errorText(err))
	assert.Equal(t, "boom", errorText(errors.New("boom")))
}

func TestSalesHistoryDeleteSelected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pos/sales", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, salesPage)
	})
	mux.HandleFunc("/api/pos/sales/bulk-delete", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"deleted":2}}`)
	})
	h := NewSalesHistory(newTestClient(t, mux), SalesFilter{}, 20)
	ctx := context.Background()

	n, err := h.DeleteSelected(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, h.List().Load(ctx))
	h.List().SelectAll()
	n, err = h.DeleteSelected(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
