package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellapp/sellapp/internal/dashboard"
)

const overviewJSON = `{"success":true,"data":{
	"company_id":3,
	"modules":{"charts":true,"inventory_alerts":true,"recent_sales":true},
	"metrics":{"company_id":3,"company_name":"Acme Phones","revenue":"300","sales_count":4},
	"charts":{"trend":[
		{"date":"2026-03-01T00:00:00Z","sales":2,"revenue":"100","profit":"20"},
		{"date":"2026-03-02T00:00:00Z","sales":2,"revenue":"200","profit":"50"}
	]},
	"status":{"metrics":"ok","charts":"ok"}
}}`

func managerServer(t *testing.T, chartsCalls *atomic.Int32) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard/manager-overview", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, overviewJSON)
	})
	mux.HandleFunc("/api/dashboard/charts-data", func(w http.ResponseWriter, r *http.Request) {
		chartsCalls.Add(1)
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"enabled":true,"charts":{"trend":[]}}}`)
	})
	mux.HandleFunc("/api/dashboard/toggle-module", func(w http.ResponseWriter, r *http.Request) {
		var in dashboard.ToggleInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Enabled == nil {
			writeJSON(w, http.StatusBadRequest, `{"success":false,"error":"bad body"}`)
			return
		}
		set := dashboard.ModuleSet{dashboard.Module(in.Module): *in.Enabled}.Normalized()
		raw, _ := json.Marshal(set)
		writeJSON(w, http.StatusOK, `{"success":true,"message":"Module updated","data":`+string(raw)+`}`)
	})
	return newTestClient(t, mux)
}

func TestManagerDashboardChartsToggle(t *testing.T) {
	var chartsCalls atomic.Int32
	d := NewManagerDashboard(managerServer(t, &chartsCalls), RangeQuery{CompanyID: 3, Period: "week"})
	ctx := context.Background()

	view := d.Refresh(ctx)
	assert.Equal(t, dashboard.StatusOK, view.Status)
	assert.Equal(t, "Acme Phones", view.Overview.Metrics.CompanyName)
	require.True(t, view.ChartsEnabled)
	assert.True(t, strings.Contains(string(view.Charts.Revenue), "<svg"))

	view, err := d.SetCharts(ctx, false)
	require.NoError(t, err)
	assert.False(t, view.ChartsEnabled)
	assert.Empty(t, view.Charts.Revenue)
	assert.Empty(t, view.Charts.Profit)
	assert.Nil(t, view.Overview.Charts)

	// the dataset from the last refresh is reused
	view, err = d.SetCharts(ctx, true)
	require.NoError(t, err)
	assert.True(t, view.ChartsEnabled)
	assert.True(t, strings.Contains(string(view.Charts.Revenue), "<svg"))
	assert.Equal(t, int32(0), chartsCalls.Load())
}

func TestManagerDashboardFallsBackToCompanyMetrics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard/manager-overview", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, `{"success":false,"error":"upstream"}`)
	})
	mux.HandleFunc("/api/dashboard/company-metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"company_id":3,"company_name":"Acme Phones","sales_count":9}}`)
	})
	d := NewManagerDashboard(newTestClient(t, mux), RangeQuery{CompanyID: 3})

	view := d.Refresh(context.Background())
	assert.Equal(t, dashboard.StatusFallback, view.Status)
	assert.Equal(t, int64(9), view.Overview.Metrics.SalesCount)
	assert.False(t, view.ChartsEnabled)
	assert.Empty(t, view.Charts.Revenue)
}
