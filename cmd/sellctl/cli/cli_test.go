package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellapp/sellapp/internal/client"
	"github.com/sellapp/sellapp/jobs"
)

func newOps(t *testing.T, h http.Handler) *OpsCLI {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := client.New(srv.URL, client.WithToken("tok"))
	require.NoError(t, err)
	return NewOpsCLI(c)
}

func reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestSalesListCommandPrintsTable(t *testing.T) {
	var query string
	ops := newOps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("payment_status")
		reply(w, http.StatusOK, `{"success":true,"data":[
			{"id":7,"unique_id":"S-7","customer_name":"Ama","final_amount":"120","amount_paid":"120","payment_status":"PAID"}
		],"total":1,"page":1,"limit":20,"total_pages":1}`)
	}))

	var stdout, stderr bytes.Buffer
	code := ops.SalesListCommand(context.Background(), SalesListOptions{
		Output: Output{Stdout: &stdout, Stderr: &stderr},
		Filter: client.SalesFilter{PaymentStatus: "PAID"},
		Page:   1,
	})
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "PAID", query)
	assert.Contains(t, stdout.String(), "S-7")
	assert.Contains(t, stdout.String(), "120.00")
	assert.Contains(t, stdout.String(), "page 1 of 1 (1 sales)")
}

func TestSalesListCommandUnauthorizedHint(t *testing.T) {
	ops := newOps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusUnauthorized, `{"success":false,"error":"unauthorized"}`)
	}))
	var stdout, stderr bytes.Buffer
	code := ops.SalesListCommand(context.Background(), SalesListOptions{Output: Output{Stdout: &stdout, Stderr: &stderr}})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "sellctl login")
}

func TestSalesDeleteCommand(t *testing.T) {
	var bulk bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pos/sale/7/delete", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"success":true,"message":"Sale deleted","data":{"deleted":1}}`)
	})
	mux.HandleFunc("/api/pos/sales", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"success":true,"data":[],"total":0,"page":1,"limit":20,"total_pages":0}`)
	})
	mux.HandleFunc("/api/pos/sales/bulk-delete", func(w http.ResponseWriter, r *http.Request) {
		bulk = true
		reply(w, http.StatusOK, `{"success":true,"data":{"deleted":2}}`)
	})
	ops := newOps(t, mux)
	ctx := context.Background()

	var stdout, stderr bytes.Buffer
	out := Output{Stdout: &stdout, Stderr: &stderr}
	require.Equal(t, 0, ops.SalesDeleteCommand(ctx, SalesDeleteOptions{Output: out, IDs: []int64{7}}), stderr.String())
	assert.Contains(t, stdout.String(), "Sale deleted")
	assert.False(t, bulk)

	stdout.Reset()
	require.Equal(t, 0, ops.SalesDeleteCommand(ctx, SalesDeleteOptions{Output: out, IDs: []int64{7, 8}}), stderr.String())
	assert.True(t, bulk)
	assert.Contains(t, stdout.String(), "deleted 2 sale(s)")

	assert.Equal(t, 1, ops.SalesDeleteCommand(ctx, SalesDeleteOptions{Output: out}))
}

func TestAuditExportCommandWritesCSV(t *testing.T) {
	ops := newOps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"success":true,"data":[
			{"kind":"repair","id":4,"company_id":3,"company_name":"Acme","reference":"Screen","customer_name":"Kofi","amount":"35","status":"pending","created_at":"2026-03-01T10:00:00Z"}
		],"total":1,"page":1,"limit":100,"total_pages":1}`)
	}))
	var csvOut, stdout, stderr bytes.Buffer
	code := ops.AuditExportCommand(context.Background(), AuditExportOptions{
		Output: Output{Stdout: &stdout, Stderr: &stderr},
		Limit:  100,
		Out:    &csvOut,
	})
	require.Equal(t, 0, code, stderr.String())
	lines := strings.Split(strings.TrimRight(csvOut.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Kofi")
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "exported 1 of 1 record(s)")
}

func TestRunScheduledCommand(t *testing.T) {
	ops := newOps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/admin/backups/run-scheduled", r.URL.Path)
		reply(w, http.StatusOK, `{"success":true,"data":{"checked":3,"enqueued":[11,12]}}`)
	}))
	var stdout, stderr bytes.Buffer
	code := ops.RunScheduledCommand(context.Background(), Output{Stdout: &stdout, Stderr: &stderr})
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "checked 3 schedule(s), queued 2 backup(s)")
	assert.Contains(t, stdout.String(), " - backup 12")
}

func TestRunScheduledCommandJSON(t *testing.T) {
	ops := newOps(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"success":true,"data":{"checked":0,"enqueued":[],"skipped":true}}`)
	}))
	var stdout bytes.Buffer
	code := ops.RunScheduledCommand(context.Background(), Output{JSONOutput: true, Stdout: &stdout, Stderr: &bytes.Buffer{}})
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), `"skipped": true`)
}

func TestTriggerableTask(t *testing.T) {
	task, err := TriggerableTask(jobs.TaskBackupScheduled)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskBackupScheduled, task.Type())

	task, err = TriggerableTask(jobs.TaskDashboardWarmup)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskDashboardWarmup, task.Type())

	_, err = TriggerableTask(jobs.TaskBackupRun)
	assert.Error(t, err)
}
