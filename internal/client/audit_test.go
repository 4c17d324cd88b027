package client

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRecordsExportCSV(t *testing.T) {
	var kind string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind = r.URL.Query().Get("type")
		writeJSON(w, http.StatusOK, `{"success":true,"data":[
			{"kind":"sale","id":1,"company_id":3,"company_name":"Acme","reference":"S-1","customer_name":"Doe, Jane","amount":"50","status":"PAID","created_at":"2026-03-01T10:00:00Z"},
			{"kind":"sale","id":2,"company_id":3,"company_name":"Acme","reference":"S-2","customer_name":"Bob","amount":"20","status":"PENDING","created_at":"2026-03-02T11:30:00Z"}
		],"total":2,"page":1,"limit":50,"total_pages":1}`)
	}))
	a := NewAuditRecords(c, AuditFilter{Kind: "sale"}, 50)
	require.NoError(t, a.List().Load(context.Background()))
	assert.Equal(t, "sale", kind)

	var buf bytes.Buffer
	require.NoError(t, a.ExportCSV(&buf))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], `"Doe, Jane"`)
}
