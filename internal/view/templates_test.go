package view

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderWritesStatus(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, http.StatusBadRequest, "pages/login.html", TemplateData{Title: "Sign in"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<form")
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	assert.Error(t, engine.Render(rec, http.StatusOK, "pages/missing.html", TemplateData{}))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "1,234,567.89", FormatMoney(decimal.RequireFromString("1234567.891")))
	assert.Equal(t, "0.00", FormatMoney(decimal.Zero))
	assert.Equal(t, "-12.50", FormatMoney(decimal.RequireFromString("-12.5")))
}
