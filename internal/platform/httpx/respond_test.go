package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("sale 4: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: already synced", ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: amount", ErrValidation), http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{ErrUnauthorized, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())

		var env Envelope
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
		assert.False(t, env.Success)
		assert.Equal(t, tc.err.Error(), env.Error)
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("pq: relation \"sales\" does not exist"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "relation")
}

func TestListEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	List(rr, []int{1, 2}, 12, 2, 5, 3)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 12, body["total"])
	assert.EqualValues(t, 3, body["total_pages"])
}

func TestDecodeJSONValidation(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	err := DecodeJSON(req, &target)
	assert.ErrorIs(t, err, ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "x", target.Name)
}
