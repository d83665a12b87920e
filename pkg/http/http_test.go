package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "detailbook/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int64
		wantErr    bool
	}{
		{name: "defaults", query: "", wantLimit: 10, wantOffset: 0},
		{name: "explicit", query: "?limit=25&offset=50", wantLimit: 25, wantOffset: 50},
		{name: "limit capped", query: "?limit=1000", wantLimit: 100, wantOffset: 0},
		{name: "negative offset clamped", query: "?offset=-5", wantLimit: 10, wantOffset: 0},
		{name: "bad limit", query: "?limit=ten", wantErr: true},
		{name: "bad offset", query: "?offset=x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/profiles"+tt.query, nil)
			limit, offset, err := ExtractLimitOffset(r)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.CodeInvalidInput, apperrors.AsAppError(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestExtractTime(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?reference=2026-01-01T12:00:00Z", nil)
	got, err := ExtractTime(r, "reference")
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year())

	r = httptest.NewRequest(http.MethodGet, "/x", nil)
	got, err = ExtractTime(r, "reference")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	r = httptest.NewRequest(http.MethodGet, "/x?reference=soon", nil)
	_, err = ExtractTime(r, "reference")
	assert.Error(t, err)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "app error", err: apperrors.Conflict("customer exists"), wantStatus: http.StatusConflict, wantCode: apperrors.CodeConflict},
		{name: "invalid input", err: apperrors.InvalidInput("bad phone"), wantStatus: http.StatusBadRequest, wantCode: apperrors.CodeInvalidInput},
		{name: "plain error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NoError(t, WriteError(rec, tt.err))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestWritePaginated(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WritePaginated(rec, []string{"a"}, 7, 10, 20))

	var body PaginatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 7, body.TotalCount)
	assert.Equal(t, 10, body.Limit)
	assert.EqualValues(t, 20, body.Offset)
}
