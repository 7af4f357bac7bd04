package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReportHandler(t *testing.T) {
	t.Run("should serve the current dashboard", func(t *testing.T) {
		svc := new(MockReportService)
		svc.On("Dashboard", mock.Anything, time.Time{}).Return(&report.Dashboard{
			TotalLoanDisbursed: decimal.NewFromInt(27000), DefaulterCount: 1, ClientCount: 3,
		}, nil)
		h := NewReportHandler(svc, time.UTC, testLogger)

		rec := httptest.NewRecorder()
		h.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/reports/dashboard", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp report.Dashboard
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 1, resp.DefaulterCount)
		assert.True(t, decimal.NewFromInt(27000).Equal(resp.TotalLoanDisbursed))
	})

	t.Run("should pass an explicit day to todays collections", func(t *testing.T) {
		day := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
		svc := new(MockReportService)
		svc.On("TodaysCollections", mock.Anything, day).Return([]report.CollectionEntry{{RecordID: 1}, {RecordID: 2}}, nil)
		h := NewReportHandler(svc, time.UTC, testLogger)

		rec := httptest.NewRecorder()
		h.TodaysCollections(rec, httptest.NewRequest(http.MethodGet, "/reports/today?date=2024-01-03", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp []report.CollectionEntry
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Len(t, resp, 2)
	})

	t.Run("should serve the defaulter flags keyed by client id", func(t *testing.T) {
		asOf := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
		svc := new(MockReportService)
		svc.On("DefaulterSet", mock.Anything, asOf).Return(map[int64]bool{2: true, 5: true}, nil)
		h := NewReportHandler(svc, time.UTC, testLogger)

		rec := httptest.NewRecorder()
		h.DefaulterSet(rec, httptest.NewRequest(http.MethodGet, "/reports/defaulters/set?asOf=2024-01-04", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"2": true, "5": true}`, rec.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("should reject a malformed asOf for the defaulter flags", func(t *testing.T) {
		h := NewReportHandler(new(MockReportService), time.UTC, testLogger)

		rec := httptest.NewRecorder()
		h.DefaulterSet(rec, httptest.NewRequest(http.MethodGet, "/reports/defaulters/set?asOf=yesterday", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should list defaulters and surface failures as 500", func(t *testing.T) {
		svc := new(MockReportService)
		svc.On("Defaulters", mock.Anything, time.Time{}).Return(nil, errors.New("db down"))
		svc.On("AllAgentCollections", mock.Anything).Return([]report.AgentCollections{}, nil)
		h := NewReportHandler(svc, time.UTC, testLogger)

		rec := httptest.NewRecorder()
		h.Defaulters(rec, httptest.NewRequest(http.MethodGet, "/reports/defaulters", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		rec = httptest.NewRecorder()
		h.AllAgentCollections(rec, httptest.NewRequest(http.MethodGet, "/reports/agents", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}
