package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agristat/internal/config"
	"agristat/internal/engine"
	"agristat/internal/models"
)

const testCSV = `Year,State Name,RICE AREA (1000 ha),RICE PRODUCTION (1000 tons),RICE YIELD (Kg per ha),WHEAT YIELD (Kg per ha)
2010,Bihar,3000,5000,1600,2000
2010,Goa,40,100,2500,
2011,Bihar,3100,5200,1700,2100
`

func newTestServer(t *testing.T, loaded bool) (*echo.Echo, *Handler) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var d *engine.Dashboard
	if loaded {
		table, err := engine.ParseCSV(strings.NewReader(testCSV), engine.LoaderOptions{})
		require.NoError(t, err)
		d = engine.NewDashboard(table, engine.DashboardOptions{})
	}

	reg := prometheus.NewRegistry()
	h, err := NewHandler(d, HandlerOptions{ChartWidth: 640, ChartHeight: 320, Metrics: NewMetrics(reg), Logger: logger})
	require.NoError(t, err)

	cfg := config.Default().Server
	cfg.RateLimitRPS = 0
	return NewServer(cfg, logger, h, reg), h
}

func get(t *testing.T, e *echo.Echo, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_LoadingAnswers503(t *testing.T) {
	e, h := newTestServer(t, false)

	rec := get(t, e, "/api/options")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))

	var body APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DATA_LOADING", body.ErrorCode)

	rec = get(t, e, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ready":false`)

	table, err := engine.ParseCSV(strings.NewReader(testCSV), engine.LoaderOptions{})
	require.NoError(t, err)
	h.SetData(engine.NewDashboard(table, engine.DashboardOptions{}))

	rec = get(t, e, "/api/options")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_GetOptions(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := get(t, e, "/api/options")
	require.Equal(t, http.StatusOK, rec.Code)

	var opts models.Options
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
	assert.Equal(t, []string{"RICE", "WHEAT"}, opts.Crops)
	assert.Equal(t, []int{2011, 2010}, opts.Years)
	assert.Equal(t, []string{"Goa", "Bihar"}, opts.States)
	assert.Equal(t, []string{"RICE YIELD (Kg per ha)", "WHEAT YIELD (Kg per ha)"}, opts.YieldColumns)
}

func TestHandler_GetStateChart(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := get(t, e, "/api/charts/state?crop=rice&year=2010")
	require.Equal(t, http.StatusOK, rec.Code)

	var spec models.ChartSpec
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	assert.Equal(t, models.ModeStack, spec.BarMode)
	assert.Equal(t, []string{"Bihar", "Goa"}, spec.Categories)
	require.Len(t, spec.Series, 3)
	assert.Equal(t, []float64{3000, 40}, spec.Series[0].Values)
	assert.False(t, spec.Empty)
}

func TestHandler_GetYieldChart(t *testing.T) {
	e, _ := newTestServer(t, true)

	q := url.Values{}
	q.Set("state", "Bihar")
	q.Add("yield", "WHEAT YIELD (Kg per ha)")
	rec := get(t, e, "/api/charts/yield?"+q.Encode())
	require.Equal(t, http.StatusOK, rec.Code)

	var spec models.ChartSpec
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	assert.Equal(t, models.ModeGroup, spec.BarMode)
	assert.Equal(t, []string{"2010", "2011"}, spec.Categories)
	require.Len(t, spec.Series, 1)
	assert.Equal(t, []float64{2000, 2100}, spec.Series[0].Values)
}

func TestHandler_EmptySelectionIsNotAnError(t *testing.T) {
	e, _ := newTestServer(t, true)

	tests := []string{
		"/api/charts/state?crop=MAIZE&year=2010",
		"/api/charts/state?crop=RICE&year=1999",
		"/api/charts/yield?state=Atlantis",
	}
	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			rec := get(t, e, target)
			require.Equal(t, http.StatusOK, rec.Code)

			var spec models.ChartSpec
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
			assert.True(t, spec.Empty)
		})
	}
}

func TestHandler_BadParameters(t *testing.T) {
	e, _ := newTestServer(t, true)

	tests := []struct {
		name   string
		target string
		code   string
	}{
		{name: "year not a number", target: "/api/charts/state?year=abc", code: "INVALID_PARAMETER"},
		{name: "negative year", target: "/api/charts/state?year=-3", code: "VALIDATION_FAILED"},
		{name: "year past 32 bits", target: "/api/charts/state?crop=RICE&year=4294969306", code: "VALIDATION_FAILED"},
		{name: "blank yield column", target: "/api/charts/yield?yield=", code: "VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, e, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.ErrorCode)
		})
	}
}

func TestHandler_ChartPNG(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := get(t, e, "/api/charts/state.png?crop=RICE&year=2010")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = get(t, e, "/api/charts/yield.png?state=Atlantis")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandler_Tables(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := get(t, e, "/api/tables/state?crop=RICE&year=2010&limit=1&offset=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		KeyField string          `json:"key_field"`
		Data     []models.AggRow `json:"data"`
		Total    int             `json:"total"`
		Limit    int             `json:"limit"`
		Offset   int             `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, models.FieldState, body.KeyField)
	assert.Equal(t, 2, body.Total)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Goa", body.Data[0].Key)

	rec = get(t, e, "/api/tables/yield?state=Bihar&offset=10")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Data)
	assert.Equal(t, 2, body.Total)
}

func TestHandler_Dashboard(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := get(t, e, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	var view models.DashboardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "RICE", view.Selection.Crop)
	assert.Equal(t, 2011, view.Selection.Year)
	assert.Equal(t, "Goa", view.Selection.State)
	assert.Len(t, view.Selection.YieldColumns, 2)
	require.NotNil(t, view.ByState)
	require.NotNil(t, view.ByYear)
}

func TestHandler_Page(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := get(t, e, "/?crop=RICE&year=2010&state=Bihar")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "Crop Yield Comparison")
	assert.Contains(t, rec.Body.String(), "/api/charts/yield.png?state=Bihar")
}

func TestServer_MetricsAndRequestID(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := get(t, e, "/api/charts/state?crop=RICE&year=2010")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = get(t, e, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `agristat_chart_renders_total{empty="false",view="by_state"} 1`)
}

func TestServer_UnknownRoute(t *testing.T) {
	e, _ := newTestServer(t, true)

	rec := get(t, e, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.ErrorCode)
}
