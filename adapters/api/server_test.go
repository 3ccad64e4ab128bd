package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprawlstats/adapters/memory"
	"sprawlstats/domain/analysis"
	"sprawlstats/domain/observation"
	"sprawlstats/internal"
	"sprawlstats/internal/cache"
	"sprawlstats/internal/engine"
	"sprawlstats/internal/errors"
	"sprawlstats/internal/testkit"
)

type fixture struct {
	server   *Server
	datasets *memory.DatasetRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := internal.NewLogger(internal.LogLevelError)
	datasets := memory.NewDatasetRepository()
	eng := engine.New(engine.Deps{
		Results:  memory.NewResultStore(),
		Datasets: datasets,
		Cache:    cache.New(cache.WithJanitorInterval(0), cache.WithLogger(logger)),
		Logger:   logger,
	})
	eng.Open()
	t.Cleanup(eng.Close)
	return &fixture{server: NewServer(eng, datasets, logger), datasets: datasets}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func trendRequest(configID, datasetID string) RunAnalysisRequest {
	return RunAnalysisRequest{Config: analysis.Config{
		ID:           configID,
		AnalysisType: analysis.TypeTrend,
		DatasetID:    datasetID,
		Parameters:   map[string]interface{}{"xField": "x", "yField": "y"},
	}}
}

func (f *fixture) register(t *testing.T, ds *observation.Dataset) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/datasets", ds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRunAnalysisAndFetchResults(t *testing.T) {
	f := newFixture(t)
	ds := testkit.LinearSeries(10, 2, 3)
	f.register(t, ds)

	rec := f.do(t, http.MethodPost, "/api/analyses", trendRequest("trend-1", ds.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[analysis.Result](t, rec)
	assert.Equal(t, analysis.StatusCompleted, result.Status)
	require.NotNil(t, result.Data)
	require.NotNil(t, result.Data.Trend)
	assert.InDelta(t, 2.0, result.Data.Trend.Trend.Slope, 1e-9)
	assert.Equal(t, "increasing", result.Data.Trend.Direction)

	// identical request is served from the cache
	again := decode[analysis.Result](t, f.do(t, http.MethodPost, "/api/analyses", trendRequest("trend-1", ds.ID)))
	assert.Equal(t, result.ID, again.ID)
	stats := decode[cache.Stats](t, f.do(t, http.MethodGet, "/api/cache/stats", nil))
	assert.Equal(t, int64(1), stats.Hits)

	got := decode[analysis.Result](t, f.do(t, http.MethodGet, "/api/results/"+result.ID, nil))
	assert.Equal(t, result.ID, got.ID)

	history := decode[[]analysis.Result](t, f.do(t, http.MethodGet, "/api/configs/trend-1/results", nil))
	require.Len(t, history, 1)
	assert.Equal(t, result.ID, history[0].ID)
}

func TestAppendPointsInvalidatesCachedResult(t *testing.T) {
	f := newFixture(t)
	ds := testkit.LinearSeries(10, 1, 0)
	f.register(t, ds)

	first := decode[analysis.Result](t, f.do(t, http.MethodPost, "/api/analyses", trendRequest("trend-2", ds.ID)))

	extra := testkit.LinearSeries(12, 1, 0).Points[10:]
	rec := f.do(t, http.MethodPost, "/api/datasets/"+ds.ID+"/points", AppendRequest{Points: extra})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decode[DatasetSummary](t, rec)
	assert.Equal(t, 12, summary.Points)

	second := decode[analysis.Result](t, f.do(t, http.MethodPost, "/api/analyses", trendRequest("trend-2", ds.ID)))
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 12, second.Data.Trend.PointCount)

	history := decode[[]analysis.Result](t, f.do(t, http.MethodGet, "/api/configs/trend-2/results", nil))
	assert.Len(t, history, 2)
}

func TestRunAnalysisFailuresAreResults(t *testing.T) {
	f := newFixture(t)
	ds := testkit.LinearSeries(1, 1, 0)
	f.register(t, ds)

	rec := f.do(t, http.MethodPost, "/api/analyses", trendRequest("trend-short", ds.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[analysis.Result](t, rec)
	assert.Equal(t, analysis.StatusFailed, result.Status)
	assert.Equal(t, errors.CodeInsufficientData, result.ErrorCode)
}

func TestRequestErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"unknown dataset", http.MethodPost, "/api/analyses", trendRequest("c", "missing"), http.StatusNotFound, errors.CodeNotFound},
		{"missing dataset id", http.MethodPost, "/api/analyses", RunAnalysisRequest{}, http.StatusBadRequest, errors.CodeInvalidInput},
		{"malformed body", http.MethodPost, "/api/analyses", "not an object", http.StatusBadRequest, errors.CodeInvalidInput},
		{"unknown result", http.MethodGet, "/api/results/nope", nil, http.StatusNotFound, errors.CodeNotFound},
		{"unknown dataset fetch", http.MethodGet, "/api/datasets/nope", nil, http.StatusNotFound, errors.CodeNotFound},
		{"append to unknown", http.MethodPost, "/api/datasets/nope/points", AppendRequest{}, http.StatusNotFound, errors.CodeNotFound},
		{
			"bad kind", http.MethodPost, "/api/datasets",
			observation.Dataset{Points: []observation.Observation{{ID: "x", Kind: "planet"}}},
			http.StatusBadRequest, errors.CodeValidationError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestFilterDataset(t *testing.T) {
	f := newFixture(t)
	ds := observation.NewDataset("mixed", observation.SourceMixed)
	ds.ID = "mixed-1"
	ds.Append(
		testkit.Resource("r1", "minerals", 0, 0, 80),
		testkit.Resource("r2", "gas", 1, 1, 20),
		testkit.Sector("s1", "Outpost", 2, 2),
	)
	f.register(t, ds)

	rec := f.do(t, http.MethodPost, "/api/datasets/mixed-1/filter", FilterRequest{Filters: []observation.Filter{
		{Field: "kind", Operator: observation.OpEquals, Value: observation.String("resource")},
		{Field: "amount", Operator: observation.OpGreaterThan, Value: observation.Number(50)},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[FilterResponse](t, rec)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Points, 1)
	assert.Equal(t, "r1", resp.Points[0].ID)

	rec = f.do(t, http.MethodPost, "/api/datasets/mixed-1/filter", FilterRequest{Filters: []observation.Filter{
		{Field: "amount", Operator: observation.OpBetween, Value: observation.Number(1)},
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeValidationError, decode[ErrorResponse](t, rec).Code)
}

func TestDatasetLifecycle(t *testing.T) {
	f := newFixture(t)
	ds := testkit.LinearSeries(3, 1, 0)
	ds.ID = "series"
	f.register(t, ds)

	list := decode[[]DatasetSummary](t, f.do(t, http.MethodGet, "/api/datasets", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "series", list[0].ID)
	assert.Equal(t, 3, list[0].Kinds[observation.KindResource])

	full := decode[observation.Dataset](t, f.do(t, http.MethodGet, "/api/datasets/series", nil))
	assert.Len(t, full.Points, 3)

	rec := f.do(t, http.MethodDelete, "/api/datasets/series", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/datasets/series", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", nil).Code)

	rec := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestEventStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Eventually(t, func() bool { return f.server.Events().Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	ds := testkit.LinearSeries(5, 1, 0)
	f.register(t, ds)
	f.do(t, http.MethodPost, "/api/analyses", trendRequest("trend-ev", ds.ID))

	reader := bufio.NewReader(resp.Body)
	var events []string
	for len(events) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimSpace(strings.TrimPrefix(line, "event: ")))
		}
	}
	assert.Equal(t, []string{string(EventDatasetUpdated), string(EventAnalysisCompleted)}, events)
}

func TestBroadcasterDropsWhenFull(t *testing.T) {
	b := NewBroadcaster(1)
	ch, unsubscribe := b.Subscribe()

	ev := datasetEvent(EventDatasetUpdated, "d", 1)
	assert.Equal(t, 1, b.Publish(ev))
	assert.Equal(t, 0, b.Publish(ev), "full buffer drops")
	assert.Same(t, ev, <-ch)

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, b.Subscribers())
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Publish(ev))
}

func TestEventSSEFormat(t *testing.T) {
	ev := analysisEvent(&analysis.Result{ID: "r", ConfigID: "c", Status: analysis.StatusFailed, ErrorCode: "TIMEOUT"})
	frame := ev.ToSSEFormat()
	assert.True(t, strings.HasPrefix(frame, "event: analysis_failed\ndata: {"))
	assert.True(t, strings.HasSuffix(frame, "\n\n"))
	assert.Contains(t, frame, `"error_code":"TIMEOUT"`)
}
