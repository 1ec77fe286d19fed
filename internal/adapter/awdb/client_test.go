package awdb

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/scan-site-discovery/internal/domain"
	"github.com/couchcryptid/scan-site-discovery/internal/observability"
)

const (
	testTriplet       = "301:MT:SCAN"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:        baseURL,
		network:        "SCAN",
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		catalogTimeout: 5 * time.Second,
		dataTimeout:    5 * time.Second,
		lookbackYears:  1,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:        observability.NewMetricsForTesting(),
	}
}

func TestClient_GetStations_FiltersNetwork(t *testing.T) {
	elev := 4800.0
	lat := 45.1
	lon := -111.0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stations", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		records := []stationRecord{
			{StationTriplet: testTriplet, Name: "Lower Elk", NetworkCode: "SCAN", Elevation: &elev, Latitude: &lat, Longitude: &lon},
			{StationTriplet: "540:MT:SNTL", Name: "Snow Site", NetworkCode: "SNTL", Latitude: &lat, Longitude: &lon},
			{StationTriplet: "302:WY:SCAN", Name: "No Coordinates", NetworkCode: "SCAN"},
			{StationTriplet: "", Name: "Blank Triplet", NetworkCode: "SCAN"},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(records))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	stations, err := c.GetStations(context.Background())
	require.NoError(t, err)

	require.Len(t, stations, 2)
	assert.Equal(t, testTriplet, stations[0].Triplet)
	assert.Equal(t, "Lower Elk", stations[0].Name)
	assert.Equal(t, "SCAN", stations[0].NetworkCode)
	require.NotNil(t, stations[0].ElevationFeet)
	assert.Equal(t, 4800.0, *stations[0].ElevationFeet)
	require.NotNil(t, stations[0].Latitude)
	assert.Equal(t, 45.1, *stations[0].Latitude)

	// Catalog entries without coordinates still pass through; ranking excludes them.
	assert.Equal(t, "302:WY:SCAN", stations[1].Triplet)
	assert.Nil(t, stations[1].Latitude)
}

func TestClient_GetStations_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"upstream down"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.GetStations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_GetStations_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.GetStations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode stations")
}

func TestClient_GetStations_NoNetworkMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[{"stationTriplet":"540:MT:SNTL","name":"Snow Site","networkCode":"SNTL"}]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	stations, err := c.GetStations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stations)
}

func TestClient_FetchStationData_AllSensors(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	defer SetClock(nil)

	var requestedElements []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, testTriplet, q.Get("stationTriplets"))
		assert.Equal(t, "DAILY", q.Get("duration"))
		assert.Equal(t, "2024-06-01", q.Get("beginDate"))
		assert.Equal(t, "2025-06-01", q.Get("endDate"))
		assert.Equal(t, "END", q.Get("periodRef"))
		assert.Equal(t, "NONE", q.Get("centralTendencyType"))
		assert.Equal(t, "false", q.Get("returnFlags"))
		assert.Equal(t, "false", q.Get("returnOriginalValues"))
		assert.Equal(t, "false", q.Get("returnSuspectData"))
		assert.Equal(t, "json", q.Get("format"))
		requestedElements = append(requestedElements, q.Get("elements"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[{"stationTriplet":"301:MT:SCAN","data":[{"stationElement":{"elementCode":"X"},"values":[` +
			`{"date":"2024-05-01","value":12.5},` +
			`{"date":"2024-05-02","value":null},` +
			`{"date":"2024-05-03","value":"13"}]}]}]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	data, err := c.FetchStationData(context.Background(), testTriplet)
	require.NoError(t, err)

	assert.Equal(t, testTriplet, data.Triplet)
	assert.Equal(t, []string{"SMN:-20", "SMN:-40", "STX:-20", "STX:-40", "TMAX"}, requestedElements)

	for _, kind := range domain.AllSensorKinds() {
		require.Contains(t, data.Outcomes, kind)
		assert.Equal(t, domain.FetchOK, data.Outcomes[kind].Status)

		series := data.Series[kind]
		require.Len(t, series, 3)
		assert.Equal(t, domain.Reading{Date: "2024-05-01", Value: "12.5"}, series[0])
		assert.Equal(t, domain.Reading{Date: "2024-05-02", Value: ""}, series[1])
		assert.Equal(t, domain.Reading{Date: "2024-05-03", Value: "13"}, series[2])
	}
}

func TestClient_FetchStationData_PartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("elements") == "STX:-20" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[{"data":[{"values":[{"date":"2024-05-01","value":10}]}]}]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	data, err := c.FetchStationData(context.Background(), testTriplet)
	require.NoError(t, err)

	assert.Equal(t, domain.FetchFailed, data.Outcomes[domain.KindSoilTemp20].Status)
	assert.Contains(t, data.Outcomes[domain.KindSoilTemp20].Reason, "status 500")
	assert.Empty(t, data.Series[domain.KindSoilTemp20])

	for _, kind := range []domain.SensorKind{domain.KindSoilMoisture20, domain.KindSoilMoisture40, domain.KindSoilTemp40, domain.KindAirTempMax} {
		assert.Equal(t, domain.FetchOK, data.Outcomes[kind].Status)
		assert.Len(t, data.Series[kind], 1)
	}
}

func TestClient_FetchStationData_EmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	data, err := c.FetchStationData(context.Background(), testTriplet)
	require.NoError(t, err)

	for _, kind := range domain.AllSensorKinds() {
		assert.Equal(t, domain.FetchEmpty, data.Outcomes[kind].Status)
		assert.Equal(t, "no data", data.Outcomes[kind].Reason)
		assert.True(t, data.Series[kind].Empty())
	}
}

func TestClient_FetchStationData_MissingNestedValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[{"stationTriplet":"301:MT:SCAN","data":[]}]`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	data, err := c.FetchStationData(context.Background(), testTriplet)
	require.NoError(t, err)

	for _, kind := range domain.AllSensorKinds() {
		assert.Equal(t, domain.FetchEmpty, data.Outcomes[kind].Status)
	}
}

func TestClient_FetchStationData_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"unexpected":"shape"`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	data, err := c.FetchStationData(context.Background(), testTriplet)
	require.NoError(t, err)

	for _, kind := range domain.AllSensorKinds() {
		assert.Equal(t, domain.FetchFailed, data.Outcomes[kind].Status)
		assert.Equal(t, "malformed response", data.Outcomes[kind].Reason)
	}
}

func TestClient_FetchStationData_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.dataTimeout = 50 * time.Millisecond

	data, err := c.FetchStationData(context.Background(), testTriplet)
	require.NoError(t, err)

	for _, kind := range domain.AllSensorKinds() {
		assert.Equal(t, domain.FetchFailed, data.Outcomes[kind].Status)
		assert.Contains(t, data.Outcomes[kind].Reason, "request failed")
	}
}

func TestClient_FetchStationData_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(srv.URL)
	_, err := c.FetchStationData(ctx, testTriplet)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_DateRange(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
	defer SetClock(nil)

	t.Run("one year lookback", func(t *testing.T) {
		c := testClient("http://unused")
		begin, end := c.dateRange()
		assert.Equal(t, "2024-06-01", begin)
		assert.Equal(t, "2025-06-01", end)
	})

	t.Run("five year lookback", func(t *testing.T) {
		c := testClient("http://unused")
		c.lookbackYears = 5
		begin, end := c.dateRange()
		assert.Equal(t, "2020-06-02", begin)
		assert.Equal(t, "2025-06-01", end)
	})
}
