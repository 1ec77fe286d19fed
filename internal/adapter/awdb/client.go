package awdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/scan-site-discovery/internal/config"
	"github.com/couchcryptid/scan-site-discovery/internal/domain"
	"github.com/couchcryptid/scan-site-discovery/internal/observability"
)

const dateLayout = "2006-01-02"

// Client retrieves the station catalog and daily sensor series from the AWDB
// REST API.
type Client struct {
	baseURL        string
	network        string
	httpClient     *http.Client
	catalogTimeout time.Duration
	dataTimeout    time.Duration
	lookbackYears  int
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// NewClient creates an AWDB client from service configuration.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:        strings.TrimRight(cfg.AWDBBaseURL, "/"),
		network:        cfg.AWDBNetwork,
		httpClient:     &http.Client{},
		catalogTimeout: cfg.CatalogTimeout,
		dataTimeout:    cfg.DataTimeout,
		lookbackYears:  cfg.LookbackYears,
		logger:         logger,
		metrics:        metrics,
	}
}

// GetStations fetches the full station catalog and returns the entries
// belonging to the configured network.
func (c *Client) GetStations(ctx context.Context) ([]domain.CatalogStation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.catalogTimeout)
	defer cancel()

	params := url.Values{"format": {"json"}}
	fullURL := c.baseURL + "/stations?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.CatalogFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("stations request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.CatalogFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("awdb API error: status %d: %s", resp.StatusCode, body)
	}

	var records []stationRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		c.metrics.CatalogFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode stations: %w", err)
	}

	stations := make([]domain.CatalogStation, 0, len(records))
	for _, r := range records {
		if r.NetworkCode != c.network || r.StationTriplet == "" {
			continue
		}
		stations = append(stations, domain.CatalogStation{
			Triplet:       r.StationTriplet,
			Name:          r.Name,
			NetworkCode:   r.NetworkCode,
			ElevationFeet: r.Elevation,
			Latitude:      r.Latitude,
			Longitude:     r.Longitude,
		})
	}

	if len(stations) == 0 {
		c.metrics.CatalogFetches.WithLabelValues("empty").Inc()
	} else {
		c.metrics.CatalogFetches.WithLabelValues("success").Inc()
	}
	c.logger.Info("station catalog fetched",
		"network", c.network,
		"total", len(records),
		"matched", len(stations))

	return stations, nil
}

// FetchStationData retrieves the daily series for every sensor kind of one
// station. Per-kind failures are absorbed into the outcome map; the error
// return is reserved for context cancellation.
func (c *Client) FetchStationData(ctx context.Context, triplet string) (domain.StationData, error) {
	data := domain.NewStationData(triplet)
	beginDate, endDate := c.dateRange()

	for _, kind := range domain.AllSensorKinds() {
		if err := ctx.Err(); err != nil {
			return data, err
		}

		start := time.Now()
		series, outcome := c.fetchSeries(ctx, triplet, kind, beginDate, endDate)
		c.metrics.SensorFetchDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
		c.metrics.SensorFetches.WithLabelValues(string(kind), string(outcome.Status)).Inc()

		data.Series[kind] = series
		data.Outcomes[kind] = outcome

		if outcome.Status == domain.FetchFailed {
			c.logger.Warn("sensor fetch failed",
				"station", triplet,
				"kind", kind,
				"reason", outcome.Reason)
		}
	}

	return data, nil
}

func (c *Client) fetchSeries(ctx context.Context, triplet string, kind domain.SensorKind, beginDate, endDate string) (domain.SensorSeries, domain.FetchOutcome) {
	ctx, cancel := context.WithTimeout(ctx, c.dataTimeout)
	defer cancel()

	params := url.Values{
		"stationTriplets":      {triplet},
		"elements":             {kind.ElementCode()},
		"duration":             {"DAILY"},
		"beginDate":            {beginDate},
		"endDate":              {endDate},
		"periodRef":            {"END"},
		"centralTendencyType":  {"NONE"},
		"returnFlags":          {"false"},
		"returnOriginalValues": {"false"},
		"returnSuspectData":    {"false"},
		"format":               {"json"},
	}
	fullURL := c.baseURL + "/data?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, domain.FetchOutcome{Status: domain.FetchFailed, Reason: fmt.Sprintf("create request: %v", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.FetchOutcome{Status: domain.FetchFailed, Reason: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.FetchOutcome{Status: domain.FetchFailed, Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var records []stationDataRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, domain.FetchOutcome{Status: domain.FetchFailed, Reason: "malformed response"}
	}

	if len(records) == 0 || len(records[0].Data) == 0 || len(records[0].Data[0].Values) == 0 {
		return nil, domain.FetchOutcome{Status: domain.FetchEmpty, Reason: "no data"}
	}

	values := records[0].Data[0].Values
	series := make(domain.SensorSeries, 0, len(values))
	for _, v := range values {
		series = append(series, domain.Reading{Date: v.Date, Value: string(v.Value)})
	}
	return series, domain.FetchOutcome{Status: domain.FetchOK}
}

// dateRange computes the lookback window ending today, 365 days per
// configured year.
func (c *Client) dateRange() (string, string) {
	now := clock.Now()
	begin := now.AddDate(0, 0, -c.lookbackYears*365)
	return begin.Format(dateLayout), now.Format(dateLayout)
}

// AWDB API response types.

type stationRecord struct {
	StationTriplet string   `json:"stationTriplet"`
	Name           string   `json:"name"`
	NetworkCode    string   `json:"networkCode"`
	Elevation      *float64 `json:"elevation"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
}

type stationDataRecord struct {
	StationTriplet string        `json:"stationTriplet"`
	Data           []elementData `json:"data"`
}

type elementData struct {
	Values []dataValue `json:"values"`
}

type dataValue struct {
	Date  string   `json:"date"`
	Value rawValue `json:"value"`
}

// rawValue keeps the upstream value as text whether it arrives as a JSON
// number, string, or null.
type rawValue string

func (v *rawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = rawValue(s)
		return nil
	}
	*v = rawValue(b)
	return nil
}
