package domain

// CatalogStation is one entry of the upstream station catalog, prior to
// ranking. Latitude and longitude are pointers because the catalog contains
// stations with no recorded position; those cannot be ranked.
type CatalogStation struct {
	Triplet       string
	Name          string
	NetworkCode   string
	ElevationFeet *float64
	Latitude      *float64
	Longitude     *float64
}

// Station is a ranked monitoring site carrying its computed distance to the
// query point. Immutable once ranked; its lifetime is one discovery session.
type Station struct {
	Triplet       string   `json:"triplet"`
	Name          string   `json:"name"`
	ElevationFeet *float64 `json:"elevation_feet,omitempty"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	DistanceMiles float64  `json:"distance_miles"`
}

// FetchStatus classifies the result of one upstream request.
type FetchStatus string

const (
	// FetchOK means the request succeeded and returned at least one reading.
	FetchOK FetchStatus = "ok"
	// FetchEmpty means the request succeeded but carried no readings for the
	// requested element, which is common for stations without that sensor.
	FetchEmpty FetchStatus = "empty"
	// FetchFailed means the request errored, timed out, returned a non-2xx
	// status, or the payload could not be decoded.
	FetchFailed FetchStatus = "failed"
)

// FetchOutcome records how one upstream request ended. Failures are absorbed
// into outcomes instead of surfacing as errors so a batch is never aborted by
// a single sensor; Reason keeps the cause inspectable for diagnostics.
type FetchOutcome struct {
	Status FetchStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
}

// StationData holds everything fetched for one station in one session: a
// series and an outcome per sensor kind. Every kind is always present, with
// an empty series where data is unavailable.
type StationData struct {
	Triplet  string                      `json:"triplet"`
	Series   map[SensorKind]SensorSeries `json:"series"`
	Outcomes map[SensorKind]FetchOutcome `json:"outcomes"`
}

// NewStationData returns a StationData with maps allocated for all kinds.
func NewStationData(triplet string) StationData {
	kinds := AllSensorKinds()
	return StationData{
		Triplet:  triplet,
		Series:   make(map[SensorKind]SensorSeries, len(kinds)),
		Outcomes: make(map[SensorKind]FetchOutcome, len(kinds)),
	}
}
