package domain

import (
	"math"
	"strconv"
	"time"
)

// TemperatureUnit selects the presentation unit for temperature kinds.
// Upstream data is always Fahrenheit; conversion is applied on the way out,
// identically to series values and derived statistics.
type TemperatureUnit string

const (
	Fahrenheit TemperatureUnit = "fahrenheit"
	Celsius    TemperatureUnit = "celsius"
)

// Valid reports whether u is a supported unit.
func (u TemperatureUnit) Valid() bool {
	return u == Fahrenheit || u == Celsius
}

// FahrenheitToCelsius converts degrees Fahrenheit to Celsius.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// ConvertTemperature converts an upstream Fahrenheit value into the requested
// unit.
func ConvertTemperature(f float64, unit TemperatureUnit) float64 {
	if unit == Celsius {
		return FahrenheitToCelsius(f)
	}
	return f
}

// ConvertSeriesUnit returns the series converted for presentation in the
// requested unit. Non-temperature kinds and Fahrenheit output pass through
// untouched. Entries that do not parse keep their raw text; they are absent
// from statistics either way.
func ConvertSeriesUnit(kind SensorKind, series SensorSeries, unit TemperatureUnit) SensorSeries {
	if unit != Celsius || !kind.IsTemperature() || len(series) == 0 {
		return series
	}
	out := make(SensorSeries, len(series))
	for i, r := range series {
		out[i] = r
		if r.Value == "" {
			continue
		}
		f, err := strconv.ParseFloat(r.Value, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out[i].Value = strconv.FormatFloat(FahrenheitToCelsius(f), 'f', -1, 64)
	}
	return out
}

// OverviewRow is the per-station summary: station identity plus one cleaned
// statistic per measurement. A nil statistic means no usable data survived
// retrieval, coercion, and cleaning for that measurement.
type OverviewRow struct {
	Triplet       string   `json:"triplet"`
	Name          string   `json:"name"`
	ElevationFeet *float64 `json:"elevation_feet,omitempty"`
	DistanceMiles float64  `json:"distance_miles"`

	SoilMoistureMinPct *float64 `json:"soil_moisture_min_pct,omitempty"`
	SoilTempMax20      *float64 `json:"soil_temp_max_20,omitempty"`
	SoilTempMax40      *float64 `json:"soil_temp_max_40,omitempty"`
	AirTempMax         *float64 `json:"air_temp_max,omitempty"`

	TemperatureUnit TemperatureUnit             `json:"temperature_unit"`
	Outcomes        map[SensorKind]FetchOutcome `json:"outcomes,omitempty"`
	GeneratedAt     time.Time                   `json:"generated_at"`
}

// CleanStatistic coerces, outlier-filters, and summarizes one series: the
// minimum for moisture kinds, the maximum otherwise. The second return is
// false when no usable values remain. Every statistic in an OverviewRow goes
// through this one path so raw values can never leak into a summary.
func CleanStatistic(kind SensorKind, series SensorSeries) (float64, bool) {
	values := series.Values()
	if len(values) == 0 {
		return 0, false
	}
	clean := FilterOutliers(values)
	if len(clean) == 0 {
		return 0, false
	}

	stat := clean[0]
	for _, v := range clean[1:] {
		if kind.IsMoisture() {
			if v < stat {
				stat = v
			}
		} else if v > stat {
			stat = v
		}
	}
	return stat, true
}

// BuildOverviewRow derives the summary row for one ranked station from its
// fetched sensor data. Moisture depths collapse to the minimum across both
// when available, whichever one otherwise. Temperature statistics are
// converted into the requested unit.
func BuildOverviewRow(st Station, data StationData, unit TemperatureUnit) OverviewRow {
	row := OverviewRow{
		Triplet:         st.Triplet,
		Name:            st.Name,
		ElevationFeet:   st.ElevationFeet,
		DistanceMiles:   st.DistanceMiles,
		TemperatureUnit: unit,
		Outcomes:        data.Outcomes,
		GeneratedAt:     clock.Now(),
	}

	row.SoilMoistureMinPct = combineMoistureMin(
		statPtr(KindSoilMoisture20, data),
		statPtr(KindSoilMoisture40, data),
	)
	row.SoilTempMax20 = tempStatPtr(KindSoilTemp20, data, unit)
	row.SoilTempMax40 = tempStatPtr(KindSoilTemp40, data, unit)
	row.AirTempMax = tempStatPtr(KindAirTempMax, data, unit)

	return row
}

func statPtr(kind SensorKind, data StationData) *float64 {
	v, ok := CleanStatistic(kind, data.Series[kind])
	if !ok {
		return nil
	}
	return &v
}

func tempStatPtr(kind SensorKind, data StationData, unit TemperatureUnit) *float64 {
	v, ok := CleanStatistic(kind, data.Series[kind])
	if !ok {
		return nil
	}
	v = ConvertTemperature(v, unit)
	return &v
}

// combineMoistureMin folds the two depth minimums into one representative
// value: the lower of the two when both exist, the available one when only
// one exists, nil when neither does.
func combineMoistureMin(d20, d40 *float64) *float64 {
	switch {
	case d20 != nil && d40 != nil:
		v := math.Min(*d20, *d40)
		return &v
	case d20 != nil:
		return d20
	case d40 != nil:
		return d40
	default:
		return nil
	}
}
