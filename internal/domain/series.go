package domain

import (
	"math"
	"strconv"
)

// SensorKind identifies one tracked measurement type and depth.
type SensorKind string

const (
	KindSoilMoisture20 SensorKind = "soil_moisture_20"
	KindSoilMoisture40 SensorKind = "soil_moisture_40"
	KindSoilTemp20     SensorKind = "soil_temp_20"
	KindSoilTemp40     SensorKind = "soil_temp_40"
	KindAirTempMax     SensorKind = "air_temp_max"
)

// elementCodes maps each kind to its AWDB element code with depth qualifier.
var elementCodes = map[SensorKind]string{
	KindSoilMoisture20: "SMN:-20",
	KindSoilMoisture40: "SMN:-40",
	KindSoilTemp20:     "STX:-20",
	KindSoilTemp40:     "STX:-40",
	KindAirTempMax:     "TMAX",
}

// AllSensorKinds returns the retrieval order for a station's sensors. The
// order is fixed so request sequences and serialized output are stable.
func AllSensorKinds() []SensorKind {
	return []SensorKind{
		KindSoilMoisture20,
		KindSoilMoisture40,
		KindSoilTemp20,
		KindSoilTemp40,
		KindAirTempMax,
	}
}

// ElementCode returns the AWDB element code for the kind, or "" for an
// unknown kind.
func (k SensorKind) ElementCode() string {
	return elementCodes[k]
}

// Valid reports whether k is one of the tracked sensor kinds.
func (k SensorKind) Valid() bool {
	_, ok := elementCodes[k]
	return ok
}

// IsMoisture reports whether the kind measures soil moisture. Moisture kinds
// summarize by minimum, everything else by maximum.
func (k SensorKind) IsMoisture() bool {
	return k == KindSoilMoisture20 || k == KindSoilMoisture40
}

// IsTemperature reports whether the kind measures a temperature and is
// therefore subject to unit conversion.
func (k SensorKind) IsTemperature() bool {
	return k == KindSoilTemp20 || k == KindSoilTemp40 || k == KindAirTempMax
}

// Reading is one daily observation. Value holds the raw numeric text exactly
// as the upstream sent it ("" when the day was null); coercion to float64
// happens only when a statistic is computed.
type Reading struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// SensorSeries is an ordered run of daily readings for one (station, kind)
// pair, chronological as provided upstream. Read-only once fetched.
type SensorSeries []Reading

// Empty reports whether the series has no readings at all.
func (s SensorSeries) Empty() bool {
	return len(s) == 0
}

// Values coerces the raw readings to float64, dropping entries that are
// empty, non-numeric, or not finite.
func (s SensorSeries) Values() []float64 {
	if len(s) == 0 {
		return nil
	}
	out := make([]float64, 0, len(s))
	for _, r := range s {
		if r.Value == "" {
			continue
		}
		v, err := strconv.ParseFloat(r.Value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}
