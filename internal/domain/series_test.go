package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllSensorKinds(t *testing.T) {
	kinds := AllSensorKinds()

	assert.Equal(t, []SensorKind{
		KindSoilMoisture20,
		KindSoilMoisture40,
		KindSoilTemp20,
		KindSoilTemp40,
		KindAirTempMax,
	}, kinds)

	for _, k := range kinds {
		assert.True(t, k.Valid())
		assert.NotEmpty(t, k.ElementCode())
	}
}

func TestElementCode(t *testing.T) {
	tests := []struct {
		name     string
		kind     SensorKind
		expected string
	}{
		{"soil moisture 20in", KindSoilMoisture20, "SMN:-20"},
		{"soil moisture 40in", KindSoilMoisture40, "SMN:-40"},
		{"soil temperature 20in", KindSoilTemp20, "STX:-20"},
		{"soil temperature 40in", KindSoilTemp40, "STX:-40"},
		{"air temperature max", KindAirTempMax, "TMAX"},
		{"unknown kind", SensorKind("snow_depth"), ""},
		{"empty kind", SensorKind(""), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.ElementCode())
		})
	}
}

func TestSensorKindValid(t *testing.T) {
	assert.True(t, KindAirTempMax.Valid())
	assert.False(t, SensorKind("wind_speed").Valid())
	assert.False(t, SensorKind("").Valid())
}

func TestSensorKindClassification(t *testing.T) {
	tests := []struct {
		kind        SensorKind
		moisture    bool
		temperature bool
	}{
		{KindSoilMoisture20, true, false},
		{KindSoilMoisture40, true, false},
		{KindSoilTemp20, false, true},
		{KindSoilTemp40, false, true},
		{KindAirTempMax, false, true},
		{SensorKind("unknown"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.moisture, tt.kind.IsMoisture())
			assert.Equal(t, tt.temperature, tt.kind.IsTemperature())
		})
	}
}

func TestSensorSeriesValues(t *testing.T) {
	t.Run("coerces numeric text in order", func(t *testing.T) {
		series := SensorSeries{
			{Date: "2024-05-01", Value: "13.5"},
			{Date: "2024-05-02", Value: "-2"},
			{Date: "2024-05-03", Value: "0"},
		}
		assert.Equal(t, []float64{13.5, -2, 0}, series.Values())
	})

	t.Run("skips null and malformed entries", func(t *testing.T) {
		series := SensorSeries{
			{Date: "2024-05-01", Value: "11"},
			{Date: "2024-05-02", Value: ""},
			{Date: "2024-05-03", Value: "n/a"},
			{Date: "2024-05-04", Value: "12"},
		}
		assert.Equal(t, []float64{11, 12}, series.Values())
	})

	t.Run("skips non-finite values", func(t *testing.T) {
		series := SensorSeries{
			{Date: "2024-05-01", Value: "NaN"},
			{Date: "2024-05-02", Value: "+Inf"},
			{Date: "2024-05-03", Value: "-Inf"},
			{Date: "2024-05-04", Value: "7.25"},
		}
		assert.Equal(t, []float64{7.25}, series.Values())
	})

	t.Run("empty series", func(t *testing.T) {
		assert.Nil(t, SensorSeries(nil).Values())
		assert.Nil(t, SensorSeries{}.Values())
	})

	t.Run("all entries unusable", func(t *testing.T) {
		series := SensorSeries{
			{Date: "2024-05-01", Value: ""},
			{Date: "2024-05-02", Value: "missing"},
		}
		assert.Empty(t, series.Values())
	})
}

func TestSensorSeriesEmpty(t *testing.T) {
	assert.True(t, SensorSeries(nil).Empty())
	assert.True(t, SensorSeries{}.Empty())
	assert.False(t, SensorSeries{{Date: "2024-05-01", Value: ""}}.Empty())
}
