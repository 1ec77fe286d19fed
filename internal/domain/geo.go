package domain

import (
	"math"
	"sort"
)

const (
	earthRadiusKm = 6371.0
	milesPerKm    = 0.621371
)

// HaversineMiles returns the great-circle distance between two coordinates in
// statute miles, treating the Earth as a sphere of radius 6371 km.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c * milesPerKm
}

// ValidCoordinates reports whether lat/lon are inside the valid decimal
// degree ranges.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// RankStations ranks catalog entries by great-circle distance to the query
// point and returns at most count stations, nearest first. Entries missing
// either coordinate are excluded. The sort is stable, so ties keep their
// catalog order.
func RankStations(catalog []CatalogStation, lat, lon float64, count int) []Station {
	if count <= 0 {
		return nil
	}

	ranked := make([]Station, 0, len(catalog))
	for _, c := range catalog {
		if c.Latitude == nil || c.Longitude == nil {
			continue
		}
		ranked = append(ranked, Station{
			Triplet:       c.Triplet,
			Name:          c.Name,
			ElevationFeet: c.ElevationFeet,
			Latitude:      *c.Latitude,
			Longitude:     *c.Longitude,
			DistanceMiles: HaversineMiles(lat, lon, *c.Latitude, *c.Longitude),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceMiles < ranked[j].DistanceMiles
	})

	if len(ranked) > count {
		ranked = ranked[:count]
	}
	return ranked
}
