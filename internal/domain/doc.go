// Package domain models USDA Soil Climate Analysis Network (SCAN) station
// discovery and sensor summarization.
//
// # Data Source
//
// Station metadata and sensor time series come from the USDA NRCS Air and
// Water Database (AWDB) REST API at
// https://wcc.sc.egov.usda.gov/awdbRestApi/services/v1/. The stations endpoint
// returns the full national catalog across all networks; this service filters
// to one network code (SCAN by default). The data endpoint returns daily
// observation records per station and element.
//
// # AWDB Conventions
//
// Station identity:
//
//	Stations are addressed by an opaque "triplet" string of the form
//	"<id>:<state>:<network>", e.g. "2218:MT:SCAN". The triplet is unique
//	within the catalog and is the only key the data endpoint accepts.
//
// Element codes:
//
//	A sensor is addressed by an element code, optionally qualified with a
//	measurement depth in inches (negative = below the surface):
//
//	  SMN:-20  soil moisture percent, minimum, 20 inches deep
//	  SMN:-40  soil moisture percent, minimum, 40 inches deep
//	  STX:-20  soil temperature, maximum, 20 inches deep
//	  STX:-40  soil temperature, maximum, 40 inches deep
//	  TMAX     air temperature, daily maximum
//
// Units:
//
//	Soil moisture is a volumetric percentage. Temperatures arrive in degrees
//	Fahrenheit and may be converted to Celsius for presentation; the same
//	conversion is applied to series values and to derived statistics, never
//	to one without the other. Elevation is reported in feet, distance to the
//	query point in statute miles.
//
// Values:
//
//	Daily values arrive as JSON numbers, numeric strings, or null. They are
//	carried as raw text until a statistic is computed, at which point entries
//	that do not parse as a finite number are dropped rather than treated as
//	zero. A missing day is simply absent from the series.
//
// # Cleaning Rule
//
// Summary statistics are taken only after interquartile-range outlier
// removal: values outside [Q1 - 1.5*IQR, Q3 + 1.5*IQR] are discarded, with
// quartiles computed by linear interpolation over the sorted sample. When the
// filter would retain fewer than half of the values the sample is kept
// intact. See [FilterOutliers].
//
// # Ranking
//
// Nearest-station ranking uses the haversine great-circle distance on a
// sphere of radius 6371 km, converted to miles. Catalog entries missing
// either coordinate cannot be ranked and are excluded. Ordering is stable:
// equal distances keep their catalog order.
package domain
