// Command mockawdb serves a synthetic AWDB REST API for local development,
// so the discovery service can run without reaching the real USDA endpoint.
// Station placement and sensor values are deterministic for a given seed.
//
// Usage:
//
//	go run ./cmd/mockawdb -addr :8090 -stations 40 -seed 1
//	AWDB_BASE_URL=http://localhost:8090 go run ./cmd/server
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

const dateLayout = "2006-01-02"

var stationNames = []string{
	"Elk Meadow", "Wind River", "Crazy Peak", "Lost Horse", "Sage Flat",
	"Cedar Bench", "Willow Creek", "Granite Basin", "Dry Fork", "Porcupine",
	"Bear Trap", "Boulder Park", "Antelope Springs", "Chalk Bluff", "Alder Gulch",
}

var stateCodes = []string{"MT", "WY", "ID", "UT", "CO", "OR", "WA", "NV"}

type stationPayload struct {
	StationTriplet string   `json:"stationTriplet"`
	Name           string   `json:"name"`
	NetworkCode    string   `json:"networkCode"`
	Elevation      *float64 `json:"elevation,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
}

type dataPayload struct {
	StationTriplet string           `json:"stationTriplet"`
	Data           []elementPayload `json:"data"`
}

type elementPayload struct {
	StationElement elementInfo    `json:"stationElement"`
	Values         []valuePayload `json:"values"`
}

type elementInfo struct {
	ElementCode string `json:"elementCode"`
}

type valuePayload struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", ":8090", "listen address")
	stationCount := flag.Int("stations", 40, "number of synthetic stations")
	seed := flag.Int64("seed", 1, "seed for station placement and sensor values")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	catalog := buildCatalog(*stationCount, *seed)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /stations", func(w http.ResponseWriter, r *http.Request) {
		logger.Info("stations request", "remote", r.RemoteAddr)
		writeJSON(w, catalog)
	})
	mux.HandleFunc("GET /data", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		triplets := splitParam(q.Get("stationTriplets"))
		elements := splitParam(q.Get("elements"))
		begin, end := q.Get("beginDate"), q.Get("endDate")
		logger.Info("data request", "triplets", triplets, "elements", elements, "begin", begin, "end", end)

		payload, err := buildData(*seed, triplets, elements, begin, end)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, payload)
	})

	srv := &http.Server{
		Addr:         *addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck // dev server shutdown
	}()

	logger.Info("mock AWDB server starting", "addr", *addr, "stations", *stationCount, "seed", *seed)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// buildCatalog scatters stations around the default query point. A few carry
// the SNTL network code or no coordinates, so catalog filtering stays visible
// during local testing.
func buildCatalog(count int, seed int64) []stationPayload {
	rng := rand.New(rand.NewSource(seed))
	catalog := make([]stationPayload, 0, count)
	for i := 0; i < count; i++ {
		network := "SCAN"
		if i%8 == 7 {
			network = "SNTL"
		}
		st := stationPayload{
			StationTriplet: fmt.Sprintf("%d:%s:%s", 2000+i, stateCodes[i%len(stateCodes)], network),
			Name:           fmt.Sprintf("%s #%d", stationNames[i%len(stationNames)], i),
			NetworkCode:    network,
		}
		lat := 45.6790 + rng.Float64()*8 - 4
		lon := -111.0426 + rng.Float64()*8 - 4
		elev := math.Round(3000 + rng.Float64()*6000)
		if i%10 != 9 {
			st.Latitude = &lat
			st.Longitude = &lon
			st.Elevation = &elev
		}
		catalog = append(catalog, st)
	}
	return catalog
}

func buildData(seed int64, triplets, elements []string, begin, end string) ([]dataPayload, error) {
	beginDate, err := time.Parse(dateLayout, begin)
	if err != nil {
		return nil, fmt.Errorf("invalid beginDate %q", begin)
	}
	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid endDate %q", end)
	}

	payload := make([]dataPayload, 0, len(triplets))
	for _, triplet := range triplets {
		record := dataPayload{StationTriplet: triplet}
		for _, element := range elements {
			record.Data = append(record.Data, elementPayload{
				StationElement: elementInfo{ElementCode: element},
				Values:         generateValues(seed, triplet, element, beginDate, endDate),
			})
		}
		payload = append(payload, record)
	}
	return payload, nil
}

// generateValues produces a daily series with occasional nulls and rare
// spikes, so the outlier filter has something to do.
func generateValues(seed int64, triplet, element string, begin, end time.Time) []valuePayload {
	rng := rand.New(rand.NewSource(seed + int64(hashKey(triplet+"|"+element))))

	var base, spread float64
	switch strings.SplitN(element, ":", 2)[0] {
	case "SMN":
		base, spread = 22, 14
	case "STX":
		base, spread = 55, 20
	default: // TMAX
		base, spread = 70, 30
	}

	var values []valuePayload
	day := 0
	for d := begin; !d.After(end); d = d.AddDate(0, 0, 1) {
		vp := valuePayload{Date: d.Format(dateLayout)}
		switch {
		case day%13 == 12:
			// null reading
		case day%97 == 96:
			spike := math.Round((base*2.5+rng.Float64()*spread)*10) / 10
			vp.Value = &spike
		default:
			v := math.Round((base+(rng.Float64()*2-1)*spread)*10) / 10
			if v < 0.5 {
				v = 0.5
			}
			vp.Value = &v
		}
		values = append(values, vp)
		day++
	}
	return values
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func hashKey(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s)) //nolint:errcheck // fnv never fails
	return h.Sum32()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort dev response
}
