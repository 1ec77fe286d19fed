// Command discover runs a one-shot station discovery against the AWDB API
// and prints the resulting overview, nearest station first.
//
// Usage:
//
//	go run ./cmd/discover -lat 45.6790 -lon -111.0426 -sites 5
//	go run ./cmd/discover -lat 38.9 -lon -106.3 -sites 3 -unit celsius -json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/scan-site-discovery/internal/adapter/awdb"
	"github.com/couchcryptid/scan-site-discovery/internal/config"
	"github.com/couchcryptid/scan-site-discovery/internal/discovery"
	"github.com/couchcryptid/scan-site-discovery/internal/domain"
	"github.com/couchcryptid/scan-site-discovery/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	lat := flag.Float64("lat", 45.6790, "query latitude")
	lon := flag.Float64("lon", -111.0426, "query longitude")
	sites := flag.Int("sites", 5, "number of nearest stations to inspect")
	unit := flag.String("unit", "", "temperature unit: fahrenheit or celsius (default from env)")
	asJSON := flag.Bool("json", false, "print the full session snapshot as JSON")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *unit != "" {
		if !domain.TemperatureUnit(*unit).Valid() {
			return fmt.Errorf("invalid -unit %q: use fahrenheit or celsius", *unit)
		}
		cfg.TemperatureUnit = *unit
	}

	// Keep structured logs off stdout so the table stays readable.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	metrics := observability.NewMetrics()

	client := awdb.NewClient(cfg, logger, metrics)
	svc := discovery.NewService(client, client, nil, logger, metrics, discovery.Options{
		TemperatureUnit:  domain.TemperatureUnit(cfg.TemperatureUnit),
		FetchConcurrency: cfg.FetchConcurrency,
		DefaultSiteCount: cfg.DefaultSiteCount,
		MaxSiteCount:     cfg.MaxSiteCount,
	})
	defer svc.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	snap, err := svc.StartDiscovery(discovery.Query{Latitude: *lat, Longitude: *lon, Count: *sites})
	if err != nil {
		return err
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for snap.State == discovery.StateRunning {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if snap, err = svc.Current(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "\rfetching station data... %d/%d", snap.Progress.Completed, snap.Progress.Total)
	}
	fmt.Fprintln(os.Stderr)

	if *asJSON {
		out, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if snap.Message != "" {
		fmt.Println(snap.Message)
		return nil
	}
	printOverview(snap, domain.TemperatureUnit(cfg.TemperatureUnit))
	return nil
}

func printOverview(snap discovery.Snapshot, unit domain.TemperatureUnit) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRIPLET\tNAME\tDIST MI\tELEV FT\tSOIL MOIST MIN %\tSOIL TEMP MAX -20\tSOIL TEMP MAX -40\tAIR TEMP MAX")
	reported := 0
	for _, row := range snap.Rows {
		if row.SoilMoistureMinPct != nil || row.SoilTempMax20 != nil ||
			row.SoilTempMax40 != nil || row.AirTempMax != nil {
			reported++
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\t%s\t%s\n",
			row.Triplet,
			row.Name,
			row.DistanceMiles,
			fmtStat(row.ElevationFeet, 0),
			fmtStat(row.SoilMoistureMinPct, 1),
			fmtStat(row.SoilTempMax20, 1),
			fmtStat(row.SoilTempMax40, 1),
			fmtStat(row.AirTempMax, 1),
		)
	}
	w.Flush()
	fmt.Printf("\n%d of %d stations reported data (unit: %s, session %s)\n",
		reported, snap.Progress.Total, unit, snap.SessionID)
}

func fmtStat(v *float64, prec int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
