package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/scan-site-discovery/internal/domain"
	"github.com/couchcryptid/scan-site-discovery/internal/observability"
)

// CatalogProvider lists the upstream station catalog.
type CatalogProvider interface {
	GetStations(ctx context.Context) ([]domain.CatalogStation, error)
}

// StationFetcher retrieves all sensor series for one station.
type StationFetcher interface {
	FetchStationData(ctx context.Context, triplet string) (domain.StationData, error)
}

// OverviewSink publishes the overview rows of a completed session.
type OverviewSink interface {
	PublishOverview(ctx context.Context, sessionID string, rows []domain.OverviewRow) error
}

var (
	// ErrInvalidQuery marks client errors in discovery parameters.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrNoSession is returned when no discovery has been started yet.
	ErrNoSession = errors.New("no active discovery session")

	// ErrUnknownStation is returned for triplets outside the current
	// session's ranked stations.
	ErrUnknownStation = errors.New("station not part of the current discovery")
)

// Options bounds a Service's behavior.
type Options struct {
	TemperatureUnit  domain.TemperatureUnit
	FetchConcurrency int
	DefaultSiteCount int
	MaxSiteCount     int
}

// Service runs discovery sessions: rank stations around a point, fetch each
// station's sensor data through the session cache, and fold the results into
// overview rows. At most one session is active; a new query supersedes it.
type Service struct {
	catalog CatalogProvider
	fetcher StationFetcher
	sink    OverviewSink // nil disables publishing
	logger  *slog.Logger
	metrics *observability.Metrics
	opts    Options

	mu      sync.Mutex
	current *Session

	catalogOK atomic.Bool
}

// NewService creates a discovery service. sink may be nil.
func NewService(catalog CatalogProvider, fetcher StationFetcher, sink OverviewSink, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Service {
	if opts.FetchConcurrency < 1 {
		opts.FetchConcurrency = 1
	}
	if opts.DefaultSiteCount < 1 {
		opts.DefaultSiteCount = 5
	}
	if opts.MaxSiteCount < opts.DefaultSiteCount {
		opts.MaxSiteCount = opts.DefaultSiteCount
	}
	if !opts.TemperatureUnit.Valid() {
		opts.TemperatureUnit = domain.Fahrenheit
	}
	return &Service{
		catalog: catalog,
		fetcher: fetcher,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
}

// StartDiscovery begins a session for the query, or returns the existing one
// when the query matches the current session. A different query cancels the
// current session and invalidates its cache before the new one starts.
func (s *Service) StartDiscovery(q Query) (Snapshot, error) {
	if !domain.ValidCoordinates(q.Latitude, q.Longitude) {
		return Snapshot{}, fmt.Errorf("%w: coordinates out of range", ErrInvalidQuery)
	}
	if q.Count == 0 {
		q.Count = s.opts.DefaultSiteCount
	}
	if q.Count < 0 || q.Count > s.opts.MaxSiteCount {
		return Snapshot{}, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidQuery, s.opts.MaxSiteCount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.Query == q && s.current.currentState() != StateCanceled {
		return s.current.snapshot(), nil
	}

	if old := s.current; old != nil {
		if old.currentState() == StateRunning {
			s.metrics.SessionsSuperseded.Inc()
			s.logger.Info("superseding discovery session", "session_id", old.ID)
		}
		old.cancel()
		old.cache.Invalidate()
	}

	sess := newSession(q, newSensorCache(s.fetcher, s.metrics))
	s.current = sess
	s.metrics.SessionsStarted.Inc()
	s.logger.Info("discovery session started",
		"session_id", sess.ID,
		"latitude", q.Latitude,
		"longitude", q.Longitude,
		"count", q.Count)

	go s.runSession(sess)

	return sess.snapshot(), nil
}

// Current returns a snapshot of the active session.
func (s *Service) Current() (Snapshot, error) {
	s.mu.Lock()
	sess := s.current
	s.mu.Unlock()
	if sess == nil {
		return Snapshot{}, ErrNoSession
	}
	return sess.snapshot(), nil
}

// StationSeries returns one ranked station and its full sensor data, fetching
// through the session cache if the aggregation loop has not reached it yet.
// Temperature series are converted to the configured unit.
func (s *Service) StationSeries(ctx context.Context, triplet string) (domain.Station, domain.StationData, error) {
	s.mu.Lock()
	sess := s.current
	s.mu.Unlock()
	if sess == nil {
		return domain.Station{}, domain.StationData{}, ErrNoSession
	}

	st, ok := sess.station(triplet)
	if !ok {
		return domain.Station{}, domain.StationData{}, ErrUnknownStation
	}

	data, err := sess.cache.GetOrFetch(ctx, sess.ctx, triplet)
	if err != nil {
		return domain.Station{}, domain.StationData{}, err
	}
	return st, convertStationSeries(data, s.opts.TemperatureUnit), nil
}

// Prime checks that the upstream catalog is reachable and marks the service
// ready. Intended for a one-shot startup probe.
func (s *Service) Prime(ctx context.Context) error {
	stations, err := s.catalog.GetStations(ctx)
	if err != nil {
		return fmt.Errorf("prime catalog: %w", err)
	}
	s.catalogOK.Store(true)
	s.logger.Info("station catalog primed", "stations", len(stations))
	return nil
}

// CheckReadiness returns nil once the station catalog has been reached, or an
// error describing why the service is not yet ready.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.catalogOK.Load() {
		return errors.New("station catalog has not been reached yet")
	}
	return nil
}

// Shutdown cancels the active session, if any.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.cancel()
	}
}

// runSession drives one session to a terminal state: catalog, ranking, then
// per-station fetch and fold under the configured concurrency limit.
func (s *Service) runSession(sess *Session) {
	defer sess.cancel()
	start := time.Now()
	s.metrics.DiscoveryRunning.Set(1)
	defer s.metrics.DiscoveryRunning.Set(0)
	defer func() {
		s.metrics.DiscoveryDuration.Observe(time.Since(start).Seconds())
	}()

	catalog, err := s.catalog.GetStations(sess.ctx)
	if err != nil {
		// A catalog failure ends the session with an empty result, not
		// a service failure. Callers see the same message as an empty
		// catalog; the log line keeps the distinction.
		s.logger.Error("station catalog fetch failed", "session_id", sess.ID, "error", err)
		sess.complete(StateCompleted, "no stations found")
		return
	}
	s.catalogOK.Store(true)

	ranked := domain.RankStations(catalog, sess.Query.Latitude, sess.Query.Longitude, sess.Query.Count)
	if len(ranked) == 0 {
		s.logger.Warn("no stations found", "session_id", sess.ID)
		sess.complete(StateCompleted, "no stations found")
		return
	}
	sess.setStations(ranked)
	s.metrics.StationsRanked.Observe(float64(len(ranked)))
	s.metrics.DiscoveryProgress.Set(0)

	g, gctx := errgroup.WithContext(sess.ctx)
	g.SetLimit(s.opts.FetchConcurrency)
	for i, st := range ranked {
		g.Go(func() error {
			data, err := sess.cache.GetOrFetch(gctx, sess.ctx, st.Triplet)
			if err != nil {
				return err
			}
			row := domain.BuildOverviewRow(st, data, s.opts.TemperatureUnit)
			sess.storeRow(i, row)

			done := sess.completed.Add(1)
			s.metrics.DiscoveryProgress.Set(float64(done) / float64(len(ranked)))
			s.logger.Info("station processed",
				"session_id", sess.ID,
				"station", st.Triplet,
				"completed", done,
				"total", len(ranked))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if sess.ctx.Err() != nil {
			s.logger.Info("discovery session canceled", "session_id", sess.ID)
			sess.complete(StateCanceled, "superseded or shut down")
		} else {
			s.logger.Error("discovery session aborted", "session_id", sess.ID, "error", err)
			sess.complete(StateCompleted, fmt.Sprintf("aborted: %v", err))
		}
		return
	}

	s.publishOverview(sess)
	sess.complete(StateCompleted, "")
	s.logger.Info("discovery session completed",
		"session_id", sess.ID,
		"stations", len(ranked),
		"duration", time.Since(start))
}

func (s *Service) publishOverview(sess *Session) {
	if s.sink == nil {
		return
	}
	rows := sess.completedRows()
	if len(rows) == 0 {
		return
	}
	if err := s.sink.PublishOverview(sess.ctx, sess.ID, rows); err != nil {
		s.logger.Error("overview publish failed", "session_id", sess.ID, "error", err)
		s.metrics.SinkErrors.Inc()
		return
	}
	s.metrics.OverviewsPublished.Add(float64(len(rows)))
}

func convertStationSeries(data domain.StationData, unit domain.TemperatureUnit) domain.StationData {
	if unit != domain.Celsius {
		return data
	}
	out := domain.StationData{
		Triplet:  data.Triplet,
		Series:   make(map[domain.SensorKind]domain.SensorSeries, len(data.Series)),
		Outcomes: data.Outcomes,
	}
	for kind, series := range data.Series {
		out.Series[kind] = domain.ConvertSeriesUnit(kind, series, unit)
	}
	return out
}
