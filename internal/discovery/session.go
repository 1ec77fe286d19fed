package discovery

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/scan-site-discovery/internal/domain"
)

// Query identifies one discovery request. Two queries are the same discovery
// if and only if all fields match.
type Query struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Count     int     `json:"count"`
}

// SessionState describes where a discovery session is in its lifecycle.
type SessionState string

const (
	// StateRunning means station data is still being fetched.
	StateRunning SessionState = "running"

	// StateCompleted means every selected station was processed, or the
	// session ended early with a message explaining why.
	StateCompleted SessionState = "completed"

	// StateCanceled means a newer query or shutdown interrupted the session.
	StateCanceled SessionState = "canceled"
)

// Progress counts processed stations out of the session's total.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Snapshot is a point-in-time view of a session, safe to serialize while the
// session keeps running. Rows holds only completed stations, in rank order.
type Snapshot struct {
	SessionID string               `json:"session_id"`
	Query     Query                `json:"query"`
	State     SessionState         `json:"state"`
	Progress  Progress             `json:"progress"`
	Stations  []domain.Station     `json:"stations,omitempty"`
	Rows      []domain.OverviewRow `json:"rows,omitempty"`
	Message   string               `json:"message,omitempty"`
	StartedAt time.Time            `json:"started_at"`
}

// Session owns one discovery run: the ranked station list, the per-station
// results as they arrive, and the cache shared by the aggregation loop and
// the series endpoints. The session context outlives any HTTP caller and is
// canceled only by supersession or shutdown.
type Session struct {
	ID        string
	Query     Query
	StartedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	cache  *sensorCache

	completed atomic.Int64
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	state    SessionState
	message  string
	stations []domain.Station
	rows     []*domain.OverviewRow
}

func newSession(q Query, cache *sensorCache) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:        uuid.NewString(),
		Query:     q,
		StartedAt: time.Now().UTC(),
		ctx:       ctx,
		cancel:    cancel,
		cache:     cache,
		state:     StateRunning,
		done:      make(chan struct{}),
	}
}

// Done is closed when the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) setStations(stations []domain.Station) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stations = stations
	s.rows = make([]*domain.OverviewRow, len(stations))
}

func (s *Session) storeRow(rank int, row domain.OverviewRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rank >= 0 && rank < len(s.rows) {
		s.rows[rank] = &row
	}
}

func (s *Session) currentState() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) complete(state SessionState, message string) {
	s.mu.Lock()
	s.state = state
	s.message = message
	s.mu.Unlock()
	s.closeOnce.Do(func() { close(s.done) })
}

// station returns the ranked station with the given triplet.
func (s *Session) station(triplet string) (domain.Station, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.stations {
		if st.Triplet == triplet {
			return st, true
		}
	}
	return domain.Station{}, false
}

// completedRows returns the rows of all completed stations in rank order.
func (s *Session) completedRows() []domain.OverviewRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]domain.OverviewRow, 0, len(s.rows))
	for _, r := range s.rows {
		if r != nil {
			rows = append(rows, *r)
		}
	}
	return rows
}

func (s *Session) snapshot() Snapshot {
	s.mu.RLock()
	stations := make([]domain.Station, len(s.stations))
	copy(stations, s.stations)
	rows := make([]domain.OverviewRow, 0, len(s.rows))
	for _, r := range s.rows {
		if r != nil {
			rows = append(rows, *r)
		}
	}
	state := s.state
	message := s.message
	s.mu.RUnlock()

	return Snapshot{
		SessionID: s.ID,
		Query:     s.Query,
		State:     state,
		Progress:  Progress{Completed: int(s.completed.Load()), Total: len(stations)},
		Stations:  stations,
		Rows:      rows,
		Message:   message,
		StartedAt: s.StartedAt,
	}
}
