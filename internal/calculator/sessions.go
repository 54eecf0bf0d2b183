package calculator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"go-chi-calculator/internal/equation"
	"go-chi-calculator/internal/observability"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

// Session is one calculator owned by a remote client. Its engine only sees
// one key at a time.
type Session struct {
	ID      string
	Created time.Time

	mu       sync.Mutex
	engine   *equation.Engine
	lastUsed time.Time
	stats    SessionStats
	now      func() time.Time
}

func newSession(now func() time.Time) *Session {
	t := now()
	s := &Session{
		ID:       uuid.New().String(),
		Created:  t,
		engine:   equation.New(),
		lastUsed: t,
		now:      now,
	}

	prev := s.engine.State()
	s.engine.Subscribe(func(next equation.State) {
		if next.Equal(prev) {
			s.stats.Ignored++
		}
		prev = next
	})
	return s
}

// State returns the session's current snapshot.
func (s *Session) State() equation.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.State()
}

// Stats returns the session's counters.
func (s *Session) Stats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Press applies keys in order and returns the resulting state.
func (s *Session) Press(keys []equation.Key) equation.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUsed = s.now()
	for _, k := range keys {
		s.stats.Keys++
		if k.Kind == equation.KeyEvaluate {
			s.stats.Evaluations++
		}
		s.engine.Press(k)
	}
	return s.engine.State()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Store holds the live sessions. It is safe for concurrent use and exports
// its size to Prometheus.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	max      int
	idle     time.Duration
	now      func() time.Time

	created uint64
	evicted uint64

	activeDesc  *prometheus.Desc
	createdDesc *prometheus.Desc
	evictedDesc *prometheus.Desc
}

// NewStore returns a store holding at most maxSessions sessions, each evicted
// after idleTimeout without a key.
func NewStore(maxSessions int, idleTimeout time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		max:      maxSessions,
		idle:     idleTimeout,
		now:      time.Now,

		activeDesc: prometheus.NewDesc("calculator_sessions_active",
			"Number of live calculator sessions.", nil, nil),
		createdDesc: prometheus.NewDesc("calculator_sessions_created_total",
			"Calculator sessions created since start.", nil, nil),
		evictedDesc: prometheus.NewDesc("calculator_sessions_evicted_total",
			"Calculator sessions evicted for inactivity.", nil, nil),
	}
}

// Create starts a new session. When the store is full, idle sessions are
// swept first; ErrTooManySessions is returned if that frees nothing.
func (st *Store) Create() (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.sessions) >= st.max {
		st.sweepLocked()
	}
	if len(st.sessions) >= st.max {
		return nil, ErrTooManySessions
	}

	s := newSession(st.now)
	st.sessions[s.ID] = s
	st.created++
	return s, nil
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(st.sessions, id)
	return nil
}

// Len is the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep evicts sessions idle for longer than the idle timeout and returns
// how many were removed.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sweepLocked()
}

func (st *Store) sweepLocked() int {
	cutoff := st.now().Add(-st.idle)

	n := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	st.evicted += uint64(n)
	return n
}

// Run sweeps every interval until ctx is cancelled.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				observability.Logger.Info("evicted idle sessions",
					zap.Int("evicted", n),
					zap.Int("active", st.Len()),
				)
			}
		}
	}
}

// Describe implements prometheus.Collector.
func (st *Store) Describe(ch chan<- *prometheus.Desc) {
	ch <- st.activeDesc
	ch <- st.createdDesc
	ch <- st.evictedDesc
}

// Collect implements prometheus.Collector.
func (st *Store) Collect(ch chan<- prometheus.Metric) {
	st.mu.Lock()
	active, created, evicted := len(st.sessions), st.created, st.evicted
	st.mu.Unlock()

	ch <- prometheus.MustNewConstMetric(st.activeDesc, prometheus.GaugeValue, float64(active))
	ch <- prometheus.MustNewConstMetric(st.createdDesc, prometheus.CounterValue, float64(created))
	ch <- prometheus.MustNewConstMetric(st.evictedDesc, prometheus.CounterValue, float64(evicted))
}
