package progression

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/opencampus/courseplayer/internal/assessment"
	"github.com/opencampus/courseplayer/internal/content"
)

// ErrFlushFailed wraps persistence errors. The in-memory mutation has been
// applied and stays the source of truth; the caller may retry the
// operation (all flushes are full-snapshot writes, so a later flush heals
// an earlier failure).
var ErrFlushFailed = errors.New("progression: snapshot flush failed")

// SnapshotStore persists opaque per-learner snapshots. Load returns
// (nil, nil) for a learner with no snapshot yet.
type SnapshotStore interface {
	Load(ctx context.Context, learnerID string) ([]byte, error)
	Save(ctx context.Context, learnerID string, data []byte) error
	Learners(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, learnerID string) error
}

// EventSink receives progression events for audit, best effort.
type EventSink interface {
	Append(ctx context.Context, learnerID, kind, dataJSON string) error
}

// Manager owns one session per learner and serializes all mutation
// per-learner: operations are read-modify-write over shared state and are
// not safe to interleave.
type Manager struct {
	cat    *content.Catalog
	policy Policy
	engine *assessment.Engine
	store  SnapshotStore
	sink   EventSink
	now    func() time.Time

	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	mu      sync.Mutex
	session *Session
}

type ManagerOption func(*Manager)

// WithClock injects the time source, for tests and replay.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

func WithEventSink(s EventSink) ManagerOption {
	return func(m *Manager) { m.sink = s }
}

func NewManager(cat *content.Catalog, policy Policy, engine *assessment.Engine, store SnapshotStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		cat:    cat,
		policy: policy,
		engine: engine,
		store:  store,
		now:    time.Now,
		slots:  map[string]*slot{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) slotFor(learnerID string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[learnerID]
	if !ok {
		s = &slot{}
		m.slots[learnerID] = s
	}
	return s
}

// WithLearner runs fn against the learner's session under the per-learner
// lock, loading the snapshot on first use and flushing after the
// mutation. Events returned by fn are forwarded to the sink and back to
// the caller.
func (m *Manager) WithLearner(ctx context.Context, learnerID string, fn func(*Session) ([]Event, error)) ([]Event, error) {
	sl := m.slotFor(learnerID)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.session == nil {
		snap, err := m.loadSnapshot(ctx, learnerID)
		if err != nil {
			return nil, err
		}
		sl.session, err = NewSession(m.cat, m.policy, m.engine, m.now, snap)
		if err != nil {
			return nil, err
		}
	}

	events, err := fn(sl.session)
	if err != nil {
		return events, err
	}
	m.emit(ctx, learnerID, events)

	data, err := json.Marshal(sl.session.Snapshot())
	if err != nil {
		return events, fmt.Errorf("%w: %v", ErrFlushFailed, err)
	}
	if err := m.store.Save(ctx, learnerID, data); err != nil {
		return events, fmt.Errorf("%w: %v", ErrFlushFailed, err)
	}
	return events, nil
}

func (m *Manager) loadSnapshot(ctx context.Context, learnerID string) (*Snapshot, error) {
	data, err := m.store.Load(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (m *Manager) emit(ctx context.Context, learnerID string, events []Event) {
	if m.sink == nil {
		return
	}
	for _, ev := range events {
		data, _ := json.Marshal(ev)
		if err := m.sink.Append(ctx, learnerID, string(ev.Kind), string(data)); err != nil {
			log.Printf("eventlog append failed for %s: %v", learnerID, err)
		}
	}
}

// Learners lists every learner with a persisted snapshot.
func (m *Manager) Learners(ctx context.Context) ([]string, error) {
	return m.store.Learners(ctx)
}

// ResetLearner drops the learner's session and persisted snapshot.
func (m *Manager) ResetLearner(ctx context.Context, learnerID string) error {
	sl := m.slotFor(learnerID)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.session = nil
	return m.store.Delete(ctx, learnerID)
}

// SweepAbsences backfills absent days for every known learner, used by the
// daily cron job so ledgers stay current even across long gaps between
// visits.
func (m *Manager) SweepAbsences(ctx context.Context) error {
	learners, err := m.store.Learners(ctx)
	if err != nil {
		return err
	}
	for _, id := range learners {
		_, err := m.WithLearner(ctx, id, func(s *Session) ([]Event, error) {
			if n := s.SweepAbsences(); n > 0 {
				return []Event{{Kind: EventAbsencesBackfilled, Days: n}}, nil
			}
			return nil, nil
		})
		if err != nil {
			log.Printf("absence sweep for %s: %v", id, err)
		}
	}
	return nil
}
