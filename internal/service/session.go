package service

import (
	"alcyxob/runcoach-app/internal/domain"
	"context"
	"log"
	"sync"
	"time"
)

// ReconcileSession owns the polling loop that keeps one week's in-memory
// plan converged with storage while that week is on screen. Polling is the
// deliberate cross-device sync mechanism here (single athlete, two devices
// at most); it replaces the old unmanaged global timer with an explicit
// lifecycle: Start when the week view attaches, Stop when it tears down.
type ReconcileSession struct {
	weekKey    string
	reconciler *Reconciler
	interval   time.Duration

	mu   sync.RWMutex
	plan *domain.WeeklyPlan

	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewReconcileSession creates a session for one week. interval <= 0 falls
// back to one second, the cadence the week view has always polled at.
func NewReconcileSession(weekKey string, reconciler *Reconciler, interval time.Duration) *ReconcileSession {
	if interval <= 0 {
		interval = time.Second
	}
	return &ReconcileSession{
		weekKey:    weekKey,
		reconciler: reconciler,
		interval:   interval,
		done:       make(chan struct{}),
	}
}

// Start begins polling. Safe to call more than once; only the first call
// starts the loop.
func (s *ReconcileSession) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)

		// Prime the in-memory plan before the first tick.
		if plan, replaced := s.reconciler.Merge(ctx, s.weekKey, nil); replaced {
			s.setPlan(plan)
		}

		go s.run(ctx)
	})
}

func (s *ReconcileSession) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			plan, replaced := s.reconciler.Merge(ctx, s.weekKey, s.Current())
			if replaced {
				s.setPlan(plan)
			}
		}
	}
}

// Stop cancels the polling loop and waits for it to finish. Idempotent.
func (s *ReconcileSession) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.done
		}
	})
}

// Current returns the session's latest reconciled plan (nil until the
// first successful load).
func (s *ReconcileSession) Current() *domain.WeeklyPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan
}

func (s *ReconcileSession) setPlan(plan *domain.WeeklyPlan) {
	s.mu.Lock()
	s.plan = plan
	s.mu.Unlock()
}

// SessionManager tracks the active week-view sessions so the API layer can
// attach and detach them, and so shutdown can stop them all.
type SessionManager struct {
	reconciler *Reconciler
	interval   time.Duration

	mu       sync.Mutex
	sessions map[string]*ReconcileSession
}

// NewSessionManager creates a manager over the given reconciler.
func NewSessionManager(reconciler *Reconciler, interval time.Duration) *SessionManager {
	return &SessionManager{
		reconciler: reconciler,
		interval:   interval,
		sessions:   make(map[string]*ReconcileSession),
	}
}

// Watch starts (or returns the already-running) session for a week.
func (m *SessionManager) Watch(weekKey string) *ReconcileSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[weekKey]; ok {
		return session
	}
	session := NewReconcileSession(weekKey, m.reconciler, m.interval)
	session.Start(context.Background())
	m.sessions[weekKey] = session
	log.Printf("INFO: Started reconcile session for week %s", weekKey)
	return session
}

// Lookup returns the running session for a week, if any.
func (m *SessionManager) Lookup(weekKey string) (*ReconcileSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[weekKey]
	return session, ok
}

// Unwatch stops and forgets the session for a week, if one is running.
func (m *SessionManager) Unwatch(weekKey string) {
	m.mu.Lock()
	session, ok := m.sessions[weekKey]
	if ok {
		delete(m.sessions, weekKey)
	}
	m.mu.Unlock()

	if ok {
		session.Stop()
		log.Printf("INFO: Stopped reconcile session for week %s", weekKey)
	}
}

// StopAll tears down every running session. Called on server shutdown.
func (m *SessionManager) StopAll() {
	m.mu.Lock()
	sessions := make([]*ReconcileSession, 0, len(m.sessions))
	for key, session := range m.sessions {
		sessions = append(sessions, session)
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	for _, session := range sessions {
		session.Stop()
	}
}
