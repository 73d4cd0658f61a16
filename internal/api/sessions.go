// internal/api/sessions.go
package api

import (
	"context"
	"sync"
	"time"

	"equimarket/internal/wizard"
)

// session is one wizard held in memory. mu serializes every handler that
// touches the form.
type session struct {
	mu       sync.Mutex
	form     *wizard.Form
	lastSeen time.Time
}

// lockForSubmit takes the session lock unless the holder is a submission of
// the same form, in which case it reports false without waiting.
func (s *session) lockForSubmit() bool {
	if s.mu.TryLock() {
		return true
	}
	if s.form.Submitting() {
		return false
	}
	s.mu.Lock()
	return true
}

// Sessions is the registry of live wizard sessions.
type Sessions struct {
	mu    sync.RWMutex
	items map[string]*session
	ttl   time.Duration
	now   func() time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{items: make(map[string]*session), ttl: ttl, now: time.Now}
}

func (s *Sessions) add(form *wizard.Form) *session {
	sess, _ := s.claim(form)
	return sess
}

// claim registers form unless a session with the same id is live, in which
// case that session is returned and added is false.
func (s *Sessions) claim(form *wizard.Form) (sess *session, added bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if live, ok := s.items[form.ID]; ok {
		return live, false
	}
	sess = &session{form: form, lastSeen: s.now()}
	s.items[form.ID] = sess
	return sess, true
}

func (s *Sessions) get(id string) (*session, bool) {
	s.mu.RLock()
	sess, ok := s.items[id]
	s.mu.RUnlock()
	return sess, ok
}

func (s *Sessions) remove(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// Len is the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Sweep drops sessions idle for longer than the TTL and clears their
// persisted step index. Sessions that are locked by a handler are skipped.
// It returns how many were dropped.
func (s *Sessions) Sweep(ctx context.Context) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	// evicted sessions stay locked until their form is reset
	var evicted []*session
	s.mu.Lock()
	for id, sess := range s.items {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastSeen.Before(cutoff) {
			delete(s.items, id)
			evicted = append(evicted, sess)
			continue
		}
		sess.mu.Unlock()
	}
	s.mu.Unlock()

	for _, sess := range evicted {
		sess.form.Reset(ctx)
		sess.mu.Unlock()
	}
	return len(evicted)
}

// RunJanitor sweeps every interval until ctx is done.
func (s *Sessions) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
