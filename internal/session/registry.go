package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/flashplay/internal/errors"
	"github.com/vytor/flashplay/internal/logger"
)

// Engine is the part of a live game the registry manages.
type Engine interface {
	Close()
}

type entry[E Engine] struct {
	ownerID  string
	engine   E
	lastSeen time.Time
}

// Registry holds live engines keyed by a random id. Every lookup is scoped
// to the owning user, and engines idle for longer than the TTL are closed
// by Sweep.
type Registry[E Engine] struct {
	mu      sync.Mutex
	entries map[string]*entry[E]
	ttl     time.Duration
	now     func() time.Time
	log     *logger.Logger
}

func NewRegistry[E Engine](ttl time.Duration) *Registry[E] {
	return &Registry[E]{
		entries: make(map[string]*entry[E]),
		ttl:     ttl,
		now:     time.Now,
		log:     logger.Default().WithPrefix("sessions"),
	}
}

// Add stores engine for ownerID and returns its new id.
func (r *Registry[E]) Add(ownerID string, engine E) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.entries[id] = &entry[E]{ownerID: ownerID, engine: engine, lastSeen: r.now()}
	n := len(r.entries)
	r.mu.Unlock()

	r.log.Debug("session registered: id=%s, owner=%s, live=%d", id, ownerID, n)
	return id
}

// Get returns the engine and marks it as used. Unknown ids and ids owned by
// someone else are both NOT_FOUND.
func (r *Registry[E]) Get(ownerID, id string) (E, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, err := r.touchLocked(ownerID, id)
	if err != nil {
		var zero E
		return zero, err
	}
	return e.engine, nil
}

// Touch marks the engine as used without handing it out, e.g. while a
// client only watches the session.
func (r *Registry[E]) Touch(ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.touchLocked(ownerID, id)
	return err
}

func (r *Registry[E]) touchLocked(ownerID, id string) (*entry[E], error) {
	e, ok := r.entries[id]
	if !ok || e.ownerID != ownerID {
		return nil, errors.NewNotFoundError("session", id)
	}
	e.lastSeen = r.now()
	return e, nil
}

// Remove closes and forgets the engine.
func (r *Registry[E]) Remove(ownerID, id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok || e.ownerID != ownerID {
		r.mu.Unlock()
		return errors.NewNotFoundError("session", id)
	}
	delete(r.entries, id)
	r.mu.Unlock()

	e.engine.Close()
	r.log.Debug("session removed: id=%s", id)
	return nil
}

// Sweep closes engines idle for longer than the TTL and returns how many.
func (r *Registry[E]) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []E
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.engine)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, eng := range expired {
		eng.Close()
	}
	if len(expired) > 0 {
		r.log.Info("expired %d idle sessions", len(expired))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done, then closes everything.
func (r *Registry[E]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry[E]) CloseAll() {
	r.mu.Lock()
	all := r.entries
	r.entries = make(map[string]*entry[E])
	r.mu.Unlock()

	for _, e := range all {
		e.engine.Close()
	}
	if len(all) > 0 {
		r.log.Info("closed %d live sessions", len(all))
	}
}

func (r *Registry[E]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
