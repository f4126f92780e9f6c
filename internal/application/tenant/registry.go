package tenant

import (
	"sync"

	"github.com/lattice-saas/lattice/internal/shared/logger"
)

// Registry hands out one Holder per logical session. It exists so the HTTP
// layer can scope tenant context per session without a process-wide
// singleton.
type Registry struct {
	mu        sync.Mutex
	holders   map[string]*Holder
	directory Directory
	logger    logger.Interface
}

func NewRegistry(directory Directory, log logger.Interface) *Registry {
	return &Registry{
		holders:   make(map[string]*Holder),
		directory: directory,
		logger:    log,
	}
}

// ForSession returns the session's holder, creating it on first use.
func (r *Registry) ForSession(sessionID string) *Holder {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.holders[sessionID]
	if !ok {
		h = NewHolder(r.directory, r.logger)
		r.holders[sessionID] = h
	}
	return h
}

// Drop removes the session's holder, e.g. on logout or session expiry.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.holders, sessionID)
}
