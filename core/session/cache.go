// Package session memoizes the externally issued integration URL per
// rider session.
package session

import (
	"context"
	"sync"

	"github.com/DevBash1/trackpadal/core/model"
	"github.com/DevBash1/trackpadal/infra/logger"
)

// Integrator creates an embeddable integration link for a session.
type Integrator interface {
	CreateIntegration(ctx context.Context, tier model.Tier, session string) (string, error)
}

// Cache maps a session identifier to its integration URL at most once
// per process lifetime. Entries never expire or get evicted; a failed
// creation is not cached, so the next request re-attempts it.
type Cache struct {
	integ Integrator
	log   logger.Logger

	mu   sync.Mutex
	urls map[string]string
}

// NewCache creates a Cache backed by the given Integrator.
func NewCache(integ Integrator, log logger.Logger) *Cache {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Cache{integ: integ, log: log, urls: make(map[string]string)}
}

// URL returns the integration URL for the session, creating it on first
// use. On upstream failure the error is returned and nothing is cached.
func (c *Cache) URL(ctx context.Context, tier model.Tier, session string) (string, error) {
	c.mu.Lock()
	if url, ok := c.urls[session]; ok {
		c.mu.Unlock()
		return url, nil
	}
	c.mu.Unlock()

	url, err := c.integ.CreateIntegration(ctx, tier, session)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.urls[session] = url
	c.mu.Unlock()
	c.log.Infof("integration created for session %s", session)
	return url, nil
}

// Len reports the number of cached sessions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.urls)
}
