// Package chaincontext holds the chain each visitor session is browsing.
//
// A Context is passed explicitly to whoever needs the current chain. SwitchCurrentChain is the
// only way to change it, and every change is pushed to the session's subscribers.
package chaincontext

import (
	"context"
	"fmt"
	"sync"

	"nft-storefront/internal/application/port"
	"nft-storefront/internal/domain"
	"nft-storefront/internal/domain/entity"
	domainRepo "nft-storefront/internal/domain/repository"

	"go.uber.org/zap"
)

// Listener receives the new chain after a switch. It must not block.
type Listener func(entity.NetworkDescriptor)

// Manager hands out per-session contexts and fans out switch notifications.
type Manager struct {
	registry port.ChainRegistry
	sessions domainRepo.SessionRepository
	logger   *zap.Logger

	switchMu sync.Mutex

	subsMu sync.RWMutex
	subs   map[string]map[int]Listener
	nextID int
}

// NewManager creates a Manager backed by the given session store.
func NewManager(registry port.ChainRegistry, sessions domainRepo.SessionRepository, logger *zap.Logger) *Manager {
	return &Manager{
		registry: registry,
		sessions: sessions,
		logger:   logger.Named("ChainContext"),
		subs:     make(map[string]map[int]Listener),
	}
}

// Context is one session's view of the current chain.
type Context struct {
	sessionID string
	m         *Manager
}

// ForSession returns the context of sessionID.
func (m *Manager) ForSession(sessionID string) *Context {
	return &Context{sessionID: sessionID, m: m}
}

// SessionID returns the session the context belongs to.
func (c *Context) SessionID() string {
	return c.sessionID
}

// Current returns the session's chain, or the default chain when none is selected
// or the stored selection is no longer served.
func (c *Context) Current(ctx context.Context) entity.NetworkDescriptor {
	chainID, found, err := c.m.sessions.GetChainID(ctx, c.sessionID)
	if err != nil {
		c.m.logger.Warn("Failed to read session chain, using default",
			zap.String("session", c.sessionID), zap.Error(err),
		)
		return c.m.registry.DefaultChain()
	}
	if !found {
		return c.m.registry.DefaultChain()
	}
	chain, ok := c.m.registry.ChainByID(chainID)
	if !ok {
		return c.m.registry.DefaultChain()
	}
	return chain
}

// SwitchCurrentChain selects chainID for the session. Switching to the current chain is a no-op
// that reports false and notifies nobody.
func (c *Context) SwitchCurrentChain(ctx context.Context, chainID int64) (bool, error) {
	target, ok := c.m.registry.ChainByID(chainID)
	if !ok {
		return false, fmt.Errorf("%w: id %d", domain.ErrChainNotFound, chainID)
	}

	c.m.switchMu.Lock()
	if c.Current(ctx).ID == chainID {
		c.m.switchMu.Unlock()
		return false, nil
	}
	if err := c.m.sessions.SetChainID(ctx, c.sessionID, chainID); err != nil {
		c.m.switchMu.Unlock()
		return false, fmt.Errorf("failed to store chain selection: %w", err)
	}
	c.m.switchMu.Unlock()

	c.m.logger.Debug("Switched current chain",
		zap.String("session", c.sessionID),
		zap.Int64("chainId", chainID),
	)
	c.m.notify(c.sessionID, target)
	return true, nil
}

// Subscribe registers fn for the session's chain switches. The returned func unsubscribes.
func (c *Context) Subscribe(fn Listener) func() {
	m := c.m
	m.subsMu.Lock()
	id := m.nextID
	m.nextID++
	if m.subs[c.sessionID] == nil {
		m.subs[c.sessionID] = make(map[int]Listener)
	}
	m.subs[c.sessionID][id] = fn
	m.subsMu.Unlock()

	return func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		delete(m.subs[c.sessionID], id)
		if len(m.subs[c.sessionID]) == 0 {
			delete(m.subs, c.sessionID)
		}
	}
}

func (m *Manager) notify(sessionID string, chain entity.NetworkDescriptor) {
	m.subsMu.RLock()
	listeners := make([]Listener, 0, len(m.subs[sessionID]))
	for _, fn := range m.subs[sessionID] {
		listeners = append(listeners, fn)
	}
	m.subsMu.RUnlock()

	for _, fn := range listeners {
		fn(chain.Clone())
	}
}

// SyncResult is the outcome of aligning a session with the chain named in a route.
type SyncResult struct {
	Chain      entity.NetworkDescriptor
	Switched   bool
	RedirectTo string
}

// SyncRoute makes the session follow the chain named by routePrefix.
//
// An empty or unknown prefix renders the default chain and leaves the selection alone, so a
// page without a prefix looks the same for every visitor. A known prefix
// switches the session if needed; RedirectTo is set only when a switch happened and the request
// did not already target canonicalPath, so following the redirect cannot switch or redirect again.
func (m *Manager) SyncRoute(ctx context.Context, sessionID, routePrefix, canonicalPath, requestPath string) SyncResult {
	chain, ok := m.registry.Lookup(routePrefix)
	if !ok {
		return SyncResult{Chain: m.registry.ResolveChain(routePrefix)}
	}

	switched, err := m.ForSession(sessionID).SwitchCurrentChain(ctx, chain.ID)
	if err != nil {
		m.logger.Warn("Failed to switch chain from route",
			zap.String("routePrefix", routePrefix), zap.Error(err),
		)
		return SyncResult{Chain: chain}
	}

	result := SyncResult{Chain: chain, Switched: switched}
	if switched && canonicalPath != "" && requestPath != canonicalPath {
		result.RedirectTo = canonicalPath
	}
	return result
}
