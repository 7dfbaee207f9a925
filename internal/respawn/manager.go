// Package respawn owns the per-player teleport markers offered on the death
// screen. Markers are recycled through a FIFO pool instead of being destroyed,
// so the number of live markers is bounded by the peak concurrent player count
// times the number of resolved zones.
//
// All methods must be called from the host's game loop goroutine.
package respawn

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/l1jgo/compoundtp/internal/landmark"
)

// Manager tracks the recycle pool and the markers assigned to each player.
// Invariant: a handle is in pool iff its Owner is zero, and it is never in the
// pool and an assignment at the same time.
type Manager struct {
	registry *landmark.Registry
	host     Host
	log      *zap.Logger
	recorder Recorder

	cooldown int
	pool     []*Handle              // FIFO, oldest first
	assigned map[PlayerID][]*Handle // one handle per binding, registry order
	live     map[NetID]*Handle      // every handle not yet destroyed

	intn func(n int) int
}

// NewManager creates a manager serving the zones resolved in reg.
func NewManager(reg *landmark.Registry, host Host, cooldownSeconds int, log *zap.Logger) *Manager {
	return &Manager{
		registry: reg,
		host:     host,
		log:      log,
		cooldown: cooldownSeconds,
		assigned: make(map[PlayerID][]*Handle),
		live:     make(map[NetID]*Handle),
		intn:     rand.IntN,
	}
}

// SetRecorder installs an audit recorder; nil disables auditing.
func (m *Manager) SetRecorder(r Recorder) { m.recorder = r }

// SetCooldown changes the reuse cooldown stamped on handles acquired from now on.
func (m *Manager) SetCooldown(seconds int) { m.cooldown = seconds }

// ConnectAll assigns markers to players that were online before the world was ready.
func (m *Manager) ConnectAll(players []PlayerID) {
	for _, p := range players {
		m.PlayerConnected(p)
	}
}

// PlayerConnected assigns one marker per resolved zone to p. Calling it again
// for a player that already has markers is a no-op.
func (m *Manager) PlayerConnected(p PlayerID) {
	if p == 0 {
		return
	}
	if _, ok := m.assigned[p]; ok {
		return
	}

	bindings := m.registry.Bindings()
	handles := make([]*Handle, 0, len(bindings))
	for _, b := range bindings {
		h := m.acquire(p)
		h.Label = b.Zone.Name
		h.Position = b.Landmark.Position
		handles = append(handles, h)
		m.host.AddActiveMarker(h)
	}
	m.assigned[p] = handles

	m.log.Debug("respawn markers assigned",
		zap.Uint64("player", uint64(p)),
		zap.Int("markers", len(handles)),
		zap.Int("pool", len(m.pool)))
}

// acquire takes the oldest pooled handle or builds a new one, and gives it to p.
func (m *Manager) acquire(p PlayerID) *Handle {
	var h *Handle
	if len(m.pool) > 0 {
		h = m.pool[0]
		m.pool[0] = nil
		m.pool = m.pool[1:]
	} else {
		h = &Handle{
			ID:         m.host.CreateMarker(),
			DeployerID: p,
			Position:   mgl64.Vec3{1, 1, 1},
		}
		m.live[h.ID] = h
	}
	h.Owner = p
	h.CooldownSeconds = m.cooldown
	h.UnlockTime = 0
	return h
}

// release clears ownership and queues h for reuse.
func (m *Manager) release(h *Handle) {
	h.Owner = 0
	m.pool = append(m.pool, h)
}

// PlayerDisconnected returns p's markers to the pool. Safe to call repeatedly.
func (m *Manager) PlayerDisconnected(p PlayerID) {
	handles, ok := m.assigned[p]
	if !ok {
		return
	}
	for _, h := range handles {
		m.host.RemoveActiveMarker(h)
		m.release(h)
	}
	delete(m.assigned, p)

	m.log.Debug("respawn markers released",
		zap.Uint64("player", uint64(p)),
		zap.Int("markers", len(handles)),
		zap.Int("pool", len(m.pool)))
}

// owned returns p's handle with network identity id, or nil.
func (m *Manager) owned(p PlayerID, id NetID) *Handle {
	for _, h := range m.assigned[p] {
		if h.ID == id {
			return h
		}
	}
	return nil
}

// RespawnRequested moves the marker to a random spawn point around its zone's
// landmark when id is one of p's markers. The point is redrawn on every call.
// Markers that are not p's get NoOpinion so the host spawns the player normally.
func (m *Manager) RespawnRequested(p PlayerID, id NetID) Result {
	h := m.owned(p, id)
	if h == nil {
		return NoOpinion
	}
	b, ok := m.registry.Get(h.Label)
	if !ok || len(b.Zone.Offsets) == 0 {
		m.log.Warn("respawn marker without zone binding", zap.String("zone", h.Label))
		return NoOpinion
	}

	h.Position = b.SpawnPoint(m.intn(len(b.Zone.Offsets)))
	if m.recorder != nil {
		m.recorder.RecordRespawn(p, h)
	}
	m.log.Debug("respawn at zone",
		zap.Uint64("player", uint64(p)),
		zap.String("zone", h.Label),
		zap.Float64("x", h.Position.X()),
		zap.Float64("y", h.Position.Y()),
		zap.Float64("z", h.Position.Z()))
	return Handled
}

// RemovalRequested denies removal of p's own teleport markers.
func (m *Manager) RemovalRequested(p PlayerID, id NetID) Result {
	if m.owned(p, id) == nil {
		return NoOpinion
	}
	if m.recorder != nil {
		m.recorder.RecordRemovalBlocked(p, id)
	}
	m.log.Info("blocked removal of teleport marker",
		zap.Uint64("player", uint64(p)),
		zap.Uint64("net_id", uint64(id)))
	return Suppressed
}

// Teardown destroys every marker, assigned or pooled, and clears all state.
func (m *Manager) Teardown() {
	destroyed := 0
	for p, handles := range m.assigned {
		for _, h := range handles {
			m.host.RemoveActiveMarker(h)
			m.host.DestroyMarker(h.ID)
			destroyed++
		}
		delete(m.assigned, p)
	}
	for i, h := range m.pool {
		m.host.DestroyMarker(h.ID)
		m.pool[i] = nil
		destroyed++
	}
	m.pool = nil
	clear(m.live)

	m.log.Info("respawn markers destroyed", zap.Int("count", destroyed))
}

// Assignment returns a copy of p's markers in zone order.
func (m *Manager) Assignment(p PlayerID) []Handle {
	handles, ok := m.assigned[p]
	if !ok {
		return nil
	}
	out := make([]Handle, len(handles))
	for i, h := range handles {
		out[i] = *h
	}
	return out
}

// Handle returns a copy of the live marker with identity id.
func (m *Manager) Handle(id NetID) (Handle, bool) {
	h, ok := m.live[id]
	if !ok {
		return Handle{}, false
	}
	return *h, true
}

// PoolSize returns the number of unowned markers awaiting reuse.
func (m *Manager) PoolSize() int { return len(m.pool) }

// LiveCount returns the number of markers created and not yet destroyed.
func (m *Manager) LiveCount() int { return len(m.live) }

// PlayerCount returns the number of players holding markers.
func (m *Manager) PlayerCount() int { return len(m.assigned) }
