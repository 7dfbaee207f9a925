package world

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/compoundtp/internal/core/ecs"
	"github.com/l1jgo/compoundtp/internal/landmark"
	"github.com/l1jgo/compoundtp/internal/respawn"
)

// PlayerInfo holds in-memory data for a player currently connected.
// Accessed only from the game loop goroutine, no locks needed.
type PlayerInfo struct {
	ID          respawn.PlayerID
	Name        string
	Position    mgl64.Vec3
	Dead        bool // true between death and the respawn choice
	ConnectedAt time.Time
}

// Marker is the engine object behind a respawn point, stored as an ECS component.
// Its ECS entity id doubles as the network identity.
type Marker struct {
	ID  respawn.NetID
	Bed *respawn.Handle // non-nil for player-placed beds
}

// State is the in-process host: connected players, world monuments, marker
// objects and the active respawn marker list shown on the death screen.
// Single-goroutine access only (game loop).
type State struct {
	players     map[respawn.PlayerID]*PlayerInfo
	playerOrder []respawn.PlayerID // connect order

	landmarks []landmark.Landmark

	entities *ecs.World
	markers  *ecs.PtrComponentStore[Marker]
	active   []*respawn.Handle // every listed respawn marker, plugin or player-placed
}

func NewState(landmarks []landmark.Landmark) *State {
	s := &State{
		players:   make(map[respawn.PlayerID]*PlayerInfo),
		landmarks: landmarks,
		entities:  ecs.NewWorld(),
		markers:   ecs.NewPtrComponentStore[Marker](),
	}
	s.entities.Register(s.markers)
	return s
}

// Entities exposes the ECS world so CleanupSystem can flush destroyed markers.
func (s *State) Entities() *ecs.World { return s.entities }

// Landmarks returns the world monuments in scan order.
func (s *State) Landmarks() []landmark.Landmark {
	out := make([]landmark.Landmark, len(s.landmarks))
	copy(out, s.landmarks)
	return out
}

// ── Players ──

// AddPlayer registers a connected player. Returns false if already present.
func (s *State) AddPlayer(p *PlayerInfo) bool {
	if _, ok := s.players[p.ID]; ok {
		return false
	}
	s.players[p.ID] = p
	s.playerOrder = append(s.playerOrder, p.ID)
	return true
}

// RemovePlayer removes a player from the world.
func (s *State) RemovePlayer(id respawn.PlayerID) *PlayerInfo {
	p, ok := s.players[id]
	if !ok {
		return nil
	}
	delete(s.players, id)
	for i, pid := range s.playerOrder {
		if pid == id {
			s.playerOrder = append(s.playerOrder[:i], s.playerOrder[i+1:]...)
			break
		}
	}
	return p
}

// GetPlayer returns a connected player by id.
func (s *State) GetPlayer(id respawn.PlayerID) *PlayerInfo {
	return s.players[id]
}

// ActivePlayers returns the ids of all connected players in connect order.
func (s *State) ActivePlayers() []respawn.PlayerID {
	out := make([]respawn.PlayerID, len(s.playerOrder))
	copy(out, s.playerOrder)
	return out
}

// PlayerCount returns the number of connected players.
func (s *State) PlayerCount() int {
	return len(s.players)
}

// ── Markers (respawn.Host) ──

// CreateMarker spawns a marker entity and returns its network identity.
func (s *State) CreateMarker() respawn.NetID {
	id := s.entities.CreateEntity()
	s.markers.Set(id, &Marker{ID: respawn.NetID(id)})
	return respawn.NetID(id)
}

// DestroyMarker unlists the marker and queues its entity for end-of-tick cleanup.
func (s *State) DestroyMarker(id respawn.NetID) {
	s.unlist(id)
	s.entities.MarkForDestruction(ecs.EntityID(id))
}

// AddActiveMarker lists h on the death screen of its owner.
func (s *State) AddActiveMarker(h *respawn.Handle) {
	for _, a := range s.active {
		if a.ID == h.ID {
			return
		}
	}
	s.active = append(s.active, h)
}

// RemoveActiveMarker takes h off the death screen.
func (s *State) RemoveActiveMarker(h *respawn.Handle) {
	s.unlist(h.ID)
}

func (s *State) unlist(id respawn.NetID) {
	for i, a := range s.active {
		if a.ID == id {
			s.active = append(s.active[:i], s.active[i+1:]...)
			return
		}
	}
}

// PlaceBed deploys a player-owned sleeping bag that the teleport plugin does
// not manage.
func (s *State) PlaceBed(owner respawn.PlayerID, pos mgl64.Vec3, cooldownSeconds int) respawn.NetID {
	id := s.CreateMarker()
	bed := &respawn.Handle{
		ID:              id,
		Owner:           owner,
		DeployerID:      owner,
		Label:           "Sleeping Bag",
		Position:        pos,
		CooldownSeconds: cooldownSeconds,
	}
	if m, ok := s.markers.Get(ecs.EntityID(id)); ok {
		m.Bed = bed
	}
	s.AddActiveMarker(bed)
	return id
}

// IsBed reports whether marker id is a player-placed bed rather than a marker
// built through CreateMarker by a plugin.
func (s *State) IsBed(id respawn.NetID) bool {
	m, ok := s.markers.Get(ecs.EntityID(id))
	return ok && m.Bed != nil
}

// RespawnOptions returns the listed markers owned by player, in listing order.
func (s *State) RespawnOptions(player respawn.PlayerID) []*respawn.Handle {
	var out []*respawn.Handle
	for _, a := range s.active {
		if a.Owner == player {
			out = append(out, a)
		}
	}
	return out
}

// FindOption returns the id of player's listed marker with the given label.
func (s *State) FindOption(player respawn.PlayerID, label string) (respawn.NetID, bool) {
	for _, a := range s.RespawnOptions(player) {
		if a.Label == label {
			return a.ID, true
		}
	}
	return 0, false
}

// SpawnAtMarker revives player at the current position of the listed marker id.
// It runs after the respawn hook, so a plugin that moved the marker decides
// where the player lands.
func (s *State) SpawnAtMarker(player respawn.PlayerID, id respawn.NetID) (mgl64.Vec3, bool) {
	p := s.players[player]
	if p == nil {
		return mgl64.Vec3{}, false
	}
	for _, a := range s.active {
		if a.ID == id && a.Owner == player {
			p.Position = a.Position
			p.Dead = false
			return p.Position, true
		}
	}
	return mgl64.Vec3{}, false
}

// ActiveMarkerCount returns the number of listed markers.
func (s *State) ActiveMarkerCount() int {
	return len(s.active)
}

// MarkerCount returns the number of marker entities not yet destroyed.
func (s *State) MarkerCount() int {
	return s.markers.Len()
}
