package respawn

import "github.com/go-gl/mathgl/mgl64"

// PlayerID is the host's stable user id. Zero means "no player".
type PlayerID uint64

// NetID is the network identity of a marker object. Zero is never allocated.
type NetID uint64

// Handle is one reusable respawn marker. While assigned it belongs to exactly one
// player for exactly one zone; otherwise it waits in the manager's pool.
type Handle struct {
	ID              NetID
	Owner           PlayerID
	DeployerID      PlayerID // player whose connect caused the marker to be built
	Label           string   // zone name shown on the death screen
	Position        mgl64.Vec3
	CooldownSeconds int
	UnlockTime      float64
}

// Owned reports whether the handle is assigned to a player.
func (h *Handle) Owned() bool { return h.Owner != 0 }

// Host is the game engine side of the marker lifecycle.
type Host interface {
	// CreateMarker constructs a marker object and allocates its network identity.
	CreateMarker() NetID
	// DestroyMarker kills the marker object behind id.
	DestroyMarker(id NetID)
	// AddActiveMarker lists h in the base game's respawn UI.
	AddActiveMarker(h *Handle)
	// RemoveActiveMarker removes h from the base game's respawn UI.
	RemoveActiveMarker(h *Handle)
}

// Recorder receives audit events. Implementations must not block.
type Recorder interface {
	RecordRespawn(player PlayerID, h *Handle)
	RecordRemovalBlocked(player PlayerID, id NetID)
}
