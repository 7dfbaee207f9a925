// Package zone defines the respawn destinations offered on the death screen and
// the hand-placed spawn points around each destination's landmark.
package zone

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/l1jgo/compoundtp/internal/config"
)

// Kind identifies which offset table a zone uses.
type Kind int

const (
	KindOutpost Kind = iota
	KindBandit
)

func (k Kind) String() string {
	switch k {
	case KindOutpost:
		return "outpost"
	case KindBandit:
		return "bandit"
	}
	return "unknown"
}

// Zone is a logical respawn destination. Immutable after startup.
type Zone struct {
	Kind     Kind
	Name     string // display label, burned into the marker's nice name
	Enabled  bool
	Landmark string // name pattern matched against world landmarks
	Offsets  []mgl64.Vec3
}

// Local-space spawn points around the compound, rotated with the monument.
var outpostOffsets = []mgl64.Vec3{
	{-6.4, 0, 3.5},
	{-12.4, 0, 17.5},
	{27.4, 3, -17.5},
	{24.4, 0, 10.5},
	{23.4, 0, 15.5},
	{12.4, 0, 17.5},
	{-15.4, 0, 17.5},
	{-26.4, 2.55, 28.5},
}

var banditOffsets = []mgl64.Vec3{
	{-2.4, 4, 3.5},
	{-12.4, 3, 17.5},
	{27.4, 3, -17.5},
	{24.4, 0, 10.5},
	{23.4, 0, 15.5},
	{16.4, 2, 17.5},
	{-15.4, 1, 17.5},
	{-26.4, 2.55, 28.5},
}

// Offsets returns a copy of the compiled-in offset table for k.
func Offsets(k Kind) []mgl64.Vec3 {
	var src []mgl64.Vec3
	switch k {
	case KindBandit:
		src = banditOffsets
	default:
		src = outpostOffsets
	}
	out := make([]mgl64.Vec3, len(src))
	copy(out, src)
	return out
}

// FromConfig builds the zone list in the fixed order outpost, bandit.
// Disabled zones are included with Enabled=false; the landmark registry skips them.
func FromConfig(cfg config.RespawnConfig) []Zone {
	return []Zone{
		{
			Kind:     KindOutpost,
			Name:     cfg.OutpostLabel,
			Enabled:  cfg.OutpostEnabled,
			Landmark: cfg.OutpostLandmark,
			Offsets:  Offsets(KindOutpost),
		},
		{
			Kind:     KindBandit,
			Name:     cfg.BanditLabel,
			Enabled:  cfg.BanditEnabled,
			Landmark: cfg.BanditLandmark,
			Offsets:  Offsets(KindBandit),
		},
	}
}
